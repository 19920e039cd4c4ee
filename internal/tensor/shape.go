package tensor

import "fmt"

// Shape represents the dimensions of a tensor.
//
// Image tensors use the channel-first layout [batch, channels, height, width].
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// NCHW splits a 4D image shape into batch, channels, height and width.
// Returns a ShapeError if the shape is not 4D.
func (s Shape) NCHW(op string) (n, c, h, w int, err error) {
	if len(s) != 4 {
		return 0, 0, 0, 0, &ShapeError{
			Op:      op,
			Got:     s.Clone(),
			Details: fmt.Sprintf("expected 4D input [N,C,H,W], got %dD", len(s)),
		}
	}
	return s[0], s[1], s[2], s[3], nil
}

// ConvOutputSize returns the spatial output size of a convolution or pooling window:
//
//	out = (in + 2*padding - kernel) / stride + 1
//
// Integer division floors, so sizes that do not divide evenly are truncated.
func ConvOutputSize(in, kernel, stride, padding int) int {
	return (in+2*padding-kernel)/stride + 1
}
