package nn

import (
	"fmt"

	"github.com/born-ml/resnet/internal/tensor"
)

// MaxPool2D is a 2D max pooling layer.
//
// Max pooling reduces spatial dimensions by taking the maximum value
// in each window. Unlike Conv2D, MaxPool2D has no learnable parameters.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_height, out_width]
//
// Where:
//
//	out_height = (height - kernelSize) / stride + 1
//	out_width = (width - kernelSize) / stride + 1
//
// Odd sizes are floored: a trailing row or column that does not fill a
// window is dropped.
//
// Example:
//
//	// Create 2x2 max pooling with stride 2
//	pool := nn.NewMaxPool2D(2, 2, backend)
//
//	input := tensor.Randn[float32](tensor.Shape{1, 64, 112, 112}, backend)
//	output, err := pool.Forward(input) // [1, 64, 56, 56]
type MaxPool2D[B tensor.Backend] struct {
	kernelSize int
	stride     int
	backend    B
}

// NewMaxPool2D creates a new 2D max pooling layer.
//
// Parameters:
//   - kernelSize: Size of pooling window (square)
//   - stride: Stride for pooling (typically same as kernelSize for non-overlapping)
//   - backend: Backend for computation
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int, backend B) *MaxPool2D[B] {
	if kernelSize <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel size %d", kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid stride %d", stride))
	}

	return &MaxPool2D[B]{
		kernelSize: kernelSize,
		stride:     stride,
		backend:    backend,
	}
}

// Forward performs the forward pass.
//
// Input: [batch, channels, height, width]
// Output: [batch, channels, out_height, out_width].
func (m *MaxPool2D[B]) Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	outputRaw, err := m.backend.MaxPool2D(input.Raw(), m.kernelSize, m.stride)
	if err != nil {
		return nil, err
	}
	return tensor.New[float32, B](outputRaw, m.backend), nil
}

// Parameters returns all trainable parameters (empty for MaxPool2D).
func (m *MaxPool2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}

// StateDict returns an empty map.
func (m *MaxPool2D[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (m *MaxPool2D[B]) LoadStateDict(map[string]*tensor.RawTensor) error {
	return nil
}

// String returns a string representation of the layer.
func (m *MaxPool2D[B]) String() string {
	return fmt.Sprintf("MaxPool2D(kernel_size=%d, stride=%d)",
		m.kernelSize, m.stride)
}

// KernelSize returns the pooling kernel size.
func (m *MaxPool2D[B]) KernelSize() int {
	return m.kernelSize
}

// Stride returns the stride.
func (m *MaxPool2D[B]) Stride() int {
	return m.stride
}

// OutputShape infers the output shape for an input shape without computing anything.
func (m *MaxPool2D[B]) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	n, c, h, w, err := in.NCHW("maxpool2d")
	if err != nil {
		return nil, err
	}
	if m.kernelSize > h || m.kernelSize > w {
		return nil, &tensor.ShapeError{
			Op:      "maxpool2d",
			Got:     in.Clone(),
			Details: fmt.Sprintf("kernel size %d too large for input %dx%d", m.kernelSize, h, w),
		}
	}
	return tensor.Shape{
		n, c,
		tensor.ConvOutputSize(h, m.kernelSize, m.stride, 0),
		tensor.ConvOutputSize(w, m.kernelSize, m.stride, 0),
	}, nil
}
