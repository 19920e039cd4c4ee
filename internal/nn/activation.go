package nn

import (
	"github.com/born-ml/resnet/internal/tensor"
)

// ReLU is a Rectified Linear Unit activation module.
//
// Applies the element-wise function: f(x) = max(0, x)
//
// With inplace set, Forward overwrites its input and returns it, saving one
// allocation. Only use that when the input is an intermediate nobody else
// holds, as ConvUnit does for its batch-norm output.
//
// Example:
//
//	relu := nn.NewReLU[Backend](false)
//	output, err := relu.Forward(input) // All negative values become 0
type ReLU[B tensor.Backend] struct {
	inplace bool
}

// NewReLU creates a new ReLU activation module.
func NewReLU[B tensor.Backend](inplace bool) *ReLU[B] {
	return &ReLU[B]{inplace: inplace}
}

// Forward applies ReLU activation: f(x) = max(0, x).
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	backend := input.Backend()
	resultRaw, err := backend.ReLU(input.Raw(), r.inplace)
	if err != nil {
		return nil, err
	}
	if r.inplace {
		return input, nil
	}
	return tensor.New[float32, B](resultRaw, backend), nil
}

// Inplace reports whether Forward overwrites its input.
func (r *ReLU[B]) Inplace() bool {
	return r.inplace
}

// Parameters returns an empty slice (ReLU has no trainable parameters).
func (r *ReLU[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty map.
func (r *ReLU[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (r *ReLU[B]) LoadStateDict(map[string]*tensor.RawTensor) error {
	return nil
}

// String returns a string representation of the layer.
func (r *ReLU[B]) String() string {
	if r.inplace {
		return "ReLU(inplace=true)"
	}
	return "ReLU()"
}
