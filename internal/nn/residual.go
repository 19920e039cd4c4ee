package nn

import (
	"fmt"

	"github.com/born-ml/resnet/internal/tensor"
)

// ResidualBlock adds its input back onto the output of two ConvUnits:
//
//	out = second(first(x)) + x
//
// Both units map C channels to C channels without pooling, so the skip
// connection needs no projection and the output shape equals the input shape.
// x is never modified.
type ResidualBlock[B tensor.Backend] struct {
	channels int
	first    *ConvUnit[B]
	second   *ConvUnit[B]
	backend  B
}

// NewResidualBlock creates a block of two fresh C -> C ConvUnits.
//
// Returns ErrInvalidConfig if channels is not positive.
func NewResidualBlock[B tensor.Backend](channels int, backend B) (*ResidualBlock[B], error) {
	cfg := ConvUnitConfig{InChannels: channels, OutChannels: channels}
	first, err := NewConvUnit(cfg, backend)
	if err != nil {
		return nil, fmt.Errorf("residual block: %w", err)
	}
	second, err := NewConvUnit(cfg, backend)
	if err != nil {
		return nil, fmt.Errorf("residual block: %w", err)
	}
	return NewResidualBlockFromUnits(first, second)
}

// NewResidualBlockFromUnits builds a block from existing units.
//
// Returns ErrInvalidConfig unless both units keep the same channel count C
// on input and output and neither pools.
func NewResidualBlockFromUnits[B tensor.Backend](first, second *ConvUnit[B]) (*ResidualBlock[B], error) {
	if first == nil || second == nil {
		return nil, fmt.Errorf("%w: residual block needs two units", ErrInvalidConfig)
	}
	c := first.InChannels()
	for i, u := range []*ConvUnit[B]{first, second} {
		if u.InChannels() != c || u.OutChannels() != c {
			return nil, fmt.Errorf("%w: residual block unit %d maps %d -> %d channels, want %d -> %d",
				ErrInvalidConfig, i, u.InChannels(), u.OutChannels(), c, c)
		}
		if u.Pool() {
			return nil, fmt.Errorf("%w: residual block unit %d pools", ErrInvalidConfig, i)
		}
	}

	return &ResidualBlock[B]{
		channels: c,
		first:    first,
		second:   second,
		backend:  first.conv.backend,
	}, nil
}

// Forward computes second(first(x)) + x.
func (r *ResidualBlock[B]) Forward(x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	h, err := r.first.Forward(x)
	if err != nil {
		return nil, fmt.Errorf("first unit: %w", err)
	}
	if h, err = r.second.Forward(h); err != nil {
		return nil, fmt.Errorf("second unit: %w", err)
	}

	out, err := r.backend.Add(h.Raw(), x.Raw())
	if err != nil {
		return nil, fmt.Errorf("skip: %w", err)
	}
	return tensor.New[float32, B](out, r.backend), nil
}

// OutputShape infers the output shape; it equals the input shape for valid inputs.
func (r *ResidualBlock[B]) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	out, err := r.first.OutputShape(in)
	if err != nil {
		return nil, err
	}
	return r.second.OutputShape(out)
}

// Channels returns the block's channel count C.
func (r *ResidualBlock[B]) Channels() int {
	return r.channels
}

// Units returns the two ConvUnits in application order.
func (r *ResidualBlock[B]) Units() (first, second *ConvUnit[B]) {
	return r.first, r.second
}

// Parameters returns the parameters of both units.
func (r *ResidualBlock[B]) Parameters() []*Parameter[B] {
	return append(r.first.Parameters(), r.second.Parameters()...)
}

// Buffers returns the running statistics of both units.
func (r *ResidualBlock[B]) Buffers() []*Parameter[B] {
	return append(r.first.Buffers(), r.second.Buffers()...)
}

// StateDict returns entries under "first." and "second.".
func (r *ResidualBlock[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	mergeStateDict(stateDict, "first", r.first.StateDict())
	mergeStateDict(stateDict, "second", r.second.StateDict())
	return stateDict
}

// LoadStateDict loads entries under "first." and "second.".
func (r *ResidualBlock[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := r.first.LoadStateDict(subStateDict(stateDict, "first")); err != nil {
		return fmt.Errorf("first: %w", err)
	}
	if err := r.second.LoadStateDict(subStateDict(stateDict, "second")); err != nil {
		return fmt.Errorf("second: %w", err)
	}
	return nil
}

// String returns a string representation of the block.
func (r *ResidualBlock[B]) String() string {
	return fmt.Sprintf("ResidualBlock(%d, %s, %s)", r.channels, r.first, r.second)
}
