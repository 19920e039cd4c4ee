package nn

import (
	"fmt"

	"github.com/born-ml/resnet/internal/tensor"
)

// ConvUnit hyperparameters. The kernel is always 3x3 with stride 1 and
// padding 1; the optional pool is always 2x2 with stride 2.
const (
	unitKernel  = 3
	unitPadding = 1
	poolKernel  = 2
	poolStride  = 2

	// BatchNormEpsilon is the stability constant used by every batch norm in the network.
	BatchNormEpsilon = 1e-5
)

// ConvUnitConfig configures a ConvUnit.
type ConvUnitConfig struct {
	InChannels  int  // input channel count, > 0
	OutChannels int  // output channel count, > 0
	Pool        bool // halve height and width with a 2x2 max pool after the activation
}

// Validate checks the channel counts.
func (c ConvUnitConfig) Validate() error {
	if c.InChannels <= 0 || c.OutChannels <= 0 {
		return fmt.Errorf("%w: conv unit channels in=%d, out=%d must be positive",
			ErrInvalidConfig, c.InChannels, c.OutChannels)
	}
	return nil
}

// ConvUnit is the network's basic building block:
//
//	Conv2D(3x3, stride 1, padding 1) -> BatchNorm2D -> ReLU -> [MaxPool2D(2x2, stride 2)]
//
// Shapes:
//   - Pool=false: [N, C_in, H, W] -> [N, C_out, H, W]
//   - Pool=true:  [N, C_in, H, W] -> [N, C_out, H/2, W/2] (floored)
//
// The activation runs in place on the batch-norm output, which only the unit
// itself holds, so the caller's input is never modified.
type ConvUnit[B tensor.Backend] struct {
	cfg  ConvUnitConfig
	conv *Conv2D[B]
	bn   *BatchNorm2D[B]
	relu *ReLU[B]
	pool *MaxPool2D[B] // nil when cfg.Pool is false
}

// NewConvUnit creates a ConvUnit with freshly initialized parameters.
//
// Returns ErrInvalidConfig if the channel counts are not positive.
func NewConvUnit[B tensor.Backend](cfg ConvUnitConfig, backend B) (*ConvUnit[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	u := &ConvUnit[B]{
		cfg:  cfg,
		conv: NewConv2D(cfg.InChannels, cfg.OutChannels, unitKernel, unitKernel, 1, unitPadding, true, backend),
		bn:   NewBatchNorm2D(cfg.OutChannels, BatchNormEpsilon, backend),
		relu: NewReLU[B](true),
	}
	if cfg.Pool {
		u.pool = NewMaxPool2D(poolKernel, poolStride, backend)
	}
	return u, nil
}

// Forward runs conv, batch norm, activation and the optional pool.
func (u *ConvUnit[B]) Forward(x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	h, err := u.conv.Forward(x)
	if err != nil {
		return nil, err
	}
	if h, err = u.bn.Forward(h); err != nil {
		return nil, err
	}
	if h, err = u.relu.Forward(h); err != nil {
		return nil, err
	}
	if u.pool != nil {
		if h, err = u.pool.Forward(h); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// OutputShape infers the output shape for an input shape without computing anything.
func (u *ConvUnit[B]) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	out, err := u.conv.OutputShape(in)
	if err != nil {
		return nil, err
	}
	if u.pool != nil {
		return u.pool.OutputShape(out)
	}
	return out, nil
}

// Config returns the unit's configuration.
func (u *ConvUnit[B]) Config() ConvUnitConfig {
	return u.cfg
}

// InChannels returns the number of input channels.
func (u *ConvUnit[B]) InChannels() int {
	return u.cfg.InChannels
}

// OutChannels returns the number of output channels.
func (u *ConvUnit[B]) OutChannels() int {
	return u.cfg.OutChannels
}

// Pool reports whether the unit ends with a max pool.
func (u *ConvUnit[B]) Pool() bool {
	return u.cfg.Pool
}

// Conv returns the convolution layer.
func (u *ConvUnit[B]) Conv() *Conv2D[B] {
	return u.conv
}

// BatchNorm returns the batch normalization layer.
func (u *ConvUnit[B]) BatchNorm() *BatchNorm2D[B] {
	return u.bn
}

// Parameters returns conv weight and bias, then batch-norm gamma and beta.
func (u *ConvUnit[B]) Parameters() []*Parameter[B] {
	return append(u.conv.Parameters(), u.bn.Parameters()...)
}

// Buffers returns the batch-norm running statistics.
func (u *ConvUnit[B]) Buffers() []*Parameter[B] {
	return u.bn.Buffers()
}

// StateDict returns entries under "conv." and "bn.".
func (u *ConvUnit[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	mergeStateDict(stateDict, "conv", u.conv.StateDict())
	mergeStateDict(stateDict, "bn", u.bn.StateDict())
	return stateDict
}

// LoadStateDict loads entries under "conv." and "bn.".
func (u *ConvUnit[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := u.conv.LoadStateDict(subStateDict(stateDict, "conv")); err != nil {
		return fmt.Errorf("conv: %w", err)
	}
	if err := u.bn.LoadStateDict(subStateDict(stateDict, "bn")); err != nil {
		return fmt.Errorf("bn: %w", err)
	}
	return nil
}

// String returns a string representation of the unit.
func (u *ConvUnit[B]) String() string {
	s := fmt.Sprintf("ConvUnit(%d -> %d", u.cfg.InChannels, u.cfg.OutChannels)
	if u.cfg.Pool {
		s += ", pool"
	}
	return s + ")"
}
