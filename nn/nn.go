// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/resnet/internal/nn"
	"github.com/born-ml/resnet/tensor"
)

// ErrInvalidConfig is returned when an architecture is constructed from
// parameters that cannot form a valid network.
var ErrInvalidConfig = nn.ErrInvalidConfig

// BatchNormEpsilon is the stability constant used by every batch norm in the network.
const BatchNormEpsilon = nn.BatchNormEpsilon

// Layers

// Conv2D represents a 2D convolutional layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a new 2D convolutional layer.
//
// Example:
//
//	backend := cpu.New()
//	conv := nn.NewConv2D(3, 64, 7, 7, 2, 3, true, backend)  // in=3, out=64, kernel=7x7, stride=2, padding=3, useBias=true
func NewConv2D[B tensor.Backend](
	inChannels, outChannels int,
	kernelH, kernelW int,
	stride, padding int,
	useBias bool,
	backend B,
) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding, useBias, backend)
}

// BatchNorm2D represents inference-mode batch normalization over channels.
type BatchNorm2D[B tensor.Backend] = nn.BatchNorm2D[B]

// NewBatchNorm2D creates a batch norm with gamma=1, beta=0, running mean 0 and running variance 1.
//
// Example:
//
//	bn := nn.NewBatchNorm2D(64, nn.BatchNormEpsilon, backend)
func NewBatchNorm2D[B tensor.Backend](numFeatures int, epsilon float32, backend B) *BatchNorm2D[B] {
	return nn.NewBatchNorm2D(numFeatures, epsilon, backend)
}

// MaxPool2D represents a 2D max pooling layer.
type MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

// NewMaxPool2D creates a new 2D max pooling layer.
//
// Example:
//
//	pool := nn.NewMaxPool2D(2, 2, backend)  // 2x2 window, stride 2
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int, backend B) *MaxPool2D[B] {
	return nn.NewMaxPool2D(kernelSize, stride, backend)
}

// Activations

// ReLU represents the ReLU activation.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation. With inplace set, Forward overwrites its input.
func NewReLU[B tensor.Backend](inplace bool) *ReLU[B] {
	return nn.NewReLU[B](inplace)
}

// Containers

// Sequential chains modules; each output feeds the next module.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a new Sequential container.
//
// Example:
//
//	model := nn.NewSequential[Backend](backbone, head)
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Architecture

// ConvUnitConfig configures a ConvUnit.
type ConvUnitConfig = nn.ConvUnitConfig

// ConvUnit is Conv2D(3x3) -> BatchNorm2D -> ReLU -> optional MaxPool2D(2x2).
type ConvUnit[B tensor.Backend] = nn.ConvUnit[B]

// NewConvUnit creates a ConvUnit. Returns ErrInvalidConfig for non-positive channels.
//
// Example:
//
//	unit, err := nn.NewConvUnit(nn.ConvUnitConfig{InChannels: 64, OutChannels: 128, Pool: true}, backend)
func NewConvUnit[B tensor.Backend](cfg ConvUnitConfig, backend B) (*ConvUnit[B], error) {
	return nn.NewConvUnit(cfg, backend)
}

// ResidualBlock computes second(first(x)) + x with two C -> C ConvUnits.
type ResidualBlock[B tensor.Backend] = nn.ResidualBlock[B]

// NewResidualBlock creates a residual block of the given width.
func NewResidualBlock[B tensor.Backend](channels int, backend B) (*ResidualBlock[B], error) {
	return nn.NewResidualBlock(channels, backend)
}

// NewResidualBlockFromUnits builds a residual block from existing units.
// Returns ErrInvalidConfig unless both units keep the channel count and do not pool.
func NewResidualBlockFromUnits[B tensor.Backend](first, second *ConvUnit[B]) (*ResidualBlock[B], error) {
	return nn.NewResidualBlockFromUnits(first, second)
}

// Stage is one resolution level of the backbone.
type Stage[B tensor.Backend] = nn.Stage[B]

// StageHook observes stage outputs during Backbone.ForwardWithHook.
type StageHook[B tensor.Backend] = nn.StageHook[B]

// Backbone is the 18-layer residual feature extractor.
type Backbone[B tensor.Backend] = nn.Backbone[B]

// NewBackbone creates the backbone with freshly initialized parameters.
//
// Example:
//
//	backend := cpu.New()
//	backbone, err := nn.NewBackbone(backend)
//	features, err := backbone.Forward(images) // [N, 3, 224, 224] -> [N, 512, 7, 7]
func NewBackbone[B tensor.Backend](backend B) (*Backbone[B], error) {
	return nn.NewBackbone(backend)
}

// Initialization

// Xavier returns a tensor drawn from the Glorot uniform distribution.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend)
}

// Zeros creates a tensor filled with zeros.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones creates a tensor filled with ones.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}
