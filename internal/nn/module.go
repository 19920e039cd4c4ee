// Package nn implements neural network modules for the ResNet backbone.
//
// This package provides building blocks for constructing convolutional networks:
//   - Module interface: Base interface for all NN components
//   - Parameter: Named learned tensors (and running-statistics buffers)
//   - Layers: Conv2D, BatchNorm2D, ReLU, MaxPool2D
//   - Sequential: Container for stacking modules
//   - Architecture: ConvUnit, ResidualBlock, Stage, Backbone
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
// All modules are inference-only: Forward never updates parameters.
package nn

import (
	"github.com/born-ml/resnet/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Every NN module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all learned parameters
//   - StateDict / LoadStateDict: Exchange values by name
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential[Backend](
//	    backbone,
//	    head,
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	//
	// The input tensor should have the appropriate shape for this module.
	// For example, Conv2D expects [batch, in_channels, height, width].
	//
	// On error no partial output is returned.
	Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error)

	// Parameters returns all learned parameters of this module.
	//
	// This includes weights, biases, and any nested module parameters.
	// Returns an empty slice for modules without parameters
	// (e.g., activation functions).
	Parameters() []*Parameter[B]

	// StateDict returns a map of names to raw tensors, covering parameters
	// and running-statistics buffers.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies values from a state dictionary into the module.
	//
	// Returns an error if a required entry is missing or has wrong shape.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}
