// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/resnet/internal/nn"
	"github.com/born-ml/resnet/tensor"
)

// Module is the base interface for all neural network components.
//
// Every NN module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all learned parameters
//   - StateDict: Export parameters and buffers by name
//   - LoadStateDict: Import parameters and buffers by name
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential[Backend](
//	    backbone,
//	    head,
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
//
// Forward returns a *tensor.ShapeError (wrapping tensor.ErrShapeMismatch)
// when the input does not fit the module; no partial output is returned.
// StateDict keys are dotted paths such as "stage2.entry.conv.weight".
type Module[B tensor.Backend] = nn.Module[B]

// Parameter represents a named tensor owned by a layer.
//
// Methods:
//
//	Name() string
//	    Returns the parameter name (e.g., "weight", "running_var").
//
//	Tensor() *tensor.Tensor[float32, B]
//	    Returns the parameter tensor.
//
//	NumElements() int
//	    Returns the number of scalar values.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// CountParameters returns the total number of scalar values in params.
func CountParameters[B tensor.Backend](params []*Parameter[B]) int {
	return nn.CountParameters(params)
}
