// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/resnet/internal/tensor"

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for the network's primitive operators.
//
// Implementations:
//   - backend/cpu: Pure Go, parallel across batch and channels
//   - backend/webgpu: GPU compute via WebGPU (windows)
//
// Example:
//
//	import (
//	    "github.com/born-ml/resnet/tensor"
//	    "github.com/born-ml/resnet/backend/cpu"
//	)
//
//	backend := cpu.New()
//	x := tensor.Ones[float32](tensor.Shape{1, 64, 56, 56}, backend)
//	y, err := x.Add(x)  // Uses backend.Add under the hood
type Backend interface {
	// Element-wise operations.
	Add(a, b *RawTensor) (*RawTensor, error)             // Element-wise addition of equal shapes.
	ReLU(x *RawTensor, inplace bool) (*RawTensor, error) // max(0, x), optionally written into x.

	// Convolutional operations.
	Conv2D(input, kernel, bias *RawTensor, stride, padding int) (*RawTensor, error)         // 2D convolution with optional bias.
	BatchNorm2D(x, gamma, beta, mean, variance *RawTensor, eps float64) (*RawTensor, error) // Per-channel normalization with running statistics.
	MaxPool2D(input *RawTensor, kernelSize, stride int) (*RawTensor, error)                 // 2D max pooling.

	// Metadata.
	Name() string   // Backend name (e.g., "CPU", "WebGPU").
	Device() Device // Device type.
}

// Compile-time check that internal Backend implements public Backend.
var _ Backend = tensor.Backend(nil)
