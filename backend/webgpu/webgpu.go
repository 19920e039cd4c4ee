//go:build windows

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for GPU-accelerated inference.
//
// Each operator runs as a WGSL compute shader. Operands are uploaded and
// results read back per call, so a backbone built on this backend produces
// the same tensors as one built on the CPU backend.
//
// Example:
//
//	import (
//	    "github.com/born-ml/resnet/backend/webgpu"
//	    "github.com/born-ml/resnet/nn"
//	    "github.com/born-ml/resnet/tensor"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    model, err := nn.NewBackbone(gpu)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    x := tensor.Randn[float32](tensor.Shape{1, 3, 224, 224}, gpu)
//	    features, err := model.Forward(x)
//	}
package webgpu

import (
	internalwebgpu "github.com/born-ml/resnet/internal/backend/webgpu"
	"github.com/born-ml/resnet/tensor"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new WebGPU backend.
//
// Call Release() when done to free GPU resources.
// Returns an error if WebGPU initialization fails (e.g., no compatible GPU).
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
//
// Useful for falling back to the CPU backend:
//
//	if webgpu.IsAvailable() {
//	    gpu, _ := webgpu.New()
//	    model, err = nn.NewBackbone(gpu)
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
