// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for the network's operators.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Im2col algorithm for convolutions
//   - Float32 and Float64 support
//   - Inference batch normalization with folded scale and shift
//   - Goroutine fan-out across output channels and batch entries
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/resnet/backend/cpu"
//	    "github.com/born-ml/resnet/nn"
//	    "github.com/born-ml/resnet/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    backbone, err := nn.NewBackbone(backend)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    x := tensor.Randn[float32](tensor.Shape{1, 3, 224, 224}, backend)
//	    features, err := backbone.Forward(x) // [1, 512, 7, 7]
//	}
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Each operator call
// allocates its own output and does not share mutable state.
package cpu
