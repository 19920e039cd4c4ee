// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and the ResNet-18 backbone.
//
// # Overview
//
// This package contains:
//   - Layers: Conv2D, BatchNorm2D, MaxPool2D, ReLU
//   - Containers: Sequential, Module interface, Parameter
//   - Architecture: ConvUnit, ResidualBlock, Stage, Backbone
//   - Initialization: Xavier, Zeros, Ones
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
//	    images := tensor.Randn[float32](tensor.Shape{8, 3, 224, 224}, backend)
//	    features, err := backbone.Forward(images) // [8, 512, 7, 7]
//	}
//
// # Architecture
//
// ConvUnit: Conv2D(3x3, stride 1, padding 1) -> BatchNorm2D -> ReLU -> optional MaxPool2D(2x2)
//
// ResidualBlock: out = unit2(unit1(x)) + x, channel count unchanged
//
// Backbone: 7x7 stride-2 stem, then four stages at 64, 128, 256 and 512
// channels, each halving the spatial size. Height and width shrink by 32 overall.
//
// # Learned Values
//
// Modules start from Xavier-initialized convolutions and identity batch norms.
// Trained values are supplied through LoadStateDict using the keys reported by
// StateDict; there is no file format.
//
// # Heads
//
// The backbone has no classifier. Attach one with Sequential:
//
//	model := nn.NewSequential[*cpu.Backend](backbone, head)
package nn
