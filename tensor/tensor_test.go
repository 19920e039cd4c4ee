// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"errors"
	"testing"

	"github.com/born-ml/resnet/internal/backend/cpu"
	"github.com/born-ml/resnet/tensor"
)

// TestBackendInterface verifies that cpu.CPUBackend implements tensor.Backend.
func TestBackendInterface(_ *testing.T) {
	var _ tensor.Backend = (*cpu.CPUBackend)(nil)
}

// TestRawTensorAPI verifies RawTensor type alias exposes expected API.
func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	if !raw.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("Shape() = %v, want [2 3]", raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		t.Errorf("DType() = %v, want Float32", raw.DType())
	}
	if raw.Device() != tensor.CPU {
		t.Errorf("Device() = %v, want CPU", raw.Device())
	}
	if len(raw.AsFloat32()) != 6 {
		t.Errorf("AsFloat32() length = %d, want 6", len(raw.AsFloat32()))
	}
}

func TestTensorOps(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{-1, 2, -3, 4}, tensor.Shape{1, 1, 2, 2}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	y, err := x.ReLU()
	if err != nil {
		t.Fatalf("ReLU failed: %v", err)
	}
	z, err := y.Add(x)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	want := []float32{-1, 4, -3, 8}
	for i, v := range z.Data() {
		if v != want[i] {
			t.Errorf("z[%d] = %v, want %v", i, v, want[i])
		}
	}

	p, err := z.MaxPool2D(2, 2)
	if err != nil {
		t.Fatalf("MaxPool2D failed: %v", err)
	}
	if p.At(0, 0, 0, 0) != 8 {
		t.Errorf("MaxPool2D = %v, want 8", p.At(0, 0, 0, 0))
	}
}

func TestShapeMismatchIsExported(t *testing.T) {
	backend := cpu.New()
	a := tensor.Zeros[float32](tensor.Shape{1, 2, 2, 2}, backend)
	b := tensor.Zeros[float32](tensor.Shape{1, 3, 2, 2}, backend)

	_, err := a.Add(b)
	if !errors.Is(err, tensor.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
	var shapeErr *tensor.ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected *tensor.ShapeError, got %T", err)
	}
}

func TestConvOutputSize(t *testing.T) {
	if got := tensor.ConvOutputSize(224, 7, 2, 3); got != 112 {
		t.Errorf("ConvOutputSize(224, 7, 2, 3) = %d, want 112", got)
	}
}
