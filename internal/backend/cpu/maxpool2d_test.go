package cpu

import (
	"math"
	"testing"

	"github.com/born-ml/resnet/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMaxPool2D_Forward tests the 2x2 stride-2 pool on a 4x4 image.
func TestMaxPool2D_Forward(t *testing.T) {
	backend := New()

	input := rawFromSlice(t, tensor.Shape{1, 1, 4, 4}, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	})

	output, err := backend.MaxPool2D(input, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, output.Shape())
	assert.Equal(t, []float32{6, 8, 14, 16}, output.AsFloat32())
}

// TestMaxPool2D_OddSizeFloors tests that a trailing row and column are dropped.
func TestMaxPool2D_OddSizeFloors(t *testing.T) {
	backend := New()

	values := make([]float32, 2*3*5*7)
	for i := range values {
		values[i] = float32(i)
	}
	input := rawFromSlice(t, tensor.Shape{2, 3, 5, 7}, values)

	output, err := backend.MaxPool2D(input, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3, 2, 3}, output.Shape())

	// First plane: rows 0..3, columns 0..5 are pooled; row 4 and column 6 are not.
	assert.Equal(t, []float32{8, 10, 12, 22, 24, 26}, output.AsFloat32()[:6])
}

// TestMaxPool2D_Negative tests that all-negative windows keep their maximum.
func TestMaxPool2D_Negative(t *testing.T) {
	backend := New()

	input := rawFromSlice(t, tensor.Shape{1, 1, 2, 2}, []float32{-4, -3, -2, -1})

	output, err := backend.MaxPool2D(input, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{-1}, output.AsFloat32())
}

// TestMaxPool2D_NaN tests that a NaN anywhere in the window reaches the output.
func TestMaxPool2D_NaN(t *testing.T) {
	backend := New()
	nan := float32(math.NaN())

	tests := []struct {
		name   string
		values []float32
	}{
		{"first", []float32{nan, 1, 3, 2}},
		{"middle", []float32{1, nan, 3, 2}},
		{"last", []float32{1, 3, 2, nan}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := rawFromSlice(t, tensor.Shape{1, 1, 2, 2}, tt.values)

			output, err := backend.MaxPool2D(input, 2, 2)
			require.NoError(t, err)
			require.Len(t, output.AsFloat32(), 1)
			assert.True(t, math.IsNaN(float64(output.AsFloat32()[0])))
		})
	}
}

func TestMaxPool2D_Float64(t *testing.T) {
	backend := New()

	input, err := tensor.NewRaw(tensor.Shape{1, 2, 2, 2}, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	copy(input.AsFloat64(), []float64{1, 5, 3, 2, -1, -7, -3, -2})

	output, err := backend.MaxPool2D(input, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, -1}, output.AsFloat64())
}

func TestMaxPool2D_Errors(t *testing.T) {
	backend := New()

	tiny := rawFromSlice(t, tensor.Shape{1, 1, 1, 1}, []float32{1})
	output, err := backend.MaxPool2D(tiny, 2, 2)
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)
	assert.Nil(t, output)

	flat := rawFromSlice(t, tensor.Shape{4}, []float32{1, 2, 3, 4})
	_, err = backend.MaxPool2D(flat, 2, 2)
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)

	square := rawFromSlice(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 2, 3, 4})
	_, err = backend.MaxPool2D(square, 0, 2)
	require.Error(t, err)
	_, err = backend.MaxPool2D(square, 2, 0)
	require.Error(t, err)
}
