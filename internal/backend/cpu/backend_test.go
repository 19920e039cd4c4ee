package cpu

import (
	"testing"

	"github.com/born-ml/resnet/internal/parallel"
	"github.com/born-ml/resnet/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawFromSlice builds a float32 CPU tensor for tests.
func rawFromSlice(t *testing.T, shape tensor.Shape, values []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	require.Len(t, values, shape.NumElements())
	copy(raw.AsFloat32(), values)
	return raw
}

// TestCPUBackend_New tests backend creation.
func TestCPUBackend_New(t *testing.T) {
	backend := New()
	require.NotNil(t, backend)
	assert.Equal(t, "CPU", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
	assert.Equal(t, parallel.DefaultConfig(), backend.Config())
}

func TestNewWithConfig(t *testing.T) {
	backend, err := NewWithConfig(parallel.Sequential())
	require.NoError(t, err)
	assert.False(t, backend.Config().Enabled)

	_, err = NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 0, MinChunkSize: 1})
	require.Error(t, err)
}

// TestCPUBackend_Add tests element-wise addition.
func TestCPUBackend_Add(t *testing.T) {
	backend := New()

	t.Run("SameShape", func(t *testing.T) {
		a := rawFromSlice(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
		b := rawFromSlice(t, tensor.Shape{2, 3}, []float32{10, 11, 12, 13, 14, 15})

		result, err := backend.Add(a, b)
		require.NoError(t, err)

		assert.Equal(t, []float32{11, 13, 15, 17, 19, 21}, result.AsFloat32())
		// Operands are left untouched.
		assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, a.AsFloat32())
		assert.Equal(t, []float32{10, 11, 12, 13, 14, 15}, b.AsFloat32())
	})

	t.Run("Float64", func(t *testing.T) {
		a, err := tensor.NewRaw(tensor.Shape{2}, tensor.Float64, tensor.CPU)
		require.NoError(t, err)
		b, err := tensor.NewRaw(tensor.Shape{2}, tensor.Float64, tensor.CPU)
		require.NoError(t, err)
		copy(a.AsFloat64(), []float64{0.5, -1})
		copy(b.AsFloat64(), []float64{0.25, 3})

		result, err := backend.Add(a, b)
		require.NoError(t, err)
		assert.Equal(t, []float64{0.75, 2}, result.AsFloat64())
	})

	t.Run("ShapeMismatch", func(t *testing.T) {
		a := rawFromSlice(t, tensor.Shape{1, 2}, []float32{1, 2})
		b := rawFromSlice(t, tensor.Shape{2, 1}, []float32{1, 2})

		result, err := backend.Add(a, b)
		require.ErrorIs(t, err, tensor.ErrShapeMismatch)
		assert.Nil(t, result)

		var shapeErr *tensor.ShapeError
		require.ErrorAs(t, err, &shapeErr)
		assert.Equal(t, "add", shapeErr.Op)
	})
}
