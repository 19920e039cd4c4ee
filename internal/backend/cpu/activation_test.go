package cpu

import (
	"math"
	"testing"

	"github.com/born-ml/resnet/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReLU(t *testing.T) {
	backend := New()

	t.Run("NotInplace", func(t *testing.T) {
		x := rawFromSlice(t, tensor.Shape{1, 1, 2, 2}, []float32{-1, 0, 2, -3})

		result, err := backend.ReLU(x, false)
		require.NoError(t, err)

		assert.NotSame(t, x, result)
		assert.Equal(t, []float32{0, 0, 2, 0}, result.AsFloat32())
		assert.Equal(t, []float32{-1, 0, 2, -3}, x.AsFloat32())
	})

	t.Run("Inplace", func(t *testing.T) {
		x := rawFromSlice(t, tensor.Shape{1, 1, 2, 2}, []float32{-1, 0, 2, -3})

		result, err := backend.ReLU(x, true)
		require.NoError(t, err)

		assert.Same(t, x, result)
		assert.Equal(t, []float32{0, 0, 2, 0}, x.AsFloat32())
	})

	t.Run("NaN", func(t *testing.T) {
		x := rawFromSlice(t, tensor.Shape{1, 1, 2, 2}, []float32{1, float32(math.NaN()), 3, -2})

		result, err := backend.ReLU(x, false)
		require.NoError(t, err)

		got := result.AsFloat32()
		assert.Equal(t, float32(1), got[0])
		assert.True(t, math.IsNaN(float64(got[1])))
		assert.Equal(t, []float32{3, 0}, got[2:])
	})

	t.Run("Float64", func(t *testing.T) {
		x, err := tensor.NewRaw(tensor.Shape{3}, tensor.Float64, tensor.CPU)
		require.NoError(t, err)
		copy(x.AsFloat64(), []float64{-0.5, 0.5, 1e-9})

		result, err := backend.ReLU(x, false)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0.5, 1e-9}, result.AsFloat64())
	})
}
