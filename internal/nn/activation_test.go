package nn

import (
	"testing"

	"github.com/born-ml/resnet/internal/backend/cpu"
	"github.com/born-ml/resnet/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReLU_Forward(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromSlice([]float32{-2, -1, 0, 1, 2, 3}, tensor.Shape{1, 1, 2, 3}, backend)
	require.NoError(t, err)

	relu := NewReLU[*cpu.CPUBackend](false)
	y, err := relu.Forward(x)
	require.NoError(t, err)

	assert.Equal(t, []float32{0, 0, 0, 1, 2, 3}, y.Data())
	assert.Equal(t, []float32{-2, -1, 0, 1, 2, 3}, x.Data(), "input must be untouched")
	assert.Empty(t, relu.Parameters())
	assert.Equal(t, "ReLU()", relu.String())
}

func TestReLU_Inplace(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromSlice([]float32{-2, 5}, tensor.Shape{1, 1, 1, 2}, backend)
	require.NoError(t, err)

	relu := NewReLU[*cpu.CPUBackend](true)
	y, err := relu.Forward(x)
	require.NoError(t, err)

	assert.Same(t, x, y)
	assert.Equal(t, []float32{0, 5}, x.Data())
	assert.True(t, relu.Inplace())
	assert.Equal(t, "ReLU(inplace=true)", relu.String())
}
