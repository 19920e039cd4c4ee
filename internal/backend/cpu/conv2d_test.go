package cpu

import (
	"math/rand"
	"testing"

	"github.com/born-ml/resnet/internal/parallel"
	"github.com/born-ml/resnet/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConv2D_BasicForward tests basic Conv2D forward pass.
func TestConv2D_BasicForward(t *testing.T) {
	backend := New()

	// Input: [1, 1, 3, 3]
	// 1 2 3
	// 4 5 6
	// 7 8 9
	input := rawFromSlice(t, tensor.Shape{1, 1, 3, 3}, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9})

	// Kernel: [1, 1, 2, 2]
	// 1 0
	// 0 1
	kernel := rawFromSlice(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 0, 0, 1})

	output, err := backend.Conv2D(input, kernel, nil, 1, 0)
	require.NoError(t, err)

	// out_h = (3 + 2*0 - 2) / 1 + 1 = 2
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, output.Shape())

	// Diagonal sums: 1+5, 2+6, 4+8, 5+9
	assert.Equal(t, []float32{6, 8, 12, 14}, output.AsFloat32())
}

// TestConv2D_Padding tests that zero padding preserves spatial size.
func TestConv2D_Padding(t *testing.T) {
	backend := New()

	input := rawFromSlice(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 1, 1, 1})
	kernel := rawFromSlice(t, tensor.Shape{1, 1, 3, 3}, []float32{1, 1, 1, 1, 1, 1, 1, 1, 1})

	output, err := backend.Conv2D(input, kernel, nil, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, output.Shape())
	// Every 3x3 window around a 2x2 image covers all four pixels.
	assert.Equal(t, []float32{4, 4, 4, 4}, output.AsFloat32())
}

// TestConv2D_MultiChannelWithBias tests channel mixing and bias.
func TestConv2D_MultiChannelWithBias(t *testing.T) {
	backend := New()

	// Channel 0 is all ones, channel 1 is all twos.
	input := rawFromSlice(t, tensor.Shape{1, 2, 2, 2}, []float32{1, 1, 1, 1, 2, 2, 2, 2})

	// 1x1 kernels: oc0 = c0 + c1, oc1 = c0 - c1.
	kernel := rawFromSlice(t, tensor.Shape{2, 2, 1, 1}, []float32{1, 1, 1, -1})
	bias := rawFromSlice(t, tensor.Shape{2}, []float32{10, 20})

	output, err := backend.Conv2D(input, kernel, bias, 1, 0)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{1, 2, 2, 2}, output.Shape())
	assert.Equal(t, []float32{13, 13, 13, 13, 19, 19, 19, 19}, output.AsFloat32())
}

// TestConv2D_StrideOutputShape checks the stem geometry: 7x7, stride 2, padding 3.
func TestConv2D_StrideOutputShape(t *testing.T) {
	backend := New()

	input, err := tensor.NewRaw(tensor.Shape{2, 3, 32, 32}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	kernel, err := tensor.NewRaw(tensor.Shape{8, 3, 7, 7}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)

	output, err := backend.Conv2D(input, kernel, nil, 2, 3)
	require.NoError(t, err)

	// (32 + 6 - 7) / 2 + 1 = 16
	assert.Equal(t, tensor.Shape{2, 8, 16, 16}, output.Shape())
}

func TestConv2D_Float64(t *testing.T) {
	backend := New()

	input, err := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	copy(input.AsFloat64(), []float64{1, 2, 3, 4})

	kernel, err := tensor.NewRaw(tensor.Shape{1, 1, 1, 1}, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	kernel.AsFloat64()[0] = 0.5

	output, err := backend.Conv2D(input, kernel, nil, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1, 1.5, 2}, output.AsFloat64())
}

func TestConv2D_Errors(t *testing.T) {
	backend := New()

	newRaw := func(shape tensor.Shape) *tensor.RawTensor {
		raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
		require.NoError(t, err)
		return raw
	}

	tests := []struct {
		name      string
		input     *tensor.RawTensor
		kernel    *tensor.RawTensor
		bias      *tensor.RawTensor
		stride    int
		padding   int
		wantShape bool
	}{
		{"channel mismatch", newRaw(tensor.Shape{1, 4, 8, 8}), newRaw(tensor.Shape{2, 3, 3, 3}), nil, 1, 1, true},
		{"input not 4D", newRaw(tensor.Shape{3, 8, 8}), newRaw(tensor.Shape{2, 3, 3, 3}), nil, 1, 1, true},
		{"kernel not 4D", newRaw(tensor.Shape{1, 3, 8, 8}), newRaw(tensor.Shape{2, 27}), nil, 1, 1, true},
		{"bias shape", newRaw(tensor.Shape{1, 3, 8, 8}), newRaw(tensor.Shape{2, 3, 3, 3}), newRaw(tensor.Shape{3}), 1, 1, true},
		{"kernel too large", newRaw(tensor.Shape{1, 3, 2, 2}), newRaw(tensor.Shape{2, 3, 5, 5}), nil, 1, 0, true},
		{"zero stride", newRaw(tensor.Shape{1, 3, 8, 8}), newRaw(tensor.Shape{2, 3, 3, 3}), nil, 0, 1, false},
		{"negative padding", newRaw(tensor.Shape{1, 3, 8, 8}), newRaw(tensor.Shape{2, 3, 3, 3}), nil, 1, -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := backend.Conv2D(tt.input, tt.kernel, tt.bias, tt.stride, tt.padding)
			require.Error(t, err)
			assert.Nil(t, output)
			assert.Equal(t, tt.wantShape, errorIsShapeMismatch(err))
		})
	}
}

// TestConv2D_ParallelMatchesSequential checks that fanning out output channels
// does not change any result.
func TestConv2D_ParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	fill := func(shape tensor.Shape) *tensor.RawTensor {
		raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
		require.NoError(t, err)
		for i := range raw.AsFloat32() {
			raw.AsFloat32()[i] = float32(rng.NormFloat64())
		}
		return raw
	}

	input := fill(tensor.Shape{2, 5, 9, 9})
	kernel := fill(tensor.Shape{7, 5, 3, 3})
	bias := fill(tensor.Shape{7})

	seq, err := NewWithConfig(parallel.Sequential())
	require.NoError(t, err)
	par, err := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1})
	require.NoError(t, err)

	want, err := seq.Conv2D(input, kernel, bias, 1, 1)
	require.NoError(t, err)
	got, err := par.Conv2D(input, kernel, bias, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, want.AsFloat32(), got.AsFloat32())
}

// TestConv2D_MatchesReference compares im2col against direct convolution.
func TestConv2D_MatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	fill := func(shape tensor.Shape) *tensor.RawTensor {
		raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
		require.NoError(t, err)
		for i := range raw.AsFloat32() {
			raw.AsFloat32()[i] = float32(rng.NormFloat64())
		}
		return raw
	}

	tests := []struct {
		name            string
		input, kernel   tensor.Shape
		stride, padding int
	}{
		{"stem", tensor.Shape{1, 3, 19, 17}, tensor.Shape{4, 3, 7, 7}, 2, 3},
		{"same", tensor.Shape{2, 4, 6, 6}, tensor.Shape{5, 4, 3, 3}, 1, 1},
		{"valid", tensor.Shape{1, 2, 5, 5}, tensor.Shape{3, 2, 3, 3}, 2, 0},
	}

	reference := tensor.NewMockBackend()
	backend := New()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := fill(tt.input)
			kernel := fill(tt.kernel)
			bias := fill(tensor.Shape{tt.kernel[0]})

			want, err := reference.Conv2D(input, kernel, bias, tt.stride, tt.padding)
			require.NoError(t, err)
			got, err := backend.Conv2D(input, kernel, bias, tt.stride, tt.padding)
			require.NoError(t, err)

			require.Equal(t, want.Shape(), got.Shape())
			for i, v := range want.AsFloat32() {
				assert.InDelta(t, v, got.AsFloat32()[i], 1e-4, "element %d", i)
			}
		})
	}
}
