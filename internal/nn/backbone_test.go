package nn

import (
	"testing"

	"github.com/born-ml/resnet/internal/backend/cpu"
	"github.com/born-ml/resnet/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackbone(t *testing.T) (*Backbone[*cpu.CPUBackend], *cpu.CPUBackend) {
	t.Helper()
	backend := cpu.New()
	backbone, err := NewBackbone(backend)
	require.NoError(t, err)
	return backbone, backend
}

func TestBackbone_Channels(t *testing.T) {
	backbone, _ := newTestBackbone(t)

	assert.Equal(t, []int{3, 64, 64, 128, 256, 512}, backbone.Channels())

	stages := backbone.Stages()
	require.Len(t, stages, 4)
	assert.Nil(t, stages[0].Entry(), "stage1 opens with a bare max pool")
	for i, stage := range stages {
		assert.Len(t, stage.Blocks(), 2, stage.Name())
		for _, block := range stage.Blocks() {
			assert.Equal(t, stage.OutChannels(), block.Channels())
		}
		if i > 0 {
			require.NotNil(t, stage.Entry())
			assert.True(t, stage.Entry().Pool())
			assert.Equal(t, stages[i-1].OutChannels(), stage.Entry().InChannels())
		}
	}

	stem := backbone.Stem()
	assert.Equal(t, [2]int{7, 7}, stem.KernelSize())
	assert.Equal(t, 2, stem.Stride())
	assert.Equal(t, 3, stem.Padding())
}

func TestBackbone_NumParameters(t *testing.T) {
	backbone, _ := newTestBackbone(t)

	assert.Equal(t, 14105728, backbone.NumParameters())

	perStage := []int{148224, 665472, 2658048, 10624512}
	for i, stage := range backbone.Stages() {
		assert.Equal(t, perStage[i], CountParameters(stage.Parameters()), stage.Name())
	}

	// Two running-stat buffers per unit: stage1 has 4 units, stages 2-4 have 5.
	assert.Len(t, backbone.Buffers(), 2*(4+3*5))
}

func TestBackbone_OutputShape(t *testing.T) {
	backbone, _ := newTestBackbone(t)

	tests := []struct {
		in   tensor.Shape
		want tensor.Shape
	}{
		{tensor.Shape{1, 3, 224, 224}, tensor.Shape{1, 512, 7, 7}},
		{tensor.Shape{2, 3, 32, 32}, tensor.Shape{2, 512, 1, 1}},
		{tensor.Shape{4, 3, 64, 96}, tensor.Shape{4, 512, 2, 3}},
		{tensor.Shape{1, 3, 256, 320}, tensor.Shape{1, 512, 8, 10}},
		// 225 -> 113 -> 56 -> 28 -> 14 -> 7
		{tensor.Shape{1, 3, 225, 225}, tensor.Shape{1, 512, 7, 7}},
	}
	for _, tt := range tests {
		got, err := backbone.OutputShape(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %v", tt.in)
	}

	_, err := backbone.OutputShape(tensor.Shape{1, 4, 224, 224})
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)
	assert.Contains(t, err.Error(), "stem")

	// 16 -> 8 -> 4 -> 2 -> 1 -> pool fails in stage4.
	_, err = backbone.OutputShape(tensor.Shape{1, 3, 16, 16})
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)
	assert.Contains(t, err.Error(), "stage4")
}

func TestBackbone_ForwardSmall(t *testing.T) {
	backbone, backend := newTestBackbone(t)

	x := tensor.Randn[float32](tensor.Shape{2, 3, 32, 32}, backend)
	out, err := backbone.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 512, 1, 1}, out.Shape())
}

func TestBackbone_Forward224(t *testing.T) {
	if testing.Short() {
		t.Skip("full-resolution forward pass in -short mode")
	}
	backbone, backend := newTestBackbone(t)

	x := tensor.Randn[float32](tensor.Shape{1, 3, 224, 224}, backend)
	out, err := backbone.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 512, 7, 7}, out.Shape())
}

func TestBackbone_WrongChannelsFailsAtStem(t *testing.T) {
	backbone, backend := newTestBackbone(t)

	var seen []string
	x := tensor.Zeros[float32](tensor.Shape{1, 4, 32, 32}, backend)
	out, err := backbone.ForwardWithHook(x, func(stage string, _ *testTensor) {
		seen = append(seen, stage)
	})

	require.ErrorIs(t, err, tensor.ErrShapeMismatch)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "stem")
	assert.Empty(t, seen, "no stage may run after the stem fails")
}

func TestBackbone_ForwardWithHook(t *testing.T) {
	backbone, backend := newTestBackbone(t)

	shapes := map[string]tensor.Shape{}
	var order []string
	x := tensor.Randn[float32](tensor.Shape{1, 3, 64, 64}, backend)
	_, err := backbone.ForwardWithHook(x, func(stage string, out *testTensor) {
		order = append(order, stage)
		shapes[stage] = out.Shape()
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"stem", "stage1", "stage2", "stage3", "stage4"}, order)
	assert.Equal(t, tensor.Shape{1, 64, 32, 32}, shapes["stem"])
	assert.Equal(t, tensor.Shape{1, 64, 16, 16}, shapes["stage1"])
	assert.Equal(t, tensor.Shape{1, 128, 8, 8}, shapes["stage2"])
	assert.Equal(t, tensor.Shape{1, 256, 4, 4}, shapes["stage3"])
	assert.Equal(t, tensor.Shape{1, 512, 2, 2}, shapes["stage4"])
}

func TestBackbone_StateDictRoundTrip(t *testing.T) {
	src, backend := newTestBackbone(t)
	dst, err := NewBackbone(backend)
	require.NoError(t, err)

	state := src.StateDict()
	assert.Contains(t, state, "stem.weight")
	assert.Contains(t, state, "stage1.blocks.0.first.conv.weight")
	assert.Contains(t, state, "stage2.entry.bn.running_mean")
	assert.Contains(t, state, "stage4.blocks.1.second.bn.bias")
	// stem: 2, stage1: 4 units, stages 2-4: 5 units, 6 entries per unit.
	assert.Len(t, state, 2+6*(4+3*5))

	require.NoError(t, dst.LoadStateDict(state))

	x := tensor.Randn[float32](tensor.Shape{1, 3, 32, 32}, backend)
	want, err := src.Forward(x)
	require.NoError(t, err)
	got, err := dst.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, want.Data(), got.Data())

	delete(state, "stage3.blocks.1.first.bn.running_var")
	err = dst.LoadStateDict(state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage3")
}

func TestBackbone_ConcurrentForward(t *testing.T) {
	backbone, backend := newTestBackbone(t)
	x := tensor.Randn[float32](tensor.Shape{1, 3, 32, 32}, backend)

	want, err := backbone.Forward(x)
	require.NoError(t, err)

	errs := make(chan error, 4)
	outs := make(chan []float32, 4)
	for i := 0; i < 4; i++ {
		go func() {
			out, err := backbone.Forward(x)
			if err != nil {
				errs <- err
				return
			}
			outs <- out.Data()
		}()
	}
	for i := 0; i < 4; i++ {
		select {
		case err := <-errs:
			t.Fatal(err)
		case got := <-outs:
			assert.Equal(t, want.Data(), got)
		}
	}
}

func TestBackbone_String(t *testing.T) {
	backbone, _ := newTestBackbone(t)
	s := backbone.String()

	for _, part := range []string{
		"(stem): Conv2D(in_channels=3, out_channels=64, kernel_size=(7, 7), stride=2, padding=3, bias=true)",
		"(stage1): Stage(",
		"MaxPool2D(kernel_size=2, stride=2)",
		"ConvUnit(256 -> 512, pool)",
		"ResidualBlock(512,",
	} {
		assert.Contains(t, s, part)
	}
}

func TestValidatePlan(t *testing.T) {
	tests := []struct {
		name string
		plan []stagePlan
	}{
		{"empty", nil},
		{"broken chain", []stagePlan{
			{name: "stage1", in: 64, out: 64, blocks: 2},
			{name: "stage2", in: 96, out: 128, entryUnit: true, blocks: 2},
		}},
		{"wrong stem width", []stagePlan{
			{name: "stage1", in: 32, out: 32, blocks: 2},
		}},
		{"widening without entry unit", []stagePlan{
			{name: "stage1", in: 64, out: 128, blocks: 2},
		}},
		{"negative blocks", []stagePlan{
			{name: "stage1", in: 64, out: 64, blocks: -1},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, validatePlan(stemOutChannels, tt.plan), ErrInvalidConfig)

			backbone, err := newBackbone(tt.plan, cpu.New())
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Nil(t, backbone)
		})
	}

	require.NoError(t, validatePlan(stemOutChannels, resnet18))
}
