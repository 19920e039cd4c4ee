package nn

import (
	"testing"

	"github.com/born-ml/resnet/internal/backend/cpu"
	"github.com/born-ml/resnet/internal/tensor"
	"github.com/stretchr/testify/require"
)

type testTensor = tensor.Tensor[float32, *cpu.CPUBackend]

// fill sets every element of p to v.
func fill(p *Parameter[*cpu.CPUBackend], v float32) {
	data := p.Tensor().Data()
	for i := range data {
		data[i] = v
	}
}

// zeroConv makes a unit's convolution produce exact zeros.
func zeroConv(u *ConvUnit[*cpu.CPUBackend]) {
	for _, p := range u.Conv().Parameters() {
		fill(p, 0)
	}
}

func sequence(t *testing.T, shape tensor.Shape, backend *cpu.CPUBackend) *testTensor {
	t.Helper()
	data := make([]float32, shape.NumElements())
	for i := range data {
		data[i] = float32(i%13) - 6
	}
	x, err := tensor.FromSlice(data, shape, backend)
	require.NoError(t, err)
	return x
}
