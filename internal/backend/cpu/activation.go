package cpu

import (
	"fmt"

	"github.com/born-ml/resnet/internal/tensor"
)

// ReLU computes max(0, x) element-wise.
//
// With inplace set the result is written back into x and x is returned,
// saving one allocation per call. The caller guarantees nothing else reads x.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor, inplace bool) (*tensor.RawTensor, error) {
	result := x
	if !inplace {
		var err error
		result, err = tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
		if err != nil {
			return nil, fmt.Errorf("relu: %w", err)
		}
	}

	switch x.DType() {
	case tensor.Float32:
		relu(result.AsFloat32(), x.AsFloat32())
	case tensor.Float64:
		relu(result.AsFloat64(), x.AsFloat64())
	default:
		return nil, fmt.Errorf("relu: unsupported dtype %s", x.DType())
	}
	return result, nil
}

func relu[T float](dst, src []T) {
	dst = dst[:len(src)]
	for i, v := range src {
		if v > 0 || v != v {
			dst[i] = v
		} else {
			dst[i] = 0
		}
	}
}
