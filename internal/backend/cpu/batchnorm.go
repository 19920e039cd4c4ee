package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/resnet/internal/parallel"
	"github.com/born-ml/resnet/internal/tensor"
)

// BatchNorm2D normalizes every channel of an NCHW tensor with running statistics.
//
//	y = (x - mean[c]) / sqrt(variance[c] + eps) * gamma[c] + beta[c]
//
// The per-channel affine form scale*x + shift is folded once per call, so each
// element costs one multiply-add. The input is not modified.
func (cpu *CPUBackend) BatchNorm2D(x, gamma, beta, mean, variance *tensor.RawTensor, eps float64) (*tensor.RawTensor, error) {
	if eps < 0 {
		return nil, fmt.Errorf("batchnorm2d: invalid eps %g", eps)
	}

	n, c, h, w, err := x.Shape().NCHW("batchnorm2d")
	if err != nil {
		return nil, err
	}

	want := tensor.Shape{c}
	names := [4]string{"gamma", "beta", "mean", "variance"}
	for i, p := range [4]*tensor.RawTensor{gamma, beta, mean, variance} {
		if !p.Shape().Equal(want) {
			return nil, &tensor.ShapeError{Op: "batchnorm2d", Got: p.Shape().Clone(), Want: want, Details: names[i]}
		}
	}
	if err := sameDType("batchnorm2d", x, gamma, beta, mean, variance); err != nil {
		return nil, err
	}

	output, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("batchnorm2d: %w", err)
	}

	switch x.DType() {
	case tensor.Float32:
		batchNorm2D(output.AsFloat32(), x.AsFloat32(),
			gamma.AsFloat32(), beta.AsFloat32(), mean.AsFloat32(), variance.AsFloat32(),
			eps, n, c, h*w, cpu.parallel)
	case tensor.Float64:
		batchNorm2D(output.AsFloat64(), x.AsFloat64(),
			gamma.AsFloat64(), beta.AsFloat64(), mean.AsFloat64(), variance.AsFloat64(),
			eps, n, c, h*w, cpu.parallel)
	default:
		return nil, fmt.Errorf("batchnorm2d: unsupported dtype %s", x.DType())
	}

	return output, nil
}

func batchNorm2D[T float](out, in, gamma, beta, mean, variance []T, eps float64, n, c, plane int, cfg parallel.Config) {
	scale := make([]T, c)
	shift := make([]T, c)
	for ch := 0; ch < c; ch++ {
		s := float64(gamma[ch]) / math.Sqrt(float64(variance[ch])+eps)
		scale[ch] = T(s)
		shift[ch] = T(float64(beta[ch]) - float64(mean[ch])*s)
	}

	parallel.ForBatch(n, c, func(b, ch int) {
		off := (b*c + ch) * plane
		src := in[off : off+plane]
		dst := out[off : off+plane]
		sc, sh := scale[ch], shift[ch]
		for i, v := range src {
			dst[i] = v*sc + sh
		}
	}, cfg)
}
