package cpu

import (
	"fmt"

	"github.com/born-ml/resnet/internal/parallel"
	"github.com/born-ml/resnet/internal/tensor"
)

// MaxPool2D performs 2D max pooling.
//
// Max pooling reduces spatial dimensions by taking the maximum value
// in each pooling window. There is no padding.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_height, out_width]
//
// Where:
//
//	out_height = (height - kernelSize) / stride + 1
//	out_width = (width - kernelSize) / stride + 1
//
// Example (2x2 pool, stride=2):
//
//	Input: [[1,2,3,4],    Output: [[6,8],
//	        [5,6,7,8],             [14,16]]
//	        [9,10,11,12],
//	        [13,14,15,16]]
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) (*tensor.RawTensor, error) {
	if kernelSize <= 0 {
		return nil, fmt.Errorf("maxpool2d: invalid kernel size %d", kernelSize)
	}
	if stride <= 0 {
		return nil, fmt.Errorf("maxpool2d: invalid stride %d", stride)
	}

	n, c, h, w, err := input.Shape().NCHW("maxpool2d")
	if err != nil {
		return nil, err
	}
	if kernelSize > h || kernelSize > w {
		return nil, &tensor.ShapeError{
			Op:      "maxpool2d",
			Got:     input.Shape().Clone(),
			Details: fmt.Sprintf("kernel size %d too large for input %dx%d", kernelSize, h, w),
		}
	}

	hOut := tensor.ConvOutputSize(h, kernelSize, stride, 0)
	wOut := tensor.ConvOutputSize(w, kernelSize, stride, 0)

	output, err := tensor.NewRaw(tensor.Shape{n, c, hOut, wOut}, input.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("maxpool2d: %w", err)
	}

	g := poolGeometry{n: n, c: c, h: h, w: w, hOut: hOut, wOut: wOut, kernel: kernelSize, stride: stride}
	switch input.DType() {
	case tensor.Float32:
		maxPool2D(output.AsFloat32(), input.AsFloat32(), g, cpu.parallel)
	case tensor.Float64:
		maxPool2D(output.AsFloat64(), input.AsFloat64(), g, cpu.parallel)
	default:
		return nil, fmt.Errorf("maxpool2d: unsupported dtype %s", input.DType())
	}

	return output, nil
}

type poolGeometry struct {
	n, c, h, w     int
	hOut, wOut     int
	kernel, stride int
}

func maxPool2D[T float](out, in []T, g poolGeometry, cfg parallel.Config) {
	parallel.ForBatch(g.n, g.c, func(b, c int) {
		// Pre-slice channel planes to keep index math out of the inner loop.
		src := in[(b*g.c+c)*g.h*g.w : (b*g.c+c+1)*g.h*g.w]
		dst := out[(b*g.c+c)*g.hOut*g.wOut : (b*g.c+c+1)*g.hOut*g.wOut]

		for oh := 0; oh < g.hOut; oh++ {
			hStart := oh * g.stride
			for ow := 0; ow < g.wOut; ow++ {
				wStart := ow * g.stride
				maxVal := src[hStart*g.w+wStart]
				for kh := 0; kh < g.kernel; kh++ {
					row := src[(hStart+kh)*g.w : (hStart+kh+1)*g.w]
					for kw := 0; kw < g.kernel; kw++ {
						// NaN wins so it propagates.
						if v := row[wStart+kw]; v > maxVal || v != v {
							maxVal = v
						}
					}
				}
				dst[oh*g.wOut+ow] = maxVal
			}
		}
	}, cfg)
}
