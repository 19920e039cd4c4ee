package cpu

import (
	"fmt"

	"github.com/born-ml/resnet/internal/parallel"
	"github.com/born-ml/resnet/internal/tensor"
)

// convGeometry holds the dimensions of one Conv2D call.
type convGeometry struct {
	n, cIn, h, w    int
	cOut, kh, kw    int
	hOut, wOut      int
	stride, padding int
}

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape: [batch, in_channels, height, width]
// Kernel shape: [out_channels, in_channels, kernel_h, kernel_w]
// Bias shape: [out_channels], or nil
// Output shape: [batch, out_channels, out_h, out_w]
//
// Where:
//
//	out_h = (height + 2*padding - kernel_h) / stride + 1
//	out_w = (width + 2*padding - kernel_w) / stride + 1
//
// Algorithm: for each image, patches are unrolled into a
// [C_in*K_h*K_w, out_h*out_w] column matrix and every output channel is a
// weighted sum of its rows. Output channels are computed in parallel.
func (cpu *CPUBackend) Conv2D(input, kernel, bias *tensor.RawTensor, stride, padding int) (*tensor.RawTensor, error) {
	if stride <= 0 {
		return nil, fmt.Errorf("conv2d: invalid stride %d", stride)
	}
	if padding < 0 {
		return nil, fmt.Errorf("conv2d: invalid padding %d", padding)
	}

	n, cIn, h, w, err := input.Shape().NCHW("conv2d")
	if err != nil {
		return nil, err
	}

	kernelShape := kernel.Shape()
	if len(kernelShape) != 4 {
		return nil, &tensor.ShapeError{
			Op:      "conv2d",
			Got:     kernelShape.Clone(),
			Details: "kernel must be 4D [C_out,C_in,K_h,K_w]",
		}
	}

	g := convGeometry{
		n: n, cIn: cIn, h: h, w: w,
		cOut: kernelShape[0], kh: kernelShape[2], kw: kernelShape[3],
		stride: stride, padding: padding,
	}

	if kernelShape[1] != cIn {
		return nil, &tensor.ShapeError{
			Op:      "conv2d",
			Got:     input.Shape().Clone(),
			Details: fmt.Sprintf("input channels %d != kernel channels %d", cIn, kernelShape[1]),
		}
	}
	if bias != nil && !bias.Shape().Equal(tensor.Shape{g.cOut}) {
		return nil, &tensor.ShapeError{Op: "conv2d", Got: bias.Shape().Clone(), Want: tensor.Shape{g.cOut}, Details: "bias"}
	}

	g.hOut = tensor.ConvOutputSize(h, g.kh, stride, padding)
	g.wOut = tensor.ConvOutputSize(w, g.kw, stride, padding)
	if h+2*padding < g.kh || w+2*padding < g.kw {
		return nil, &tensor.ShapeError{
			Op:      "conv2d",
			Got:     input.Shape().Clone(),
			Details: fmt.Sprintf("kernel %dx%d does not fit padded input %dx%d", g.kh, g.kw, h+2*padding, w+2*padding),
		}
	}

	if err := sameDType("conv2d", input, kernel, bias); err != nil {
		return nil, err
	}

	output, err := tensor.NewRaw(tensor.Shape{n, g.cOut, g.hOut, g.wOut}, input.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("conv2d: %w", err)
	}

	switch input.DType() {
	case tensor.Float32:
		var b []float32
		if bias != nil {
			b = bias.AsFloat32()
		}
		conv2d(output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(), b, g, cpu.parallel)
	case tensor.Float64:
		var b []float64
		if bias != nil {
			b = bias.AsFloat64()
		}
		conv2d(output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(), b, g, cpu.parallel)
	default:
		return nil, fmt.Errorf("conv2d: unsupported dtype %s", input.DType())
	}

	return output, nil
}

// conv2d computes the convolution image by image.
//
// For each image:
//  1. im2col: [C_in, H, W] -> col [C_in*K_h*K_w, H_out*W_out]
//  2. out[oc, p] = bias[oc] + sum_k kernel[oc, k] * col[k, p]
func conv2d[T float](out, in, kernel, bias []T, g convGeometry, cfg parallel.Config) {
	rows := g.cIn * g.kh * g.kw
	plane := g.hOut * g.wOut
	inImage := g.cIn * g.h * g.w
	col := make([]T, rows*plane)

	for n := 0; n < g.n; n++ {
		im2col(col, in[n*inImage:(n+1)*inImage], g, cfg)
		outImage := out[n*g.cOut*plane : (n+1)*g.cOut*plane]

		parallel.For(g.cOut, func(oc int) {
			dst := outImage[oc*plane : (oc+1)*plane]
			var b0 T
			if bias != nil {
				b0 = bias[oc]
			}
			for p := range dst {
				dst[p] = b0
			}

			weights := kernel[oc*rows : (oc+1)*rows]
			for k, wk := range weights {
				src := col[k*plane : (k+1)*plane]
				for p, v := range src {
					dst[p] += wk * v
				}
			}
		}, cfg)
	}
}

// im2col unrolls one image into column-matrix form.
//
// Row (c, kh, kw) of col holds, for every output position, the input pixel
// the kernel tap (kh, kw) of channel c lands on, or zero in the padding.
func im2col[T float](col, image []T, g convGeometry, cfg parallel.Config) {
	plane := g.hOut * g.wOut
	taps := g.kh * g.kw

	parallel.For(g.cIn, func(c int) {
		channel := image[c*g.h*g.w : (c+1)*g.h*g.w]
		for ki := 0; ki < g.kh; ki++ {
			for kj := 0; kj < g.kw; kj++ {
				row := c*taps + ki*g.kw + kj
				dst := col[row*plane : (row+1)*plane]
				idx := 0
				for oh := 0; oh < g.hOut; oh++ {
					ih := oh*g.stride - g.padding + ki
					rowValid := ih >= 0 && ih < g.h
					for ow := 0; ow < g.wOut; ow++ {
						iw := ow*g.stride - g.padding + kj
						if rowValid && iw >= 0 && iw < g.w {
							dst[idx] = channel[ih*g.w+iw]
						} else {
							dst[idx] = 0
						}
						idx++
					}
				}
			}
		}
	}, cfg)
}
