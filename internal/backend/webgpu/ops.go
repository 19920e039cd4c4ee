//go:build windows

package webgpu

import (
	"fmt"
	"math"

	"github.com/born-ml/resnet/internal/tensor"
)

var _ tensor.Backend = (*Backend)(nil)

// Add performs element-wise addition on GPU.
func (b *Backend) Add(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	if !a.Shape().Equal(other.Shape()) {
		return nil, &tensor.ShapeError{Op: "add", Got: other.Shape().Clone(), Want: a.Shape().Clone()}
	}
	if err := requireFloat32("add", a, other); err != nil {
		return nil, err
	}

	size := a.NumElements()
	dims, row, err := linearGrid("add", size)
	if err != nil {
		return nil, err
	}
	return b.run(kernel{
		name:       "add",
		code:       addShader,
		inputs:     []*tensor.RawTensor{a, other},
		output:     a.Shape(),
		params:     []uint32{uint32(size), row}, //nolint:gosec // G115: linearGrid bounds the element count
		workgroups: dims,
	})
}

// ReLU applies max(0, x) on GPU.
// With inplace set the result is copied back into x and x is returned.
func (b *Backend) ReLU(x *tensor.RawTensor, inplace bool) (*tensor.RawTensor, error) {
	if err := requireFloat32("relu", x); err != nil {
		return nil, err
	}

	size := x.NumElements()
	dims, row, err := linearGrid("relu", size)
	if err != nil {
		return nil, err
	}
	result, err := b.run(kernel{
		name:       "relu",
		code:       reluShader,
		inputs:     []*tensor.RawTensor{x},
		output:     x.Shape(),
		params:     []uint32{uint32(size), row}, //nolint:gosec // G115: linearGrid bounds the element count
		workgroups: dims,
	})
	if err != nil {
		return nil, err
	}
	if !inplace {
		return result, nil
	}
	if err := x.CopyFrom(result); err != nil {
		return nil, fmt.Errorf("relu: %w", err)
	}
	return x, nil
}

// BatchNorm2D normalizes each channel with running statistics on GPU.
// The per-channel scale and shift are folded on the host.
func (b *Backend) BatchNorm2D(x, gamma, beta, mean, variance *tensor.RawTensor, eps float64) (*tensor.RawTensor, error) {
	if eps < 0 {
		return nil, fmt.Errorf("batchnorm2d: invalid eps %g", eps)
	}
	_, c, h, w, err := x.Shape().NCHW("batchnorm2d")
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
	if err := requireFloat32("batchnorm2d", x, gamma, beta, mean, variance); err != nil {
		return nil, err
	}

	scale, err := tensor.NewRaw(want, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, fmt.Errorf("batchnorm2d: %w", err)
	}
	shift, err := tensor.NewRaw(want, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, fmt.Errorf("batchnorm2d: %w", err)
	}
	g, bt, m, v := gamma.AsFloat32(), beta.AsFloat32(), mean.AsFloat32(), variance.AsFloat32()
	sc, sh := scale.AsFloat32(), shift.AsFloat32()
	for ch := 0; ch < c; ch++ {
		s := float64(g[ch]) / math.Sqrt(float64(v[ch])+eps)
		sc[ch] = float32(s)
		sh[ch] = float32(float64(bt[ch]) - float64(m[ch])*s)
	}

	size := x.NumElements()
	dims, row, err := linearGrid("batchnorm2d", size)
	if err != nil {
		return nil, err
	}
	return b.run(kernel{
		name:   "batchnorm2d",
		code:   batchNormShader,
		inputs: []*tensor.RawTensor{x, scale, shift},
		output: x.Shape(),
		//nolint:gosec // G115: linearGrid bounds the element count
		params:     []uint32{uint32(size), uint32(c), uint32(h * w), row},
		workgroups: dims,
	})
}

// Conv2D performs 2D convolution on GPU.
// A nil bias is uploaded as zeros.
func (b *Backend) Conv2D(input, kernelT, bias *tensor.RawTensor, stride, padding int) (*tensor.RawTensor, error) {
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
	ks := kernelT.Shape()
	if len(ks) != 4 {
		return nil, &tensor.ShapeError{Op: "conv2d", Got: ks.Clone(), Details: "kernel must be 4D [C_out,C_in,K_h,K_w]"}
	}
	cOut, kh, kw := ks[0], ks[2], ks[3]
	if ks[1] != cIn {
		return nil, &tensor.ShapeError{
			Op:      "conv2d",
			Got:     input.Shape().Clone(),
			Details: fmt.Sprintf("input channels %d != kernel channels %d", cIn, ks[1]),
		}
	}
	if bias != nil && !bias.Shape().Equal(tensor.Shape{cOut}) {
		return nil, &tensor.ShapeError{Op: "conv2d", Got: bias.Shape().Clone(), Want: tensor.Shape{cOut}, Details: "bias"}
	}
	if h+2*padding < kh || w+2*padding < kw {
		return nil, &tensor.ShapeError{
			Op:      "conv2d",
			Got:     input.Shape().Clone(),
			Details: fmt.Sprintf("kernel %dx%d does not fit padded input %dx%d", kh, kw, h+2*padding, w+2*padding),
		}
	}
	if err := requireFloat32("conv2d", input, kernelT, bias); err != nil {
		return nil, err
	}

	if bias == nil {
		bias, err = tensor.NewRaw(tensor.Shape{cOut}, tensor.Float32, tensor.WebGPU)
		if err != nil {
			return nil, fmt.Errorf("conv2d: %w", err)
		}
	}

	hOut := tensor.ConvOutputSize(h, kh, stride, padding)
	wOut := tensor.ConvOutputSize(w, kw, stride, padding)
	dims, xSpan, zSpan, err := spatialGrid("conv2d", n*cOut, hOut, wOut)
	if err != nil {
		return nil, err
	}
	return b.run(kernel{
		name:   "conv2d",
		code:   conv2dShader,
		inputs: []*tensor.RawTensor{input, kernelT, bias},
		output: tensor.Shape{n, cOut, hOut, wOut},
		//nolint:gosec // G115: dimensions fit u32
		params: []uint32{
			uint32(n), uint32(cIn), uint32(h), uint32(w),
			uint32(cOut), uint32(kh), uint32(kw),
			uint32(stride), uint32(padding),
			uint32(hOut), uint32(wOut),
			xSpan, zSpan,
		},
		workgroups: dims,
	})
}

// MaxPool2D performs 2D max pooling on GPU.
func (b *Backend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) (*tensor.RawTensor, error) {
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
	if err := requireFloat32("maxpool2d", input); err != nil {
		return nil, err
	}

	hOut := tensor.ConvOutputSize(h, kernelSize, stride, 0)
	wOut := tensor.ConvOutputSize(w, kernelSize, stride, 0)
	dims, xSpan, zSpan, err := spatialGrid("maxpool2d", n*c, hOut, wOut)
	if err != nil {
		return nil, err
	}
	return b.run(kernel{
		name:   "maxpool2d",
		code:   maxPool2dShader,
		inputs: []*tensor.RawTensor{input},
		output: tensor.Shape{n, c, hOut, wOut},
		//nolint:gosec // G115: dimensions fit u32
		params: []uint32{
			uint32(n), uint32(c), uint32(h), uint32(w),
			uint32(hOut), uint32(wOut),
			uint32(kernelSize), uint32(stride),
			xSpan, zSpan,
		},
		workgroups: dims,
	})
}
