package tensor

import (
	"fmt"
	"math"
)

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a simple backend for testing.
// It implements all operations as direct nested loops over float32 data,
// accumulating in float64, for correctness verification of real backends.
type MockBackend struct{}

// NewMockBackend creates a new MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockBackend) Device() Device {
	return CPU
}

// Add performs element-wise addition.
func (m *MockBackend) Add(a, b *RawTensor) (*RawTensor, error) {
	if !a.Shape().Equal(b.Shape()) {
		return nil, &ShapeError{Op: "add", Got: b.Shape().Clone(), Want: a.Shape().Clone()}
	}
	result, err := m.like(a.Shape())
	if err != nil {
		return nil, err
	}
	x, y, out := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()
	for i := range out {
		out[i] = x[i] + y[i]
	}
	return result, nil
}

// Conv2D computes every output element as a direct sum over the receptive field.
func (m *MockBackend) Conv2D(input, kernel, bias *RawTensor, stride, padding int) (*RawTensor, error) {
	n, cIn, h, w, err := input.Shape().NCHW("conv2d")
	if err != nil {
		return nil, err
	}
	ks := kernel.Shape()
	if len(ks) != 4 || ks[1] != cIn {
		return nil, &ShapeError{Op: "conv2d", Got: ks.Clone(), Details: "kernel"}
	}
	cOut, kh, kw := ks[0], ks[2], ks[3]
	hOut := ConvOutputSize(h, kh, stride, padding)
	wOut := ConvOutputSize(w, kw, stride, padding)

	result, err := m.like(Shape{n, cOut, hOut, wOut})
	if err != nil {
		return nil, err
	}

	in, k, out := input.AsFloat32(), kernel.AsFloat32(), result.AsFloat32()
	idx := 0
	for b := 0; b < n; b++ {
		for oc := 0; oc < cOut; oc++ {
			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					var sum float64
					if bias != nil {
						sum = float64(bias.AsFloat32()[oc])
					}
					for ic := 0; ic < cIn; ic++ {
						for i := 0; i < kh; i++ {
							for j := 0; j < kw; j++ {
								ih := oh*stride - padding + i
								iw := ow*stride - padding + j
								if ih < 0 || ih >= h || iw < 0 || iw >= w {
									continue
								}
								sum += float64(in[((b*cIn+ic)*h+ih)*w+iw]) *
									float64(k[((oc*cIn+ic)*kh+i)*kw+j])
							}
						}
					}
					out[idx] = float32(sum)
					idx++
				}
			}
		}
	}
	return result, nil
}

// BatchNorm2D applies the normalization formula element by element.
func (m *MockBackend) BatchNorm2D(x, gamma, beta, mean, variance *RawTensor, eps float64) (*RawTensor, error) {
	_, c, h, w, err := x.Shape().NCHW("batchnorm2d")
	if err != nil {
		return nil, err
	}
	result, err := m.like(x.Shape())
	if err != nil {
		return nil, err
	}

	in, out := x.AsFloat32(), result.AsFloat32()
	g, bt, mu, v := gamma.AsFloat32(), beta.AsFloat32(), mean.AsFloat32(), variance.AsFloat32()
	plane := h * w
	for i := range out {
		ch := (i / plane) % c
		norm := (float64(in[i]) - float64(mu[ch])) / math.Sqrt(float64(v[ch])+eps)
		out[i] = float32(norm*float64(g[ch]) + float64(bt[ch]))
	}
	return result, nil
}

// ReLU computes max(0, x).
func (m *MockBackend) ReLU(x *RawTensor, inplace bool) (*RawTensor, error) {
	result := x
	if !inplace {
		var err error
		if result, err = m.like(x.Shape()); err != nil {
			return nil, err
		}
	}
	in, out := x.AsFloat32(), result.AsFloat32()
	for i, v := range in {
		out[i] = float32(math.Max(0, float64(v)))
	}
	return result, nil
}

// MaxPool2D scans every window.
func (m *MockBackend) MaxPool2D(input *RawTensor, kernelSize, stride int) (*RawTensor, error) {
	n, c, h, w, err := input.Shape().NCHW("maxpool2d")
	if err != nil {
		return nil, err
	}
	if kernelSize > h || kernelSize > w {
		return nil, &ShapeError{Op: "maxpool2d", Got: input.Shape().Clone(), Details: fmt.Sprintf("kernel %d", kernelSize)}
	}
	hOut := ConvOutputSize(h, kernelSize, stride, 0)
	wOut := ConvOutputSize(w, kernelSize, stride, 0)
	result, err := m.like(Shape{n, c, hOut, wOut})
	if err != nil {
		return nil, err
	}

	in, out := input.AsFloat32(), result.AsFloat32()
	idx := 0
	for p := 0; p < n*c; p++ {
		for oh := 0; oh < hOut; oh++ {
			for ow := 0; ow < wOut; ow++ {
				best := math.Inf(-1)
				for i := 0; i < kernelSize; i++ {
					for j := 0; j < kernelSize; j++ {
						best = math.Max(best, float64(in[(p*h+oh*stride+i)*w+ow*stride+j]))
					}
				}
				out[idx] = float32(best)
				idx++
			}
		}
	}
	return result, nil
}

func (m *MockBackend) like(shape Shape) (*RawTensor, error) {
	return NewRaw(shape, Float32, m.Device())
}
