// Package cpu implements the CPU backend in pure Go.
package cpu

import (
	"fmt"

	"github.com/born-ml/resnet/internal/parallel"
	"github.com/born-ml/resnet/internal/tensor"
)

// float is the element-type constraint shared by the typed kernels.
type float interface {
	~float32 | ~float64
}

// CPUBackend implements tensor operations on CPU.
//
// Work inside a single operator is spread over goroutines according to its
// parallel.Config; each operator call still returns only once its result is complete.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a new CPU backend with parallel.DefaultConfig.
func New() *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: parallel.DefaultConfig(),
	}
}

// NewWithConfig creates a CPU backend with an explicit parallelism config.
// Use parallel.Sequential() for fully single-threaded execution.
func NewWithConfig(cfg parallel.Config) (*CPUBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cpu: %w", err)
	}
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: cfg,
	}, nil
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Config returns the parallelism config used by the kernels.
func (cpu *CPUBackend) Config() parallel.Config {
	return cpu.parallel
}

// Add performs element-wise addition. Shapes must match exactly; no operand is modified.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	if !a.Shape().Equal(b.Shape()) {
		return nil, &tensor.ShapeError{Op: "add", Got: b.Shape().Clone(), Want: a.Shape().Clone()}
	}
	if a.DType() != b.DType() {
		return nil, fmt.Errorf("add: dtype mismatch %s vs %s", a.DType(), b.DType())
	}

	result, err := tensor.NewRaw(a.Shape(), a.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}

	switch a.DType() {
	case tensor.Float32:
		addInto(result.AsFloat32(), a.AsFloat32(), b.AsFloat32())
	case tensor.Float64:
		addInto(result.AsFloat64(), a.AsFloat64(), b.AsFloat64())
	default:
		return nil, fmt.Errorf("add: unsupported dtype %s", a.DType())
	}
	return result, nil
}

func addInto[T float](dst, a, b []T) {
	b = b[:len(a)]
	dst = dst[:len(a)]
	for i, v := range a {
		dst[i] = v + b[i]
	}
}

// sameDType checks that every non-nil operand shares the dtype of the first.
func sameDType(op string, first *tensor.RawTensor, rest ...*tensor.RawTensor) error {
	for _, r := range rest {
		if r != nil && r.DType() != first.DType() {
			return fmt.Errorf("%s: dtype mismatch %s vs %s", op, first.DType(), r.DType())
		}
	}
	return nil
}
