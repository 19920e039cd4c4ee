package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/resnet/internal/tensor"
)

// Parameter represents a named tensor owned by a layer.
//
// Parameters typically represent weights and biases of layers. BatchNorm2D
// also exposes its running statistics as Parameters through Buffers; those
// are state, not learned values, and are not part of Parameters().
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
//	w := weight.Tensor()
type Parameter[B tensor.Backend] struct {
	name   string                     // Parameter name (e.g., "weight", "bias")
	tensor *tensor.Tensor[float32, B] // The parameter tensor
}

// NewParameter creates a new parameter.
//
// Parameters:
//   - name: Descriptive name for this parameter (e.g., "weight")
//   - tensor: The initialized parameter tensor
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// NumElements returns the number of scalar values held by the parameter.
func (p *Parameter[B]) NumElements() int {
	return p.tensor.NumElements()
}

// load validates src against the parameter and copies its values in.
func (p *Parameter[B]) load(stateDict map[string]*tensor.RawTensor, key string) error {
	src, ok := stateDict[key]
	if !ok {
		return fmt.Errorf("missing %s in state dict", key)
	}
	if src.DType() != tensor.Float32 {
		return fmt.Errorf("%s dtype mismatch: expected float32, got %v", key, src.DType())
	}
	if err := p.tensor.Raw().CopyFrom(src); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// CountParameters returns the total number of scalar values in params.
func CountParameters[B tensor.Backend](params []*Parameter[B]) int {
	total := 0
	for _, p := range params {
		total += p.NumElements()
	}
	return total
}

// mergeStateDict copies every entry of src into dst under prefix + ".".
func mergeStateDict(dst map[string]*tensor.RawTensor, prefix string, src map[string]*tensor.RawTensor) {
	for name, raw := range src {
		dst[prefix+"."+name] = raw
	}
}

// subStateDict extracts the entries under prefix + "." with the prefix removed.
func subStateDict(stateDict map[string]*tensor.RawTensor, prefix string) map[string]*tensor.RawTensor {
	sub := make(map[string]*tensor.RawTensor)
	prefix += "."
	for key, raw := range stateDict {
		if name, ok := strings.CutPrefix(key, prefix); ok && name != "" {
			sub[name] = raw
		}
	}
	return sub
}
