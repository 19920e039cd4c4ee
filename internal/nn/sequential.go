package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/resnet/internal/tensor"
)

// Sequential is a container module that chains multiple modules together.
//
// Each module's output becomes the next module's input, creating a
// sequential pipeline of transformations. Sequential is also how a
// classification head is attached to a Backbone:
//
//	model := nn.NewSequential[Backend](
//	    backbone,
//	    head,
//	)
//
//	output, err := model.Forward(input)
//
// This is equivalent to:
//
//	features, err := backbone.Forward(input)
//	output, err := head.Forward(features)
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a new Sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{
		modules: modules,
	}
}

// Forward applies all modules in sequence.
//
// The first failing module stops the chain; its error is returned wrapped
// with the module index.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	output := input

	for i, module := range s.modules {
		var err error
		if output, err = module.Forward(output); err != nil {
			return nil, fmt.Errorf("module %d: %w", i, err)
		}
	}

	return output, nil
}

// Parameters returns all trainable parameters from all modules.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]

	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}

	return params
}

// Add appends a module to the sequence.
func (s *Sequential[B]) Add(module Module[B]) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules in the sequence.
func (s *Sequential[B]) Len() int {
	return len(s.modules)
}

// Module returns the module at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential[B]) Module(index int) Module[B] {
	if index < 0 || index >= len(s.modules) {
		panic("Sequential.Module: index out of bounds")
	}
	return s.modules[index]
}

// StateDict returns a map of parameter names to raw tensors.
//
// Entries are prefixed with their module index (e.g., "0.stem.weight", "1.weight")
// to avoid name collisions.
func (s *Sequential[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)

	for i, module := range s.modules {
		mergeStateDict(stateDict, fmt.Sprint(i), module.StateDict())
	}

	return stateDict
}

// LoadStateDict loads parameters from a state dictionary.
//
// Entries should be prefixed with their module index (e.g., "0.stem.weight").
// Every module that has state must find all of its entries.
func (s *Sequential[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for i, module := range s.modules {
		if err := module.LoadStateDict(subStateDict(stateDict, fmt.Sprint(i))); err != nil {
			return fmt.Errorf("failed to load module %d: %w", i, err)
		}
	}

	return nil
}

// String lists the contained modules, one per line.
func (s *Sequential[B]) String() string {
	var sb strings.Builder
	sb.WriteString("Sequential(\n")
	for i, module := range s.modules {
		fmt.Fprintf(&sb, "  (%d): %s\n", i, indent(describe(module)))
	}
	sb.WriteString(")")
	return sb.String()
}

// describe returns the module's String() if it has one, else its type.
func describe(m any) string {
	if s, ok := m.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", m)
}

// indent prefixes every line after the first with two spaces.
func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n  ")
}
