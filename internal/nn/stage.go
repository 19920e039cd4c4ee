package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/resnet/internal/tensor"
)

// Stage is one resolution level of the backbone: an entry step followed by
// residual blocks at the stage's output width.
//
// The entry step is either a bare 2x2 max pool (the first stage, which keeps
// its channel count) or a pooling ConvUnit that changes the channel count.
// Either way the entry halves height and width.
type Stage[B tensor.Backend] struct {
	name   string
	in     int
	out    int
	pool   *MaxPool2D[B] // entry without channel change, or nil
	entry  *ConvUnit[B]  // entry with channel change, or nil
	blocks []*ResidualBlock[B]
}

func newStage[B tensor.Backend](p stagePlan, backend B) (*Stage[B], error) {
	s := &Stage[B]{name: p.name, in: p.in, out: p.out}

	if p.entryUnit {
		entry, err := NewConvUnit(ConvUnitConfig{InChannels: p.in, OutChannels: p.out, Pool: true}, backend)
		if err != nil {
			return nil, err
		}
		s.entry = entry
	} else {
		s.pool = NewMaxPool2D(poolKernel, poolStride, backend)
	}

	for i := 0; i < p.blocks; i++ {
		block, err := NewResidualBlock(p.out, backend)
		if err != nil {
			return nil, err
		}
		s.blocks = append(s.blocks, block)
	}
	return s, nil
}

// Forward applies the entry step, then every residual block.
func (s *Stage[B]) Forward(x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	var (
		h   *tensor.Tensor[float32, B]
		err error
	)
	if s.entry != nil {
		h, err = s.entry.Forward(x)
	} else {
		h, err = s.pool.Forward(x)
	}
	if err != nil {
		return nil, fmt.Errorf("entry: %w", err)
	}

	for i, block := range s.blocks {
		if h, err = block.Forward(h); err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
	}
	return h, nil
}

// OutputShape infers the output shape for an input shape without computing anything.
func (s *Stage[B]) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	var (
		out tensor.Shape
		err error
	)
	if s.entry != nil {
		out, err = s.entry.OutputShape(in)
	} else {
		out, err = s.pool.OutputShape(in)
	}
	if err != nil {
		return nil, fmt.Errorf("entry: %w", err)
	}

	for i, block := range s.blocks {
		if out, err = block.OutputShape(out); err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
	}
	return out, nil
}

// Name returns the stage name (e.g., "stage2").
func (s *Stage[B]) Name() string {
	return s.name
}

// InChannels returns the channel count the stage expects.
func (s *Stage[B]) InChannels() int {
	return s.in
}

// OutChannels returns the channel count the stage produces.
func (s *Stage[B]) OutChannels() int {
	return s.out
}

// Entry returns the entry ConvUnit, or nil for a pool-only entry.
func (s *Stage[B]) Entry() *ConvUnit[B] {
	return s.entry
}

// Blocks returns the residual blocks in application order.
func (s *Stage[B]) Blocks() []*ResidualBlock[B] {
	return s.blocks
}

// Parameters returns the parameters of the entry unit and every block.
func (s *Stage[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	if s.entry != nil {
		params = append(params, s.entry.Parameters()...)
	}
	for _, block := range s.blocks {
		params = append(params, block.Parameters()...)
	}
	return params
}

// Buffers returns the running statistics of the entry unit and every block.
func (s *Stage[B]) Buffers() []*Parameter[B] {
	var buffers []*Parameter[B]
	if s.entry != nil {
		buffers = append(buffers, s.entry.Buffers()...)
	}
	for _, block := range s.blocks {
		buffers = append(buffers, block.Buffers()...)
	}
	return buffers
}

// StateDict returns entries under "entry." and "blocks.<i>.".
func (s *Stage[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	if s.entry != nil {
		mergeStateDict(stateDict, "entry", s.entry.StateDict())
	}
	for i, block := range s.blocks {
		mergeStateDict(stateDict, fmt.Sprintf("blocks.%d", i), block.StateDict())
	}
	return stateDict
}

// LoadStateDict loads entries under "entry." and "blocks.<i>.".
func (s *Stage[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if s.entry != nil {
		if err := s.entry.LoadStateDict(subStateDict(stateDict, "entry")); err != nil {
			return fmt.Errorf("entry: %w", err)
		}
	}
	for i, block := range s.blocks {
		if err := block.LoadStateDict(subStateDict(stateDict, fmt.Sprintf("blocks.%d", i))); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}
	return nil
}

// String lists the entry step and blocks, one per line.
func (s *Stage[B]) String() string {
	var sb strings.Builder
	sb.WriteString("Stage(\n")
	if s.entry != nil {
		fmt.Fprintf(&sb, "  (entry): %s\n", s.entry)
	} else {
		fmt.Fprintf(&sb, "  (entry): %s\n", s.pool)
	}
	for i, block := range s.blocks {
		fmt.Fprintf(&sb, "  (%d): %s\n", i, block)
	}
	sb.WriteString(")")
	return sb.String()
}
