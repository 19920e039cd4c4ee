package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/resnet/internal/tensor"
)

// Stem geometry: 7x7 convolution, stride 2, padding 3, RGB in.
const (
	stemInChannels  = 3
	stemOutChannels = 64
	stemKernel      = 7
	stemStride      = 2
	stemPadding     = 3
)

// stagePlan describes one stage of the backbone.
type stagePlan struct {
	name      string
	in, out   int
	entryUnit bool // open with a pooling ConvUnit in -> out instead of a bare max pool
	blocks    int
}

// resnet18 is the 18-layer stage layout: 64 -> 64 -> 128 -> 256 -> 512.
var resnet18 = []stagePlan{
	{name: "stage1", in: 64, out: 64, blocks: 2},
	{name: "stage2", in: 64, out: 128, entryUnit: true, blocks: 2},
	{name: "stage3", in: 128, out: 256, entryUnit: true, blocks: 2},
	{name: "stage4", in: 256, out: 512, entryUnit: true, blocks: 2},
}

// validatePlan checks that every stage consumes what the previous one produces.
func validatePlan(stemOut int, plan []stagePlan) error {
	if len(plan) == 0 {
		return fmt.Errorf("%w: backbone has no stages", ErrInvalidConfig)
	}
	prev := stemOut
	for _, p := range plan {
		switch {
		case p.in != prev:
			return fmt.Errorf("%w: %s expects %d channels, previous stage produces %d",
				ErrInvalidConfig, p.name, p.in, prev)
		case !p.entryUnit && p.in != p.out:
			return fmt.Errorf("%w: %s changes channels %d -> %d without an entry unit",
				ErrInvalidConfig, p.name, p.in, p.out)
		case p.in <= 0 || p.out <= 0:
			return fmt.Errorf("%w: %s has non-positive channels", ErrInvalidConfig, p.name)
		case p.blocks < 0:
			return fmt.Errorf("%w: %s has %d blocks", ErrInvalidConfig, p.name, p.blocks)
		}
		prev = p.out
	}
	return nil
}

// StageHook observes the output of each named stage during ForwardWithHook.
// The stem reports as "stem".
type StageHook[B tensor.Backend] func(stage string, out *tensor.Tensor[float32, B])

// Backbone is the 18-layer residual feature extractor.
//
// Architecture:
//
//	stem:   Conv2D(3 -> 64, 7x7, stride 2, padding 3)
//	stage1: MaxPool2D(2x2, stride 2), 2 x ResidualBlock(64)
//	stage2: ConvUnit(64 -> 128, pool), 2 x ResidualBlock(128)
//	stage3: ConvUnit(128 -> 256, pool), 2 x ResidualBlock(256)
//	stage4: ConvUnit(256 -> 512, pool), 2 x ResidualBlock(512)
//
// Input [N, 3, H, W] maps to features [N, 512, H/32, W/32] when H and W are
// multiples of 32; otherwise each stride-2 step floors.
//
// The backbone has no classification head. It implements Module, so a head
// is attached with Sequential:
//
//	model := nn.NewSequential[Backend](backbone, head)
//
// Parameters are only read during Forward, so one Backbone may serve
// concurrent Forward calls. LoadStateDict must not run concurrently with Forward.
type Backbone[B tensor.Backend] struct {
	stem   *Conv2D[B]
	stages []*Stage[B]
}

// NewBackbone creates the backbone with freshly initialized parameters.
func NewBackbone[B tensor.Backend](backend B) (*Backbone[B], error) {
	return newBackbone(resnet18, backend)
}

func newBackbone[B tensor.Backend](plan []stagePlan, backend B) (*Backbone[B], error) {
	if err := validatePlan(stemOutChannels, plan); err != nil {
		return nil, err
	}

	b := &Backbone[B]{
		stem: NewConv2D(stemInChannels, stemOutChannels, stemKernel, stemKernel, stemStride, stemPadding, true, backend),
	}
	for _, p := range plan {
		stage, err := newStage(p, backend)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.name, err)
		}
		b.stages = append(b.stages, stage)
	}
	return b, nil
}

// Forward computes the feature map for a batch of RGB images.
//
// Errors are wrapped with the name of the failing stage; no partial output
// is returned.
func (b *Backbone[B]) Forward(x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	return b.ForwardWithHook(x, nil)
}

// ForwardWithHook is Forward with hook called after the stem and after each stage.
// A nil hook is allowed.
func (b *Backbone[B]) ForwardWithHook(x *tensor.Tensor[float32, B], hook StageHook[B]) (*tensor.Tensor[float32, B], error) {
	h, err := b.stem.Forward(x)
	if err != nil {
		return nil, fmt.Errorf("stem: %w", err)
	}
	if hook != nil {
		hook("stem", h)
	}

	for _, stage := range b.stages {
		if h, err = stage.Forward(h); err != nil {
			return nil, fmt.Errorf("%s: %w", stage.name, err)
		}
		if hook != nil {
			hook(stage.name, h)
		}
	}
	return h, nil
}

// OutputShape infers the feature-map shape for an input shape without computing anything.
func (b *Backbone[B]) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	out, err := b.stem.OutputShape(in)
	if err != nil {
		return nil, fmt.Errorf("stem: %w", err)
	}
	for _, stage := range b.stages {
		if out, err = stage.OutputShape(out); err != nil {
			return nil, fmt.Errorf("%s: %w", stage.name, err)
		}
	}
	return out, nil
}

// Channels returns the channel count after each step, starting with the input:
// [3 64 64 128 256 512].
func (b *Backbone[B]) Channels() []int {
	channels := []int{b.stem.InChannels(), b.stem.OutChannels()}
	for _, stage := range b.stages {
		channels = append(channels, stage.OutChannels())
	}
	return channels
}

// Stem returns the stem convolution.
func (b *Backbone[B]) Stem() *Conv2D[B] {
	return b.stem
}

// Stages returns the stages in application order.
func (b *Backbone[B]) Stages() []*Stage[B] {
	return b.stages
}

// Parameters returns all learned parameters, stem first.
func (b *Backbone[B]) Parameters() []*Parameter[B] {
	params := b.stem.Parameters()
	for _, stage := range b.stages {
		params = append(params, stage.Parameters()...)
	}
	return params
}

// Buffers returns the running statistics of every batch norm.
func (b *Backbone[B]) Buffers() []*Parameter[B] {
	var buffers []*Parameter[B]
	for _, stage := range b.stages {
		buffers = append(buffers, stage.Buffers()...)
	}
	return buffers
}

// NumParameters returns the number of learned scalar values.
func (b *Backbone[B]) NumParameters() int {
	return CountParameters(b.Parameters())
}

// StateDict returns entries under "stem." and "<stage>.".
func (b *Backbone[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	mergeStateDict(stateDict, "stem", b.stem.StateDict())
	for _, stage := range b.stages {
		mergeStateDict(stateDict, stage.name, stage.StateDict())
	}
	return stateDict
}

// LoadStateDict copies learned values into the backbone.
//
// Every entry that StateDict reports must be present with the same shape.
func (b *Backbone[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := b.stem.LoadStateDict(subStateDict(stateDict, "stem")); err != nil {
		return fmt.Errorf("stem: %w", err)
	}
	for _, stage := range b.stages {
		if err := stage.LoadStateDict(subStateDict(stateDict, stage.name)); err != nil {
			return fmt.Errorf("%s: %w", stage.name, err)
		}
	}
	return nil
}

// String returns a printable architecture summary.
func (b *Backbone[B]) String() string {
	var sb strings.Builder
	sb.WriteString("Backbone(\n")
	fmt.Fprintf(&sb, "  (stem): %s\n", b.stem)
	for _, stage := range b.stages {
		fmt.Fprintf(&sb, "  (%s): %s\n", stage.name, indent(stage.String()))
	}
	sb.WriteString(")")
	return sb.String()
}
