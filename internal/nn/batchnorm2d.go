package nn

import (
	"fmt"

	"github.com/born-ml/resnet/internal/tensor"
)

// BatchNorm2D normalizes each channel of an NCHW tensor with running statistics.
//
// Formula: y = (x - running_mean[c]) / sqrt(running_var[c] + eps) * gamma[c] + beta[c]
//
// Only inference mode is implemented: the running statistics are read, never
// updated. Fresh layers start from gamma=1, beta=0, running_mean=0,
// running_var=1; learned values are supplied through LoadStateDict.
//
// Example:
//
//	bn := nn.NewBatchNorm2D(64, 1e-5, backend)
//	output, err := bn.Forward(features) // [N, 64, H, W] -> [N, 64, H, W]
type BatchNorm2D[B tensor.Backend] struct {
	numFeatures int
	Epsilon     float32 // numerical stability constant

	Gamma       *Parameter[B] // learnable scale [C]
	Beta        *Parameter[B] // learnable shift [C]
	RunningMean *Parameter[B] // buffer [C]
	RunningVar  *Parameter[B] // buffer [C]

	backend B
}

// NewBatchNorm2D creates a new BatchNorm2D layer.
//
// Parameters:
//   - numFeatures: number of channels C
//   - epsilon: small constant for numerical stability (typically 1e-5)
//   - backend: computation backend
func NewBatchNorm2D[B tensor.Backend](numFeatures int, epsilon float32, backend B) *BatchNorm2D[B] {
	if numFeatures <= 0 {
		panic(fmt.Sprintf("batchnorm2d: invalid num_features %d", numFeatures))
	}
	if epsilon < 0 {
		panic(fmt.Sprintf("batchnorm2d: invalid epsilon %g", epsilon))
	}

	shape := tensor.Shape{numFeatures}
	return &BatchNorm2D[B]{
		numFeatures: numFeatures,
		Epsilon:     epsilon,
		Gamma:       NewParameter("weight", Ones(shape, backend)),
		Beta:        NewParameter("bias", Zeros(shape, backend)),
		RunningMean: NewParameter("running_mean", Zeros(shape, backend)),
		RunningVar:  NewParameter("running_var", Ones(shape, backend)),
		backend:     backend,
	}
}

// Forward normalizes the input. The input tensor is not modified.
func (bn *BatchNorm2D[B]) Forward(x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	out, err := bn.backend.BatchNorm2D(
		x.Raw(),
		bn.Gamma.Tensor().Raw(),
		bn.Beta.Tensor().Raw(),
		bn.RunningMean.Tensor().Raw(),
		bn.RunningVar.Tensor().Raw(),
		float64(bn.Epsilon),
	)
	if err != nil {
		return nil, err
	}
	return tensor.New[float32, B](out, bn.backend), nil
}

// Parameters returns gamma and beta.
func (bn *BatchNorm2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{bn.Gamma, bn.Beta}
}

// Buffers returns the running statistics.
func (bn *BatchNorm2D[B]) Buffers() []*Parameter[B] {
	return []*Parameter[B]{bn.RunningMean, bn.RunningVar}
}

// StateDict returns parameters and buffers keyed by name.
func (bn *BatchNorm2D[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for _, p := range bn.all() {
		stateDict[p.Name()] = p.Tensor().Raw()
	}
	return stateDict
}

// LoadStateDict loads parameters and buffers from a state dictionary.
func (bn *BatchNorm2D[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for _, p := range bn.all() {
		if err := p.load(stateDict, p.Name()); err != nil {
			return err
		}
	}
	return nil
}

func (bn *BatchNorm2D[B]) all() []*Parameter[B] {
	return append(bn.Parameters(), bn.Buffers()...)
}

// NumFeatures returns the number of normalized channels.
func (bn *BatchNorm2D[B]) NumFeatures() int {
	return bn.numFeatures
}

// String returns a string representation of the layer.
func (bn *BatchNorm2D[B]) String() string {
	return fmt.Sprintf("BatchNorm2D(num_features=%d, eps=%g)", bn.numFeatures, bn.Epsilon)
}
