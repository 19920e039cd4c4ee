package tensor

// Backend defines the primitive operators the network layers are composed from.
// Backends handle the actual computation; layers only configure and sequence them.
//
// Every operator validates its operands and returns a *ShapeError (wrapping
// ErrShapeMismatch) instead of producing a partial result.
//
// Implementations:
//   - CPU: pure Go, optionally parallel across batch and channels
//   - WebGPU: WGSL compute shaders (windows)
type Backend interface {
	// Add performs element-wise addition of two tensors of identical shape.
	// Neither operand is modified.
	Add(a, b *RawTensor) (*RawTensor, error)

	// Conv2D performs 2D convolution.
	// Input [N, C_in, H, W], kernel [C_out, C_in, K_h, K_w], bias [C_out] or nil.
	// Output [N, C_out, (H+2p-K_h)/s+1, (W+2p-K_w)/s+1].
	Conv2D(input, kernel, bias *RawTensor, stride, padding int) (*RawTensor, error)

	// BatchNorm2D normalizes each channel of x with running statistics:
	//
	//	y = (x - mean[c]) / sqrt(variance[c] + eps) * gamma[c] + beta[c]
	//
	// gamma, beta, mean and variance are 1D tensors of length C.
	BatchNorm2D(x, gamma, beta, mean, variance *RawTensor, eps float64) (*RawTensor, error)

	// ReLU computes max(0, x) element-wise.
	// With inplace set, x itself is overwritten and returned; callers must
	// only request this for tensors nothing else references.
	ReLU(x *RawTensor, inplace bool) (*RawTensor, error)

	// MaxPool2D performs max pooling with a square window and no padding.
	// Output [N, C, (H-k)/s+1, (W-k)/s+1].
	MaxPool2D(input *RawTensor, kernelSize, stride int) (*RawTensor, error)

	// Metadata
	Name() string
	Device() Device
}
