package tensor

// Add performs element-wise addition. Shapes must match exactly.
//
// Example:
//
//	a := tensor.Ones[float32](Shape{1, 64, 56, 56}, backend)
//	b := tensor.Ones[float32](Shape{1, 64, 56, 56}, backend)
//	c, err := a.Add(b)
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) (*Tensor[T, B], error) {
	result, err := t.backend.Add(t.raw, other.raw)
	if err != nil {
		return nil, err
	}
	return New[T, B](result, t.backend), nil
}

// ReLU applies max(0, x) and returns a new tensor; t is left unchanged.
func (t *Tensor[T, B]) ReLU() (*Tensor[T, B], error) {
	result, err := t.backend.ReLU(t.raw, false)
	if err != nil {
		return nil, err
	}
	return New[T, B](result, t.backend), nil
}

// MaxPool2D applies max pooling with a square window.
func (t *Tensor[T, B]) MaxPool2D(kernelSize, stride int) (*Tensor[T, B], error) {
	result, err := t.backend.MaxPool2D(t.raw, kernelSize, stride)
	if err != nil {
		return nil, err
	}
	return New[T, B](result, t.backend), nil
}
