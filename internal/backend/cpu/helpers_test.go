package cpu

import (
	"errors"

	"github.com/born-ml/resnet/internal/tensor"
)

func errorIsShapeMismatch(err error) bool {
	return errors.Is(err, tensor.ErrShapeMismatch)
}
