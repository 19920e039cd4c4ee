package tensor

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when an operator receives a tensor whose rank,
// channel count or spatial size is incompatible with its configuration.
var ErrShapeMismatch = errors.New("shape mismatch")

// ShapeError provides detailed information about a shape mismatch.
//
// It unwraps to ErrShapeMismatch, so callers can test with errors.Is.
type ShapeError struct {
	Op      string // Operator that rejected the input (e.g. "conv2d")
	Got     Shape  // Shape that was received
	Want    Shape  // Expected shape, nil when only a single dimension is constrained
	Details string // Additional details
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	msg := fmt.Sprintf("%s: %v: got %v", e.Op, ErrShapeMismatch, e.Got)
	if e.Want != nil {
		msg += fmt.Sprintf(", want %v", e.Want)
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

// Unwrap returns ErrShapeMismatch.
func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}
