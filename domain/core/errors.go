package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input validation errors
	ErrShapeMismatch = errors.New("observation matrices differ in shape")
	ErrEmptyInput    = errors.New("empty observation matrix")
	ErrRaggedInput   = errors.New("observation rows differ in length")

	// Per-location conditions. These never abort a batch; engines encode them
	// as undefined record fields.
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrDegenerate       = errors.New("numerically degenerate input")
)

// NewShapeError describes a mismatch between two matrix shapes
func NewShapeError(want, got fmt.Stringer) error {
	return fmt.Errorf("%w: expected %s, got %s", ErrShapeMismatch, want, got)
}

// NewValidationError creates a field-scoped validation error
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// IsShapeError reports whether err stems from mismatched matrix shapes
func IsShapeError(err error) bool {
	return errors.Is(err, ErrShapeMismatch)
}

// IsLocalCondition reports whether err is a per-location condition that
// should be absorbed rather than propagated.
func IsLocalCondition(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrDegenerate)
}
