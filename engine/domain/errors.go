package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across pipeline stages.
var (
	ErrEmptyText = errors.New("empty text")
	ErrRejected  = errors.New("rejected by operator")
	ErrEmptyID   = errors.New("empty variant id")
	ErrEmptyTag  = errors.New("empty version tag")
	ErrBadID     = errors.New("variant id contains invalid characters")
)

// ValidationError wraps a sentinel with the offending field and value.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
