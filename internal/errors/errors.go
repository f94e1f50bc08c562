// Package errors defines the error values shared by the orders service.
package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an order or product does not exist.
	ErrNotFound = stderrors.New("not found")

	// ErrInvalidTransition is returned when a status change is not allowed by the order state machine.
	ErrInvalidTransition = stderrors.New("invalid status transition")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
	Details map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Details: map[string]string{"field": field},
	}
}

// TransitionError reports a rejected status change. It matches ErrInvalidTransition.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound)
}

// AsValidation extracts a *ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if stderrors.As(err, &v) {
		return v, true
	}
	return nil, false
}
