package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFound_Wrapped(t *testing.T) {
	err := fmt.Errorf("get order ord_1: %w", ErrNotFound)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(stderrors.New("boom")))
}

func TestAsValidation(t *testing.T) {
	err := fmt.Errorf("update: %w", NewValidationError("status", "status is required"))

	v, ok := AsValidation(err)
	assert.True(t, ok)
	assert.Equal(t, "status", v.Field)
	assert.Equal(t, "status is required", v.Message)
	assert.Equal(t, "validation failed on status: status is required", v.Error())

	_, ok = AsValidation(ErrNotFound)
	assert.False(t, ok)
}

func TestTransitionError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("order ord_1: %w", &TransitionError{From: "delivered", To: "ordered"})

	assert.True(t, stderrors.Is(err, ErrInvalidTransition))
	assert.Contains(t, err.Error(), "from delivered to ordered")
}
