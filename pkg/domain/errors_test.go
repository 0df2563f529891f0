package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		kind  string
		check func(error) bool
	}{
		{"network", NewNetworkError(errors.New("refused")), ErrKindNetwork, IsNetwork},
		{"not found", NewNotFoundError("plan"), ErrKindNotFound, IsNotFound},
		{"server disabled", NewServerDisabledError(), ErrKindServerDisabled, IsServerDisabled},
		{"validation", NewValidationError("bad input"), ErrKindValidation, IsValidation},
		{"unauthorized", NewUnauthorizedError(), ErrKindUnauthorized, IsUnauthorized},
		{"conflict", NewConflictError("busy"), ErrKindConflict, IsConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, Kind(tt.err))
			assert.True(t, tt.check(tt.err))
		})
	}
}

func TestKind_UnclassifiedError(t *testing.T) {
	assert.Equal(t, ErrKindUnknown, Kind(errors.New("plain")))
}

func TestKind_WrappedError(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", NewNotFoundError("order"))
	assert.Equal(t, ErrKindNotFound, Kind(wrapped))
	assert.True(t, IsNotFound(wrapped))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "bad input", UserMessage(NewValidationError("bad input")))
	assert.Equal(t, "plan not found", UserMessage(NewNotFoundError("plan")))
	assert.Equal(t, "An unexpected error occurred", UserMessage(errors.New("internal detail")))
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewNetworkError(cause)
	assert.ErrorIs(t, err, cause)
}

func TestNewUnknownError_DefaultMessage(t *testing.T) {
	err := NewUnknownError("", errors.New("x"))
	assert.Equal(t, "An unexpected error occurred", UserMessage(err))
}
