package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error with a kind and message.
// Kinds form a closed set produced once at the payments transport boundary
// and matched exhaustively by callers.
type DomainError struct {
	Kind    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error kinds
const (
	ErrKindNetwork        = "NETWORK_ERROR"
	ErrKindNotFound       = "NOT_FOUND"
	ErrKindServerDisabled = "SERVER_DISABLED"
	ErrKindValidation     = "VALIDATION_ERROR"
	ErrKindUnauthorized   = "UNAUTHORIZED"
	ErrKindConflict       = "CONFLICT"
	ErrKindUnknown        = "UNKNOWN"
)

// Error constructors

// NewNetworkError creates an error for a failed transport-level call
func NewNetworkError(err error) error {
	return &DomainError{
		Kind:    ErrKindNetwork,
		Message: "The service could not be reached",
		Err:     err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) error {
	return &DomainError{
		Kind:    ErrKindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewServerDisabledError creates an error for a processor reporting itself unavailable
func NewServerDisabledError() error {
	return &DomainError{
		Kind:    ErrKindServerDisabled,
		Message: "Payment system is temporarily disabled. Please try again later.",
	}
}

// NewValidationError creates a new validation error
func NewValidationError(msg string) error {
	return &DomainError{
		Kind:    ErrKindValidation,
		Message: msg,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError() error {
	return &DomainError{
		Kind:    ErrKindUnauthorized,
		Message: "Authentication required",
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(msg string) error {
	return &DomainError{
		Kind:    ErrKindConflict,
		Message: msg,
	}
}

// NewUnknownError wraps an unclassified failure
func NewUnknownError(msg string, err error) error {
	if msg == "" {
		msg = "An unexpected error occurred"
	}
	return &DomainError{
		Kind:    ErrKindUnknown,
		Message: msg,
		Err:     err,
	}
}

// Helper functions to check error kinds

func is(err error, kind string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// IsNetwork checks if the error is a transport-level failure
func IsNetwork(err error) bool {
	return is(err, ErrKindNetwork)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return is(err, ErrKindNotFound)
}

// IsServerDisabled checks if the error reports a disabled payment system
func IsServerDisabled(err error) bool {
	return is(err, ErrKindServerDisabled)
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	return is(err, ErrKindValidation)
}

// IsUnauthorized checks if the error is an unauthorized error
func IsUnauthorized(err error) bool {
	return is(err, ErrKindUnauthorized)
}

// IsConflict checks if the error is a conflict error
func IsConflict(err error) bool {
	return is(err, ErrKindConflict)
}

// Kind extracts the error kind from a domain error
func Kind(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ErrKindUnknown
}

// UserMessage extracts a message safe to show to the end user
func UserMessage(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return "An unexpected error occurred"
}
