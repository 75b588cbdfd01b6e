package errors

import (
	"errors"
	"fmt"
)

var (
	// Catalog errors
	ErrPassNotFound = errors.New("pass not found")

	// Session errors
	ErrSessionNotFound        = errors.New("session not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrCheckoutAlreadyDone    = errors.New("checkout already completed")

	// Checkout errors
	ErrCheckoutDeclined = errors.New("payment was not approved")

	// Retrieval errors. These describe why a lineage failed; they travel
	// inside the outcome value, never across the engine boundary.
	ErrRetrievalTransport = errors.New("code endpoint unreachable")
	ErrRetrievalServer    = errors.New("code endpoint returned an error")
	ErrCodeNotFound       = errors.New("no code found for this transaction")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidInput     = errors.New("invalid input")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
