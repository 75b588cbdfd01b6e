package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name: "with wrapped error",
			err: &DomainError{
				Code:    "retrieval_failed",
				Message: "code retrieval failed",
				Err:     errors.New("connection refused"),
			},
			expected: "code retrieval failed: connection refused",
		},
		{
			name: "without wrapped error",
			err: &DomainError{
				Code:    "invalid_state",
				Message: "cannot complete checkout in current state",
				Err:     nil,
			},
			expected: "cannot complete checkout in current state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	domainErr := NewDomainError("test", "test message", originalErr)

	assert.Equal(t, originalErr, domainErr.Unwrap())
	assert.True(t, errors.Is(domainErr, originalErr))
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("phone", "must be exactly 8 digits")

	assert.Equal(t, "phone", err.Field)
	assert.Equal(t, "validation failed for field phone: must be exactly 8 digits", err.Error())
}
