package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := NewValidation("Name is required", "Email is required")

	assert.Equal(t, "validation failed: Name is required, Email is required", err.Error())

	var target *ValidationError
	wrapped := fmt.Errorf("auth.Register: %w", err)
	assert.True(t, errors.As(wrapped, &target))
	assert.Len(t, target.Errors, 2)
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		unauthorized bool
		notFound     bool
	}{
		{"token expired", fmt.Errorf("op: %w", ErrTokenExpired), true, false},
		{"token invalid", ErrTokenInvalid, true, false},
		{"invalid credentials", ErrInvalidCredentials, true, false},
		{"student not found", fmt.Errorf("op: %w", ErrStudentNotFound), false, true},
		{"account not found", ErrAccountNotFound, false, true},
		{"forbidden", ErrForbidden, false, false},
		{"other", errors.New("boom"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unauthorized, IsUnauthorized(tt.err))
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
		})
	}
}
