package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/student-records/internal/lib/apperr"
)

type input struct {
	Name            string  `json:"name" validate:"required,min=2,max=50"`
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,min=6"`
	ConfirmPassword string  `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role            string  `json:"role" validate:"omitempty,oneof=admin student"`
	Course          *string `json:"course" validate:"omitempty,min=2,max=100"`
}

func TestStruct(t *testing.T) {
	short := "C"
	tests := []struct {
		name     string
		in       input
		wantMsgs []string
	}{
		{
			name: "valid",
			in:   input{Name: "John", Email: "john@example.com", Password: "secret1", ConfirmPassword: "secret1"},
		},
		{
			name: "all broken",
			in: input{
				Name: "J", Email: "not-an-email", Password: "123", ConfirmPassword: "321",
				Role: "root", Course: &short,
			},
			wantMsgs: []string{
				"name must be at least 2 characters long",
				"email must be a valid email",
				"password must be at least 6 characters long",
				"confirmPassword must match password",
				"role must be one of [admin, student]",
				"course must be at least 2 characters long",
			},
		},
		{
			name:     "missing fields",
			in:       input{},
			wantMsgs: []string{"name is required", "email is required", "password is required", "confirmPassword is required"},
		},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.wantMsgs == nil {
				require.NoError(t, err)
				return
			}
			var verr *apperr.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantMsgs, verr.Errors)
		})
	}
}
