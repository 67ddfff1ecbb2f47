package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "docregistry/pkg/domain-errors"
)

func TestRegisterRequest(t *testing.T) {
	t.Run("normalizes email and role", func(t *testing.T) {
		req := &RegisterRequest{Name: "  Alice ", Email: " Alice@Example.COM ", Password: "password123", Role: " Citizen"}
		req.Normalize()

		assert.Equal(t, "Alice", req.Name)
		assert.Equal(t, "alice@example.com", req.Email)
		assert.Equal(t, "citizen", req.Role)
		require.NoError(t, req.Validate())
	})

	tests := []struct {
		name    string
		req     RegisterRequest
		message string
	}{
		{"missing name", RegisterRequest{Email: "a@example.com", Password: "password123", Role: "citizen"}, "name is required"},
		{"bad email", RegisterRequest{Name: "A", Email: "nope", Password: "password123", Role: "citizen"}, "email must be a valid email"},
		{"short password", RegisterRequest{Name: "A", Email: "a@example.com", Password: "short", Role: "citizen"}, "password must be at least 8"},
		{"unknown role", RegisterRequest{Name: "A", Email: "a@example.com", Password: "password123", Role: "admin"}, "role must be one of [citizen institution]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestLoginRequest(t *testing.T) {
	req := &LoginRequest{Email: " BOB@example.com", Password: "secret"}
	req.Normalize()
	assert.Equal(t, "bob@example.com", req.Email)
	assert.NoError(t, req.Validate())

	missing := &LoginRequest{Email: "bob@example.com"}
	assert.True(t, dErrors.HasCode(missing.Validate(), dErrors.CodeValidation))
}
