package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "docregistry/pkg/domain-errors"
)

type sampleRequest struct {
	DisplayName string `validate:"required,notblank"`
	Email       string `validate:"required,email"`
	Role        string `validate:"oneof=citizen institution"`
}

func TestValidate(t *testing.T) {
	t.Run("valid struct passes", func(t *testing.T) {
		err := Validate(&sampleRequest{DisplayName: "Alice", Email: "alice@example.com", Role: "citizen"})
		assert.NoError(t, err)
	})

	tests := []struct {
		name    string
		req     sampleRequest
		message string
	}{
		{"missing name", sampleRequest{Email: "a@b.co", Role: "citizen"}, "display_name is required"},
		{"blank name", sampleRequest{DisplayName: "   ", Email: "a@b.co", Role: "citizen"}, "display_name must not be blank"},
		{"bad email", sampleRequest{DisplayName: "A", Email: "nope", Role: "citizen"}, "email must be a valid email"},
		{"bad role", sampleRequest{DisplayName: "A", Email: "a@b.co", Role: "admin"}, "role must be one of [citizen institution]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.req)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}
