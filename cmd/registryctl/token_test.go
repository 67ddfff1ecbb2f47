package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "docregistry/internal/jwt_token"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	t.Run("issues a token the server accepts", func(t *testing.T) {
		out, err := runCmd(t, "token",
			"--signing-key", "test-key",
			"--account-id", "7b0c3f0e-3c55-4a3c-9d8e-2f1f3b6a7c10",
			"--role", "institution",
			"--name", "Dukcapil",
		)
		require.NoError(t, err)

		var got tokenOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "Bearer", got.Type)
		assert.Equal(t, "24h0m0s", got.ExpiresIn)

		claims, err := jwttoken.NewJWTService("test-key", 0).ValidateToken(got.Token)
		require.NoError(t, err)
		assert.Equal(t, "7b0c3f0e-3c55-4a3c-9d8e-2f1f3b6a7c10", claims.AccountID)
		assert.Equal(t, "institution", claims.Role)
		assert.Equal(t, "Dukcapil", claims.Name)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		_, err := runCmd(t, "token", "--signing-key", "k", "--role", "admin")
		assert.Error(t, err)
	})

	t.Run("bad account id rejected", func(t *testing.T) {
		_, err := runCmd(t, "token", "--signing-key", "k", "--account-id", "nope")
		assert.Error(t, err)
	})
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := runCmd(t, "migrate", "up", "--database-url", "")
	assert.ErrorContains(t, err, "DATABASE_URL is required")
}
