package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "docregistry/pkg/domain-errors"
)

func TestParseDocumentID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseDocumentID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects content identifiers", func(t *testing.T) {
		_, err := ParseDocumentID("QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseDocumentID(uuid.Nil.String())
		require.Error(t, err)
	})

	t.Run("round trips a valid UUID", func(t *testing.T) {
		raw := uuid.New()
		docID, err := ParseDocumentID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, DocumentID(raw), docID)
		assert.Equal(t, raw.String(), docID.String())
	})
}

func TestRole(t *testing.T) {
	assert.True(t, RoleCitizen.IsValid())
	assert.True(t, RoleInstitution.IsValid())
	assert.False(t, Role("admin").IsValid())
	assert.False(t, Role("").IsValid())

	p := Principal{AccountID: NewAccountID(), Role: RoleInstitution, Name: "Dukcapil"}
	assert.True(t, p.IsInstitution())
	assert.False(t, p.IsCitizen())
}
