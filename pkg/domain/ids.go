// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "docregistry/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing an AccountID where a DocumentID is expected.
type (
	AccountID  uuid.UUID
	DocumentID uuid.UUID
)

// NewAccountID and NewDocumentID mint fresh random identifiers.
func NewAccountID() AccountID   { return AccountID(uuid.New()) }
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

// Parse functions - use at trust boundaries (handlers, token claims).

func ParseAccountID(s string) (AccountID, error) {
	id, err := parseUUID(s, "account ID")
	return AccountID(id), err
}

func ParseDocumentID(s string) (DocumentID, error) {
	id, err := parseUUID(s, "document ID")
	return DocumentID(id), err
}

func (id AccountID) String() string  { return uuid.UUID(id).String() }
func (id DocumentID) String() string { return uuid.UUID(id).String() }

func (id AccountID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}
