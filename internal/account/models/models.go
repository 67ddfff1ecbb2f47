package models

import (
	"strings"
	"time"

	id "docregistry/pkg/domain"
)

// Account is a registered citizen or institution. Accounts are never mutated after creation.
type Account struct {
	ID           id.AccountID
	Name         string
	Email        string
	PasswordHash string
	Role         id.Role
	Address      string
	CreatedAt    time.Time
}

// NormalizeEmail is the canonical form used for uniqueness checks and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Principal returns the identity carried in issued tokens.
func (a *Account) Principal() id.Principal {
	return id.Principal{AccountID: a.ID, Role: a.Role, Name: a.Name}
}

// Public is the projection returned to clients after login.
func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:     a.ID.String(),
		Name:   a.Name,
		Role:   a.Role.String(),
		Wallet: a.Address,
	}
}
