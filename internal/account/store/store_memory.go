package store

import (
	"context"
	"fmt"
	"sync"

	"docregistry/internal/account/models"
	id "docregistry/pkg/domain"
	"docregistry/pkg/platform/sentinel"
)

// Error Contract:
// - FindByEmail returns sentinel.ErrNotFound when no account matches
// - Create returns sentinel.ErrAlreadyUsed when the email is taken
// InMemoryStore keeps accounts in memory for tests and local runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[id.AccountID]*models.Account
	byEmail  map[string]id.AccountID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		accounts: make(map[id.AccountID]*models.Account),
		byEmail:  make(map[string]id.AccountID),
	}
}

// Create checks email uniqueness and inserts under the same write lock.
func (s *InMemoryStore) Create(_ context.Context, account *models.Account) error {
	if account == nil {
		return fmt.Errorf("account is required")
	}
	key := models.NormalizeEmail(account.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[key]; taken {
		return fmt.Errorf("email %s: %w", key, sentinel.ErrAlreadyUsed)
	}
	stored := *account
	s.accounts[account.ID] = &stored
	s.byEmail[key] = account.ID
	return nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accountID, ok := s.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	found := *s.accounts[accountID]
	return &found, nil
}
