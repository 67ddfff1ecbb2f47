package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"docregistry/internal/account/models"
	id "docregistry/pkg/domain"
	"docregistry/pkg/platform/sentinel"
	"docregistry/pkg/testutil"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func newAccount(email string) *models.Account {
	return &models.Account{
		ID:           id.NewAccountID(),
		Name:         "Alice",
		Email:        email,
		PasswordHash: "$2a$10$hash",
		Role:         id.RoleCitizen,
		Address:      "0xabc",
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	account := newAccount("alice@example.com")
	require.NoError(s.T(), s.store.Create(ctx, account))

	byEmail, err := s.store.FindByEmail(ctx, "ALICE@example.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), account, byEmail)
}

func (s *InMemoryStoreSuite) TestFindNotFound() {
	ctx := context.Background()
	_, err := s.store.FindByEmail(ctx, "missing@example.com")
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestDuplicateEmailIsCaseInsensitive() {
	ctx := context.Background()
	require.NoError(s.T(), s.store.Create(ctx, newAccount("alice@example.com")))

	err := s.store.Create(ctx, newAccount("Alice@Example.com"))
	assert.ErrorIs(s.T(), err, sentinel.ErrAlreadyUsed)

	assert.Equal(s.T(), 1, s.stored())
}

func (s *InMemoryStoreSuite) TestReturnedAccountsAreCopies() {
	ctx := context.Background()
	account := newAccount("copy@example.com")
	require.NoError(s.T(), s.store.Create(ctx, account))

	found, err := s.store.FindByEmail(ctx, account.Email)
	require.NoError(s.T(), err)
	found.Name = "Mallory"

	again, err := s.store.FindByEmail(ctx, account.Email)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Alice", again.Name)
}

func (s *InMemoryStoreSuite) TestConcurrentRegistrationSameEmail() {
	ctx := context.Background()
	result := testutil.RunConcurrent(20, func(int) error {
		return s.store.Create(ctx, newAccount("race@example.com"))
	})

	assert.Equal(s.T(), int32(1), result.Successes)
	assert.Equal(s.T(), int32(19), result.Duplicates)
	assert.Zero(s.T(), result.Errors)
}

func (s *InMemoryStoreSuite) TestConcurrentRegistrationDistinctEmails() {
	ctx := context.Background()
	result := testutil.RunConcurrent(20, func(i int) error {
		return s.store.Create(ctx, newAccount(fmt.Sprintf("user%d@example.com", i)))
	})

	assert.Equal(s.T(), int32(20), result.Successes)
	assert.Equal(s.T(), 20, s.stored())
}

func (s *InMemoryStoreSuite) stored() int {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	return len(s.store.accounts)
}
