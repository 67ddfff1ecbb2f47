//go:build integration

package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"docregistry/pkg/platform/sentinel"
	"docregistry/pkg/testutil"
	"docregistry/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	account := newAccount("alice@example.com")
	s.Require().NoError(s.store.Create(ctx, account))

	found, err := s.store.FindByEmail(ctx, "ALICE@EXAMPLE.COM")
	s.Require().NoError(err)
	s.Equal(account.ID, found.ID)
	s.Equal(account.Address, found.Address)
	s.True(account.CreatedAt.Equal(found.CreatedAt))
}

func (s *PostgresStoreSuite) TestUniqueIndexIsCaseInsensitive() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newAccount("bob@example.com")))

	err := s.store.Create(ctx, newAccount("Bob@Example.com"))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestConcurrentRegistrationSameEmail() {
	ctx := context.Background()
	result := testutil.RunConcurrent(10, func(int) error {
		return s.store.Create(ctx, newAccount("race@example.com"))
	})

	s.Equal(int32(1), result.Successes)
	s.Equal(int32(9), result.Duplicates)

	s.Equal(1, s.countAccounts())
}

func (s *PostgresStoreSuite) TestDistinctEmails() {
	ctx := context.Background()
	for i := range 3 {
		s.Require().NoError(s.store.Create(ctx, newAccount(fmt.Sprintf("user%d@example.com", i))))
	}
	s.Equal(3, s.countAccounts())
}

func (s *PostgresStoreSuite) countAccounts() int {
	var n int
	s.Require().NoError(s.postgres.DB.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM accounts`).Scan(&n))
	return n
}
