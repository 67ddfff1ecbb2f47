package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"docregistry/internal/document/models"
	id "docregistry/pkg/domain"
	"docregistry/pkg/platform/sentinel"
	"docregistry/pkg/testutil"
)

type InMemoryStoreSuite struct {
	storeContract
	memory *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.memory = NewInMemoryStore()
	s.store = s.memory
}

func (s *InMemoryStoreSuite) TestDuplicateIDRejected() {
	doc := s.create(newDocument("KTP", 0))
	err := s.memory.Create(context.Background(), doc)
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *InMemoryStoreSuite) TestCallersCannotMutateStoredState() {
	owner := id.NewAccountID()
	doc := newDocument("KTP", 0)
	doc.OwnerID = &owner
	s.create(doc)

	doc.Title = "changed after create"
	found, err := s.memory.FindByID(context.Background(), doc.ID)
	s.Require().NoError(err)
	s.Equal("KTP", found.Title)

	*found.OwnerID = id.NewAccountID()
	again, err := s.memory.FindByID(context.Background(), doc.ID)
	s.Require().NoError(err)
	s.Equal(owner, *again.OwnerID)
}

func (s *InMemoryStoreSuite) TestConcurrentStatusUpdatesHaveOneWinner() {
	doc := s.create(newDocument("KTP", 0))

	result := testutil.RunConcurrent(10, func(i int) error {
		to := models.StatusVerified
		if i%2 == 0 {
			to = models.StatusRejected
		}
		_, err := s.memory.UpdateStatus(context.Background(), doc.ID, models.StatusPending, to)
		return err
	})

	s.Equal(int32(1), result.Successes)
	s.Equal(int32(9), result.Errors)
}
