package store

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"docregistry/internal/document/models"
	id "docregistry/pkg/domain"
	"docregistry/pkg/platform/sentinel"
)

type documentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	ListAll(ctx context.Context) ([]*models.Document, error)
	ListByOwner(ctx context.Context, owner id.AccountID) ([]*models.Document, error)
	UpdateStatus(ctx context.Context, docID id.DocumentID, from, to models.Status) (*models.Document, error)
	FindByIdentifier(ctx context.Context, identifier string) (*models.Document, error)
}

var baseTime = time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

func newDocument(title string, offset time.Duration) *models.Document {
	return &models.Document{
		ID:        id.NewDocumentID(),
		Title:     title,
		Type:      "identity",
		OwnerName: "Alice",
		Status:    models.StatusPending,
		CreatedAt: baseTime.Add(offset),
	}
}

// storeContract holds the behavior every document store must share. Suites embed it
// and set store in SetupTest.
type storeContract struct {
	suite.Suite
	store documentStore
}

func (s *storeContract) create(doc *models.Document) *models.Document {
	s.Require().NoError(s.store.Create(context.Background(), doc))
	return doc
}

func (s *storeContract) TestCreateAndFind() {
	owner := id.NewAccountID()
	registryID := int64(42)
	doc := newDocument("KTP", 0)
	doc.OwnerID = &owner
	doc.ContentID = "Qm123"
	doc.RegistryRef = "0xcontract"
	doc.RegistryID = &registryID
	s.create(doc)

	found, err := s.store.FindByID(context.Background(), doc.ID)
	s.Require().NoError(err)
	s.Equal(doc.Title, found.Title)
	s.Equal(owner, *found.OwnerID)
	s.Equal("Qm123", found.ContentID)
	s.Empty(found.TxRef)
	s.Equal(int64(42), *found.RegistryID)
	s.True(doc.CreatedAt.Equal(found.CreatedAt))

	_, err = s.store.FindByID(context.Background(), id.NewDocumentID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *storeContract) TestListScopesByOwner() {
	alice, bob := id.NewAccountID(), id.NewAccountID()
	dangling := id.NewAccountID()

	first := newDocument("first", 0)
	first.OwnerID = &alice
	second := newDocument("second", time.Minute)
	second.OwnerID = &bob
	unowned := newDocument("unowned", 2*time.Minute)
	orphan := newDocument("orphan", 3*time.Minute)
	orphan.OwnerID = &dangling
	for _, d := range []*models.Document{second, unowned, first, orphan} {
		s.create(d)
	}

	mine, err := s.store.ListByOwner(context.Background(), alice)
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal(first.ID, mine[0].ID)

	all, err := s.store.ListAll(context.Background())
	s.Require().NoError(err)
	s.Require().Len(all, 4)
	s.Equal([]string{"first", "second", "unowned", "orphan"},
		[]string{all[0].Title, all[1].Title, all[2].Title, all[3].Title})
	s.Nil(all[2].OwnerID)
	s.Equal(dangling, *all[3].OwnerID)
}

func (s *storeContract) TestUpdateStatusCompareAndSet() {
	ctx := context.Background()
	doc := s.create(newDocument("KTP", 0))

	updated, err := s.store.UpdateStatus(ctx, doc.ID, models.StatusPending, models.StatusVerified)
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, updated.Status)

	_, err = s.store.UpdateStatus(ctx, doc.ID, models.StatusPending, models.StatusRejected)
	s.ErrorIs(err, sentinel.ErrInvalidState)

	_, err = s.store.UpdateStatus(ctx, id.NewDocumentID(), models.StatusPending, models.StatusVerified)
	s.ErrorIs(err, sentinel.ErrNotFound)

	found, err := s.store.FindByID(ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, found.Status)
}

func (s *storeContract) TestFindByIdentifier() {
	ctx := context.Background()
	withCID := newDocument("cid", 0)
	withCID.ContentID = "Qm123"
	withTx := newDocument("tx", time.Minute)
	withTx.TxRef = "0xfeed"
	s.create(withCID)
	s.create(withTx)

	for identifier, want := range map[string]id.DocumentID{
		withCID.ID.String(): withCID.ID,
		"Qm123":             withCID.ID,
		"0xfeed":            withTx.ID,
		withTx.ID.String():  withTx.ID,
	} {
		found, err := s.store.FindByIdentifier(ctx, identifier)
		s.Require().NoError(err, identifier)
		s.Equal(want, found.ID, identifier)
	}

	_, err := s.store.FindByIdentifier(ctx, "unknown")
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByIdentifier(ctx, "")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *storeContract) TestFindByIdentifierPrecedence() {
	ctx := context.Background()
	// A transaction reference equal to another record's id loses to the id match.
	target := newDocument("target", 2*time.Minute)
	s.create(target)
	shadow := newDocument("shadow", 0)
	shadow.TxRef = target.ID.String()
	s.create(shadow)

	found, err := s.store.FindByIdentifier(ctx, target.ID.String())
	s.Require().NoError(err)
	s.Equal(target.ID, found.ID)

	// Content id beats transaction reference even when the tx match is older.
	olderTx := newDocument("older-tx", 0)
	olderTx.TxRef = "shared"
	newerCID := newDocument("newer-cid", time.Hour)
	newerCID.ContentID = "shared"
	s.create(olderTx)
	s.create(newerCID)

	found, err = s.store.FindByIdentifier(ctx, "shared")
	s.Require().NoError(err)
	s.Equal(newerCID.ID, found.ID)

	// Within one field the oldest record wins.
	later := newDocument("later", 3*time.Hour)
	later.ContentID = "dup"
	earlier := newDocument("earlier", 2*time.Hour)
	earlier.ContentID = "dup"
	s.create(later)
	s.create(earlier)

	found, err = s.store.FindByIdentifier(ctx, "dup")
	s.Require().NoError(err)
	s.Equal(earlier.ID, found.ID)
}
