package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"docregistry/internal/document/models"
	id "docregistry/pkg/domain"
	"docregistry/pkg/platform/sentinel"
)

// Error Contract:
// - Find and UpdateStatus return sentinel.ErrNotFound when the document doesn't exist
// - UpdateStatus returns sentinel.ErrInvalidState when the stored status is no longer the expected one
// - Create returns sentinel.ErrAlreadyUsed on an id collision
// InMemoryStore keeps documents in memory for tests and local runs.
type InMemoryStore struct {
	mu        sync.RWMutex
	documents map[id.DocumentID]*entry
	seq       int64
}

// entry remembers insertion order so equal timestamps still list deterministically.
type entry struct {
	doc models.Document
	seq int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{documents: make(map[id.DocumentID]*entry)}
}

func (s *InMemoryStore) Create(_ context.Context, doc *models.Document) error {
	if doc == nil {
		return fmt.Errorf("document is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[doc.ID]; exists {
		return fmt.Errorf("document %s: %w", doc.ID, sentinel.ErrAlreadyUsed)
	}
	s.seq++
	s.documents[doc.ID] = &entry{doc: copyDocument(doc), seq: s.seq}
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, docID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.documents[docID]
	if !ok {
		return nil, fmt.Errorf("document not found: %w", sentinel.ErrNotFound)
	}
	doc := copyDocument(&e.doc)
	return &doc, nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(*models.Document) bool { return true }), nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, owner id.AccountID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(d *models.Document) bool { return d.OwnedBy(owner) }), nil
}

// UpdateStatus moves the document from `from` to `to` only if it is still in `from`.
func (s *InMemoryStore) UpdateStatus(_ context.Context, docID id.DocumentID, from, to models.Status) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.documents[docID]
	if !ok {
		return nil, fmt.Errorf("document not found: %w", sentinel.ErrNotFound)
	}
	if e.doc.Status != from {
		return nil, fmt.Errorf("document is %s, expected %s: %w", e.doc.Status, from, sentinel.ErrInvalidState)
	}
	e.doc.Status = to
	doc := copyDocument(&e.doc)
	return &doc, nil
}

// FindByIdentifier matches the record id first, then the content id, then the transaction
// reference. Within one field the oldest record wins.
func (s *InMemoryStore) FindByIdentifier(_ context.Context, identifier string) (*models.Document, error) {
	if identifier == "" {
		return nil, fmt.Errorf("document not found: %w", sentinel.ErrNotFound)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if parsed, err := uuid.Parse(identifier); err == nil {
		if e, ok := s.documents[id.DocumentID(parsed)]; ok {
			doc := copyDocument(&e.doc)
			return &doc, nil
		}
	}

	ordered := s.collect(func(*models.Document) bool { return true })
	for _, doc := range ordered {
		if doc.ContentID == identifier {
			return doc, nil
		}
	}
	for _, doc := range ordered {
		if doc.TxRef == identifier {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("document not found: %w", sentinel.ErrNotFound)
}

// collect must be called with the lock held. Results are oldest first.
func (s *InMemoryStore) collect(keep func(*models.Document) bool) []*models.Document {
	entries := make([]*entry, 0, len(s.documents))
	for _, e := range s.documents {
		if keep(&e.doc) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].doc.CreatedAt.Equal(entries[j].doc.CreatedAt) {
			return entries[i].doc.CreatedAt.Before(entries[j].doc.CreatedAt)
		}
		return entries[i].seq < entries[j].seq
	})
	out := make([]*models.Document, len(entries))
	for i, e := range entries {
		doc := copyDocument(&e.doc)
		out[i] = &doc
	}
	return out
}

func copyDocument(doc *models.Document) models.Document {
	out := *doc
	if doc.OwnerID != nil {
		owner := *doc.OwnerID
		out.OwnerID = &owner
	}
	if doc.RegistryID != nil {
		registryID := *doc.RegistryID
		out.RegistryID = &registryID
	}
	return out
}
