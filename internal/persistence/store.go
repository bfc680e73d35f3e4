package persistence

import (
	"context"
	"sync"

	"github.com/coralises/guildflow/internal/domain"
	"github.com/coralises/guildflow/pkg/util"
)

// Driver loads and saves the durable document. Save must be atomic from the
// perspective of subsequent Load calls: a reader never observes a half-written
// document. On first run with no existing document a driver initializes and
// persists the empty schema before returning it.
type Driver interface {
	Load(ctx context.Context) (*domain.Document, error)
	Save(ctx context.Context, doc *domain.Document) error
}

// DocumentStore owns the durable document and serializes every
// read-modify-write cycle, so no two transitions interleave between load and
// save. All workflow components mutate state exclusively through it.
type DocumentStore struct {
	mu     sync.Mutex
	driver Driver
}

// NewDocumentStore wraps a driver.
func NewDocumentStore(driver Driver) *DocumentStore {
	return &DocumentStore{driver: driver}
}

// Load fetches the current document.
func (s *DocumentStore) Load(ctx context.Context) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.driver.Load(ctx)
	if err != nil {
		return nil, util.NewPersistenceFailure("load", err)
	}
	doc.Normalize()
	return doc, nil
}

// Mutate runs fn against the latest document and saves the result. If fn
// returns an error nothing is written. A failed save aborts the transition;
// the caller must not assume the mutation took effect.
func (s *DocumentStore) Mutate(ctx context.Context, fn func(doc *domain.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.driver.Load(ctx)
	if err != nil {
		return util.NewPersistenceFailure("load", err)
	}
	doc.Normalize()

	if err := fn(doc); err != nil {
		return err
	}
	if err := s.driver.Save(ctx, doc); err != nil {
		return util.NewPersistenceFailure("save", err)
	}
	return nil
}
