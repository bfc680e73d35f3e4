package service

import (
	"context"
	"fmt"

	"github.com/coralises/guildflow/internal/domain"
	"github.com/coralises/guildflow/internal/persistence"
)

// Counter names accepted by the allocator.
const (
	CounterTicket      = "ticket"
	CounterApplication = "application"
)

// SequenceAllocator issues monotonically increasing IDs from the persisted
// counters. The increment is durably saved before the value is returned, so
// an allocated number is never reused even when a later step fails; numbering
// may show gaps on failure.
type SequenceAllocator struct {
	store *persistence.DocumentStore
}

// NewSequenceAllocator constructs the allocator.
func NewSequenceAllocator(store *persistence.DocumentStore) *SequenceAllocator {
	return &SequenceAllocator{store: store}
}

// Next increments the named counter by exactly one and returns the new value.
func (a *SequenceAllocator) Next(ctx context.Context, counter string) (int64, error) {
	var next int64
	err := a.store.Mutate(ctx, func(doc *domain.Document) error {
		switch counter {
		case CounterTicket:
			doc.TicketCounter++
			next = doc.TicketCounter
		case CounterApplication:
			doc.Applications.LastID++
			next = doc.Applications.LastID
		default:
			return fmt.Errorf("unknown counter %q", counter)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}
