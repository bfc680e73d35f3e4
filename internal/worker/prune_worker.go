package worker

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coralises/guildflow/internal/config"
	"github.com/coralises/guildflow/internal/domain"
	"github.com/coralises/guildflow/internal/events"
	"github.com/coralises/guildflow/internal/persistence"
)

// PruneWorker periodically expires applications that sat undecided past the
// retention window. Expired records move to the archive with no decider.
type PruneWorker struct {
	cfg        config.PruneConfig
	store      *persistence.DocumentStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewPruneWorker constructs the worker.
func NewPruneWorker(cfg config.PruneConfig, store *persistence.DocumentStore, dispatcher events.Dispatcher, logger *zap.Logger) *PruneWorker {
	return &PruneWorker{cfg: cfg, store: store, dispatcher: dispatcher, logger: logger}
}

// Start runs the sweep loop until ctx is cancelled. One sweep runs
// immediately so a restart never extends the retention window.
func (w *PruneWorker) Start(ctx context.Context) {
	go func() {
		w.sweep(ctx)

		ticker := time.NewTicker(w.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.sweep(ctx)
			}
		}
	}()
}

func (w *PruneWorker) sweep(ctx context.Context) {
	if _, err := w.RunOnce(ctx); err != nil {
		w.logger.Error("prune sweep failed", zap.Error(err))
	}
}

// RunOnce performs a single sweep and reports how many applications expired.
// The moves land in one save.
func (w *PruneWorker) RunOnce(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-w.cfg.Retention)
	expiredAt := time.Now()

	var pruned int64
	err := w.store.Mutate(ctx, func(doc *domain.Document) error {
		for id, record := range doc.Applications.Active {
			if !record.CreatedAt.Before(cutoff) {
				continue
			}
			entry := record
			doc.Archive[strconv.FormatInt(id, 10)] = domain.ArchiveEntry{
				Kind:        domain.ArchiveKindApplication,
				Application: &entry,
				Result:      domain.ResultExpired,
				DecidedAt:   &expiredAt,
			}
			delete(doc.Applications.Active, id)
			pruned++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if pruned > 0 {
		w.logger.Info("stale applications pruned", zap.Int64("count", pruned))
		if w.dispatcher != nil {
			_ = w.dispatcher.Publish(ctx, events.Event{
				ID:        uuid.NewString(),
				Type:      events.EventApplicationsPruned,
				Timestamp: time.Now(),
				Payload:   events.ApplicationsPrunedPayload{Count: pruned},
			})
		}
	}
	return pruned, nil
}
