package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/coralises/guildflow/internal/events"
	"github.com/coralises/guildflow/internal/observability"
)

// NotificationService records workflow events for operators: structured logs
// plus counters exposed on the metrics endpoint.
type NotificationService struct {
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewNotificationService constructs the subscriber.
func NewNotificationService(metrics *observability.Metrics, logger *zap.Logger) *NotificationService {
	return &NotificationService{metrics: metrics, logger: logger}
}

// Register subscribes to every workflow event type.
func (s *NotificationService) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketCreated, s.onTicketCreated)
	dispatcher.Subscribe(events.EventTicketClosed, s.onTicketClosed)
	dispatcher.Subscribe(events.EventApplicationSubmitted, s.onApplicationSubmitted)
	dispatcher.Subscribe(events.EventApplicationDecided, s.onApplicationDecided)
	dispatcher.Subscribe(events.EventApplicationsPruned, s.onApplicationsPruned)
}

func (s *NotificationService) onTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	s.metrics.RecordWorkflow("tickets_opened")
	s.logger.Info("workflow: ticket opened",
		zap.Int64("number", payload.Number),
		zap.String("category", string(payload.Category)),
		zap.String("space", payload.SpaceID),
		zap.String("actor", event.ActorID))
	return nil
}

func (s *NotificationService) onTicketClosed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketClosedPayload)
	if !ok {
		return nil
	}
	s.metrics.RecordWorkflow("tickets_closed")
	s.logger.Info("workflow: ticket closed",
		zap.Int64("number", payload.Number),
		zap.Duration("open_for", payload.Duration),
		zap.Int("messages", payload.Messages),
		zap.String("actor", event.ActorID))
	return nil
}

func (s *NotificationService) onApplicationSubmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ApplicationSubmittedPayload)
	if !ok {
		return nil
	}
	s.metrics.RecordWorkflow("applications_submitted")
	s.logger.Info("workflow: application submitted",
		zap.Int64("application", payload.ApplicationID),
		zap.String("type", string(payload.Type)),
		zap.String("actor", event.ActorID))
	return nil
}

func (s *NotificationService) onApplicationDecided(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ApplicationDecidedPayload)
	if !ok {
		return nil
	}
	s.metrics.RecordWorkflow("applications_" + string(payload.Result))
	s.logger.Info("workflow: application decided",
		zap.Int64("application", payload.ApplicationID),
		zap.String("type", string(payload.Type)),
		zap.String("result", string(payload.Result)),
		zap.String("actor", event.ActorID))
	return nil
}

func (s *NotificationService) onApplicationsPruned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ApplicationsPrunedPayload)
	if !ok {
		return nil
	}
	s.metrics.AddWorkflow("applications_expired", payload.Count)
	s.logger.Info("workflow: stale applications pruned", zap.Int64("count", payload.Count))
	return nil
}
