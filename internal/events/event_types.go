package events

import (
	"time"

	"github.com/coralises/guildflow/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated        EventType = "ticket_created"
	EventTicketClosed         EventType = "ticket_closed"
	EventApplicationSubmitted EventType = "application_submitted"
	EventApplicationDecided   EventType = "application_decided"
	EventApplicationsPruned   EventType = "applications_pruned"
)

// Event represents a workflow event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Number   int64                 `json:"number"`
	Category domain.TicketCategory `json:"category"`
	SpaceID  string                `json:"space_id"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	Number   int64         `json:"number"`
	Reason   string        `json:"reason"`
	Duration time.Duration `json:"duration"`
	Messages int           `json:"messages"`
}

// ApplicationSubmittedPayload payload.
type ApplicationSubmittedPayload struct {
	ApplicationID int64                  `json:"application_id"`
	Type          domain.ApplicationType `json:"type"`
}

// ApplicationDecidedPayload payload.
type ApplicationDecidedPayload struct {
	ApplicationID int64                  `json:"application_id"`
	Type          domain.ApplicationType `json:"type"`
	Result        domain.ArchiveResult   `json:"result"`
	Reason        string                 `json:"reason,omitempty"`
}

// ApplicationsPrunedPayload payload.
type ApplicationsPrunedPayload struct {
	Count int64 `json:"count"`
}
