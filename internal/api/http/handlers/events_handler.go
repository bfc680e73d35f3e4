package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/coralises/guildflow/internal/api/dto"
	"github.com/coralises/guildflow/internal/collector"
	"github.com/coralises/guildflow/internal/platform"
	"github.com/coralises/guildflow/internal/service"
)

// EventsHandler receives platform gateway webhooks and routes each decoded
// event to its workflow.
type EventsHandler struct {
	tickets      *service.TicketService
	applications *service.ApplicationService
	collector    *collector.Registry
	logger       *zap.Logger
}

// NewEventsHandler constructs the handler.
func NewEventsHandler(tickets *service.TicketService, applications *service.ApplicationService, registry *collector.Registry, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{tickets: tickets, applications: applications, collector: registry, logger: logger}
}

// Receive handles POST /platform/events.
func (h *EventsHandler) Receive(c *fiber.Ctx) error {
	var envelope dto.EventEnvelope
	if err := c.BodyParser(&envelope); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	event, err := envelope.Decode()
	if err != nil {
		return err
	}

	if err := h.route(c, event); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "accepted"})
}

func (h *EventsHandler) route(c *fiber.Ctx, event platform.Event) error {
	ctx := c.Context()

	switch ev := event.(type) {
	case platform.MessagePosted:
		// Free-form messages only matter to a waiting collection.
		if !h.collector.Deliver(ev.AuthorID, ev.ChannelID, ev.Content) {
			h.logger.Debug("message without active collection",
				zap.String("channel", ev.ChannelID),
				zap.String("author", ev.AuthorID))
		}
		return nil
	case platform.TicketCategorySelected:
		return h.tickets.HandleCategorySelected(ctx, ev)
	case platform.TicketIntakeSubmitted:
		return h.tickets.HandleIntakeSubmitted(ctx, ev)
	case platform.TicketCloseRequested:
		return h.tickets.RequestClose(ctx, ev.SpaceID, ev.ActorID)
	case platform.TicketCloseConfirmed:
		return h.tickets.ConfirmClose(ctx, ev.SpaceID, ev.ActorID)
	case platform.TicketCloseCancelled:
		return h.tickets.CancelClose(ctx, ev.SpaceID, ev.ActorID)
	case platform.TicketCloseReasonSubmitted:
		return h.tickets.FinalizeClose(ctx, ev.SpaceID, ev.ActorID, ev.Reason)
	case platform.ParticipantAddRequested:
		return h.tickets.AddParticipant(ctx, ev.SpaceID, ev.ActorID, ev.TargetID)
	case platform.ApplicationTypeSelected:
		return h.applications.Invite(ctx, ev.UserID, ev.Type)
	case platform.ApplicationStartConfirmed:
		return h.applications.Start(ctx, ev.UserID, ev.Type)
	case platform.ApplicationStartCancelled:
		// Declining the invitation needs no state change.
		return nil
	case platform.ApplicationDecided:
		return h.applications.Decide(ctx, ev.ActorID, ev.ApplicationID, ev.Outcome, ev.Reason)
	case platform.ApplicationReasonRequested:
		return h.applications.RequestReason(ctx, ev.ActorID, ev.ApplicationID, ev.Outcome)
	case platform.ApplicationTicketRequested:
		return h.applications.OpenTicketWithApplicant(ctx, ev.ActorID, ev.ApplicationID)
	default:
		return fiber.NewError(http.StatusBadRequest, "unsupported event")
	}
}
