package dto

import (
	"github.com/coralises/guildflow/internal/domain"
	"github.com/coralises/guildflow/internal/platform"
	"github.com/coralises/guildflow/pkg/util"
)

// Envelope types delivered by the platform gateway webhook.
const (
	EnvelopeSelectSubmitted = "select_submitted"
	EnvelopeActionPressed   = "action_pressed"
	EnvelopeFormSubmitted   = "form_submitted"
	EnvelopeMessagePosted   = "message_posted"
	EnvelopeParticipantAdd  = "participant_add"
)

// EventRef mirrors the reference payload attached to outbound actions and
// forms; the gateway echoes it back on the interaction.
type EventRef struct {
	SpaceID         string `json:"space_id,omitempty"`
	ApplicationID   int64  `json:"application_id,omitempty"`
	ApplicationType string `json:"application_type,omitempty"`
	Category        string `json:"category,omitempty"`
	Outcome         string `json:"outcome,omitempty"`
}

// EventAuthor identifies the author of a posted message.
type EventAuthor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EventEnvelope is the wire shape of an inbound platform event. Kind reuses
// the select/action/form kind vocabulary from the outbound messages.
type EventEnvelope struct {
	Type      string            `json:"type"`
	UserID    string            `json:"user_id,omitempty"`
	Kind      string            `json:"kind,omitempty"`
	Value     string            `json:"value,omitempty"`
	Ref       EventRef          `json:"ref,omitempty"`
	Values    map[string]string `json:"values,omitempty"`
	ChannelID string            `json:"channel_id,omitempty"`
	Author    EventAuthor       `json:"author,omitempty"`
	Content   string            `json:"content,omitempty"`
}

// Decode maps the envelope onto its typed event.
func (e EventEnvelope) Decode() (platform.Event, error) {
	switch e.Type {
	case EnvelopeSelectSubmitted:
		return e.decodeSelect()
	case EnvelopeActionPressed:
		return e.decodeAction()
	case EnvelopeFormSubmitted:
		return e.decodeForm()
	case EnvelopeMessagePosted:
		return platform.MessagePosted{
			ChannelID:  e.ChannelID,
			AuthorID:   e.Author.ID,
			AuthorName: e.Author.Name,
			Content:    e.Content,
		}, nil
	case EnvelopeParticipantAdd:
		return platform.ParticipantAddRequested{
			SpaceID:  e.Ref.SpaceID,
			ActorID:  e.UserID,
			TargetID: e.Value,
		}, nil
	default:
		return nil, util.NewValidationError("unknown event type", map[string]any{"type": e.Type})
	}
}

func (e EventEnvelope) decodeSelect() (platform.Event, error) {
	switch platform.SelectKind(e.Kind) {
	case platform.SelectTicketCategory:
		return platform.TicketCategorySelected{
			UserID:   e.UserID,
			Category: domain.TicketCategory(e.Value),
		}, nil
	case platform.SelectApplicationType:
		return platform.ApplicationTypeSelected{
			UserID: e.UserID,
			Type:   domain.ApplicationType(e.Value),
		}, nil
	default:
		return nil, util.NewValidationError("unknown select kind", map[string]any{"kind": e.Kind})
	}
}

func (e EventEnvelope) decodeAction() (platform.Event, error) {
	switch platform.ActionKind(e.Kind) {
	case platform.ActionTicketClose:
		return platform.TicketCloseRequested{SpaceID: e.Ref.SpaceID, ActorID: e.UserID}, nil
	case platform.ActionTicketCloseConfirm:
		return platform.TicketCloseConfirmed{SpaceID: e.Ref.SpaceID, ActorID: e.UserID}, nil
	case platform.ActionTicketCloseCancel:
		return platform.TicketCloseCancelled{SpaceID: e.Ref.SpaceID, ActorID: e.UserID}, nil
	case platform.ActionAppStart:
		return platform.ApplicationStartConfirmed{
			UserID: e.UserID,
			Type:   domain.ApplicationType(e.Ref.ApplicationType),
		}, nil
	case platform.ActionAppCancel:
		return platform.ApplicationStartCancelled{UserID: e.UserID}, nil
	case platform.ActionAppAccept:
		return platform.ApplicationDecided{
			ActorID:       e.UserID,
			ApplicationID: e.Ref.ApplicationID,
			Outcome:       domain.DecisionAccepted,
		}, nil
	case platform.ActionAppDeny:
		return platform.ApplicationDecided{
			ActorID:       e.UserID,
			ApplicationID: e.Ref.ApplicationID,
			Outcome:       domain.DecisionDenied,
		}, nil
	case platform.ActionAppAcceptReason:
		return platform.ApplicationReasonRequested{
			ActorID:       e.UserID,
			ApplicationID: e.Ref.ApplicationID,
			Outcome:       domain.DecisionAccepted,
		}, nil
	case platform.ActionAppDenyReason:
		return platform.ApplicationReasonRequested{
			ActorID:       e.UserID,
			ApplicationID: e.Ref.ApplicationID,
			Outcome:       domain.DecisionDenied,
		}, nil
	case platform.ActionAppOpenTicket:
		return platform.ApplicationTicketRequested{
			ActorID:       e.UserID,
			ApplicationID: e.Ref.ApplicationID,
		}, nil
	default:
		return nil, util.NewValidationError("unknown action kind", map[string]any{"kind": e.Kind})
	}
}

func (e EventEnvelope) decodeForm() (platform.Event, error) {
	switch platform.FormKind(e.Kind) {
	case platform.FormTicketIntake:
		return platform.TicketIntakeSubmitted{
			UserID:   e.UserID,
			Category: domain.TicketCategory(e.Ref.Category),
			IGN:      e.Values["ign"],
			Issue:    e.Values["issue"],
		}, nil
	case platform.FormTicketClose:
		return platform.TicketCloseReasonSubmitted{
			SpaceID: e.Ref.SpaceID,
			ActorID: e.UserID,
			Reason:  e.Values["reason"],
		}, nil
	case platform.FormDecisionReason:
		return platform.ApplicationDecided{
			ActorID:       e.UserID,
			ApplicationID: e.Ref.ApplicationID,
			Outcome:       domain.Decision(e.Ref.Outcome),
			Reason:        e.Values["reason"],
		}, nil
	default:
		return nil, util.NewValidationError("unknown form kind", map[string]any{"kind": e.Kind})
	}
}
