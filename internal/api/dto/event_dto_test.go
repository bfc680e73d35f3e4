package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coralises/guildflow/internal/domain"
	"github.com/coralises/guildflow/internal/platform"
)

func TestDecodeSelectSubmitted(t *testing.T) {
	envelope := EventEnvelope{
		Type:   EnvelopeSelectSubmitted,
		UserID: "u1",
		Kind:   string(platform.SelectTicketCategory),
		Value:  "bug_report",
	}

	event, err := envelope.Decode()
	require.NoError(t, err)
	selected, ok := event.(platform.TicketCategorySelected)
	require.True(t, ok)
	assert.Equal(t, "u1", selected.UserID)
	assert.Equal(t, domain.CategoryBugReport, selected.Category)
}

func TestDecodeActionPressed(t *testing.T) {
	t.Run("close request", func(t *testing.T) {
		envelope := EventEnvelope{
			Type:   EnvelopeActionPressed,
			UserID: "u1",
			Kind:   string(platform.ActionTicketClose),
			Ref:    EventRef{SpaceID: "space-9"},
		}

		event, err := envelope.Decode()
		require.NoError(t, err)
		req, ok := event.(platform.TicketCloseRequested)
		require.True(t, ok)
		assert.Equal(t, "space-9", req.SpaceID)
		assert.Equal(t, "u1", req.ActorID)
	})

	t.Run("accept carries the outcome", func(t *testing.T) {
		envelope := EventEnvelope{
			Type:   EnvelopeActionPressed,
			UserID: "staff-1",
			Kind:   string(platform.ActionAppAccept),
			Ref:    EventRef{ApplicationID: 7},
		}

		event, err := envelope.Decode()
		require.NoError(t, err)
		decided, ok := event.(platform.ApplicationDecided)
		require.True(t, ok)
		assert.Equal(t, int64(7), decided.ApplicationID)
		assert.Equal(t, domain.DecisionAccepted, decided.Outcome)
		assert.Empty(t, decided.Reason)
	})

	t.Run("deny with reason requests the form", func(t *testing.T) {
		envelope := EventEnvelope{
			Type:   EnvelopeActionPressed,
			UserID: "staff-1",
			Kind:   string(platform.ActionAppDenyReason),
			Ref:    EventRef{ApplicationID: 7},
		}

		event, err := envelope.Decode()
		require.NoError(t, err)
		req, ok := event.(platform.ApplicationReasonRequested)
		require.True(t, ok)
		assert.Equal(t, domain.DecisionDenied, req.Outcome)
	})
}

func TestDecodeFormSubmitted(t *testing.T) {
	t.Run("intake", func(t *testing.T) {
		envelope := EventEnvelope{
			Type:   EnvelopeFormSubmitted,
			UserID: "u1",
			Kind:   string(platform.FormTicketIntake),
			Ref:    EventRef{Category: "player_report"},
			Values: map[string]string{"ign": "Steve", "issue": "griefing"},
		}

		event, err := envelope.Decode()
		require.NoError(t, err)
		intake, ok := event.(platform.TicketIntakeSubmitted)
		require.True(t, ok)
		assert.Equal(t, domain.CategoryPlayerReport, intake.Category)
		assert.Equal(t, "Steve", intake.IGN)
		assert.Equal(t, "griefing", intake.Issue)
	})

	t.Run("decision reason", func(t *testing.T) {
		envelope := EventEnvelope{
			Type:   EnvelopeFormSubmitted,
			UserID: "staff-1",
			Kind:   string(platform.FormDecisionReason),
			Ref:    EventRef{ApplicationID: 7, Outcome: "denied"},
			Values: map[string]string{"reason": "too young"},
		}

		event, err := envelope.Decode()
		require.NoError(t, err)
		decided, ok := event.(platform.ApplicationDecided)
		require.True(t, ok)
		assert.Equal(t, domain.DecisionDenied, decided.Outcome)
		assert.Equal(t, "too young", decided.Reason)
	})
}

func TestDecodeMessagePosted(t *testing.T) {
	envelope := EventEnvelope{
		Type:      EnvelopeMessagePosted,
		ChannelID: "dm-1",
		Author:    EventAuthor{ID: "u1", Name: "ava#1"},
		Content:   "my answer",
	}

	event, err := envelope.Decode()
	require.NoError(t, err)
	posted, ok := event.(platform.MessagePosted)
	require.True(t, ok)
	assert.Equal(t, "dm-1", posted.ChannelID)
	assert.Equal(t, "u1", posted.AuthorID)
	assert.Equal(t, "ava#1", posted.AuthorName)
	assert.Equal(t, "my answer", posted.Content)
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := EventEnvelope{Type: "mystery"}.Decode()
	require.Error(t, err)

	_, err = EventEnvelope{Type: EnvelopeActionPressed, Kind: "mystery"}.Decode()
	require.Error(t, err)
}
