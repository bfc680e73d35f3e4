package platform

import "github.com/coralises/guildflow/internal/domain"

// Event is an inbound platform interaction, decoded from the gateway webhook
// into one variant per workflow transition so routing is exhaustive.
type Event interface {
	isEvent()
}

// TicketCategorySelected fires when a user picks a category on the panel.
type TicketCategorySelected struct {
	UserID   string
	Category domain.TicketCategory
}

// TicketIntakeSubmitted carries the one-shot intake form answers.
type TicketIntakeSubmitted struct {
	UserID   string
	Category domain.TicketCategory
	IGN      string
	Issue    string
}

// TicketCloseRequested fires when the close action is pressed in a space.
type TicketCloseRequested struct {
	SpaceID string
	ActorID string
}

// TicketCloseConfirmed fires on the confirm choice.
type TicketCloseConfirmed struct {
	SpaceID string
	ActorID string
}

// TicketCloseCancelled fires on the cancel choice.
type TicketCloseCancelled struct {
	SpaceID string
	ActorID string
}

// TicketCloseReasonSubmitted carries the closing reason form answer.
type TicketCloseReasonSubmitted struct {
	SpaceID string
	ActorID string
	Reason  string
}

// ParticipantAddRequested asks to grant a user access to a ticket space.
type ParticipantAddRequested struct {
	SpaceID  string
	ActorID  string
	TargetID string
}

// ApplicationTypeSelected fires when a user picks a questionnaire.
type ApplicationTypeSelected struct {
	UserID string
	Type   domain.ApplicationType
}

// ApplicationStartConfirmed fires on the Start choice in the invitation DM.
type ApplicationStartConfirmed struct {
	UserID string
	Type   domain.ApplicationType
}

// ApplicationStartCancelled fires on the Cancel choice.
type ApplicationStartCancelled struct {
	UserID string
}

// ApplicationDecided carries a staff decision, with or without reason.
type ApplicationDecided struct {
	ActorID       string
	ApplicationID int64
	Outcome       domain.Decision
	Reason        string
}

// ApplicationReasonRequested asks to open the reason form before deciding.
type ApplicationReasonRequested struct {
	ActorID       string
	ApplicationID int64
	Outcome       domain.Decision
}

// ApplicationTicketRequested asks to open a ticket with the applicant.
type ApplicationTicketRequested struct {
	ActorID       string
	ApplicationID int64
}

// MessagePosted is a free-form message in a channel, fed to the collector.
type MessagePosted struct {
	ChannelID  string
	AuthorID   string
	AuthorName string
	Content    string
}

func (TicketCategorySelected) isEvent()     {}
func (TicketIntakeSubmitted) isEvent()      {}
func (TicketCloseRequested) isEvent()       {}
func (TicketCloseConfirmed) isEvent()       {}
func (TicketCloseCancelled) isEvent()       {}
func (TicketCloseReasonSubmitted) isEvent() {}
func (ParticipantAddRequested) isEvent()    {}
func (ApplicationTypeSelected) isEvent()    {}
func (ApplicationStartConfirmed) isEvent()  {}
func (ApplicationStartCancelled) isEvent()  {}
func (ApplicationDecided) isEvent()         {}
func (ApplicationReasonRequested) isEvent() {}
func (ApplicationTicketRequested) isEvent() {}
func (MessagePosted) isEvent()              {}
