// Package platform models the chat platform as a capability interface. The
// engine never talks wire-level chat protocol; it asks a gateway for spaces,
// messages, forms and role mutations, and receives interactions back as typed
// inbound events.
package platform

import "context"

// SpaceGrant names one member of a bounded-membership space. Exactly one of
// UserID or RoleID is set.
type SpaceGrant struct {
	UserID string `json:"userId,omitempty"`
	RoleID string `json:"roleId,omitempty"`
}

// Field is a titled section of a rich message.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ActionKind tags a button so its press routes back as a typed event instead
// of a delimiter-packed custom ID.
type ActionKind string

const (
	ActionTicketClose        ActionKind = "ticket_close"
	ActionTicketCloseConfirm ActionKind = "ticket_close_confirm"
	ActionTicketCloseCancel  ActionKind = "ticket_close_cancel"
	ActionAppStart           ActionKind = "application_start"
	ActionAppCancel          ActionKind = "application_cancel"
	ActionAppAccept          ActionKind = "application_accept"
	ActionAppDeny            ActionKind = "application_deny"
	ActionAppAcceptReason    ActionKind = "application_accept_reason"
	ActionAppDenyReason      ActionKind = "application_deny_reason"
	ActionAppOpenTicket      ActionKind = "application_open_ticket"
)

// ActionStyle hints button rendering.
type ActionStyle string

const (
	StylePrimary   ActionStyle = "primary"
	StyleSecondary ActionStyle = "secondary"
	StyleSuccess   ActionStyle = "success"
	StyleDanger    ActionStyle = "danger"
)

// ActionRef carries the workflow context a pressed button echoes back.
type ActionRef struct {
	SpaceID         string `json:"spaceId,omitempty"`
	ApplicationID   int64  `json:"applicationId,omitempty"`
	ApplicationType string `json:"applicationType,omitempty"`
}

// Action is a pressable button attached to a message.
type Action struct {
	Kind  ActionKind  `json:"kind"`
	Label string      `json:"label"`
	Style ActionStyle `json:"style"`
	Ref   ActionRef   `json:"ref,omitempty"`
}

// SelectKind tags a selection menu.
type SelectKind string

const (
	SelectTicketCategory  SelectKind = "ticket_category"
	SelectApplicationType SelectKind = "application_type"
)

// SelectOption is one entry in a selection menu.
type SelectOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Emoji string `json:"emoji,omitempty"`
}

// Select presents a finite choice whose selection returns as an event.
type Select struct {
	Kind        SelectKind     `json:"kind"`
	Placeholder string         `json:"placeholder"`
	Options     []SelectOption `json:"options"`
}

// Message is a plain or rich message with optional interactive components.
type Message struct {
	Content string   `json:"content,omitempty"`
	Title   string   `json:"title,omitempty"`
	Body    string   `json:"body,omitempty"`
	Fields  []Field  `json:"fields,omitempty"`
	Color   string   `json:"color,omitempty"`
	Actions []Action `json:"actions,omitempty"`
	Select  *Select  `json:"select,omitempty"`
}

// FormKind tags a one-shot structured form.
type FormKind string

const (
	FormTicketIntake   FormKind = "ticket_intake"
	FormTicketClose    FormKind = "ticket_close"
	FormDecisionReason FormKind = "decision_reason"
)

// FormField is one input of a form.
type FormField struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Paragraph bool   `json:"paragraph,omitempty"`
	Required  bool   `json:"required,omitempty"`
}

// Form is a single-submission structured form shown to one user. The gateway
// echoes Ref back with the submission.
type Form struct {
	Kind   FormKind    `json:"kind"`
	Title  string      `json:"title"`
	Ref    FormRef     `json:"ref,omitempty"`
	Fields []FormField `json:"fields"`
}

// FormRef carries the workflow context echoed back with a form submission.
type FormRef struct {
	Category      string `json:"category,omitempty"`
	SpaceID       string `json:"spaceId,omitempty"`
	ApplicationID int64  `json:"applicationId,omitempty"`
	Outcome       string `json:"outcome,omitempty"`
}

// ChannelMessage is one fetched message from a space, used for transcripts.
type ChannelMessage struct {
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName"`
	Content    string `json:"content"`
}

// Client is the capability surface consumed from the host platform. Every call
// is remote and fallible; callers decide which failures are best-effort.
type Client interface {
	// CreateSpace opens a private communication space visible to the given
	// members, returning its ID.
	CreateSpace(ctx context.Context, name, parentID string, members []SpaceGrant) (string, error)
	// DeleteSpace tears a space down.
	DeleteSpace(ctx context.Context, spaceID string) error
	// SetSpaceAccess grants or revokes view/send capability for one user.
	SetSpaceAccess(ctx context.Context, spaceID, userID string, allow bool) error
	// SendMessage posts to a space or channel.
	SendMessage(ctx context.Context, channelID string, msg Message) error
	// SendDirect delivers a private message, returning the DM channel ID.
	SendDirect(ctx context.Context, userID string, msg Message) (string, error)
	// OpenForm shows a one-shot structured form to a user.
	OpenForm(ctx context.Context, userID string, form Form) error
	// FetchMessages returns up to limit recent messages, oldest first.
	FetchMessages(ctx context.Context, channelID string, limit int) ([]ChannelMessage, error)
	// GrantRoles adds named roles to a user.
	GrantRoles(ctx context.Context, userID string, roleIDs []string) error
	// RevokeRoles removes named roles from a user.
	RevokeRoles(ctx context.Context, userID string, roleIDs []string) error
	// HasRole reports role membership.
	HasRole(ctx context.Context, userID, roleID string) (bool, error)
}
