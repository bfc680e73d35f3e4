package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coralises/guildflow/internal/config"
	"github.com/coralises/guildflow/internal/domain"
	"github.com/coralises/guildflow/internal/events"
	"github.com/coralises/guildflow/internal/persistence"
	"github.com/coralises/guildflow/internal/platform"
	"github.com/coralises/guildflow/pkg/util"
)

// TicketService drives the ticket state machine: creation with intake fields,
// staff-confirmed closure, transcript generation, notification and teardown.
// Open tickets are held in memory; only the counter increment and the terminal
// transcript archive entry are durable.
type TicketService struct {
	community  config.CommunityConfig
	collect    config.CollectorConfig
	platform   platform.Client
	store      *persistence.DocumentStore
	seq        *SequenceAllocator
	dispatcher events.Dispatcher
	logger     *zap.Logger

	mu   sync.Mutex
	open map[string]*domain.Ticket // keyed by space ID
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Community  config.CommunityConfig
	Collector  config.CollectorConfig
	Platform   platform.Client
	Store      *persistence.DocumentStore
	Sequence   *SequenceAllocator
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		community:  deps.Community,
		collect:    deps.Collector,
		platform:   deps.Platform,
		store:      deps.Store,
		seq:        deps.Sequence,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		open:       make(map[string]*domain.Ticket),
	}
}

// PostPanel publishes the ticket category selection panel.
func (s *TicketService) PostPanel(ctx context.Context) error {
	msg := platform.Message{
		Title: "Support Tickets",
		Body:  "Select your ticket type from the dropdown below.\n**Pinging staff will result in a blacklist**",
		Color: "#00FFFF",
		Select: &platform.Select{
			Kind:        platform.SelectTicketCategory,
			Placeholder: "Select Ticket Type",
			Options: []platform.SelectOption{
				{Label: "Player Report", Value: string(domain.CategoryPlayerReport), Emoji: "🎮"},
				{Label: "Bug Report", Value: string(domain.CategoryBugReport), Emoji: "🐛"},
				{Label: "Staff Report", Value: string(domain.CategoryStaffReport), Emoji: "🛡️"},
				{Label: "Billing Issue", Value: string(domain.CategoryBillingIssue), Emoji: "💰"},
				{Label: "Punishment Appeal", Value: string(domain.CategoryPunishmentAppeal), Emoji: "⚖️"},
			},
		},
	}
	if err := s.platform.SendMessage(ctx, s.community.TicketPanelChannel, msg); err != nil {
		return util.NewRemoteUnavailable("post ticket panel", err)
	}
	return nil
}

// HandleCategorySelected opens the intake form for the chosen category.
// Intake answers are mandatory: the ticket number is not allocated and no
// space is created until the form comes back.
func (s *TicketService) HandleCategorySelected(ctx context.Context, ev platform.TicketCategorySelected) error {
	if !ev.Category.Valid() {
		return util.NewValidationError("unknown ticket category", map[string]any{"category": ev.Category})
	}
	form := platform.Form{
		Kind:  platform.FormTicketIntake,
		Title: "Ticket Info",
		Ref:   platform.FormRef{Category: string(ev.Category)},
		Fields: []platform.FormField{
			{Name: "ign", Label: "Your IGN", Required: true},
			{Name: "issue", Label: "Describe your Issue", Paragraph: true, Required: true},
		},
	}
	if err := s.platform.OpenForm(ctx, ev.UserID, form); err != nil {
		return util.NewRemoteUnavailable("open intake form", err)
	}
	return nil
}

// HandleIntakeSubmitted creates the ticket from the submitted intake fields.
func (s *TicketService) HandleIntakeSubmitted(ctx context.Context, ev platform.TicketIntakeSubmitted) error {
	if !ev.Category.Valid() {
		return util.NewValidationError("unknown ticket category", map[string]any{"category": ev.Category})
	}
	fields := []platform.Field{
		{Name: "IGN", Value: ev.IGN},
		{Name: "Issue", Value: ev.Issue},
	}
	ticket, err := s.Create(ctx, ev.UserID, ev.Category, ev.IGN, ev.Issue, nil, fields)
	if err != nil {
		s.notifyUser(ctx, ev.UserID, "An error occurred while creating your ticket. Please try again later.")
		return err
	}
	s.notifyUser(ctx, ev.UserID, fmt.Sprintf("Your ticket has been created: %s", ticket.Name()))
	return nil
}

// Create allocates a ticket number, opens the private space and posts the
// welcome message. The counter increment is persisted before the space is
// created; a failed space creation does not reclaim the number.
func (s *TicketService) Create(ctx context.Context, creatorID string, category domain.TicketCategory, ign, issue string, applicationID *int64, fields []platform.Field) (*domain.Ticket, error) {
	number, err := s.seq.Next(ctx, CounterTicket)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Number:        number,
		Category:      category,
		CreatorID:     creatorID,
		IGN:           ign,
		Issue:         issue,
		ApplicationID: applicationID,
		Status:        domain.TicketStatusOpen,
		OpenedAt:      time.Now(),
	}

	members := []platform.SpaceGrant{
		{UserID: creatorID},
		{RoleID: s.community.StaffRoleID},
	}
	spaceID, err := s.platform.CreateSpace(ctx, ticket.Name(), s.community.TicketParentID, members)
	if err != nil {
		return nil, util.NewRemoteUnavailable("create ticket space", err)
	}
	ticket.SpaceID = spaceID

	welcome := platform.Message{
		Title:  fmt.Sprintf("🎫 %s", ticket.Name()),
		Body:   fmt.Sprintf("<@%s> Thank you for contacting support, a staff member will be with you soon.", creatorID),
		Fields: fields,
		Color:  "#00FFFF",
		Actions: []platform.Action{
			{
				Kind:  platform.ActionTicketClose,
				Label: "Close Ticket",
				Style: platform.StyleDanger,
				Ref:   platform.ActionRef{SpaceID: spaceID},
			},
		},
	}
	if err := s.platform.SendMessage(ctx, spaceID, welcome); err != nil {
		s.logger.Warn("welcome message failed", zap.Int64("ticket", number), zap.Error(err))
	}

	s.mu.Lock()
	s.open[spaceID] = ticket
	s.mu.Unlock()

	s.publishEvent(ctx, events.Event{
		Type:    events.EventTicketCreated,
		ActorID: creatorID,
		Payload: events.TicketCreatedPayload{
			Number:   number,
			Category: category,
			SpaceID:  spaceID,
		},
	})
	s.logger.Info("ticket created",
		zap.Int64("ticket", number),
		zap.String("category", string(category)),
		zap.String("creator", creatorID))
	return ticket, nil
}

// RequestClose presents the confirm/cancel choice. The ticket stays Open
// until the close is confirmed.
func (s *TicketService) RequestClose(ctx context.Context, spaceID, actorID string) error {
	ticket, err := s.lookup(spaceID)
	if err != nil {
		return err
	}
	if ticket.Status != domain.TicketStatusOpen {
		return util.NewConflict("ticket close already in progress", nil)
	}

	msg := platform.Message{
		Content: "Are you sure you want to close this ticket?",
		Actions: []platform.Action{
			{
				Kind:  platform.ActionTicketCloseConfirm,
				Label: "Confirm Close",
				Style: platform.StyleDanger,
				Ref:   platform.ActionRef{SpaceID: spaceID},
			},
			{
				Kind:  platform.ActionTicketCloseCancel,
				Label: "Cancel",
				Style: platform.StyleSecondary,
				Ref:   platform.ActionRef{SpaceID: spaceID},
			},
		},
	}
	if err := s.platform.SendMessage(ctx, spaceID, msg); err != nil {
		return util.NewRemoteUnavailable("send close confirmation", err)
	}
	return nil
}

// ConfirmClose transitions to ClosePending and prompts for the closing reason.
func (s *TicketService) ConfirmClose(ctx context.Context, spaceID, actorID string) error {
	ticket, err := s.lookup(spaceID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if ticket.Status != domain.TicketStatusOpen {
		s.mu.Unlock()
		return util.NewConflict("ticket is not open", nil)
	}
	ticket.Status = domain.TicketStatusClosePending
	s.mu.Unlock()

	form := platform.Form{
		Kind:  platform.FormTicketClose,
		Title: "Close Ticket",
		Ref:   platform.FormRef{SpaceID: spaceID},
		Fields: []platform.FormField{
			{Name: "reason", Label: "Reason for closing this ticket", Paragraph: true, Required: true},
		},
	}
	if err := s.platform.OpenForm(ctx, actorID, form); err != nil {
		s.mu.Lock()
		ticket.Status = domain.TicketStatusOpen
		s.mu.Unlock()
		return util.NewRemoteUnavailable("open close-reason form", err)
	}
	return nil
}

// CancelClose returns the ticket to Open with no side effects.
func (s *TicketService) CancelClose(ctx context.Context, spaceID, actorID string) error {
	ticket, err := s.lookup(spaceID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if ticket.Status == domain.TicketStatusClosePending {
		ticket.Status = domain.TicketStatusOpen
	}
	s.mu.Unlock()

	if err := s.platform.SendMessage(ctx, spaceID, platform.Message{Content: "Ticket close cancelled."}); err != nil {
		s.logger.Warn("cancel notice failed", zap.String("space", spaceID), zap.Error(err))
	}
	return nil
}

// FinalizeClose renders the transcript, notifies participants and tears the
// space down. Creator notification, transcript posting and the archive-log
// entry are independent and best-effort; space deletion must still occur, and
// a failed deletion leaves the ticket in ClosePending so it can be retried.
func (s *TicketService) FinalizeClose(ctx context.Context, spaceID, actorID, reason string) error {
	// Claim the teardown under the lock so only one finalize runs the side
	// effects. A failed deletion below reverts the claim to ClosePending.
	s.mu.Lock()
	ticket, ok := s.open[spaceID]
	if !ok {
		s.mu.Unlock()
		return util.NewNotFound("ticket", map[string]any{"space": spaceID})
	}
	switch ticket.Status {
	case domain.TicketStatusClosing:
		s.mu.Unlock()
		return util.NewConflict("ticket close is already being finalized", nil)
	case domain.TicketStatusClosePending:
		ticket.Status = domain.TicketStatusClosing
	default:
		s.mu.Unlock()
		return util.NewConflict("ticket close has not been confirmed", nil)
	}
	s.mu.Unlock()

	closedAt := time.Now()
	duration := closedAt.Sub(ticket.OpenedAt)

	messages, err := s.platform.FetchMessages(ctx, spaceID, s.collect.TranscriptFetchLimit)
	if err != nil {
		s.logger.Warn("transcript fetch failed", zap.Int64("ticket", ticket.Number), zap.Error(err))
		messages = nil
	}
	transcript := RenderTranscript(messages, s.collect.TranscriptFieldLimit)

	summary := ticketSummary(ticket, actorID, reason, closedAt)

	dm := platform.Message{
		Title: "**Coralises | Ticket Closed**",
		Body:  summary,
		Color: "#FF0000",
	}
	if _, err := s.platform.SendDirect(ctx, ticket.CreatorID, dm); err != nil {
		s.logger.Warn("close DM failed", zap.Int64("ticket", ticket.Number), zap.Error(err))
	}

	logMsg := platform.Message{
		Title:  "**Coralises | Ticket Closed**",
		Body:   summary,
		Fields: []platform.Field{{Name: "Transcript", Value: transcript}},
		Color:  "#00FFFF",
	}
	if err := s.platform.SendMessage(ctx, s.community.LogChannel, logMsg); err != nil {
		s.logger.Warn("transcript post failed", zap.Int64("ticket", ticket.Number), zap.Error(err))
	}

	openedAt := ticket.OpenedAt
	archiveErr := s.store.Mutate(ctx, func(doc *domain.Document) error {
		doc.Archive["ticket-"+uuid.NewString()] = domain.ArchiveEntry{
			Kind:       domain.ArchiveKindTranscript,
			Ticket:     ticket.Name(),
			OpenedBy:   ticket.CreatorID,
			ClosedBy:   actorID,
			Reason:     reason,
			OpenedAt:   &openedAt,
			ClosedAt:   &closedAt,
			Transcript: transcript,
		}
		return nil
	})
	if archiveErr != nil {
		s.logger.Error("transcript archive failed", zap.Int64("ticket", ticket.Number), zap.Error(archiveErr))
	}

	if err := s.platform.DeleteSpace(ctx, spaceID); err != nil {
		s.mu.Lock()
		ticket.Status = domain.TicketStatusClosePending
		s.mu.Unlock()
		return util.NewRemoteUnavailable("delete ticket space", err)
	}

	s.mu.Lock()
	ticket.Status = domain.TicketStatusClosed
	delete(s.open, spaceID)
	s.mu.Unlock()

	s.publishEvent(ctx, events.Event{
		Type:    events.EventTicketClosed,
		ActorID: actorID,
		Payload: events.TicketClosedPayload{
			Number:   ticket.Number,
			Reason:   reason,
			Duration: duration,
			Messages: len(messages),
		},
	})
	s.logger.Info("ticket closed",
		zap.Int64("ticket", ticket.Number),
		zap.String("closed_by", actorID),
		zap.Duration("duration", duration))
	return nil
}

// AddParticipant grants a user view/send capability on an open ticket space.
// The ticket creator and staff-role holders are rejected.
func (s *TicketService) AddParticipant(ctx context.Context, spaceID, actorID, targetID string) error {
	ticket, err := s.lookup(spaceID)
	if err != nil {
		return err
	}
	if ticket.Status != domain.TicketStatusOpen {
		return util.NewConflict("participants can only be added to open tickets", nil)
	}
	if targetID == ticket.CreatorID {
		return util.NewPermissionDenied("you cannot add the ticket creator again")
	}

	isStaff, err := s.platform.HasRole(ctx, targetID, s.community.StaffRoleID)
	if err != nil {
		return util.NewRemoteUnavailable("check staff role", err)
	}
	if isStaff {
		return util.NewPermissionDenied("you cannot add staff using this command")
	}

	if err := s.platform.SetSpaceAccess(ctx, spaceID, targetID, true); err != nil {
		return util.NewRemoteUnavailable("grant space access", err)
	}

	notice := platform.Message{Content: fmt.Sprintf("<@%s> has been added to this ticket.", targetID)}
	if err := s.platform.SendMessage(ctx, spaceID, notice); err != nil {
		s.logger.Warn("participant notice failed", zap.String("space", spaceID), zap.Error(err))
	}
	return nil
}

// Open returns the open ticket for a space, when present.
func (s *TicketService) Open(spaceID string) (*domain.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.open[spaceID]
	return ticket, ok
}

func (s *TicketService) lookup(spaceID string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.open[spaceID]
	if !ok {
		return nil, util.NewNotFound("ticket", map[string]any{"space": spaceID})
	}
	return ticket, nil
}

func (s *TicketService) notifyUser(ctx context.Context, userID, content string) {
	if _, err := s.platform.SendDirect(ctx, userID, platform.Message{Content: content}); err != nil {
		s.logger.Warn("user notification failed", zap.String("user", userID), zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func ticketSummary(ticket *domain.Ticket, closedBy, reason string, closedAt time.Time) string {
	return fmt.Sprintf("🆔 Ticket ID: %s\n📂 Opened By: <@%s>\n🔒 Closed By: <@%s>\n⏱ Opened At: %s\n❓ Reason: %s\n📅 Closed At: %s",
		ticket.Name(),
		ticket.CreatorID,
		closedBy,
		ticket.OpenedAt.Format(time.RFC1123),
		reason,
		closedAt.Format(time.RFC1123))
}
