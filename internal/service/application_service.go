package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coralises/guildflow/internal/collector"
	"github.com/coralises/guildflow/internal/config"
	"github.com/coralises/guildflow/internal/domain"
	"github.com/coralises/guildflow/internal/events"
	"github.com/coralises/guildflow/internal/observability"
	"github.com/coralises/guildflow/internal/persistence"
	"github.com/coralises/guildflow/internal/platform"
	"github.com/coralises/guildflow/pkg/util"
)

// ApplicationService drives the application state machine: invitation, answer
// collection over a DM channel, staff review, role mutation and archival.
type ApplicationService struct {
	community  config.CommunityConfig
	collect    config.CollectorConfig
	platform   platform.Client
	store      *persistence.DocumentStore
	seq        *SequenceAllocator
	collector  *collector.Registry
	tickets    *TicketService
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger

	mu       sync.Mutex
	deciding map[int64]bool
}

// ApplicationDependencies bundles collaborators for the application service.
type ApplicationDependencies struct {
	Community  config.CommunityConfig
	Collector  config.CollectorConfig
	Platform   platform.Client
	Store      *persistence.DocumentStore
	Sequence   *SequenceAllocator
	Registry   *collector.Registry
	Tickets    *TicketService
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewApplicationService constructs the service.
func NewApplicationService(deps ApplicationDependencies) *ApplicationService {
	return &ApplicationService{
		community:  deps.Community,
		collect:    deps.Collector,
		platform:   deps.Platform,
		store:      deps.Store,
		seq:        deps.Sequence,
		collector:  deps.Registry,
		tickets:    deps.Tickets,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		deciding:   make(map[int64]bool),
	}
}

// PostPanel publishes the application type selection panel.
func (s *ApplicationService) PostPanel(ctx context.Context) error {
	msg := platform.Message{
		Title: "Applications",
		Body:  "Apply for staff below!",
		Color: "#00FFFF",
		Select: &platform.Select{
			Kind:        platform.SelectApplicationType,
			Placeholder: "Select Application Type",
			Options: []platform.SelectOption{
				{Label: "Staff Application", Value: string(domain.ApplicationStaff)},
				{Label: "Builder Application", Value: string(domain.ApplicationBuilder)},
				{Label: "Dev Application", Value: string(domain.ApplicationDev)},
			},
		},
	}
	if err := s.platform.SendMessage(ctx, s.community.AppPanelChannel, msg); err != nil {
		return util.NewRemoteUnavailable("post application panel", err)
	}
	return nil
}

// Invite sends the applicant a private confirmation with Start/Cancel choices.
// No record is persisted yet.
func (s *ApplicationService) Invite(ctx context.Context, userID string, appType domain.ApplicationType) error {
	if !appType.Valid() {
		return util.NewValidationError("unknown application type", map[string]any{"type": appType})
	}

	invitation := platform.Message{
		Title: fmt.Sprintf("%s Application", appType.Label()),
		Body:  "Are you sure you want to apply? You have 3 hours to complete. Type 'cancel' to stop.",
		Color: "#00FFFF",
		Actions: []platform.Action{
			{
				Kind:  platform.ActionAppStart,
				Label: "Start Application",
				Style: platform.StyleSuccess,
				Ref:   platform.ActionRef{ApplicationType: string(appType)},
			},
			{
				Kind:  platform.ActionAppCancel,
				Label: "Cancel Application",
				Style: platform.StyleDanger,
			},
		},
	}
	if _, err := s.platform.SendDirect(ctx, userID, invitation); err != nil {
		return util.NewRemoteUnavailable("send application invitation", err)
	}
	return nil
}

// Start begins answer collection for the applicant. The collection runs in
// its own goroutine; the inbound event route must not block on it. A second
// start for an applicant already mid-collection is rejected up front.
func (s *ApplicationService) Start(ctx context.Context, userID string, appType domain.ApplicationType) error {
	if !appType.Valid() {
		return util.NewValidationError("unknown application type", map[string]any{"type": appType})
	}
	if s.collector.ActiveForRespondent(userID) {
		return util.NewConflict("an application is already in progress for this user", map[string]any{"user": userID})
	}

	opening := platform.Message{
		Content: fmt.Sprintf("Application started for %s. You have %s. Type '%s' to stop.",
			appType.Label(), s.collect.ApplicationTimeout, s.collect.CancelKeyword),
	}
	dmChannel, err := s.platform.SendDirect(ctx, userID, opening)
	if err != nil {
		return util.NewRemoteUnavailable("open application DM", err)
	}

	// Detached from the request context: the collection outlives the
	// webhook call that triggered it.
	go s.runCollection(context.Background(), userID, appType, dmChannel)
	return nil
}

func (s *ApplicationService) runCollection(ctx context.Context, userID string, appType domain.ApplicationType, dmChannel string) {
	questions := append([]string(nil), config.Questionnaire(appType)...)

	send := func(ctx context.Context, prompt string) error {
		return s.platform.SendMessage(ctx, dmChannel, platform.Message{Content: prompt})
	}
	outcome, err := s.collector.Collect(ctx, userID, dmChannel, questions, s.collect.ApplicationTimeout, send)
	if err != nil {
		s.logger.Error("answer collection failed", zap.String("user", userID), zap.Error(err))
		s.notifyUser(ctx, userID, "An error occurred during your application. Please try again later.")
		return
	}

	switch outcome.Result {
	case collector.ResultCancelled:
		s.recordWorkflow("applications_cancelled")
		s.notifyUser(ctx, userID, "Your application has been cancelled.")
		return
	case collector.ResultTimedOut:
		s.recordWorkflow("applications_timed_out")
		s.notifyUser(ctx, userID, "Your application timed out. No application was submitted; you can start again anytime.")
		return
	}

	if err := s.submit(ctx, userID, appType, questions, outcome.Answers); err != nil {
		s.logger.Error("application submission failed", zap.String("user", userID), zap.Error(err))
		s.notifyUser(ctx, userID, "An error occurred submitting your application. Please try again later.")
	}
}

// submit persists the completed application and posts it for staff review.
func (s *ApplicationService) submit(ctx context.Context, userID string, appType domain.ApplicationType, questions, answers []string) error {
	id, err := s.seq.Next(ctx, CounterApplication)
	if err != nil {
		return err
	}

	record := domain.ApplicationRecord{
		UserID:    userID,
		Type:      appType,
		Questions: questions,
		Answers:   answers,
		CreatedAt: time.Now(),
		Decision:  domain.DecisionPending,
	}
	if err := s.store.Mutate(ctx, func(doc *domain.Document) error {
		doc.Applications.Active[id] = record
		return nil
	}); err != nil {
		return err
	}

	review := platform.Message{
		Title:  fmt.Sprintf("%s Application", appType.Label()),
		Body:   fmt.Sprintf("Application Submitted\nID: %d\nApplicant: <@%s>", id, userID),
		Fields: questionFields(questions, answers),
		Color:  "#00FFFF",
		Actions: []platform.Action{
			{Kind: platform.ActionAppAccept, Label: "Accept", Style: platform.StyleSuccess, Ref: platform.ActionRef{ApplicationID: id}},
			{Kind: platform.ActionAppDeny, Label: "Deny", Style: platform.StyleDanger, Ref: platform.ActionRef{ApplicationID: id}},
			{Kind: platform.ActionAppAcceptReason, Label: "Accept with Reason", Style: platform.StylePrimary, Ref: platform.ActionRef{ApplicationID: id}},
			{Kind: platform.ActionAppDenyReason, Label: "Deny with Reason", Style: platform.StyleSecondary, Ref: platform.ActionRef{ApplicationID: id}},
			{Kind: platform.ActionAppOpenTicket, Label: "Open Ticket With User", Style: platform.StylePrimary, Ref: platform.ActionRef{ApplicationID: id}},
		},
	}
	if err := s.platform.SendMessage(ctx, s.community.ReviewChannels[appType], review); err != nil {
		s.logger.Warn("review post failed", zap.Int64("application", id), zap.Error(err))
	}

	s.notifyUser(ctx, userID, "✅ Your application has been submitted!")

	s.publishEvent(ctx, events.Event{
		Type:    events.EventApplicationSubmitted,
		ActorID: userID,
		Payload: events.ApplicationSubmittedPayload{ApplicationID: id, Type: appType},
	})
	s.logger.Info("application submitted",
		zap.Int64("application", id),
		zap.String("type", string(appType)),
		zap.String("user", userID))
	return nil
}

// RequestReason opens the one-field reason form; its submission calls Decide
// with the reason populated.
func (s *ApplicationService) RequestReason(ctx context.Context, actorID string, applicationID int64, outcome domain.Decision) error {
	if _, err := s.activeRecord(ctx, applicationID); err != nil {
		return err
	}

	title := "Accept Reason"
	if outcome == domain.DecisionDenied {
		title = "Deny Reason"
	}
	form := platform.Form{
		Kind:  platform.FormDecisionReason,
		Title: title,
		Ref:   platform.FormRef{ApplicationID: applicationID, Outcome: string(outcome)},
		Fields: []platform.FormField{
			{Name: "reason", Label: "Provide a reason", Paragraph: true, Required: true},
		},
	}
	if err := s.platform.OpenForm(ctx, actorID, form); err != nil {
		return util.NewRemoteUnavailable("open reason form", err)
	}
	return nil
}

// Decide records a staff decision. A decision on an application that is no
// longer active fails with NotFound. Acceptance grants the type's role set
// and revokes the other types' exclusive roles before the record moves to the
// archive; the removal from the active table and the archive entry happen in
// one save.
func (s *ApplicationService) Decide(ctx context.Context, deciderID string, applicationID int64, outcome domain.Decision, reason string) error {
	if outcome != domain.DecisionAccepted && outcome != domain.DecisionDenied {
		return util.NewValidationError("decision must be accepted or denied", map[string]any{"outcome": outcome})
	}

	// Claim the application before touching roles so a second decider
	// conflicts up front instead of mutating roles for a record the first
	// decider is about to archive. The re-check inside Mutate remains the
	// durable backstop.
	s.mu.Lock()
	if s.deciding[applicationID] {
		s.mu.Unlock()
		return util.NewConflict("a decision is already in progress for this application", map[string]any{"id": applicationID})
	}
	s.deciding[applicationID] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.deciding, applicationID)
		s.mu.Unlock()
	}()

	record, err := s.activeRecord(ctx, applicationID)
	if err != nil {
		return err
	}

	if outcome == domain.DecisionAccepted {
		if err := s.mutateRoles(ctx, record.UserID, record.Type); err != nil {
			return err
		}
	}

	result := domain.ResultDenied
	if outcome == domain.DecisionAccepted {
		result = domain.ResultAccepted
	}
	decidedAt := time.Now()

	if err := s.store.Mutate(ctx, func(doc *domain.Document) error {
		current, ok := doc.Applications.Active[applicationID]
		if !ok {
			return util.NewNotFound("application", map[string]any{"id": applicationID})
		}
		current.Decision = outcome
		doc.Archive[strconv.FormatInt(applicationID, 10)] = domain.ArchiveEntry{
			Kind:        domain.ArchiveKindApplication,
			Application: &current,
			Result:      result,
			DecidedBy:   deciderID,
			DecidedAt:   &decidedAt,
			Reason:      reason,
		}
		delete(doc.Applications.Active, applicationID)
		return nil
	}); err != nil {
		return err
	}

	s.notifyApplicant(ctx, record.UserID, record.Type, outcome, reason)
	s.postDecisionLog(ctx, applicationID, record, deciderID, result, reason)

	s.publishEvent(ctx, events.Event{
		Type:    events.EventApplicationDecided,
		ActorID: deciderID,
		Payload: events.ApplicationDecidedPayload{
			ApplicationID: applicationID,
			Type:          record.Type,
			Result:        result,
			Reason:        reason,
		},
	})
	s.logger.Info("application decided",
		zap.Int64("application", applicationID),
		zap.String("result", string(result)),
		zap.String("decided_by", deciderID))
	return nil
}

// OpenTicketWithApplicant creates a ticket pre-populated with the
// application's answers, linked by the application ID. The application's
// decision state is unchanged.
func (s *ApplicationService) OpenTicketWithApplicant(ctx context.Context, actorID string, applicationID int64) error {
	record, err := s.activeRecord(ctx, applicationID)
	if err != nil {
		return err
	}

	fields := questionFields(record.Questions, record.Answers)
	issue := fmt.Sprintf("Opened from application %d (%s)", applicationID, record.Type.Label())
	appID := applicationID
	_, err = s.tickets.Create(ctx, record.UserID, domain.CategoryApplication, "", issue, &appID, fields)
	return err
}

// activeRecord fetches the active application from the latest document.
func (s *ApplicationService) activeRecord(ctx context.Context, applicationID int64) (domain.ApplicationRecord, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return domain.ApplicationRecord{}, err
	}
	record, ok := doc.Applications.Active[applicationID]
	if !ok {
		return domain.ApplicationRecord{}, util.NewNotFound("application", map[string]any{"id": applicationID})
	}
	return record, nil
}

// mutateRoles grants the accepted type's role set and revokes the exclusive
// roles of the other types, so grants never stack across repeated
// applications. A failed mutation aborts the decision.
func (s *ApplicationService) mutateRoles(ctx context.Context, userID string, appType domain.ApplicationType) error {
	grant := s.roleIDs(appType.GrantedRoles())
	revoke := s.roleIDs(appType.RevokedRoles())

	if err := s.platform.GrantRoles(ctx, userID, grant); err != nil {
		return util.NewRemoteUnavailable("grant roles", err)
	}
	if err := s.platform.RevokeRoles(ctx, userID, revoke); err != nil {
		return util.NewRemoteUnavailable("revoke roles", err)
	}
	return nil
}

func (s *ApplicationService) roleIDs(roles []domain.Role) []string {
	ids := make([]string, 0, len(roles))
	for _, role := range roles {
		if id := s.community.RoleIDs[role]; id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *ApplicationService) notifyApplicant(ctx context.Context, userID string, appType domain.ApplicationType, outcome domain.Decision, reason string) {
	var content string
	if outcome == domain.DecisionAccepted {
		content = fmt.Sprintf("✅ Your application for %s has been accepted!", appType.Label())
	} else {
		content = fmt.Sprintf("❌ Your application for %s has been denied.", appType.Label())
	}
	if reason != "" {
		content += "\nReason: " + reason
	}
	s.notifyUser(ctx, userID, content)
}

func (s *ApplicationService) postDecisionLog(ctx context.Context, applicationID int64, record domain.ApplicationRecord, deciderID string, result domain.ArchiveResult, reason string) {
	title := "Application Denied"
	color := "#FF0000"
	if result == domain.ResultAccepted {
		title = "Application Accepted"
		color = "#00FF00"
	}
	if reason == "" {
		reason = "None"
	}
	msg := platform.Message{
		Title: title,
		Body:  fmt.Sprintf("Application ID: %d\nApplicant: <@%s>\nBy: <@%s>", applicationID, record.UserID, deciderID),
		Fields: []platform.Field{
			{Name: "Type", Value: string(record.Type)},
			{Name: "Reason", Value: reason},
		},
		Color: color,
	}
	if err := s.platform.SendMessage(ctx, s.community.LogChannel, msg); err != nil {
		s.logger.Warn("decision log failed", zap.Int64("application", applicationID), zap.Error(err))
	}
}

func (s *ApplicationService) notifyUser(ctx context.Context, userID, content string) {
	if _, err := s.platform.SendDirect(ctx, userID, platform.Message{Content: content}); err != nil {
		s.logger.Warn("user notification failed", zap.String("user", userID), zap.Error(err))
	}
}

func (s *ApplicationService) recordWorkflow(name string) {
	if s.metrics != nil {
		s.metrics.RecordWorkflow(name)
	}
}

func (s *ApplicationService) publishEvent(ctx context.Context, event events.Event) {
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

// questionFields renders a question list with its answers, one field per
// question. Unanswered slots render a skip marker.
func questionFields(questions, answers []string) []platform.Field {
	fields := make([]platform.Field, 0, len(questions))
	for i, question := range questions {
		value := "User skipped this question."
		if i < len(answers) && answers[i] != "" {
			value = answers[i]
		}
		fields = append(fields, platform.Field{
			Name:  fmt.Sprintf("%d. %s", i+1, question),
			Value: value,
		})
	}
	return fields
}
