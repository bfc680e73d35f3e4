package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coralises/guildflow/internal/config"
	"github.com/coralises/guildflow/internal/domain"
	"github.com/coralises/guildflow/internal/events"
	"github.com/coralises/guildflow/internal/persistence"
	"github.com/coralises/guildflow/internal/platform"
	"github.com/coralises/guildflow/pkg/util"
)

func testCommunity() config.CommunityConfig {
	return config.CommunityConfig{
		StaffRoleID:        "role-staff",
		TicketParentID:     "parent-1",
		TicketPanelChannel: "chan-ticket-panel",
		AppPanelChannel:    "chan-app-panel",
		LogChannel:         "chan-log",
		RoleIDs: map[domain.Role]string{
			domain.RoleStaff:   "role-staff",
			domain.RoleTrainee: "role-trainee",
			domain.RoleBuilder: "role-builder",
			domain.RoleDev:     "role-dev",
		},
		ReviewChannels: map[domain.ApplicationType]string{
			domain.ApplicationStaff:   "chan-review-staff",
			domain.ApplicationBuilder: "chan-review-builder",
			domain.ApplicationDev:     "chan-review-dev",
		},
	}
}

func testCollectorConfig() config.CollectorConfig {
	return config.CollectorConfig{
		CancelKeyword:        "cancel",
		ApplicationTimeout:   3 * time.Hour,
		TranscriptFetchLimit: 100,
		TranscriptFieldLimit: 1020,
	}
}

func newTicketFixture(t *testing.T) (*TicketService, *fakePlatform, *persistence.DocumentStore) {
	t.Helper()
	gateway := newFakePlatform()
	path := filepath.Join(t.TempDir(), "document.json")
	store := persistence.NewDocumentStore(persistence.NewFileStore(path, zap.NewNop()))
	svc := NewTicketService(TicketDependencies{
		Community:  testCommunity(),
		Collector:  testCollectorConfig(),
		Platform:   gateway,
		Store:      store,
		Sequence:   NewSequenceAllocator(store),
		Dispatcher: events.NewInMemoryDispatcher(zap.NewNop()),
		Logger:     zap.NewNop(),
	})
	return svc, gateway, store
}

func openTicket(t *testing.T, svc *TicketService) *domain.Ticket {
	t.Helper()
	ticket, err := svc.Create(context.Background(), "creator-1", domain.CategoryBugReport, "Steve", "it broke", nil, nil)
	require.NoError(t, err)
	return ticket
}

func TestHandleIntakeSubmittedCreatesTicket(t *testing.T) {
	svc, gateway, store := newTicketFixture(t)
	ctx := context.Background()

	err := svc.HandleIntakeSubmitted(ctx, platform.TicketIntakeSubmitted{
		UserID:   "creator-1",
		Category: domain.CategoryPlayerReport,
		IGN:      "Steve",
		Issue:    "griefing",
	})
	require.NoError(t, err)

	ticket, ok := svc.Open("space-1")
	require.True(t, ok)
	assert.Equal(t, int64(1), ticket.Number)
	assert.Equal(t, "Ticket-1", ticket.Name())
	assert.Equal(t, "creator-1", ticket.CreatorID)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)

	// Welcome message lands in the new space with a close action.
	welcome := gateway.sentTo("space-1")
	require.Len(t, welcome, 1)
	require.Len(t, welcome[0].Actions, 1)
	assert.Equal(t, platform.ActionTicketClose, welcome[0].Actions[0].Kind)

	// Creator gets the confirmation DM.
	dms := gateway.directsTo("creator-1")
	require.Len(t, dms, 1)
	assert.Contains(t, dms[0].Content, "Ticket-1")

	// The counter is durable.
	doc, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.TicketCounter)
}

func TestCreateDoesNotReclaimNumberOnSpaceFailure(t *testing.T) {
	svc, gateway, store := newTicketFixture(t)
	ctx := context.Background()

	gateway.failCreate = true
	_, err := svc.Create(ctx, "creator-1", domain.CategoryBugReport, "Steve", "it broke", nil, nil)
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "REMOTE_UNAVAILABLE"))

	gateway.failCreate = false
	ticket, err := svc.Create(ctx, "creator-1", domain.CategoryBugReport, "Steve", "it broke", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ticket.Number)

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), doc.TicketCounter)
}

func TestHandleCategorySelectedOpensIntakeForm(t *testing.T) {
	svc, gateway, _ := newTicketFixture(t)

	err := svc.HandleCategorySelected(context.Background(), platform.TicketCategorySelected{
		UserID:   "creator-1",
		Category: domain.CategoryBillingIssue,
	})
	require.NoError(t, err)

	forms := gateway.formsFor("creator-1")
	require.Len(t, forms, 1)
	assert.Equal(t, platform.FormTicketIntake, forms[0].Kind)
	assert.Equal(t, string(domain.CategoryBillingIssue), forms[0].Ref.Category)
}

func TestHandleCategorySelectedRejectsUnknownCategory(t *testing.T) {
	svc, _, _ := newTicketFixture(t)

	err := svc.HandleCategorySelected(context.Background(), platform.TicketCategorySelected{
		UserID:   "creator-1",
		Category: "nonsense",
	})
	assert.True(t, util.IsCode(err, "VALIDATION_FAILED"))
}

func TestCloseLifecycle(t *testing.T) {
	svc, gateway, store := newTicketFixture(t)
	ctx := context.Background()
	ticket := openTicket(t, svc)

	require.NoError(t, svc.RequestClose(ctx, ticket.SpaceID, "staff-1"))
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)

	require.NoError(t, svc.ConfirmClose(ctx, ticket.SpaceID, "staff-1"))
	assert.Equal(t, domain.TicketStatusClosePending, ticket.Status)

	// A second close request conflicts while the first is pending.
	err := svc.RequestClose(ctx, ticket.SpaceID, "staff-2")
	assert.True(t, util.IsCode(err, "CONFLICT"))

	require.NoError(t, svc.FinalizeClose(ctx, ticket.SpaceID, "staff-1", "resolved"))
	assert.False(t, gateway.spaceExists(ticket.SpaceID))

	_, ok := svc.Open(ticket.SpaceID)
	assert.False(t, ok)

	// Exactly one transcript entry lands in the archive.
	doc, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Archive, 1)
	for _, entry := range doc.Archive {
		assert.Equal(t, domain.ArchiveKindTranscript, entry.Kind)
		assert.Equal(t, "Ticket-1", entry.Ticket)
		assert.Equal(t, "creator-1", entry.OpenedBy)
		assert.Equal(t, "staff-1", entry.ClosedBy)
		assert.Equal(t, "resolved", entry.Reason)
	}
}

func TestCancelCloseReturnsToOpen(t *testing.T) {
	svc, _, _ := newTicketFixture(t)
	ctx := context.Background()
	ticket := openTicket(t, svc)

	require.NoError(t, svc.RequestClose(ctx, ticket.SpaceID, "staff-1"))
	require.NoError(t, svc.ConfirmClose(ctx, ticket.SpaceID, "staff-1"))
	require.NoError(t, svc.CancelClose(ctx, ticket.SpaceID, "staff-1"))
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)

	// The close flow can start over.
	require.NoError(t, svc.RequestClose(ctx, ticket.SpaceID, "staff-1"))
}

func TestFinalizeCloseRequiresConfirmation(t *testing.T) {
	svc, _, _ := newTicketFixture(t)
	ticket := openTicket(t, svc)

	err := svc.FinalizeClose(context.Background(), ticket.SpaceID, "staff-1", "resolved")
	assert.True(t, util.IsCode(err, "CONFLICT"))
}

func TestFinalizeCloseSurvivesUnreachableCreatorDM(t *testing.T) {
	svc, gateway, _ := newTicketFixture(t)
	ctx := context.Background()
	ticket := openTicket(t, svc)

	require.NoError(t, svc.RequestClose(ctx, ticket.SpaceID, "staff-1"))
	require.NoError(t, svc.ConfirmClose(ctx, ticket.SpaceID, "staff-1"))

	gateway.failDirect = true
	require.NoError(t, svc.FinalizeClose(ctx, ticket.SpaceID, "staff-1", "resolved"))
	assert.False(t, gateway.spaceExists(ticket.SpaceID))

	// Transcript still posted to the log channel.
	logged := gateway.sentTo("chan-log")
	require.Len(t, logged, 1)
	require.Len(t, logged[0].Fields, 1)
	assert.Equal(t, "Transcript", logged[0].Fields[0].Name)
}

func TestFinalizeCloseKeepsPendingWhenDeleteFails(t *testing.T) {
	svc, gateway, _ := newTicketFixture(t)
	ctx := context.Background()
	ticket := openTicket(t, svc)

	require.NoError(t, svc.RequestClose(ctx, ticket.SpaceID, "staff-1"))
	require.NoError(t, svc.ConfirmClose(ctx, ticket.SpaceID, "staff-1"))

	gateway.failDelete = true
	err := svc.FinalizeClose(ctx, ticket.SpaceID, "staff-1", "resolved")
	assert.True(t, util.IsCode(err, "REMOTE_UNAVAILABLE"))
	assert.Equal(t, domain.TicketStatusClosePending, ticket.Status)

	// The close can be retried once the platform recovers.
	gateway.failDelete = false
	require.NoError(t, svc.FinalizeClose(ctx, ticket.SpaceID, "staff-1", "resolved"))
}

func TestFinalizeCloseRunsOnce(t *testing.T) {
	svc, gateway, store := newTicketFixture(t)
	ctx := context.Background()
	ticket := openTicket(t, svc)

	require.NoError(t, svc.RequestClose(ctx, ticket.SpaceID, "staff-1"))
	require.NoError(t, svc.ConfirmClose(ctx, ticket.SpaceID, "staff-1"))

	// Hold the first finalize inside the transcript fetch so a second
	// submission arrives while teardown is still in flight.
	gateway.fetchEntered = make(chan struct{})
	gateway.fetchRelease = make(chan struct{})

	first := make(chan error, 1)
	go func() {
		first <- svc.FinalizeClose(ctx, ticket.SpaceID, "staff-1", "resolved")
	}()
	<-gateway.fetchEntered

	err := svc.FinalizeClose(ctx, ticket.SpaceID, "staff-2", "resolved again")
	assert.True(t, util.IsCode(err, "CONFLICT"))

	close(gateway.fetchRelease)
	require.NoError(t, <-first)
	assert.False(t, gateway.spaceExists(ticket.SpaceID))

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.Archive, 1)
}

func TestAddParticipant(t *testing.T) {
	svc, gateway, _ := newTicketFixture(t)
	ctx := context.Background()
	ticket := openTicket(t, svc)

	t.Run("rejects the creator", func(t *testing.T) {
		err := svc.AddParticipant(ctx, ticket.SpaceID, "staff-1", ticket.CreatorID)
		assert.True(t, util.IsCode(err, "PERMISSION_DENIED"))
	})

	t.Run("rejects staff members", func(t *testing.T) {
		gateway.setRole("staffish", "role-staff")
		err := svc.AddParticipant(ctx, ticket.SpaceID, "staff-1", "staffish")
		assert.True(t, util.IsCode(err, "PERMISSION_DENIED"))
	})

	t.Run("grants access to anyone else", func(t *testing.T) {
		require.NoError(t, svc.AddParticipant(ctx, ticket.SpaceID, "staff-1", "friend-1"))
		assert.Contains(t, gateway.access[ticket.SpaceID], "friend-1")
	})

	t.Run("unknown space", func(t *testing.T) {
		err := svc.AddParticipant(ctx, "space-nope", "staff-1", "friend-1")
		assert.True(t, util.IsCode(err, "NOT_FOUND"))
	})
}

func TestPostTicketPanel(t *testing.T) {
	svc, gateway, _ := newTicketFixture(t)

	require.NoError(t, svc.PostPanel(context.Background()))

	panels := gateway.sentTo("chan-ticket-panel")
	require.Len(t, panels, 1)
	require.NotNil(t, panels[0].Select)
	assert.Equal(t, platform.SelectTicketCategory, panels[0].Select.Kind)
	assert.Len(t, panels[0].Select.Options, 5)
}
