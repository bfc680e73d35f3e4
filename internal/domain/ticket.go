package domain

import (
	"fmt"
	"time"
)

// TicketCategory enumerates the report types offered on the ticket panel.
type TicketCategory string

const (
	CategoryPlayerReport     TicketCategory = "player_report"
	CategoryBugReport        TicketCategory = "bug_report"
	CategoryStaffReport      TicketCategory = "staff_report"
	CategoryBillingIssue     TicketCategory = "billing_issue"
	CategoryPunishmentAppeal TicketCategory = "punishment_appeal"
	// CategoryApplication marks tickets opened by staff to discuss an
	// application with its applicant.
	CategoryApplication TicketCategory = "application"
)

// Valid reports whether the category is user-selectable from the panel.
func (c TicketCategory) Valid() bool {
	switch c {
	case CategoryPlayerReport, CategoryBugReport, CategoryStaffReport,
		CategoryBillingIssue, CategoryPunishmentAppeal:
		return true
	}
	return false
}

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen         TicketStatus = "OPEN"
	TicketStatusClosePending TicketStatus = "CLOSE_PENDING"
	// TicketStatusClosing marks a confirmed close whose teardown is in
	// flight. It prevents a second finalize from running concurrently.
	TicketStatusClosing TicketStatus = "CLOSING"
	TicketStatusClosed  TicketStatus = "CLOSED"
)

// Ticket is the aggregate for a single support conversation. Tickets are held
// in memory while open; only the counter increment and the terminal transcript
// archive entry are durable.
type Ticket struct {
	Number        int64
	Category      TicketCategory
	CreatorID     string
	SpaceID       string
	IGN           string
	Issue         string
	ApplicationID *int64
	Status        TicketStatus
	OpenedAt      time.Time
}

// Name renders the conventional space name for the ticket.
func (t *Ticket) Name() string {
	return fmt.Sprintf("Ticket-%d", t.Number)
}
