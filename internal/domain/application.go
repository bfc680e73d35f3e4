package domain

import "time"

// ApplicationType enumerates the questionnaires a user can apply with.
type ApplicationType string

const (
	ApplicationStaff   ApplicationType = "staff_app"
	ApplicationBuilder ApplicationType = "builder_app"
	ApplicationDev     ApplicationType = "dev_app"
)

// Valid reports whether the type is a known questionnaire.
func (t ApplicationType) Valid() bool {
	switch t {
	case ApplicationStaff, ApplicationBuilder, ApplicationDev:
		return true
	}
	return false
}

// Label returns the human-readable name used in messages.
func (t ApplicationType) Label() string {
	switch t {
	case ApplicationStaff:
		return "Staff"
	case ApplicationBuilder:
		return "Builder"
	case ApplicationDev:
		return "Dev"
	}
	return string(t)
}

// Role names a platform role mutated on acceptance. Concrete platform role IDs
// are supplied by configuration.
type Role string

const (
	RoleStaff   Role = "staff"
	RoleTrainee Role = "trainee"
	RoleBuilder Role = "builder"
	RoleDev     Role = "dev"
)

// GrantedRoles returns the role set granted when an application of this type
// is accepted.
func (t ApplicationType) GrantedRoles() []Role {
	switch t {
	case ApplicationStaff:
		return []Role{RoleStaff, RoleTrainee}
	case ApplicationBuilder:
		return []Role{RoleStaff, RoleBuilder}
	case ApplicationDev:
		return []Role{RoleStaff, RoleDev}
	}
	return nil
}

// RevokedRoles returns the exclusive roles of the other application types,
// removed on acceptance so grants never stack across repeated applications.
func (t ApplicationType) RevokedRoles() []Role {
	revoked := make([]Role, 0, 2)
	if t != ApplicationStaff {
		revoked = append(revoked, RoleTrainee)
	}
	if t != ApplicationBuilder {
		revoked = append(revoked, RoleBuilder)
	}
	if t != ApplicationDev {
		revoked = append(revoked, RoleDev)
	}
	return revoked
}

// Decision enumerates the review outcome of an active application.
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionAccepted Decision = "accepted"
	DecisionDenied   Decision = "denied"
)

// ApplicationRecord is the durable snapshot of a submitted application.
// Questions are copied at submission time: questionnaires differ per type and
// their defaults may change while a record is pending.
type ApplicationRecord struct {
	UserID    string          `json:"userId"`
	Type      ApplicationType `json:"type"`
	Questions []string        `json:"questions"`
	Answers   []string        `json:"answers"`
	CreatedAt time.Time       `json:"createdAt"`
	Decision  Decision        `json:"decision"`
}

// ArchiveKind distinguishes terminal snapshot shapes in the archive table.
type ArchiveKind string

const (
	ArchiveKindApplication ArchiveKind = "application"
	ArchiveKindTranscript  ArchiveKind = "ticket_transcript"
)

// ArchiveResult is the terminal outcome recorded with an archived application.
type ArchiveResult string

const (
	ResultAccepted ArchiveResult = "accepted"
	ResultDenied   ArchiveResult = "denied"
	// ResultExpired marks applications pruned while still pending; the
	// archive never carries an ambiguous decision.
	ResultExpired ArchiveResult = "expired"
)

// ArchiveEntry is an append-only terminal snapshot. Application entries embed
// the record plus the decision; ticket entries carry the rendered transcript.
type ArchiveEntry struct {
	Kind ArchiveKind `json:"kind"`

	Application *ApplicationRecord `json:"application,omitempty"`
	Result      ArchiveResult      `json:"result,omitempty"`
	DecidedBy   string             `json:"decidedBy,omitempty"`
	DecidedAt   *time.Time         `json:"decidedAt,omitempty"`
	Reason      string             `json:"reason,omitempty"`

	Ticket     string     `json:"ticket,omitempty"`
	OpenedBy   string     `json:"openedBy,omitempty"`
	ClosedBy   string     `json:"closedBy,omitempty"`
	OpenedAt   *time.Time `json:"openedAt,omitempty"`
	ClosedAt   *time.Time `json:"closedAt,omitempty"`
	Transcript string     `json:"transcript,omitempty"`
}
