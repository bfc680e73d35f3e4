package domain

// Document is the durable root owned by the persistent store. All workflow
// components hold only IDs and re-fetch from the store; nothing else may cache
// a copy of this structure across transitions.
type Document struct {
	TicketCounter int64                   `json:"ticketCounter"`
	Applications  ApplicationTable        `json:"applications"`
	Archive       map[string]ArchiveEntry `json:"archive"`
}

// ApplicationTable tracks the application counter and in-flight records.
type ApplicationTable struct {
	LastID int64                       `json:"lastId"`
	Active map[int64]ApplicationRecord `json:"active"`
}

// NewDocument returns the well-defined empty schema persisted on first run.
func NewDocument() *Document {
	return &Document{
		Applications: ApplicationTable{
			Active: make(map[int64]ApplicationRecord),
		},
		Archive: make(map[string]ArchiveEntry),
	}
}

// Normalize repairs nil maps after decoding documents written by older builds.
func (d *Document) Normalize() {
	if d.Applications.Active == nil {
		d.Applications.Active = make(map[int64]ApplicationRecord)
	}
	if d.Archive == nil {
		d.Archive = make(map[string]ArchiveEntry)
	}
}
