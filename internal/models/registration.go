package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Registration links one attendee to one event. At most one
// registration may exist per (event, attendee) pair; the admission
// transaction pre-checks this and a unique index backs it up.
type Registration struct {
	bun.BaseModel `bun:"table:registrations"`

	ID           string    `bun:"id,pk" json:"id"`
	EventID      string    `bun:"event_id,notnull" json:"event_id"`
	AttendeeID   string    `bun:"attendee_id,notnull" json:"attendee_id"`
	RegisteredAt time.Time `bun:"registered_at,notnull,default:current_timestamp" json:"registered_at"`

	Event    *Event    `bun:"rel:belongs-to,join:event_id=id" json:"event,omitempty"`
	Attendee *Attendee `bun:"rel:belongs-to,join:attendee_id=id" json:"attendee,omitempty"`
}
