package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Event is a scheduled happening with a fixed seat pool. Dates have
// calendar-day granularity and no two events may share one.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID           string    `bun:"id,pk" json:"id"`
	Name         string    `bun:"name,notnull" json:"name"`
	Description  string    `bun:"description,nullzero" json:"description,omitempty"`
	Date         time.Time `bun:"date,notnull,unique,type:date" json:"date"`
	Location     string    `bun:"location,nullzero" json:"location,omitempty"`
	MaxAttendees int       `bun:"max_attendees,notnull" json:"max_attendees"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	Registrations []*Registration `bun:"rel:has-many,join:id=event_id" json:"registrations,omitempty"`
}

// EventWithCount carries an event row plus its registration count, as
// returned by the most-registrations listing.
type EventWithCount struct {
	Event
	RegistrationsCount int `bun:"registrations_count" json:"registrations_count"`
}
