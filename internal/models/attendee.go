package models

import "github.com/uptrace/bun"

// Attendee is a person who can register for events. Emails are unique
// across attendees.
type Attendee struct {
	bun.BaseModel `bun:"table:attendees"`

	ID    string `bun:"id,pk" json:"id"`
	Name  string `bun:"name,notnull" json:"name"`
	Email string `bun:"email,notnull,unique" json:"email"`
}

// AttendeeWithEventCount carries an attendee row plus the number of
// events they are registered for, as returned by the multiple-events
// report.
type AttendeeWithEventCount struct {
	Attendee
	EventCount int `bun:"event_count" json:"event_count"`
}
