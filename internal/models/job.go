package models

import "time"

// Job kinds understood by the notification dispatcher. Any other kind
// is consumed and ignored.
const (
	JobKindRegister = "register"
	JobKindReminder = "reminder"
)

// DefaultJobAttempts is the delivery attempt budget for every
// notification job. A job that fails this many times is dropped.
const DefaultJobAttempts = 3

// EventSnapshot is the event state captured at enqueue time. The
// dispatcher renders mail from the snapshot, not from live rows.
type EventSnapshot struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Date        time.Time `json:"date"`
}

// AttendeeSnapshot identifies the mail recipient.
type AttendeeSnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegistrationSnapshot is the registration state captured at enqueue
// time, with the attendee resolved.
type RegistrationSnapshot struct {
	ID           string           `json:"id"`
	RegisteredAt time.Time        `json:"registered_at"`
	Attendee     AttendeeSnapshot `json:"attendee"`
}

// EmailJob is the payload carried on the notification queue from the
// producers (admission controller, reminder sweep) to the dispatcher.
type EmailJob struct {
	Kind         string               `json:"kind"`
	Event        EventSnapshot        `json:"event"`
	Registration RegistrationSnapshot `json:"registration"`
}

// SnapshotEvent captures an event for a queue payload.
func SnapshotEvent(e *Event) EventSnapshot {
	return EventSnapshot{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Location:    e.Location,
		Date:        e.Date,
	}
}

// SnapshotRegistration captures a registration and its attendee for a
// queue payload.
func SnapshotRegistration(r *Registration, a *Attendee) RegistrationSnapshot {
	return RegistrationSnapshot{
		ID:           r.ID,
		RegisteredAt: r.RegisteredAt,
		Attendee: AttendeeSnapshot{
			ID:    a.ID,
			Name:  a.Name,
			Email: a.Email,
		},
	}
}
