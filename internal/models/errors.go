package models

import "errors"

// Domain rule violations surfaced to callers as rejected-request
// outcomes. They are never retried automatically.
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrAttendeeNotFound     = errors.New("attendee not found")
	ErrRegistrationNotFound = errors.New("registration not found")

	// ErrCapacityExceeded means the event already holds max_attendees
	// registrations.
	ErrCapacityExceeded = errors.New("no more seats available for this event")

	// ErrDuplicateRegistration means the attendee already holds a
	// registration for this event.
	ErrDuplicateRegistration = errors.New("attendee is already registered for this event")

	// ErrConflictingSchedule means another event is already scheduled
	// on the requested date.
	ErrConflictingSchedule = errors.New("an event is already scheduled on this date")

	// ErrDuplicateEmail means another attendee already uses this email.
	ErrDuplicateEmail = errors.New("an attendee is already registered with this email")
)
