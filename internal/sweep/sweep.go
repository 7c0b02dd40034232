package sweep

import (
	"context"
	"fmt"
	"time"

	"ms-eventreg/internal/logger"
	"ms-eventreg/internal/models"
)

// StoreLayer is the slice of the store the sweep reads from.
type StoreLayer interface {
	ListEventsForDate(ctx context.Context, date time.Time) ([]models.Event, error)
}

// Enqueuer appends reminder jobs to the notification queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, job models.EmailJob) error
}

// Sweep discovers events happening tomorrow and enqueues one reminder
// job per active registration. It runs once per day at a fixed local
// hour. There is no sent-ledger: re-running the sweep on the same day
// re-enqueues the same reminders.
type Sweep struct {
	DB        StoreLayer
	Queue     Enqueuer
	Logger    *logger.Logger
	RunAtHour int

	// Now is swappable for tests.
	Now func() time.Time
}

func New(db StoreLayer, queue Enqueuer, log *logger.Logger, runAtHour int) *Sweep {
	return &Sweep{
		DB:        db,
		Queue:     queue,
		Logger:    log,
		RunAtHour: runAtHour,
		Now:       time.Now,
	}
}

// Start blocks, running the sweep at the configured hour every day
// until ctx is cancelled.
func (s *Sweep) Start(ctx context.Context) {
	for {
		next := NextRun(s.Now(), s.RunAtHour)
		s.Logger.LogSweep(fmt.Sprintf("next reminder sweep at %s", next.Format(time.RFC3339)))

		select {
		case <-time.After(time.Until(next)):
			if err := s.Run(ctx); err != nil {
				s.Logger.Error("SWEEP", fmt.Sprintf("reminder sweep failed: %v", err))
			}
		case <-ctx.Done():
			s.Logger.LogSweep("reminder sweep stopped")
			return
		}
	}
}

// Run executes one sweep: every registration of every event dated
// tomorrow gets a reminder job with the standard attempt budget.
func (s *Sweep) Run(ctx context.Context) error {
	tomorrow := s.Now().AddDate(0, 0, 1)

	events, err := s.DB.ListEventsForDate(ctx, tomorrow)
	if err != nil {
		return fmt.Errorf("list events for %s: %w", tomorrow.Format("2006-01-02"), err)
	}

	enqueued := 0
	for i := range events {
		event := &events[i]
		for _, registration := range event.Registrations {
			if registration.Attendee == nil {
				s.Logger.Warn("SWEEP", fmt.Sprintf("registration %s has no attendee, skipping", registration.ID))
				continue
			}

			job := models.EmailJob{
				Kind:         models.JobKindReminder,
				Event:        models.SnapshotEvent(event),
				Registration: models.SnapshotRegistration(registration, registration.Attendee),
			}
			if err := s.Queue.Enqueue(ctx, job); err != nil {
				s.Logger.Error("SWEEP", fmt.Sprintf("reminder enqueue failed for registration %s: %v",
					registration.ID, err))
				continue
			}
			enqueued++
		}
	}

	s.Logger.LogSweep(fmt.Sprintf("enqueued %d reminders for %d events on %s",
		enqueued, len(events), tomorrow.Format("2006-01-02")))
	return nil
}

// NextRun returns the next occurrence of hour (local time) strictly
// after now.
func NextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
