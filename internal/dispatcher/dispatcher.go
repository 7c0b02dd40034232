package dispatcher

import (
	"context"
	"fmt"
	"time"

	"ms-eventreg/internal/logger"
	"ms-eventreg/internal/mailer"
	"ms-eventreg/internal/models"
)

// Dispatcher is the queue worker: it turns notification jobs into
// outbound mail. It knows nothing about who produced a job.
type Dispatcher struct {
	Mailer      mailer.Mailer
	Logger      *logger.Logger
	MaxAttempts int
	RetryDelay  time.Duration
}

func New(m mailer.Mailer, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		Mailer:      m,
		Logger:      log,
		MaxAttempts: models.DefaultJobAttempts,
		RetryDelay:  2 * time.Second,
	}
}

// Process handles one job to completion. Transport failures are
// retried up to the attempt budget; after that the job is dropped.
// Unknown kinds are a no-op. Process never returns an error because
// the queue offset is committed either way.
func (d *Dispatcher) Process(ctx context.Context, job models.EmailJob) {
	var subject, body string

	switch job.Kind {
	case models.JobKindRegister:
		subject, body = renderConfirmation(job)
	case models.JobKindReminder:
		subject, body = renderReminder(job)
	default:
		d.Logger.Debug("DISPATCH", fmt.Sprintf("ignoring job with unknown kind %q", job.Kind))
		return
	}

	to := job.Registration.Attendee.Email

	var err error
	for attempt := 1; attempt <= d.MaxAttempts; attempt++ {
		err = d.Mailer.Send(ctx, to, subject, body)
		if err == nil {
			d.Logger.LogQueue("SENT", job.Kind, fmt.Sprintf("registration %s -> %s", job.Registration.ID, to))
			return
		}
		d.Logger.Warn("DISPATCH", fmt.Sprintf("attempt %d/%d for registration %s failed: %v",
			attempt, d.MaxAttempts, job.Registration.ID, err))

		if attempt < d.MaxAttempts {
			select {
			case <-time.After(d.RetryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return
			}
		}
	}

	d.Logger.Error("DISPATCH", fmt.Sprintf("dropping %s job for registration %s after %d attempts: %v",
		job.Kind, job.Registration.ID, d.MaxAttempts, err))
}

func renderConfirmation(job models.EmailJob) (subject, body string) {
	subject = "Event Registration Confirmation"
	body = fmt.Sprintf(`Dear Concern, This email is sent to confirm your registration for the following event:

Registration ID: %s
Name: %s
Description: %s
Location: %s
Date: %s`,
		job.Registration.ID,
		job.Event.Name,
		job.Event.Description,
		job.Event.Location,
		job.Event.Date.Format("2006-01-02"))
	return subject, body
}

func renderReminder(job models.EmailJob) (subject, body string) {
	subject = "Upcoming Registered Event Reminder"
	body = fmt.Sprintf(`Dear Concern, This email is sent to remind you of an upcoming event you registered for.

Here are the details:
Registration ID: %s
Name: %s
Description: %s
Location: %s
Date: %s`,
		job.Registration.ID,
		job.Event.Name,
		job.Event.Description,
		job.Event.Location,
		job.Event.Date.Format("2006-01-02"))
	return subject, body
}
