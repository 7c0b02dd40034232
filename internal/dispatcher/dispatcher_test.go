package dispatcher_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-eventreg/internal/dispatcher"
	"ms-eventreg/internal/logger"
	"ms-eventreg/internal/models"
)

type sentMail struct {
	to      string
	subject string
	body    string
}

// MockMailer fails the first failUntil sends, then succeeds.
type MockMailer struct {
	mu        sync.Mutex
	sent      []sentMail
	attempts  int
	failUntil int
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.attempts <= m.failUntil {
		return errors.New("smtp: connection refused")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *MockMailer) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

func (m *MockMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail{}, m.sent...)
}

func newTestDispatcher(m *MockMailer) *dispatcher.Dispatcher {
	d := dispatcher.New(m, logger.NewLogger())
	d.RetryDelay = time.Millisecond
	return d
}

func registerJob() models.EmailJob {
	return models.EmailJob{
		Kind: models.JobKindRegister,
		Event: models.EventSnapshot{
			ID:          "evt-1",
			Name:        "Tech Conference",
			Description: "A conference",
			Location:    "Main Hall",
			Date:        time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		},
		Registration: models.RegistrationSnapshot{
			ID:           "reg-1",
			RegisteredAt: time.Now().UTC(),
			Attendee: models.AttendeeSnapshot{
				ID:    "att-1",
				Name:  "Jane",
				Email: "jane@example.com",
			},
		},
	}
}

func TestProcessSendsConfirmation(t *testing.T) {
	mockMailer := &MockMailer{}
	d := newTestDispatcher(mockMailer)

	d.Process(context.Background(), registerJob())

	sent := mockMailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane@example.com", sent[0].to)
	assert.Equal(t, "Event Registration Confirmation", sent[0].subject)
	assert.Contains(t, sent[0].body, "Registration ID: reg-1")
	assert.Contains(t, sent[0].body, "Name: Tech Conference")
	assert.Contains(t, sent[0].body, "Date: 2026-09-15")
}

func TestProcessSendsReminder(t *testing.T) {
	mockMailer := &MockMailer{}
	d := newTestDispatcher(mockMailer)

	job := registerJob()
	job.Kind = models.JobKindReminder
	d.Process(context.Background(), job)

	sent := mockMailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Upcoming Registered Event Reminder", sent[0].subject)
	assert.Contains(t, sent[0].body, "remind you of an upcoming event")
	assert.Contains(t, sent[0].body, "Registration ID: reg-1")
}

func TestProcessRetriesThenSucceeds(t *testing.T) {
	mockMailer := &MockMailer{failUntil: 2}
	d := newTestDispatcher(mockMailer)

	d.Process(context.Background(), registerJob())

	assert.Equal(t, 3, mockMailer.Attempts())
	assert.Len(t, mockMailer.Sent(), 1)
}

func TestProcessDropsAfterAttemptBudget(t *testing.T) {
	mockMailer := &MockMailer{failUntil: 100}
	d := newTestDispatcher(mockMailer)

	d.Process(context.Background(), registerJob())

	// Exactly the attempt budget, never a fourth try.
	assert.Equal(t, models.DefaultJobAttempts, mockMailer.Attempts())
	assert.Empty(t, mockMailer.Sent())
}

func TestProcessIgnoresUnknownKind(t *testing.T) {
	mockMailer := &MockMailer{}
	d := newTestDispatcher(mockMailer)

	job := registerJob()
	job.Kind = "newsletter"
	d.Process(context.Background(), job)

	assert.Equal(t, 0, mockMailer.Attempts())
}

func TestProcessStopsOnCancelledContext(t *testing.T) {
	mockMailer := &MockMailer{failUntil: 100}
	d := newTestDispatcher(mockMailer)
	d.RetryDelay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		d.Process(ctx, registerJob())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Process did not return after context cancellation")
	}
	assert.Equal(t, 1, mockMailer.Attempts())
}
