package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"ms-eventreg/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- EVENTS ----------------

// GetEvent fetches one event with its registrations and their
// attendees resolved.
func (d *DB) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Relation("Registrations").
		Relation("Registrations.Attendee").
		Where("event.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetEventByDate returns the event scheduled on a calendar day, or
// ErrEventNotFound when the day is free.
func (d *DB) GetEventByDate(ctx context.Context, date time.Time) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("date = ?", date.Format("2006-01-02")).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListEvents returns one page of events, newest first, optionally
// filtered to a single date.
func (d *DB) ListEvents(ctx context.Context, page models.PageRequest, date *time.Time) ([]models.Event, int, error) {
	page = page.Normalize()

	var events []models.Event
	q := d.Bun.NewSelect().Model(&events)
	if date != nil {
		q = q.Where("date = ?", date.Format("2006-01-02"))
	}
	count, err := q.
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return events, count, nil
}

// ListEventsByRegistrations returns one page of events ordered by
// registration count descending.
func (d *DB) ListEventsByRegistrations(ctx context.Context, page models.PageRequest, date *time.Time) ([]models.EventWithCount, int, error) {
	page = page.Normalize()

	where := ""
	args := []interface{}{}
	if date != nil {
		where = "WHERE e.date = ?"
		args = append(args, date.Format("2006-01-02"))
	}

	var events []models.EventWithCount
	listArgs := append(append([]interface{}{}, args...), page.Limit, page.Offset())
	err := d.Bun.NewRaw(fmt.Sprintf(`
		SELECT e.*, CAST(COUNT(r.id) AS INTEGER) AS registrations_count
		FROM events e
		LEFT JOIN registrations r ON e.id = r.event_id
		%s
		GROUP BY e.id
		ORDER BY registrations_count DESC, e.created_at DESC
		LIMIT ? OFFSET ?`, where), listArgs...).
		Scan(ctx, &events)
	if err != nil {
		return nil, 0, err
	}

	var count int
	err = d.Bun.NewRaw(fmt.Sprintf(`
		SELECT CAST(COUNT(DISTINCT e.id) AS INTEGER)
		FROM events e
		LEFT JOIN registrations r ON e.id = r.event_id
		%s`, where), args...).
		Scan(ctx, &count)
	if err != nil {
		return nil, 0, err
	}
	return events, count, nil
}

// ListEventsForDate returns every event on a calendar day with its
// registrations and attendees resolved. Used by the reminder sweep.
func (d *DB) ListEventsForDate(ctx context.Context, date time.Time) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Relation("Registrations").
		Relation("Registrations.Attendee").
		Where("date = ?", date.Format("2006-01-02")).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) InsertEvent(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	_, err := d.Bun.NewInsert().Model(event).Exec(ctx)
	if isUniqueViolation(err) {
		// The unique index on date catches two creates racing past the
		// pre-check for the same day.
		return models.ErrConflictingSchedule
	}
	return err
}

// UpdateEvent writes the non-zero fields of event over the stored row
// and returns the updated row.
func (d *DB) UpdateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	res, err := d.Bun.NewUpdate().
		Model(event).
		OmitZero().
		Where("id = ?", event.ID).
		Exec(ctx)
	if isUniqueViolation(err) {
		return nil, models.ErrConflictingSchedule
	}
	if err != nil {
		return nil, err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return nil, models.ErrEventNotFound
	}

	var updated models.Event
	if err := d.Bun.NewSelect().Model(&updated).Where("id = ?", event.ID).Scan(ctx); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteEvent removes an event. Its registrations go with it via the
// ON DELETE CASCADE foreign key.
func (d *DB) DeleteEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().Model(&event).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}

	_, err = d.Bun.NewDelete().Model((*models.Event)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ---------------- ADMISSION ----------------

// AdmissionResult is everything the service needs after a successful
// registration: the created row, snapshots of its event and attendee,
// and the seats left after this admission.
type AdmissionResult struct {
	Registration *models.Registration
	Event        *models.Event
	Attendee     *models.Attendee
	Remaining    int
}

// RegisterAttendee performs the capacity-safe admission inside a
// single transaction. The SELECT ... FOR UPDATE on the event row
// serializes concurrent attempts for the same event, so the count it
// reads cannot go stale before the insert commits. Without the lock,
// two requests can both read "1 seat left" and both insert.
func (d *DB) RegisterAttendee(ctx context.Context, eventID, attendeeID string) (*AdmissionResult, error) {
	var result AdmissionResult

	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var event models.Event
		err := tx.NewSelect().
			Model(&event).
			Where("id = ?", eventID).
			For("UPDATE").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("lock event row: %w", err)
		}

		var attendee models.Attendee
		err = tx.NewSelect().
			Model(&attendee).
			Where("id = ?", attendeeID).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrAttendeeNotFound
		}
		if err != nil {
			return fmt.Errorf("load attendee: %w", err)
		}

		count, err := tx.NewSelect().
			Model((*models.Registration)(nil)).
			Where("event_id = ?", eventID).
			Count(ctx)
		if err != nil {
			return fmt.Errorf("count registrations: %w", err)
		}
		if count >= event.MaxAttendees {
			return models.ErrCapacityExceeded
		}

		exists, err := tx.NewSelect().
			Model((*models.Registration)(nil)).
			Where("event_id = ?", eventID).
			Where("attendee_id = ?", attendeeID).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if exists {
			return models.ErrDuplicateRegistration
		}

		registration := &models.Registration{
			ID:           uuid.NewString(),
			EventID:      eventID,
			AttendeeID:   attendeeID,
			RegisteredAt: time.Now().UTC(),
		}
		if _, err := tx.NewInsert().Model(registration).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return models.ErrDuplicateRegistration
			}
			return fmt.Errorf("insert registration: %w", err)
		}

		result = AdmissionResult{
			Registration: registration,
			Event:        &event,
			Attendee:     &attendee,
			Remaining:    event.MaxAttendees - (count + 1),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ---------------- REGISTRATIONS ----------------

// GetRegistration fetches one registration with its event resolved.
func (d *DB) GetRegistration(ctx context.Context, id string) (*models.Registration, error) {
	var registration models.Registration
	err := d.Bun.NewSelect().
		Model(&registration).
		Relation("Event").
		Where("registration.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRegistrationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &registration, nil
}

func (d *DB) DeleteRegistration(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Registration)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return models.ErrRegistrationNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return false
}
