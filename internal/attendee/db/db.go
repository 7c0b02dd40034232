package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"ms-eventreg/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetAttendee(ctx context.Context, id string) (*models.Attendee, error) {
	var attendee models.Attendee
	err := d.Bun.NewSelect().
		Model(&attendee).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAttendeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &attendee, nil
}

// ListAttendees returns one page of attendees, optionally filtered by
// a case-insensitive name/email search.
func (d *DB) ListAttendees(ctx context.Context, page models.PageRequest, search string) ([]models.Attendee, int, error) {
	page = page.Normalize()

	var attendees []models.Attendee
	q := d.Bun.NewSelect().Model(&attendees)
	if search != "" {
		pattern := "%" + search + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("name ILIKE ?", pattern).WhereOr("email ILIKE ?", pattern)
		})
	}
	count, err := q.
		Order("name ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return attendees, count, nil
}

// ListAttendeesWithMultipleEvents returns attendees registered for
// more than one event, most events first.
func (d *DB) ListAttendeesWithMultipleEvents(ctx context.Context, page models.PageRequest, search string) ([]models.AttendeeWithEventCount, int, error) {
	page = page.Normalize()

	where := ""
	args := []interface{}{}
	if search != "" {
		pattern := "%" + search + "%"
		where = "WHERE (a.name ILIKE ? OR a.email ILIKE ?)"
		args = append(args, pattern, pattern)
	}

	var attendees []models.AttendeeWithEventCount
	listArgs := append(append([]interface{}{}, args...), page.Limit, page.Offset())
	err := d.Bun.NewRaw(fmt.Sprintf(`
		SELECT a.*, CAST(COUNT(r.id) AS INTEGER) AS event_count
		FROM attendees a
		LEFT JOIN registrations r ON a.id = r.attendee_id
		%s
		GROUP BY a.id
		HAVING COUNT(r.id) > 1
		ORDER BY event_count DESC
		LIMIT ? OFFSET ?`, where), listArgs...).
		Scan(ctx, &attendees)
	if err != nil {
		return nil, 0, err
	}

	var count int
	err = d.Bun.NewRaw(fmt.Sprintf(`
		SELECT CAST(COUNT(*) AS INTEGER) FROM (
			SELECT a.id
			FROM attendees a
			LEFT JOIN registrations r ON a.id = r.attendee_id
			%s
			GROUP BY a.id
			HAVING COUNT(r.id) > 1
		) multi`, where), args...).
		Scan(ctx, &count)
	if err != nil {
		return nil, 0, err
	}
	return attendees, count, nil
}

func (d *DB) InsertAttendee(ctx context.Context, attendee *models.Attendee) error {
	if attendee.ID == "" {
		attendee.ID = uuid.NewString()
	}
	_, err := d.Bun.NewInsert().Model(attendee).Exec(ctx)
	if isUniqueViolation(err) {
		return models.ErrDuplicateEmail
	}
	return err
}

func (d *DB) UpdateAttendee(ctx context.Context, attendee *models.Attendee) (*models.Attendee, error) {
	res, err := d.Bun.NewUpdate().
		Model(attendee).
		OmitZero().
		Where("id = ?", attendee.ID).
		Exec(ctx)
	if isUniqueViolation(err) {
		return nil, models.ErrDuplicateEmail
	}
	if err != nil {
		return nil, err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return nil, models.ErrAttendeeNotFound
	}

	var updated models.Attendee
	if err := d.Bun.NewSelect().Model(&updated).Where("id = ?", attendee.ID).Scan(ctx); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteAttendee removes an attendee; their registrations go with them
// via the ON DELETE CASCADE foreign key.
func (d *DB) DeleteAttendee(ctx context.Context, id string) (*models.Attendee, error) {
	var attendee models.Attendee
	err := d.Bun.NewSelect().Model(&attendee).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAttendeeNotFound
	}
	if err != nil {
		return nil, err
	}

	_, err = d.Bun.NewDelete().Model((*models.Attendee)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return &attendee, nil
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
