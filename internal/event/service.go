package event

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"ms-eventreg/internal/cache"
	"ms-eventreg/internal/event/db"
	"ms-eventreg/internal/logger"
	"ms-eventreg/internal/models"
)

// DBLayer is the slice of the store the event service depends on.
type DBLayer interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	GetEventByDate(ctx context.Context, date time.Time) (*models.Event, error)
	ListEvents(ctx context.Context, page models.PageRequest, date *time.Time) ([]models.Event, int, error)
	ListEventsByRegistrations(ctx context.Context, page models.PageRequest, date *time.Time) ([]models.EventWithCount, int, error)
	InsertEvent(ctx context.Context, event *models.Event) error
	UpdateEvent(ctx context.Context, event *models.Event) (*models.Event, error)
	DeleteEvent(ctx context.Context, id string) (*models.Event, error)
	RegisterAttendee(ctx context.Context, eventID, attendeeID string) (*db.AdmissionResult, error)
	GetRegistration(ctx context.Context, id string) (*models.Registration, error)
	DeleteRegistration(ctx context.Context, id string) error
}

// CacheLayer is the read-through cache in front of listing/detail
// queries.
type CacheLayer interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{})
	InvalidateKey(ctx context.Context, key string)
	InvalidatePrefix(ctx context.Context, prefix string)
}

// Enqueuer appends notification jobs to the durable queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, job models.EmailJob) error
}

// Broadcaster pushes live notifications to connected viewers.
type Broadcaster interface {
	Publish(notification models.Notification)
}

// EventService owns event CRUD and the registration admission logic.
type EventService struct {
	DB       DBLayer
	Cache    CacheLayer
	Queue    Enqueuer
	Notifier Broadcaster
	Logger   *logger.Logger
}

func NewEventService(dbLayer DBLayer, cacheLayer CacheLayer, queue Enqueuer, notifier Broadcaster, log *logger.Logger) *EventService {
	return &EventService{DB: dbLayer, Cache: cacheLayer, Queue: queue, Notifier: notifier, Logger: log}
}

// EventList is one page of events plus its pagination envelope.
type EventList struct {
	Events     []models.Event    `json:"events"`
	Pagination models.Pagination `json:"pagination"`
}

// EventCountList is one page of the most-registrations listing.
type EventCountList struct {
	Events     []models.EventWithCount `json:"events"`
	Pagination models.Pagination       `json:"pagination"`
}

func dateToken(date *time.Time) string {
	if date == nil {
		return ""
	}
	return date.Format("2006-01-02")
}

// GetAllEvents serves the event listing through the cache.
func (s *EventService) GetAllEvents(ctx context.Context, page models.PageRequest, date *time.Time) (*EventList, error) {
	page = page.Normalize()
	key := cache.Key("event", "all", strconv.Itoa(page.Page), strconv.Itoa(page.Limit), dateToken(date))

	var cached EventList
	if s.Cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	events, count, err := s.DB.ListEvents(ctx, page, date)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}

	result := &EventList{
		Events:     events,
		Pagination: models.NewPagination(len(events), count, page.Page, page.Limit),
	}
	s.Cache.Set(ctx, key, result)
	return result, nil
}

// GetAllEventsByRegistrations serves the most-registrations listing
// through the cache.
func (s *EventService) GetAllEventsByRegistrations(ctx context.Context, page models.PageRequest, date *time.Time) (*EventCountList, error) {
	page = page.Normalize()
	key := cache.Key("event", "all", "most-registrations", strconv.Itoa(page.Page), strconv.Itoa(page.Limit), dateToken(date))

	var cached EventCountList
	if s.Cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	events, count, err := s.DB.ListEventsByRegistrations(ctx, page, date)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.EventWithCount{}
	}

	result := &EventCountList{
		Events:     events,
		Pagination: models.NewPagination(len(events), count, page.Page, page.Limit),
	}
	s.Cache.Set(ctx, key, result)
	return result, nil
}

// GetOneEvent serves an event detail (with registrations) through the
// cache.
func (s *EventService) GetOneEvent(ctx context.Context, id string) (*models.Event, error) {
	key := cache.Key("event", id)

	var cached models.Event
	if s.Cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	event, err := s.DB.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(ctx, key, event)
	return event, nil
}

// CreateEvent schedules a new event. Dates are globally unique: a
// collision is rejected with ErrConflictingSchedule, never silently
// overwritten.
func (s *EventService) CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	if _, err := s.DB.GetEventByDate(ctx, event.Date); err == nil {
		return nil, models.ErrConflictingSchedule
	} else if err != models.ErrEventNotFound {
		return nil, err
	}

	event.CreatedAt = time.Now().UTC()
	if err := s.DB.InsertEvent(ctx, event); err != nil {
		return nil, err
	}

	s.Cache.InvalidatePrefix(ctx, "event:all:")

	s.Notifier.Publish(models.Notification{
		Title: "New Event just got scheduled!",
		Body:  fmt.Sprintf("%q event scheduled on %s", event.Name, event.Date.Format("2006-01-02")),
	})

	return event, nil
}

func (s *EventService) UpdateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	updated, err := s.DB.UpdateEvent(ctx, event)
	if err != nil {
		return nil, err
	}

	s.Cache.InvalidateKey(ctx, cache.Key("event", event.ID))
	s.Cache.InvalidatePrefix(ctx, "event:all:")

	return updated, nil
}

func (s *EventService) DeleteEvent(ctx context.Context, id string) (*models.Event, error) {
	deleted, err := s.DB.DeleteEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	s.Cache.InvalidateKey(ctx, cache.Key("event", id))
	s.Cache.InvalidatePrefix(ctx, "event:all:")

	return deleted, nil
}

// Register admits an attendee to an event. The admission decision and
// the insert run atomically in the store; the three side effects below
// are post-commit, independently fallible, and never roll the
// registration back.
func (s *EventService) Register(ctx context.Context, eventID, attendeeID string) (*models.Registration, error) {
	result, err := s.DB.RegisterAttendee(ctx, eventID, attendeeID)
	if err != nil {
		return nil, err
	}

	s.Logger.LogRegistration("ADMIT", result.Registration.ID,
		fmt.Sprintf("event %s, %d seats remaining", eventID, result.Remaining))

	// Side effect 1: cache invalidation.
	s.Cache.InvalidatePrefix(ctx, "event:all:")
	s.Cache.InvalidateKey(ctx, cache.Key("event", eventID))

	// Side effect 2: confirmation mail job. A failed enqueue leaves the
	// committed registration standing.
	job := models.EmailJob{
		Kind:         models.JobKindRegister,
		Event:        models.SnapshotEvent(result.Event),
		Registration: models.SnapshotRegistration(result.Registration, result.Attendee),
	}
	if err := s.Queue.Enqueue(ctx, job); err != nil {
		s.Logger.Error("ADMISSION", fmt.Sprintf("confirmation enqueue failed for registration %s: %v",
			result.Registration.ID, err))
	}

	// Side effect 3: live broadcast when this admission leaves exactly
	// 2 seats, so it fires once per event as occupancy crosses the
	// threshold.
	if result.Remaining == 2 {
		s.Notifier.Publish(models.Notification{
			Title: "Event seats are about to get filled up!",
			Body:  "Only 2 seats remaining, grab one before all seats get booked!",
		})
	}

	return result.Registration, nil
}

// Unregister removes a registration and busts the owning event's
// detail cache. Capacity and uniqueness are re-evaluated on the next
// Register, so freed seats become available again.
func (s *EventService) Unregister(ctx context.Context, registrationID string) (*models.Registration, error) {
	registration, err := s.DB.GetRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	if err := s.DB.DeleteRegistration(ctx, registrationID); err != nil {
		return nil, err
	}

	s.Logger.LogRegistration("RELEASE", registrationID,
		fmt.Sprintf("event %s", registration.EventID))

	s.Cache.InvalidateKey(ctx, cache.Key("event", registration.EventID))

	return registration, nil
}
