package attendee

import (
	"context"
	"strconv"

	"ms-eventreg/internal/cache"
	"ms-eventreg/internal/logger"
	"ms-eventreg/internal/models"
)

type DBLayer interface {
	GetAttendee(ctx context.Context, id string) (*models.Attendee, error)
	ListAttendees(ctx context.Context, page models.PageRequest, search string) ([]models.Attendee, int, error)
	ListAttendeesWithMultipleEvents(ctx context.Context, page models.PageRequest, search string) ([]models.AttendeeWithEventCount, int, error)
	InsertAttendee(ctx context.Context, attendee *models.Attendee) error
	UpdateAttendee(ctx context.Context, attendee *models.Attendee) (*models.Attendee, error)
	DeleteAttendee(ctx context.Context, id string) (*models.Attendee, error)
}

type CacheLayer interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{})
	InvalidateKey(ctx context.Context, key string)
	InvalidatePrefix(ctx context.Context, prefix string)
}

type AttendeeService struct {
	DB     DBLayer
	Cache  CacheLayer
	Logger *logger.Logger
}

func NewAttendeeService(dbLayer DBLayer, cacheLayer CacheLayer, log *logger.Logger) *AttendeeService {
	return &AttendeeService{DB: dbLayer, Cache: cacheLayer, Logger: log}
}

type AttendeeList struct {
	Attendees  []models.Attendee `json:"attendees"`
	Pagination models.Pagination `json:"pagination"`
}

type AttendeeCountList struct {
	Attendees  []models.AttendeeWithEventCount `json:"attendees"`
	Pagination models.Pagination               `json:"pagination"`
}

func (s *AttendeeService) GetAllAttendees(ctx context.Context, page models.PageRequest, search string) (*AttendeeList, error) {
	page = page.Normalize()
	key := cache.Key("attendee", "all", strconv.Itoa(page.Page), strconv.Itoa(page.Limit), search)

	var cached AttendeeList
	if s.Cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	attendees, count, err := s.DB.ListAttendees(ctx, page, search)
	if err != nil {
		return nil, err
	}
	if attendees == nil {
		attendees = []models.Attendee{}
	}

	result := &AttendeeList{
		Attendees:  attendees,
		Pagination: models.NewPagination(len(attendees), count, page.Page, page.Limit),
	}
	s.Cache.Set(ctx, key, result)
	return result, nil
}

func (s *AttendeeService) GetAllAttendeesWithMultipleEvents(ctx context.Context, page models.PageRequest, search string) (*AttendeeCountList, error) {
	page = page.Normalize()
	key := cache.Key("attendee", "all", "multiple-events", strconv.Itoa(page.Page), strconv.Itoa(page.Limit), search)

	var cached AttendeeCountList
	if s.Cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	attendees, count, err := s.DB.ListAttendeesWithMultipleEvents(ctx, page, search)
	if err != nil {
		return nil, err
	}
	if attendees == nil {
		attendees = []models.AttendeeWithEventCount{}
	}

	result := &AttendeeCountList{
		Attendees:  attendees,
		Pagination: models.NewPagination(len(attendees), count, page.Page, page.Limit),
	}
	s.Cache.Set(ctx, key, result)
	return result, nil
}

func (s *AttendeeService) GetOneAttendee(ctx context.Context, id string) (*models.Attendee, error) {
	key := cache.Key("attendee", id)

	var cached models.Attendee
	if s.Cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	attendee, err := s.DB.GetAttendee(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(ctx, key, attendee)
	return attendee, nil
}

func (s *AttendeeService) CreateAttendee(ctx context.Context, attendee *models.Attendee) (*models.Attendee, error) {
	if err := s.DB.InsertAttendee(ctx, attendee); err != nil {
		return nil, err
	}

	s.Cache.InvalidatePrefix(ctx, "attendee:all:")
	return attendee, nil
}

func (s *AttendeeService) UpdateAttendee(ctx context.Context, attendee *models.Attendee) (*models.Attendee, error) {
	updated, err := s.DB.UpdateAttendee(ctx, attendee)
	if err != nil {
		return nil, err
	}

	s.Cache.InvalidateKey(ctx, cache.Key("attendee", attendee.ID))
	s.Cache.InvalidatePrefix(ctx, "attendee:all:")
	return updated, nil
}

func (s *AttendeeService) DeleteAttendee(ctx context.Context, id string) (*models.Attendee, error) {
	deleted, err := s.DB.DeleteAttendee(ctx, id)
	if err != nil {
		return nil, err
	}

	s.Cache.InvalidateKey(ctx, cache.Key("attendee", id))
	s.Cache.InvalidatePrefix(ctx, "attendee:all:")
	return deleted, nil
}
