package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-eventreg/internal/event"
	"ms-eventreg/internal/event/api"
	"ms-eventreg/internal/event/db"
	"ms-eventreg/internal/logger"
	"ms-eventreg/internal/models"
	"ms-eventreg/internal/utils"
)

// stubDB is an in-memory event.DBLayer for handler tests.
type stubDB struct {
	mu            sync.Mutex
	events        map[string]*models.Event
	attendees     map[string]*models.Attendee
	registrations map[string]*models.Registration
}

func newStubDB() *stubDB {
	return &stubDB{
		events:        make(map[string]*models.Event),
		attendees:     make(map[string]*models.Attendee),
		registrations: make(map[string]*models.Registration),
	}
}

func (s *stubDB) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	return e, nil
}

func (s *stubDB) GetEventByDate(ctx context.Context, date time.Time) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.Date.Format("2006-01-02") == date.Format("2006-01-02") {
			return e, nil
		}
	}
	return nil, models.ErrEventNotFound
}

func (s *stubDB) ListEvents(ctx context.Context, page models.PageRequest, date *time.Time) ([]models.Event, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Event
	for _, e := range s.events {
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (s *stubDB) ListEventsByRegistrations(ctx context.Context, page models.PageRequest, date *time.Time) ([]models.EventWithCount, int, error) {
	return nil, 0, nil
}

func (s *stubDB) InsertEvent(ctx context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.events[e.ID] = e
	return nil
}

func (s *stubDB) UpdateEvent(ctx context.Context, e *models.Event) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.events[e.ID]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	return existing, nil
}

func (s *stubDB) DeleteEvent(ctx context.Context, id string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	delete(s.events, id)
	return e, nil
}

func (s *stubDB) RegisterAttendee(ctx context.Context, eventID, attendeeID string) (*db.AdmissionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	a, ok := s.attendees[attendeeID]
	if !ok {
		return nil, models.ErrAttendeeNotFound
	}
	count := 0
	for _, r := range s.registrations {
		if r.EventID == eventID {
			if r.AttendeeID == attendeeID {
				return nil, models.ErrDuplicateRegistration
			}
			count++
		}
	}
	if count >= e.MaxAttendees {
		return nil, models.ErrCapacityExceeded
	}
	registration := &models.Registration{
		ID:         uuid.NewString(),
		EventID:    eventID,
		AttendeeID: attendeeID,
	}
	s.registrations[registration.ID] = registration
	return &db.AdmissionResult{
		Registration: registration,
		Event:        e,
		Attendee:     a,
		Remaining:    e.MaxAttendees - (count + 1),
	}, nil
}

func (s *stubDB) GetRegistration(ctx context.Context, id string) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.registrations[id]
	if !ok {
		return nil, models.ErrRegistrationNotFound
	}
	return r, nil
}

func (s *stubDB) DeleteRegistration(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registrations[id]; !ok {
		return models.ErrRegistrationNotFound
	}
	delete(s.registrations, id)
	return nil
}

type noopCache struct{}

func (noopCache) Get(ctx context.Context, key string, dest interface{}) bool { return false }
func (noopCache) Set(ctx context.Context, key string, value interface{})    {}
func (noopCache) InvalidateKey(ctx context.Context, key string)             {}
func (noopCache) InvalidatePrefix(ctx context.Context, prefix string)       {}

type noopQueue struct{}

func (noopQueue) Enqueue(ctx context.Context, job models.EmailJob) error { return nil }

type noopNotifier struct{}

func (noopNotifier) Publish(n models.Notification) {}

func newTestRouter(t *testing.T) (*chi.Mux, *stubDB) {
	t.Helper()
	store := newStubDB()
	log := logger.NewLogger()
	svc := event.NewEventService(store, noopCache{}, noopQueue{}, noopNotifier{}, log)
	h := &api.Handler{EventService: svc, Logger: log}

	r := chi.NewRouter()
	r.Get("/v1/event/all", h.GetAllEvents)
	r.Post("/v1/event/create", h.CreateEvent)
	r.Get("/v1/event/{eventID}", h.GetOneEvent)
	r.Post("/v1/event/{eventID}/register/{attendeeID}", h.RegisterAttendee)
	r.Delete("/v1/event/unregister/{registrationID}", h.UnregisterAttendee)
	return r, store
}

func doRequest(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, utils.APIResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func seed(store *stubDB, maxAttendees int) (*models.Event, *models.Attendee) {
	e := &models.Event{
		ID:           uuid.NewString(),
		Name:         "Tech Conference",
		Date:         time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		MaxAttendees: maxAttendees,
	}
	store.events[e.ID] = e
	a := &models.Attendee{ID: uuid.NewString(), Name: "Jane", Email: "jane@example.com"}
	store.attendees[a.ID] = a
	return e, a
}

func TestRegisterEndpointSuccess(t *testing.T) {
	r, store := newTestRouter(t)
	e, a := seed(store, 5)

	rec, resp := doRequest(t, r, http.MethodPost, "/v1/event/"+e.ID+"/register/"+a.ID, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "attendee registered", resp.Message)
}

func TestRegisterEndpointCapacityExceeded(t *testing.T) {
	r, store := newTestRouter(t)
	e, _ := seed(store, 1)

	first := &models.Attendee{ID: uuid.NewString(), Name: "A", Email: "a@example.com"}
	store.attendees[first.ID] = first
	rec, _ := doRequest(t, r, http.MethodPost, "/v1/event/"+e.ID+"/register/"+first.ID, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	second := &models.Attendee{ID: uuid.NewString(), Name: "B", Email: "b@example.com"}
	store.attendees[second.ID] = second
	rec, resp := doRequest(t, r, http.MethodPost, "/v1/event/"+e.ID+"/register/"+second.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, utils.ReasonCapacityExceeded, resp.Error)
}

func TestRegisterEndpointDuplicate(t *testing.T) {
	r, store := newTestRouter(t)
	e, a := seed(store, 5)

	rec, _ := doRequest(t, r, http.MethodPost, "/v1/event/"+e.ID+"/register/"+a.ID, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, resp := doRequest(t, r, http.MethodPost, "/v1/event/"+e.ID+"/register/"+a.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, utils.ReasonDuplicateRegistration, resp.Error)
}

func TestRegisterEndpointUnknownEvent(t *testing.T) {
	r, store := newTestRouter(t)
	_, a := seed(store, 5)

	rec, resp := doRequest(t, r, http.MethodPost, "/v1/event/"+uuid.NewString()+"/register/"+a.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, utils.ReasonNotFound, resp.Error)
}

func TestUnregisterEndpointNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	rec, resp := doRequest(t, r, http.MethodDelete, "/v1/event/unregister/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, utils.ReasonNotFound, resp.Error)
}

func TestCreateEventValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	cases := []struct {
		name string
		body api.CreateEventRequest
	}{
		{"missing name", api.CreateEventRequest{Date: "2026-09-15", MaxAttendees: 10}},
		{"zero capacity", api.CreateEventRequest{Name: "X", Date: "2026-09-15", MaxAttendees: 0}},
		{"missing date", api.CreateEventRequest{Name: "X", MaxAttendees: 10}},
		{"malformed date", api.CreateEventRequest{Name: "X", Date: "15-09-2026", MaxAttendees: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, resp := doRequest(t, r, http.MethodPost, "/v1/event/create", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, utils.ReasonBadRequest, resp.Error)
		})
	}
}

func TestCreateEventConflict(t *testing.T) {
	r, _ := newTestRouter(t)

	body := api.CreateEventRequest{Name: "First", Date: "2026-09-15", MaxAttendees: 10}
	rec, _ := doRequest(t, r, http.MethodPost, "/v1/event/create", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	body.Name = "Second"
	rec, resp := doRequest(t, r, http.MethodPost, "/v1/event/create", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, utils.ReasonConflictingSchedule, resp.Error)
}

// slowDB blocks reads until the request context expires, the way a
// stalled database would under the request timeout middleware.
type slowDB struct {
	*stubDB
}

func (s *slowDB) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestGetOneEventTimesOutWithTimeoutReason(t *testing.T) {
	store := newStubDB()
	e, _ := seed(store, 5)

	log := logger.NewLogger()
	svc := event.NewEventService(&slowDB{store}, noopCache{}, noopQueue{}, noopNotifier{}, log)
	h := &api.Handler{EventService: svc, Logger: log}

	r := chi.NewRouter()
	r.Use(middleware.Timeout(50 * time.Millisecond))
	r.Get("/v1/event/{eventID}", h.GetOneEvent)

	rec, resp := doRequest(t, r, http.MethodGet, "/v1/event/"+e.ID, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, utils.ReasonTimeout, resp.Error)
}

func TestGetAllEventsRejectsBadDateParam(t *testing.T) {
	r, _ := newTestRouter(t)

	rec, resp := doRequest(t, r, http.MethodGet, "/v1/event/all?date=not-a-date", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, utils.ReasonBadRequest, resp.Error)
}
