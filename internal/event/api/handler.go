package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-eventreg/internal/event"
	"ms-eventreg/internal/logger"
	"ms-eventreg/internal/models"
	"ms-eventreg/internal/utils"
)

type Handler struct {
	EventService *event.EventService
	Logger       *logger.Logger
}

// CreateEventRequest is the POST /v1/event/create body.
type CreateEventRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Date         string `json:"date"`
	Location     string `json:"location"`
	MaxAttendees int    `json:"max_attendees"`
}

// UpdateEventRequest is the PATCH /v1/event/{event_id} body. All
// fields are optional.
type UpdateEventRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Date         string `json:"date"`
	Location     string `json:"location"`
	MaxAttendees int    `json:"max_attendees"`
}

func (h *Handler) GetAllEvents(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePageRequest(r.URL.Query().Get("page"), r.URL.Query().Get("limit"))
	date, err := utils.ParseDateParam(r.URL.Query().Get("date"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.ReasonBadRequest, err.Error())
		return
	}

	result, err := h.EventService.GetAllEvents(r.Context(), page, date)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "events fetched", result)
}

func (h *Handler) GetAllEventsByRegistrations(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePageRequest(r.URL.Query().Get("page"), r.URL.Query().Get("limit"))
	date, err := utils.ParseDateParam(r.URL.Query().Get("date"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.ReasonBadRequest, err.Error())
		return
	}

	result, err := h.EventService.GetAllEventsByRegistrations(r.Context(), page, date)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "events fetched", result)
}

func (h *Handler) GetOneEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	result, err := h.EventService.GetOneEvent(r.Context(), eventID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "event fetched", result)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.ReasonBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.Name == "" {
		utils.WriteError(w, http.StatusBadRequest, utils.ReasonBadRequest, "name is required")
		return
	}
	if req.MaxAttendees < 1 {
		utils.WriteError(w, http.StatusBadRequest, utils.ReasonBadRequest, "max_attendees must be at least 1")
		return
	}
	date, err := utils.ParseDateParam(req.Date)
	if err != nil || date == nil {
		utils.WriteError(w, http.StatusBadRequest, utils.ReasonBadRequest, "date is required in YYYY-MM-DD format")
		return
	}

	created, err := h.EventService.CreateEvent(r.Context(), &models.Event{
		Name:         req.Name,
		Description:  req.Description,
		Date:         *date,
		Location:     req.Location,
		MaxAttendees: req.MaxAttendees,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, "event created", created)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var req UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.ReasonBadRequest, "invalid request body: "+err.Error())
		return
	}

	update := &models.Event{
		ID:           eventID,
		Name:         req.Name,
		Description:  req.Description,
		Location:     req.Location,
		MaxAttendees: req.MaxAttendees,
	}
	if req.Date != "" {
		date, err := utils.ParseDateParam(req.Date)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, utils.ReasonBadRequest, err.Error())
			return
		}
		update.Date = *date
	}

	updated, err := h.EventService.UpdateEvent(r.Context(), update)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "event updated", updated)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	deleted, err := h.EventService.DeleteEvent(r.Context(), eventID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "event deleted", deleted)
}

func (h *Handler) RegisterAttendee(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	attendeeID := chi.URLParam(r, "attendeeID")

	start := time.Now()
	registration, err := h.EventService.Register(r.Context(), eventID, attendeeID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.Logger.LogAPI(r.Method, r.URL.Path, "201", time.Since(start).String())

	utils.WriteJSON(w, http.StatusCreated, "attendee registered", map[string]interface{}{
		"registration": registration,
	})
}

func (h *Handler) UnregisterAttendee(w http.ResponseWriter, r *http.Request) {
	registrationID := chi.URLParam(r, "registrationID")

	registration, err := h.EventService.Unregister(r.Context(), registrationID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "attendee unregistered", registration)
}

// writeServiceError maps domain sentinels to HTTP status + stable
// reason codes. Anything unrecognized is an opaque internal error.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrEventNotFound),
		errors.Is(err, models.ErrAttendeeNotFound),
		errors.Is(err, models.ErrRegistrationNotFound):
		utils.WriteError(w, http.StatusNotFound, utils.ReasonNotFound, err.Error())
	case errors.Is(err, models.ErrCapacityExceeded):
		utils.WriteError(w, http.StatusConflict, utils.ReasonCapacityExceeded, err.Error())
	case errors.Is(err, models.ErrDuplicateRegistration):
		utils.WriteError(w, http.StatusConflict, utils.ReasonDuplicateRegistration, err.Error())
	case errors.Is(err, models.ErrConflictingSchedule):
		utils.WriteError(w, http.StatusConflict, utils.ReasonConflictingSchedule, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		utils.WriteError(w, http.StatusServiceUnavailable, utils.ReasonTimeout, "request timed out")
	default:
		h.Logger.Error("API", err.Error())
		utils.WriteError(w, http.StatusInternalServerError, utils.ReasonInternal, "internal error")
	}
}
