package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ms-eventreg/internal/attendee"
	"ms-eventreg/internal/logger"
	"ms-eventreg/internal/models"
	"ms-eventreg/internal/utils"
)

type Handler struct {
	AttendeeService *attendee.AttendeeService
	Logger          *logger.Logger
}

type CreateAttendeeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type UpdateAttendeeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && strings.Contains(email[at:], ".")
}

func (h *Handler) GetAllAttendees(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePageRequest(r.URL.Query().Get("page"), r.URL.Query().Get("limit"))
	search := r.URL.Query().Get("search")

	result, err := h.AttendeeService.GetAllAttendees(r.Context(), page, search)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "attendees fetched", result)
}

func (h *Handler) GetAllAttendeesWithMultipleEvents(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePageRequest(r.URL.Query().Get("page"), r.URL.Query().Get("limit"))
	search := r.URL.Query().Get("search")

	result, err := h.AttendeeService.GetAllAttendeesWithMultipleEvents(r.Context(), page, search)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "attendees fetched", result)
}

func (h *Handler) GetOneAttendee(w http.ResponseWriter, r *http.Request) {
	attendeeID := chi.URLParam(r, "attendeeID")

	result, err := h.AttendeeService.GetOneAttendee(r.Context(), attendeeID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "attendee fetched", result)
}

func (h *Handler) CreateAttendee(w http.ResponseWriter, r *http.Request) {
	var req CreateAttendeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.ReasonBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.Name == "" {
		utils.WriteError(w, http.StatusBadRequest, utils.ReasonBadRequest, "name is required")
		return
	}
	if !validEmail(req.Email) {
		utils.WriteError(w, http.StatusBadRequest, utils.ReasonBadRequest, "a valid email is required")
		return
	}

	created, err := h.AttendeeService.CreateAttendee(r.Context(), &models.Attendee{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, "attendee created", created)
}

func (h *Handler) UpdateAttendee(w http.ResponseWriter, r *http.Request) {
	attendeeID := chi.URLParam(r, "attendeeID")

	var req UpdateAttendeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.ReasonBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Email != "" && !validEmail(req.Email) {
		utils.WriteError(w, http.StatusBadRequest, utils.ReasonBadRequest, "invalid email")
		return
	}

	updated, err := h.AttendeeService.UpdateAttendee(r.Context(), &models.Attendee{
		ID:    attendeeID,
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "attendee updated", updated)
}

func (h *Handler) DeleteAttendee(w http.ResponseWriter, r *http.Request) {
	attendeeID := chi.URLParam(r, "attendeeID")

	deleted, err := h.AttendeeService.DeleteAttendee(r.Context(), attendeeID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "attendee deleted", deleted)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrAttendeeNotFound):
		utils.WriteError(w, http.StatusNotFound, utils.ReasonNotFound, err.Error())
	case errors.Is(err, models.ErrDuplicateEmail):
		utils.WriteError(w, http.StatusConflict, utils.ReasonDuplicateEmail, err.Error())
	default:
		h.Logger.Error("API", err.Error())
		utils.WriteError(w, http.StatusInternalServerError, utils.ReasonInternal, "internal error")
	}
}
