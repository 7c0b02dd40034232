package utils

import (
	"encoding/json"
	"net/http"
	"time"
)

// APIResponse is the JSON envelope returned by every endpoint.
// Error carries the stable machine-readable reason code; Message the
// human-readable one.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Stable reason codes for rejected requests.
const (
	ReasonNotFound              = "NOT_FOUND"
	ReasonCapacityExceeded      = "CAPACITY_EXCEEDED"
	ReasonDuplicateRegistration = "DUPLICATE_REGISTRATION"
	ReasonConflictingSchedule   = "CONFLICTING_SCHEDULE"
	ReasonDuplicateEmail        = "DUPLICATE_EMAIL"
	ReasonBadRequest            = "BAD_REQUEST"
	ReasonTimeout               = "TIMEOUT"
	ReasonInternal              = "INTERNAL_ERROR"
)

func WriteJSON(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func WriteError(w http.ResponseWriter, status int, reason, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Success:   false,
		Message:   message,
		Error:     reason,
		Timestamp: time.Now(),
	})
}
