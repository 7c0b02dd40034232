package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-eventreg/internal/logger"
	"ms-eventreg/internal/sse"
)

// SSEHandler streams live notifications (new events, seats almost
// full) to connected viewers over Server-Sent Events.
type SSEHandler struct {
	Logger   *logger.Logger
	Notifier *sse.Notifier
}

func NewSSEHandler(log *logger.Logger, notifier *sse.Notifier) *SSEHandler {
	return &SSEHandler{Logger: log, Notifier: notifier}
}

func (h *SSEHandler) StreamNotifications(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// The subscription is dropped when the client disconnects.
	ctx := r.Context()
	notificationChan := h.Notifier.Subscribe(ctx)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	h.Logger.Info("SSE", "client connected to notification stream")

	for {
		select {
		case notification, open := <-notificationChan:
			if !open {
				return
			}

			jsonData, err := json.Marshal(notification)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("failed to serialize notification: %v", err))
				continue
			}

			fmt.Fprintf(w, "data: %s\n\n", jsonData)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Info("SSE", "client disconnected from notification stream")
			return
		}
	}
}
