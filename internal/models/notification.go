package models

// Notification is a live-update message pushed to connected SSE
// viewers. It is ephemeral: viewers that are not connected when it is
// published never see it.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}
