package model

import "time"

// Template is the email template resource produced by a successful
// generation. It is owned by the backend REST layer; this subsystem only
// carries it from the stream to the subscribers.
type Template struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	ProjectID string    `json:"projectId,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	HTML      string    `json:"html,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}
