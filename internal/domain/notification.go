package domain

import "time"

type Notification struct {
	ID         string    `json:"id" validate:"required"`
	SenderID   string    `json:"sender_id,omitempty"`
	ReceiverID string    `json:"receiver_id" validate:"required"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type MarkReadRequest struct {
	ID string `json:"-" validate:"required"`
}

// MarkAllReadResponse reports how many notifications changed state.
type MarkAllReadResponse struct {
	Updated int `json:"updated" validate:"gte=0"`
}
