package domain

import "time"

type EventRunStatus string

const (
	EventRunScheduled EventRunStatus = "scheduled"
	EventRunLive      EventRunStatus = "live"
	EventRunFinished  EventRunStatus = "finished"
	EventRunCancelled EventRunStatus = "cancelled"
)

type InviteStatus string

const (
	InvitePending   InviteStatus = "pending"
	InviteAccepted  InviteStatus = "accepted"
	InviteDeclined  InviteStatus = "declined"
	InviteCancelled InviteStatus = "cancelled"
)

type Event struct {
	ID          string          `json:"id" validate:"required"`
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description,omitempty"`
	City        string          `json:"city,omitempty"`
	CoverURL    string          `json:"cover_url,omitempty" validate:"omitempty,url"`
	Capacity    int             `json:"capacity" validate:"gte=0"`
	Organizer   *EventOrganizer `json:"organizer,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type EventOrganizer struct {
	ID      string `json:"id" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	LogoURL string `json:"logo_url,omitempty" validate:"omitempty,url"`
}

type EventRun struct {
	ID       string         `json:"id" validate:"required"`
	EventID  string         `json:"event_id" validate:"required"`
	StartsAt time.Time      `json:"starts_at" validate:"required"`
	EndsAt   time.Time      `json:"ends_at" validate:"required,gtfield=StartsAt"`
	Status   EventRunStatus `json:"status" validate:"required,oneof=scheduled live finished cancelled"`
	Venue    string         `json:"venue,omitempty"`
}

type EventRunInvite struct {
	ID          string       `json:"id" validate:"required"`
	EventRunID  string       `json:"event_run_id" validate:"required"`
	UserID      string       `json:"user_id" validate:"required"`
	Status      InviteStatus `json:"status" validate:"required,oneof=pending accepted declined cancelled"`
	RespondedAt *time.Time   `json:"responded_at,omitempty"`
}

type CreateEventRequest struct {
	Title       string `json:"title" validate:"required,max=140"`
	Description string `json:"description,omitempty" validate:"omitempty,max=4000"`
	City        string `json:"city" validate:"required"`
	CoverURL    string `json:"cover_url,omitempty" validate:"omitempty,url"`
	Capacity    int    `json:"capacity" validate:"gte=1"`
	OrganizerID string `json:"organizer_id" validate:"required"`
}

type UpdateEventRequest struct {
	ID          string `json:"-" validate:"required"`
	Title       string `json:"title,omitempty" validate:"omitempty,max=140"`
	Description string `json:"description,omitempty" validate:"omitempty,max=4000"`
	City        string `json:"city,omitempty"`
	CoverURL    string `json:"cover_url,omitempty" validate:"omitempty,url"`
	Capacity    int    `json:"capacity,omitempty" validate:"gte=0"`
}

type CreateEventRunRequest struct {
	EventID  string    `json:"-" validate:"required"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	Venue    string    `json:"venue,omitempty"`
}

type RespondInviteRequest struct {
	ID     string       `json:"-" validate:"required"`
	Status InviteStatus `json:"status" validate:"required,oneof=accepted declined"`
}

// ListParams is the pagination query shared by list endpoints.
type ListParams struct {
	Page  int `json:"page" validate:"gte=1"`
	Limit int `json:"limit" validate:"gte=1,lte=100"`
}

// DefaultListParams is the first page with the backend's default page size.
func DefaultListParams() ListParams {
	return ListParams{Page: 1, Limit: 20}
}
