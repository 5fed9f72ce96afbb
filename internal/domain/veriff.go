package domain

import "time"

type VeriffStatus string

const (
	VeriffApproved              VeriffStatus = "approved"
	VeriffDeclined              VeriffStatus = "declined"
	VeriffResubmissionRequested VeriffStatus = "resubmission_requested"
	VeriffExpired               VeriffStatus = "expired"
	VeriffAbandoned             VeriffStatus = "abandoned"
	VeriffReview                VeriffStatus = "review"
	VeriffStarted               VeriffStatus = "started"
)

// Terminal reports whether no further decision will follow.
func (s VeriffStatus) Terminal() bool {
	switch s {
	case VeriffApproved, VeriffDeclined, VeriffExpired, VeriffAbandoned:
		return true
	default:
		return false
	}
}

// VeriffDecision is the latest identity verification outcome for a session.
type VeriffDecision struct {
	SessionID  string       `json:"session_id" validate:"required"`
	Status     VeriffStatus `json:"status" validate:"required,oneof=approved declined resubmission_requested expired abandoned review started"`
	Code       int          `json:"code,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	DecidedAt  *time.Time   `json:"decided_at,omitempty"`
	VendorData string       `json:"vendor_data,omitempty"`
}

// VeriffWebhook relays a vendor status callback to the backend.
type VeriffWebhook struct {
	ID         string       `json:"id" validate:"required"`
	SessionID  string       `json:"session_id" validate:"required"`
	Action     string       `json:"action" validate:"required"`
	Status     VeriffStatus `json:"status,omitempty" validate:"omitempty,oneof=approved declined resubmission_requested expired abandoned review started"`
	Code       int          `json:"code"`
	VendorData string       `json:"vendor_data,omitempty"`
}

type VeriffWebhookAck struct {
	Received bool `json:"received"`
}
