// Package domain holds the server-owned records exchanged with the backend.
// Validation rules live in the struct tags and are enforced by package schema.
package domain

import "time"

type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusLocked  UserStatus = "locked"
	UserStatusPending UserStatus = "pending"
)

// User is the account and profile as returned by the backend.
type User struct {
	ID              string     `json:"id" validate:"required"`
	Email           string     `json:"email" validate:"omitempty,email"`
	PhoneE164       string     `json:"phone_e164,omitempty" validate:"omitempty,e164"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	PhoneVerifiedAt *time.Time `json:"phone_verified_at,omitempty"`

	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Gender    string `json:"gender,omitempty" validate:"omitempty,oneof=male female non_binary other"`
	DOB       string `json:"dob,omitempty" validate:"omitempty,datetime=2006-01-02"`
	City      string `json:"city,omitempty"`
	Country   string `json:"country,omitempty" validate:"omitempty,len=2"`
	AvatarURL string `json:"avatar_url,omitempty" validate:"omitempty,url"`

	Status            UserStatus `json:"status" validate:"required,oneof=active locked pending"`
	Balance           string     `json:"balance" validate:"required,nonneg_numeric"`
	IsPriority        bool       `json:"is_priority"`
	PreferredLanguage string     `json:"preferred_language,omitempty" validate:"omitempty,lang"`
	SessionToken      string     `json:"session_token,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// UpdateProfileRequest is a partial profile update; empty fields are left unchanged.
type UpdateProfileRequest struct {
	FirstName         string `json:"first_name,omitempty" validate:"omitempty,max=64"`
	LastName          string `json:"last_name,omitempty" validate:"omitempty,max=64"`
	Gender            string `json:"gender,omitempty" validate:"omitempty,oneof=male female non_binary other"`
	DOB               string `json:"dob,omitempty" validate:"omitempty,datetime=2006-01-02"`
	City              string `json:"city,omitempty" validate:"omitempty,max=128"`
	Country           string `json:"country,omitempty" validate:"omitempty,len=2"`
	AvatarURL         string `json:"avatar_url,omitempty" validate:"omitempty,url"`
	PreferredLanguage string `json:"preferred_language,omitempty" validate:"omitempty,lang"`
}

// Match is one candidate returned by the matching search.
type Match struct {
	User  User    `json:"user" validate:"required"`
	Score float64 `json:"score" validate:"gte=0"`
}
