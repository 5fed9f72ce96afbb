package domain

// SignUpRequest registers a new account from a verified Firebase phone sign-in.
type SignUpRequest struct {
	Email             string `json:"email" validate:"required,email"`
	PhoneE164         string `json:"phone_e164" validate:"required,e164"`
	PreferredLanguage string `json:"preferred_language" validate:"required,lang"`
	FirebaseIDToken   string `json:"firebase_id_token" validate:"required,min=10"`
}

// SignUpResponse carries both token fields the backend emits for sign-up.
// AcessToken mirrors the backend's "acess_token" key as sent.
type SignUpResponse struct {
	SessionToken string `json:"session_token" validate:"required"`
	AcessToken   string `json:"acess_token,omitempty"`
}

// BearerToken returns the token to use for subsequent requests.
func (r SignUpResponse) BearerToken() string {
	if r.AcessToken != "" {
		return r.AcessToken
	}
	return r.SessionToken
}

type SignInRequest struct {
	PhoneE164       string `json:"phone_e164" validate:"required,e164"`
	FirebaseIDToken string `json:"firebase_id_token" validate:"required,min=10"`
}

// AuthTokens is the access/refresh pair issued after full authentication.
type AuthTokens struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CheckSessionRequest struct {
	SessionToken string `json:"session_token" validate:"required"`
}

type CheckSessionResponse struct {
	Valid      bool            `json:"valid"`
	Stage      OnboardingStage `json:"stage,omitempty" validate:"omitempty,oneof=one two three complete"`
	ExpiresAt  string          `json:"expires_at,omitempty"`
	NeedsLogin bool            `json:"needs_login"`
}

type ActivationChannel string

const (
	ActivationChannelSMS   ActivationChannel = "sms"
	ActivationChannelEmail ActivationChannel = "email"
)

type ActivationIssueRequest struct {
	Channel   ActivationChannel `json:"channel" validate:"required,oneof=sms email"`
	Email     string            `json:"email,omitempty" validate:"required_if=Channel email"`
	PhoneE164 string            `json:"phone_e164,omitempty" validate:"required_if=Channel sms"`
}

type ActivationIssueResponse struct {
	ActivationID string `json:"activation_id" validate:"required"`
	ExpiresIn    int    `json:"expires_in" validate:"gte=0"`
}

type ActivationCompleteRequest struct {
	ActivationID string `json:"activation_id" validate:"required"`
	Code         string `json:"code" validate:"required,numeric,len=6"`
}

// Empty is used for endpoints without a meaningful body.
type Empty struct{}
