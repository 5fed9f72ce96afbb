package domain

// OnboardingStage is reported by the backend; the client never advances it locally.
type OnboardingStage string

const (
	OnboardingStageOne      OnboardingStage = "one"
	OnboardingStageTwo      OnboardingStage = "two"
	OnboardingStageThree    OnboardingStage = "three"
	OnboardingStageComplete OnboardingStage = "complete"
)

// OnboardingStageOneRequest is the registration step.
type OnboardingStageOneRequest struct {
	Email                string `json:"email" validate:"required,email"`
	PhoneE164            string `json:"phone_e164" validate:"required,e164"`
	Password             string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	PreferredLanguage    string `json:"preferred_language" validate:"required,lang"`
	AcceptedTerms        bool   `json:"accepted_terms" validate:"required"`
}

// OnboardingStageTwoRequest completes the profile.
type OnboardingStageTwoRequest struct {
	SessionToken string  `json:"session_token" validate:"required"`
	Profile      Profile `json:"profile" validate:"required"`
}

type Profile struct {
	FirstName string   `json:"first_name" validate:"required,max=64"`
	LastName  string   `json:"last_name" validate:"required,max=64"`
	Gender    string   `json:"gender" validate:"required,oneof=male female non_binary other"`
	DOB       string   `json:"dob" validate:"required,datetime=2006-01-02"`
	City      string   `json:"city" validate:"required,max=128"`
	Country   string   `json:"country" validate:"required,len=2"`
	Interests []string `json:"interests,omitempty" validate:"omitempty,max=20,dive,required,max=32"`
}

// OnboardingStageThreeRequest links the identity verification session.
type OnboardingStageThreeRequest struct {
	SessionToken    string `json:"session_token" validate:"required"`
	VeriffSessionID string `json:"veriff_session_id" validate:"required,uuid"`
}

// OnboardingResponse is returned by every stage mutation.
type OnboardingResponse struct {
	SessionToken string          `json:"session_token" validate:"required"`
	Stage        OnboardingStage `json:"stage" validate:"required,oneof=one two three complete"`
	User         *User           `json:"user,omitempty"`
}

type OnboardingProgress struct {
	Stage           OnboardingStage `json:"stage" validate:"required,oneof=one two three complete"`
	CompletedStages []string        `json:"completed_stages"`
	VeriffStatus    string          `json:"veriff_status,omitempty"`
}

// Complete reports whether every stage has been passed.
func (p OnboardingProgress) Complete() bool {
	return p.Stage == OnboardingStageComplete
}
