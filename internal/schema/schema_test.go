package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/spark-client/internal/domain"
	apperrors "github.com/Proton-105/spark-client/internal/errors"
)

func validUser() domain.User {
	return domain.User{
		ID:        "u-1",
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		Status:    domain.UserStatusActive,
		Balance:   "12.50",
	}
}

func TestValidate_User(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(u *domain.User)
		wantField string
	}{
		{name: "valid user", mutate: func(*domain.User) {}},
		{name: "unknown status", mutate: func(u *domain.User) { u.Status = "banned" }, wantField: "status"},
		{name: "negative balance", mutate: func(u *domain.User) { u.Balance = "-1" }, wantField: "balance"},
		{name: "balance not numeric", mutate: func(u *domain.User) { u.Balance = "ten" }, wantField: "balance"},
		{name: "missing id", mutate: func(u *domain.User) { u.ID = "" }, wantField: "id"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			user := validUser()
			tc.mutate(&user)

			result := Validate(user)
			if tc.wantField == "" {
				assert.True(t, result.OK(), "issues: %v", result.Issues)
				assert.NoError(t, result.Err())
				return
			}

			require.False(t, result.OK())
			var validationErr *apperrors.ValidationError
			require.True(t, errors.As(result.Err(), &validationErr))
			_, found := validationErr.Field(tc.wantField)
			assert.True(t, found, "expected issue on %q, got %v", tc.wantField, result.Issues)
		})
	}
}

func TestValidate_SignUpRequest(t *testing.T) {
	req := domain.SignUpRequest{
		Email:             "jane@example.com",
		PhoneE164:         "+15551234567",
		PreferredLanguage: "en",
		FirebaseIDToken:   "firebase-token-123",
	}
	assert.True(t, Validate(req).OK())

	req.PhoneE164 = "555-1234"
	req.PreferredLanguage = "english"
	result := Validate(req)
	require.False(t, result.OK())

	fields := make([]string, 0, len(result.Issues))
	for _, issue := range result.Issues {
		fields = append(fields, issue.Field)
	}
	assert.ElementsMatch(t, []string{"phone_e164", "preferred_language"}, fields)
}

func TestValidate_NestedPathsUseJSONNames(t *testing.T) {
	req := domain.OnboardingStageTwoRequest{
		SessionToken: "session",
		Profile: domain.Profile{
			FirstName: "",
			LastName:  "Doe",
			Gender:    "female",
			DOB:       "1990-01-01",
			City:      "Lisbon",
			Country:   "PT",
		},
	}

	result := Validate(req)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "profile.first_name", result.Issues[0].Field)
	assert.Equal(t, "is required", result.Issues[0].Message)
}

func TestValidate_PasswordConfirmation(t *testing.T) {
	req := domain.OnboardingStageOneRequest{
		Email:                "jane@example.com",
		PhoneE164:            "+15551234567",
		Password:             "correct horse",
		PasswordConfirmation: "battery staple",
		PreferredLanguage:    "en",
		AcceptedTerms:        true,
	}

	result := Validate(req)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "password_confirmation", result.Issues[0].Field)
}

func TestValidate_Slice(t *testing.T) {
	users := []domain.User{validUser(), validUser()}
	users[1].Email = "not-an-email"

	result := Validate(users)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "[1].email", result.Issues[0].Field)
}

func TestDecode(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		result := Decode[domain.SignUpResponse]([]byte(`{"session_token":"s","acess_token":"a"}`))
		require.True(t, result.OK(), "issues: %v", result.Issues)
		assert.Equal(t, "a", result.Value.AcessToken)
	})

	t.Run("malformed json", func(t *testing.T) {
		result := Decode[domain.User]([]byte(`{"id":`))
		require.Len(t, result.Issues, 1)
		assert.Equal(t, "", result.Issues[0].Field)
	})

	t.Run("wrong field type", func(t *testing.T) {
		result := Decode[domain.User]([]byte(`{"id":42}`))
		require.Len(t, result.Issues, 1)
		assert.Equal(t, "id", result.Issues[0].Field)
	})

	t.Run("page envelope items are validated", func(t *testing.T) {
		result := Decode[domain.Page[domain.Notification]]([]byte(`{"items":[{"id":"n1"}],"total":1,"page":1,"limit":20}`))
		require.False(t, result.OK())
		assert.Equal(t, "items[0].receiver_id", result.Issues[0].Field)
	})
}

func TestCheck_NilAndScalars(t *testing.T) {
	assert.NoError(t, Check(nil))
	assert.NoError(t, Check("plain string"))
	assert.NoError(t, Check((*domain.User)(nil)))
	assert.Error(t, Check(&domain.User{}))
}
