package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestState_WithTokenReturnsCopy(t *testing.T) {
	original := Anonymous
	next := original.WithToken("T")

	assert.False(t, original.Authenticated())
	assert.True(t, next.Authenticated())
	assert.Equal(t, "T", next.Token)
	assert.Empty(t, original.Token)
}

func TestState_ExpiresAt(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	testCases := []struct {
		name    string
		state   State
		wantOK  bool
		wantExp time.Time
	}{
		{name: "anonymous", state: Anonymous, wantOK: false},
		{name: "opaque token", state: State{Token: "opaque-session-token"}, wantOK: false},
		{name: "jwt with exp", state: State{Token: signedToken(t, exp)}, wantOK: true, wantExp: exp},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.state.ExpiresAt()
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.True(t, tc.wantExp.Equal(got), "expected %v, got %v", tc.wantExp, got)
			}
		})
	}
}

func TestState_Expired(t *testing.T) {
	now := time.Now()

	past := State{Token: signedToken(t, now.Add(-time.Minute))}
	future := State{Token: signedToken(t, now.Add(time.Minute))}

	assert.True(t, past.Expired(now))
	assert.False(t, future.Expired(now))
	assert.False(t, State{Token: "opaque"}.Expired(now))
}
