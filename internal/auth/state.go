// Package auth holds the immutable credentials of one client session.
package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// State is a value type: every change produces a new State.
type State struct {
	Token        string `json:"token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	SessionToken string `json:"session_token,omitempty"`
}

// Anonymous is the state of a client that has not signed in.
var Anonymous = State{}

// Authenticated reports whether a bearer token is present.
func (s State) Authenticated() bool {
	return strings.TrimSpace(s.Token) != ""
}

// WithToken returns a copy carrying the given bearer token.
func (s State) WithToken(token string) State {
	s.Token = token
	return s
}

// WithRefreshToken returns a copy carrying the given refresh token.
func (s State) WithRefreshToken(token string) State {
	s.RefreshToken = token
	return s
}

// WithSessionToken returns a copy carrying the onboarding session token.
func (s State) WithSessionToken(token string) State {
	s.SessionToken = token
	return s
}

// ExpiresAt reads the exp claim of a JWT bearer token without verifying its
// signature. Opaque tokens and tokens without exp report false.
func (s State) ExpiresAt() (time.Time, bool) {
	if !s.Authenticated() {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the token carries an exp claim in the past.
func (s State) Expired(now time.Time) bool {
	exp, ok := s.ExpiresAt()
	return ok && !now.Before(exp)
}
