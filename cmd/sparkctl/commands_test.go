package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/spark-client/internal/auth"
	"github.com/Proton-105/spark-client/pkg/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()

	return &config.Config{
		Language: "en",
		API:      config.APIConfig{BaseURL: baseURL},
		Persist: config.PersistConfig{
			Driver: "file",
			Path:   filepath.Join(t.TempDir(), "state.json"),
			Key:    "persist:root",
			Allow:  []string{"auth.token"},
		},
	}
}

func newTestApp(t *testing.T, cfg *config.Config) (*app, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	a, err := newApp(context.Background(), cfg, testLogger(), out)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.close(context.Background()) })
	return a, out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestLogin_PersistsTokenForNextRun(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/sign-in", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "+15551234567", req["phone_e164"])
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "T", "refresh_token": "R"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	a, out := newTestApp(t, cfg)

	err := a.dispatch(context.Background(), "login", []string{"-phone", "+15551234567", "-firebase-token", "firebase-token-123"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Signed in.")

	next, _ := newTestApp(t, cfg)
	state := next.spark.Client.Transport().Auth()
	assert.Equal(t, "T", state.Token)
	assert.Empty(t, state.RefreshToken, "refresh token is not allow-listed")
}

func TestLogin_InvalidInputNeverReachesServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}))
	defer srv.Close()

	a, _ := newTestApp(t, testConfig(t, srv.URL))
	err := a.dispatch(context.Background(), "login", []string{"-phone", "555", "-firebase-token", "x"})
	require.Error(t, err)

	message, retryable := a.errs.Handle(context.Background(), err)
	assert.Equal(t, "Some fields are not filled in correctly.", message)
	assert.False(t, retryable)
}

func TestLogout_PurgesEvenWhenServerFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	a, _ := newTestApp(t, cfg)
	require.NoError(t, a.persistor.Save(context.Background(), auth.State{Token: "T"}))

	err := a.dispatch(context.Background(), "logout", nil)
	require.Error(t, err)

	next, _ := newTestApp(t, cfg)
	assert.False(t, next.spark.Client.Transport().Auth().Authenticated())
}

func TestLogout_SignsOutInProcess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	seed, _ := newTestApp(t, cfg)
	require.NoError(t, seed.persistor.Save(context.Background(), auth.State{Token: "T"}))

	a, out := newTestApp(t, cfg)
	require.True(t, a.spark.Client.Transport().Auth().Authenticated())

	require.NoError(t, a.dispatch(context.Background(), "logout", nil))
	assert.Equal(t, "Signed out.\n", out.String())
	assert.False(t, a.spark.Client.Transport().Auth().Authenticated())
}

func TestRead_PrintsLocalizedConfirmation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /notifications/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int{"updated": 2})
	})
	mux.HandleFunc("PATCH /notifications/n-1", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "n-1", "receiver_id": "u-1", "is_read": true})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a, out := newTestApp(t, testConfig(t, srv.URL))
	ctx := context.Background()

	require.NoError(t, a.dispatch(ctx, "read", []string{"-all"}))
	require.NoError(t, a.dispatch(ctx, "read", []string{"n-1"}))
	assert.Equal(t, "Marked 2 notifications as read.\nMarked n-1 as read.\n", out.String())
}

func TestMe_SendsStoredToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer T", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{
			"id":         "u-1",
			"email":      "jane@example.com",
			"first_name": "Jane",
			"last_name":  "Doe",
			"status":     "active",
			"balance":    "12.50",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	seed, _ := newTestApp(t, cfg)
	require.NoError(t, seed.persistor.Save(context.Background(), auth.State{Token: "T"}))

	a, out := newTestApp(t, cfg)
	require.NoError(t, a.dispatch(context.Background(), "me", nil))
	assert.Contains(t, out.String(), "Jane Doe")
	assert.Contains(t, out.String(), "12.50")
}

func TestVeriffStatus_PrintsLocalizedDecision(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/veriff/sessions/s-1/decision", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"session_id": "s-1", "status": "approved"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a, out := newTestApp(t, testConfig(t, srv.URL))
	require.NoError(t, a.dispatch(context.Background(), "veriff-status", []string{"s-1"}))
	assert.Contains(t, out.String(), "Identity verified.")
}

func TestHealth_ReportsReachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	a, out := newTestApp(t, testConfig(t, srv.URL))
	require.NoError(t, a.dispatch(context.Background(), "health", nil))
	assert.Contains(t, out.String(), "api")
	assert.Contains(t, out.String(), "OK")
}

func TestDispatch_UsageErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	a, _ := newTestApp(t, testConfig(t, srv.URL))

	testCases := []struct {
		name    string
		command string
		args    []string
	}{
		{name: "unknown command", command: "launch"},
		{name: "read without id", command: "read"},
		{name: "veriff without session", command: "veriff-status"},
		{name: "bad flag", command: "events", args: []string{"-page", "first"}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := a.dispatch(context.Background(), tc.command, tc.args)
			var usage *usageError
			assert.True(t, errors.As(err, &usage), "got %v", err)
		})
	}
}

func TestPrintUsage_ListsEveryCommand(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)

	a := &app{}
	for name := range a.commands() {
		assert.Contains(t, buf.String(), name)
	}
}
