package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskingHandler_MasksSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "debug", Format: "json"}, &buf)

	log.Info("signed in",
		slog.String("Authorization", "Bearer abc"),
		slog.String("refresh_token", "r-1"),
		slog.String("user_id", "u-1"),
		slog.Group("request", slog.String("firebase_id_token", "f-1"), slog.String("path", "/auth/sign-in")),
	)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "***", record["Authorization"])
	assert.Equal(t, "***", record["refresh_token"])
	assert.Equal(t, "u-1", record["user_id"])

	group, ok := record["request"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "***", group["firebase_id_token"])
	assert.Equal(t, "/auth/sign-in", group["path"])
}

func TestMaskingHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Format: "json"}, &buf).With(slog.String("session_token", "s-1"))

	log.Info("poll")
	assert.NotContains(t, buf.String(), "s-1")
	assert.Contains(t, buf.String(), `"session_token":"***"`)
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseLevel(tc.input))
		})
	}
}

func TestNewWithWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "warn"}, &buf)

	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestMiddleware_CorrelationID(t *testing.T) {
	var seen string
	handler := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = CorrelationIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("X-Request-ID", "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "req-42", seen)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "req-42", seen)

	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}
