package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/spark-client/internal/auth"
	"github.com/Proton-105/spark-client/internal/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type checkFunc func(ctx context.Context) error

func (f checkFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func TestChecker_Healthy(t *testing.T) {
	checker := NewChecker(testLogger())
	checker.AddCheck("ok", checkFunc(func(context.Context) error { return nil }))
	require.NoError(t, checker.Healthy(context.Background()))

	checker.AddCheck("broken", checkFunc(func(context.Context) error { return errors.New("down") }))
	err := checker.Healthy(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken: down")

	results := checker.Check(context.Background())
	assert.Equal(t, "OK", results["ok"])
	assert.Equal(t, "down", results["broken"])
}

func TestRedisChecker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	checker := NewRedisChecker(client)
	assert.NoError(t, checker.HealthCheck(context.Background()))

	mr.Close()
	assert.Error(t, checker.HealthCheck(context.Background()))

	var missing *RedisChecker
	assert.Error(t, missing.HealthCheck(context.Background()))
}

func TestAPIChecker(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "ok", status: http.StatusOK},
		{name: "unauthorized still reachable", status: http.StatusUnauthorized},
		{name: "not found still reachable", status: http.StatusNotFound},
		{name: "server error", status: http.StatusServiceUnavailable, wantErr: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			client, err := transport.New(transport.Config{BaseURL: srv.URL}, auth.Anonymous, transport.WithLogger(testLogger()))
			require.NoError(t, err)

			err = NewAPIChecker(client, "/").HealthCheck(context.Background())
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
