package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/Proton-105/spark-client/internal/errors"
	"github.com/Proton-105/spark-client/internal/transport"
)

// Checkable represents a component that can report its health status.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// Checker aggregates health checks for multiple components.
type Checker struct {
	log    *slog.Logger
	mu     sync.RWMutex
	checks map[string]Checkable
}

// NewChecker instantiates a Checker with the provided logger.
func NewChecker(log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}

	return &Checker{
		log:    log,
		checks: make(map[string]Checkable),
	}
}

// AddCheck registers a checkable component by name.
func (c *Checker) AddCheck(name string, check Checkable) {
	if name == "" || check == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Check runs all registered health checks and returns their statuses.
func (c *Checker) Check(ctx context.Context) map[string]string {
	c.mu.RLock()
	checks := make(map[string]Checkable, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]string, len(checks))
	for name, check := range checks {
		if err := check.HealthCheck(ctx); err != nil {
			results[name] = err.Error()
			c.log.Error("health check failed", slog.String("component", name), slog.Any("error", err))
			continue
		}

		results[name] = "OK"
	}

	return results
}

// Healthy returns nil when every check passes, otherwise an error naming the
// failed components in sorted order.
func (c *Checker) Healthy(ctx context.Context) error {
	results := c.Check(ctx)

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if status := results[name]; status != "OK" {
			errs = append(errs, fmt.Errorf("%s: %s", name, status))
		}
	}
	return errors.Join(errs...)
}

// Pinger abstracts the subset of redis.Client used for health checks.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisChecker verifies connectivity to a Redis instance.
type RedisChecker struct {
	pinger Pinger
}

// NewRedisChecker constructs a RedisChecker.
func NewRedisChecker(pinger Pinger) *RedisChecker {
	return &RedisChecker{pinger: pinger}
}

// HealthCheck issues a PING command against Redis.
func (c *RedisChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.pinger == nil {
		return redis.ErrClosed
	}
	return c.pinger.Ping(ctx).Err()
}

// APIChecker verifies that the backend answers HTTP requests.
type APIChecker struct {
	client *transport.Client
	path   string
}

// NewAPIChecker probes path on the backend; an empty path probes the base URL.
func NewAPIChecker(client *transport.Client, path string) *APIChecker {
	return &APIChecker{client: client, path: path}
}

// HealthCheck treats any response below 500 as healthy: a 401 or 404 still
// proves the backend is up.
func (c *APIChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("api client is not configured")
	}

	_, err := c.client.Do(ctx, transport.Request{Endpoint: "health", Method: http.MethodGet, Path: c.path})
	if err == nil {
		return nil
	}

	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
		return nil
	}
	return err
}
