package errors

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// RetryPolicy bounds how often and how patiently a retryable call is repeated.
type RetryPolicy struct {
	MaxRetries int
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// DefaultRetryPolicy waits 200ms, 400ms and 800ms between four attempts.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 3,
	Initial:    100 * time.Millisecond,
	Max:        5 * time.Second,
	Multiplier: 2,
}

// Delay is the wait before retry number attempt (1-based), capped at Max.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := float64(p.Initial)
	for i := 0; i < attempt; i++ {
		delay *= p.Multiplier
		if time.Duration(delay) >= p.Max {
			return p.Max
		}
	}
	return time.Duration(delay)
}

// Do runs fn until it succeeds, fails with a non-retryable error, retries are
// exhausted or ctx ends.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	if fn == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil || !IsRetryable(err) || attempt >= p.MaxRetries {
			return err
		}

		timer := time.NewTimer(p.Delay(attempt + 1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// WithRetry is DefaultRetryPolicy.Do.
func WithRetry(ctx context.Context, fn func() error) error {
	return DefaultRetryPolicy.Do(ctx, fn)
}

// IsRetryable reports whether repeating the request may succeed: transport
// failures, 429 and 5xx responses.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Retryable
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= http.StatusInternalServerError
	}

	return false
}
