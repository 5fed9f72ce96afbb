package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Proton-105/spark-client/internal/cache"
	apperrors "github.com/Proton-105/spark-client/internal/errors"
	"github.com/Proton-105/spark-client/internal/schema"
	"github.com/Proton-105/spark-client/internal/transport"
)

// Query describes a cached read endpoint taking A and returning R.
type Query[A, R any] struct {
	Name         string
	Method       string
	Path         func(A) string
	Params       func(A) url.Values
	ProvidesTags func(R, A) []cache.Tag
	StaleTime    time.Duration
	Retry        bool
}

// Key is the cache key for arg.
func (q *Query[A, R]) Key(arg A) (cache.Key, error) {
	return cache.KeyFor(q.Name, arg)
}

// Get returns R for arg from the cache, fetching it when missing or stale.
func (q *Query[A, R]) Get(ctx context.Context, c *Client, arg A) (R, error) {
	var zero R

	key, err := q.Key(arg)
	if err != nil {
		return zero, err
	}

	data, err := c.cache.Query(ctx, key, q.options(), q.fetcher(c, arg))
	if err != nil {
		return zero, err
	}
	return asResult[R](data)
}

// Refetch bypasses freshness and loads arg again.
func (q *Query[A, R]) Refetch(ctx context.Context, c *Client, arg A) (R, error) {
	var zero R

	key, err := q.Key(arg)
	if err != nil {
		return zero, err
	}

	data, err := c.cache.Refetch(ctx, key)
	if errors.Is(err, cache.ErrUnknownKey) || errors.Is(err, cache.ErrNoFetch) {
		return q.Get(ctx, c, arg)
	}
	if err != nil {
		return zero, err
	}
	return asResult[R](data)
}

// State returns the cached state of arg without fetching.
func (q *Query[A, R]) State(c *Client, arg A) (State[R], error) {
	key, err := q.Key(arg)
	if err != nil {
		return State[R]{}, err
	}
	return stateOf[R](c.cache.Snapshot(key)), nil
}

// Subscribe keeps arg mounted in the cache until the subscription ends.
func (q *Query[A, R]) Subscribe(c *Client, arg A) (*Subscription[R], error) {
	key, err := q.Key(arg)
	if err != nil {
		return nil, err
	}
	return newSubscription[R](c.cache.Subscribe(key, q.options(), q.fetcher(c, arg))), nil
}

func (q *Query[A, R]) options() cache.Options {
	return cache.Options{StaleTime: q.StaleTime, Retry: q.Retry}
}

func (q *Query[A, R]) fetcher(c *Client, arg A) cache.FetchFunc {
	return func(ctx context.Context) (any, []cache.Tag, error) {
		req := transport.Request{
			Endpoint: q.Name,
			Method:   q.Method,
			Path:     q.Path(arg),
		}
		if req.Method == "" {
			req.Method = http.MethodGet
		}
		if q.Params != nil {
			req.Query = q.Params(arg)
		}

		resp, err := c.Transport().Do(ctx, req)
		if err != nil {
			return nil, nil, err
		}

		out, err := decodeResponse[R](resp)
		if err != nil {
			return nil, nil, err
		}

		var tags []cache.Tag
		if q.ProvidesTags != nil {
			tags = q.ProvidesTags(out, arg)
		}
		return out, tags, nil
	}
}

// decodeResponse parses and validates a response body. A body that parses
// but breaks the schema is reported as a DecodeError wrapping the issues.
func decodeResponse[R any](resp *transport.Response) (R, error) {
	var out R
	if err := transport.DecodeJSON(resp, &out); err != nil {
		return out, err
	}
	if err := schema.Check(out); err != nil {
		return out, apperrors.NewDecodeError(err)
	}
	return out, nil
}

func asResult[R any](data any) (R, error) {
	out, ok := data.(R)
	if !ok {
		var zero R
		return zero, apperrors.NewDecodeError(fmt.Errorf("cached value has type %T, want %T", data, zero))
	}
	return out, nil
}
