package api

import (
	"context"
	"net/http"

	"github.com/Proton-105/spark-client/internal/cache"
	"github.com/Proton-105/spark-client/internal/schema"
	"github.com/Proton-105/spark-client/internal/transport"
)

// Mutation describes a write endpoint taking A and returning R. Mutations are
// never cached or shared between callers.
type Mutation[A, R any] struct {
	Name   string
	Method string
	Path   func(A) string
	// Body builds the request payload. Nil sends arg itself.
	Body            func(A) any
	InvalidatesTags func(R, A) []cache.Tag
}

// Do validates arg, sends it and invalidates the tags the result touches.
// Invalid input is rejected before any request is made.
func (m *Mutation[A, R]) Do(ctx context.Context, c *Client, arg A) (R, error) {
	var zero R

	if err := schema.Check(arg); err != nil {
		return zero, err
	}

	req := transport.Request{
		Endpoint: m.Name,
		Method:   m.Method,
		Path:     m.Path(arg),
		Body:     any(arg),
	}
	if req.Method == "" {
		req.Method = http.MethodPost
	}
	if m.Body != nil {
		req.Body = m.Body(arg)
	}

	resp, err := c.Transport().Do(ctx, req)
	if err != nil {
		return zero, err
	}

	out, err := decodeResponse[R](resp)
	if err != nil {
		return zero, err
	}

	if m.InvalidatesTags != nil {
		if tags := m.InvalidatesTags(out, arg); len(tags) > 0 {
			c.cache.Invalidate(ctx, tags...)
		}
	}
	return out, nil
}

func noBody[A any](A) any {
	return nil
}
