// Package transport performs authenticated JSON requests against the backend.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/Proton-105/spark-client/internal/auth"
	apperrors "github.com/Proton-105/spark-client/internal/errors"
	"github.com/Proton-105/spark-client/pkg/logger"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "spark-client"
	maxResponseBytes = 10 << 20
)

// errorMessagePaths are tried in order when extracting a message from an error body.
var errorMessagePaths = []string{"message", "detail", "error.message", "error"}

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	RateLimit float64
	Burst     int
}

type Request struct {
	// Endpoint names the request in logs and metrics. Defaults to the path.
	Endpoint string
	Method   string
	Path     string
	Query    url.Values
	Body     any
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// UnauthenticatedHook observes 401 responses. It must not block.
type UnauthenticatedHook func(ctx context.Context, err *apperrors.APIError)

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func WithUnauthenticatedHook(hook UnauthenticatedHook) Option {
	return func(c *Client) {
		if hook != nil {
			c.onUnauthenticated = hook
		}
	}
}

// Client is safe for concurrent use. Its auth state never changes after
// construction; WithAuth derives a new client instead.
type Client struct {
	baseURL           string
	userAgent         string
	httpClient        *http.Client
	limiter           *rate.Limiter
	state             auth.State
	log               *slog.Logger
	onUnauthenticated UnauthenticatedHook
}

func New(cfg Config, state auth.State, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	c := &Client{
		baseURL:           strings.TrimRight(base.String(), "/"),
		userAgent:         userAgent,
		httpClient:        &http.Client{Timeout: timeout},
		state:             state,
		log:               slog.Default(),
		onUnauthenticated: func(context.Context, *apperrors.APIError) {},
	}

	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// WithAuth returns a client sharing this one's connection pool and throttle
// but sending credentials from state.
func (c *Client) WithAuth(state auth.State) *Client {
	clone := *c
	clone.state = state
	return &clone
}

func (c *Client) Auth() auth.State {
	return c.state
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends req and returns the response for any 2xx status.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = req.Path
	}

	httpReq, err := c.newRequest(ctx, method, req)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, apperrors.NewTransportError("wait for rate limiter", err)
		}
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		observeRequest(endpoint, method, "error", time.Since(start))
		c.log.Warn(
			"http request failed",
			slog.String("endpoint", endpoint),
			slog.String("method", method),
			slog.String("correlation_id", httpReq.Header.Get("X-Request-ID")),
			slog.Any("error", err),
		)
		return nil, apperrors.NewTransportError(method+" "+req.Path, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	duration := time.Since(start)
	observeRequest(endpoint, method, strconv.Itoa(httpResp.StatusCode), duration)
	if err != nil {
		return nil, apperrors.NewTransportError("read response body", err)
	}

	c.log.Debug(
		"http request completed",
		slog.String("endpoint", endpoint),
		slog.String("method", method),
		slog.String("path", httpReq.URL.Path),
		slog.Int("status", httpResp.StatusCode),
		slog.Duration("duration", duration),
		slog.String("correlation_id", httpReq.Header.Get("X-Request-ID")),
	)

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		apiErr := apperrors.NewAPIError(httpResp.StatusCode, errorMessage(body), body)
		if httpResp.StatusCode == http.StatusUnauthorized {
			c.onUnauthenticated(ctx, apiErr)
		}
		return nil, apiErr
	}

	return &Response{Status: httpResp.StatusCode, Header: httpResp.Header, Body: body}, nil
}

func (c *Client) newRequest(ctx context.Context, method string, req Request) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, apperrors.NewTransportError("encode request body", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, apperrors.NewTransportError("build request", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	requestID := logger.CorrelationIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	httpReq.Header.Set("X-Request-ID", requestID)

	if c.state.Authenticated() {
		httpReq.Header.Set("Authorization", "Bearer "+c.state.Token)
	}

	return httpReq, nil
}

// DecodeJSON decodes a response body into out. An empty body leaves out untouched.
func DecodeJSON(resp *Response, out any) error {
	if resp == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return apperrors.NewDecodeError(err)
	}
	return nil
}

func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}

	for _, path := range errorMessagePaths {
		result := gjson.GetBytes(body, path)
		switch {
		case result.Type == gjson.String && result.Str != "":
			return result.Str
		case result.IsArray():
			parts := make([]string, 0, len(result.Array()))
			for _, item := range result.Array() {
				if item.Type == gjson.String {
					parts = append(parts, item.Str)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
	}

	return ""
}
