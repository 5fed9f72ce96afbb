// Package api declares the backend endpoints as typed queries and mutations
// and binds them to a transport and a cache.
package api

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/Proton-105/spark-client/internal/auth"
	"github.com/Proton-105/spark-client/internal/cache"
	"github.com/Proton-105/spark-client/internal/transport"
)

// Tag types used by the endpoint registries.
const (
	TagUser           = "User"
	TagOnboarding     = "Onboarding"
	TagMatch          = "Match"
	TagVeriff         = "Veriff"
	TagEvent          = "Event"
	TagEventRun       = "EventRun"
	TagEventRuns      = "EventRuns"
	TagEventOrganizer = "EventOrganizer"
	TagEventRunInvite = "EventRunInvite"
	TagNotification   = "Notification"
	TagForm           = "Form"
	TagFormAnswer     = "FormAnswer"
)

// MeID tags data that belongs to the signed-in user.
const MeID = "me"

// Client binds endpoint descriptors to one session's transport and cache.
type Client struct {
	cache *cache.Store
	log   *slog.Logger

	mu        sync.Mutex
	endpoints map[string]any

	authMu    sync.RWMutex
	transport *transport.Client
}

func New(t *transport.Client, store *cache.Store, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		store = cache.New(cache.Config{}, log)
	}

	return &Client{
		transport: t,
		cache:     store,
		log:       log,
		endpoints: make(map[string]any),
	}
}

func (c *Client) Cache() *cache.Store {
	return c.cache
}

func (c *Client) Transport() *transport.Client {
	c.authMu.RLock()
	defer c.authMu.RUnlock()
	return c.transport
}

// signOut drops the session's credentials from every later request.
func (c *Client) signOut() {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	if c.transport != nil {
		c.transport = c.transport.WithAuth(auth.Anonymous)
	}
}

// Endpoints returns the registered endpoint names in sorted order.
func (c *Client) Endpoints() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.endpoints))
	for name := range c.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithSession returns a client for a new session: the transport carries
// state and the cache starts empty. Endpoints must be injected again.
func (c *Client) WithSession(state auth.State) *Client {
	return New(c.Transport().WithAuth(state), cache.New(c.cache.Config(), c.log), c.log)
}

// register records descriptor under name. The first registration of a name
// wins; later ones are logged and the earlier descriptor is returned.
func (c *Client) register(name string, descriptor any) any {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.endpoints[name]; ok {
		c.log.Warn("endpoint already registered, keeping first definition", slog.String("endpoint", name))
		return existing
	}
	c.endpoints[name] = descriptor
	return descriptor
}

// RegisterQuery adds q to c's registry and returns the registered descriptor.
func RegisterQuery[A, R any](c *Client, q Query[A, R]) *Query[A, R] {
	candidate := &q
	if registered, ok := c.register(q.Name, candidate).(*Query[A, R]); ok {
		return registered
	}
	return candidate
}

// RegisterMutation adds m to c's registry and returns the registered descriptor.
func RegisterMutation[A, R any](c *Client, m Mutation[A, R]) *Mutation[A, R] {
	candidate := &m
	if registered, ok := c.register(m.Name, candidate).(*Mutation[A, R]); ok {
		return registered
	}
	return candidate
}
