package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Proton-105/spark-client/internal/auth"
)

const (
	DefaultKey              = "persist:root"
	DefaultRehydrateTimeout = 5 * time.Second
)

// DefaultAllow persists only the bearer token.
var DefaultAllow = []string{"auth.token"}

// field maps a persistable path onto auth.State.
type field struct {
	get func(auth.State) string
	set func(auth.State, string) auth.State
}

var fields = map[string]field{
	"auth.token": {
		get: func(s auth.State) string { return s.Token },
		set: auth.State.WithToken,
	},
	"auth.refresh_token": {
		get: func(s auth.State) string { return s.RefreshToken },
		set: auth.State.WithRefreshToken,
	},
	"auth.session_token": {
		get: func(s auth.State) string { return s.SessionToken },
		set: auth.State.WithSessionToken,
	},
}

type Options struct {
	Key              string
	Allow            []string
	RehydrateTimeout time.Duration
}

// Persistor writes and restores the allow-listed paths of the client state.
type Persistor struct {
	store   Store
	key     string
	allow   []string
	timeout time.Duration
	log     *slog.Logger
}

func NewPersistor(store Store, opts Options, log *slog.Logger) *Persistor {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		store = NopStore{}
	}

	key := opts.Key
	if key == "" {
		key = DefaultKey
	}

	timeout := opts.RehydrateTimeout
	if timeout <= 0 {
		timeout = DefaultRehydrateTimeout
	}

	allowList := opts.Allow
	if allowList == nil {
		allowList = DefaultAllow
	}
	allow := make([]string, 0, len(allowList))
	for _, path := range allowList {
		if _, ok := fields[path]; !ok {
			log.Warn("ignoring unknown persist path", slog.String("path", path))
			continue
		}
		allow = append(allow, path)
	}

	return &Persistor{
		store:   store,
		key:     key,
		allow:   allow,
		timeout: timeout,
		log:     log,
	}
}

// Save writes the allow-listed paths of state. Everything else is dropped.
func (p *Persistor) Save(ctx context.Context, state auth.State) error {
	tree := make(map[string]map[string]string)
	for _, path := range p.allow {
		value := fields[path].get(state)
		if value == "" {
			continue
		}
		slice, name := splitPath(path)
		if tree[slice] == nil {
			tree[slice] = make(map[string]string)
		}
		tree[slice][name] = value
	}

	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("encode persisted state: %w", err)
	}
	return p.store.Save(ctx, p.key, data)
}

// Rehydrate restores the persisted state. A missing key or a store that does
// not answer within the rehydrate timeout yields an empty state.
func (p *Persistor) Rehydrate(ctx context.Context) (auth.State, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type loaded struct {
		data []byte
		err  error
	}
	result := make(chan loaded, 1)
	go func() {
		data, err := p.store.Load(ctx, p.key)
		result <- loaded{data: data, err: err}
	}()

	var data []byte
	select {
	case <-ctx.Done():
		p.log.Warn("rehydrate timed out, starting with empty state", slog.Duration("timeout", p.timeout))
		return auth.Anonymous, nil
	case r := <-result:
		if errors.Is(r.err, ErrNotFound) {
			return auth.Anonymous, nil
		}
		if r.err != nil {
			if ctx.Err() != nil {
				p.log.Warn("rehydrate timed out, starting with empty state", slog.Duration("timeout", p.timeout))
				return auth.Anonymous, nil
			}
			return auth.Anonymous, fmt.Errorf("load persisted state: %w", r.err)
		}
		data = r.data
	}

	var tree map[string]map[string]string
	if err := json.Unmarshal(data, &tree); err != nil {
		return auth.Anonymous, fmt.Errorf("decode persisted state: %w", err)
	}

	state := auth.Anonymous
	for _, path := range p.allow {
		slice, name := splitPath(path)
		if value, ok := tree[slice][name]; ok {
			state = fields[path].set(state, value)
		}
	}
	return state, nil
}

// Purge removes the persisted state.
func (p *Persistor) Purge(ctx context.Context) error {
	return p.store.Delete(ctx, p.key)
}

func splitPath(path string) (string, string) {
	slice, name, _ := strings.Cut(path, ".")
	return slice, name
}
