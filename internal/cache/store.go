// Package cache keeps query results keyed by endpoint and arguments, shares
// in-flight fetches between callers and refetches data when its tags are
// invalidated.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/Proton-105/spark-client/internal/errors"
)

// ErrUnknownKey is returned by Refetch for a key that was never queried.
var ErrUnknownKey = errors.New("cache key not found")

// ErrNoFetch is returned when an entry is refetched before any caller has
// supplied a fetch func for it.
var ErrNoFetch = errors.New("cache key has no fetch func")

// FetchFunc loads the data for one entry and reports the tags it provides.
type FetchFunc func(ctx context.Context) (data any, tags []Tag, err error)

// Options tune a single query.
type Options struct {
	// StaleTime bounds how long a success is served without refetching.
	// Zero falls back to the store default; a non-positive default means
	// data stays fresh until invalidated.
	StaleTime time.Duration
	// Retry retries retryable errors with exponential backoff.
	Retry bool
}

// Snapshot is a point-in-time view of an entry. Data from the last success is
// kept while a refetch is loading or after it fails.
type Snapshot struct {
	Key       Key
	Status    Status
	Data      any
	Err       error
	UpdatedAt time.Time
	Stale     bool
}

func (s Snapshot) Loading() bool {
	return s.Status == StatusUninitialized || s.Status == StatusLoading
}

type Config struct {
	DefaultStaleTime time.Duration
}

type call struct {
	done chan struct{}
	data any
	err  error
}

type entry struct {
	key        Key
	status     Status
	data       any
	err        error
	updatedAt  time.Time
	lastUsed   time.Time
	tags       []Tag
	fetch      FetchFunc
	opts       Options
	stale      bool
	staleAgain bool
	inflight   *call
	subs       map[*Subscription]struct{}
}

// Store is safe for concurrent use.
type Store struct {
	mu               sync.Mutex
	entries          map[Key]*entry
	tagIndex         map[Tag]map[Key]struct{}
	generation       uint64
	defaultStaleTime time.Duration
	log              *slog.Logger
	now              func() time.Time
}

func New(cfg Config, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}

	return &Store{
		entries:          make(map[Key]*entry),
		tagIndex:         make(map[Tag]map[Key]struct{}),
		defaultStaleTime: cfg.DefaultStaleTime,
		log:              log,
		now:              time.Now,
	}
}

// Config returns the configuration the store was built with.
func (s *Store) Config() Config {
	return Config{DefaultStaleTime: s.defaultStaleTime}
}

// Query returns fresh cached data for key or fetches it. Concurrent callers of
// one key share a single fetch. The fetch outlives any one caller's context;
// each caller stops waiting when its own ctx ends.
func (s *Store) Query(ctx context.Context, key Key, opts Options, fetch FetchFunc) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if fetch == nil {
		return nil, errors.New("fetch func cannot be nil")
	}

	s.mu.Lock()
	e := s.entryLocked(key, opts, fetch)
	e.lastUsed = s.now()

	if e.status == StatusSuccess && s.freshLocked(e) {
		data := e.data
		s.mu.Unlock()
		cacheRequestsTotal.WithLabelValues(key.Endpoint, "hit").Inc()
		return data, nil
	}

	c := e.inflight
	if c != nil {
		cacheRequestsTotal.WithLabelValues(key.Endpoint, "shared").Inc()
	} else {
		cacheRequestsTotal.WithLabelValues(key.Endpoint, "miss").Inc()
		c = s.startLocked(ctx, e)
	}
	s.mu.Unlock()

	return wait(ctx, c)
}

// Refetch forces a fetch of an existing entry, sharing one already in flight.
func (s *Store) Refetch(ctx context.Context, key Key) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return nil, ErrUnknownKey
	}
	e.lastUsed = s.now()

	c := e.inflight
	if c == nil {
		if e.fetch == nil {
			s.mu.Unlock()
			return nil, ErrNoFetch
		}
		c = s.startLocked(ctx, e)
	}
	s.mu.Unlock()

	return wait(ctx, c)
}

// Subscribe registers interest in key. The entry is fetched when it has never
// loaded, is stale or last failed, and every change is pushed to the
// subscription until Unsubscribe.
func (s *Store) Subscribe(key Key, opts Options, fetch FetchFunc) *Subscription {
	sub := &Subscription{
		store:   s,
		key:     key,
		updates: make(chan Snapshot, 1),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryLocked(key, opts, fetch)
	e.subs[sub] = struct{}{}
	e.lastUsed = s.now()
	sub.deliver(s.snapshotLocked(e))

	needsFetch := e.status == StatusUninitialized || e.status == StatusError || !s.freshLocked(e)
	if needsFetch && e.inflight == nil && e.fetch != nil {
		s.startLocked(context.Background(), e)
	}

	return sub
}

// Invalidate marks every entry providing a matching tag as stale. Entries with
// subscribers are refetched immediately; the rest refetch on next use.
// It returns the number of entries affected.
func (s *Store) Invalidate(ctx context.Context, tags ...Tag) int {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make(map[Key]struct{})
	for provided, tagged := range s.tagIndex {
		for _, tag := range tags {
			if !tag.Matches(provided) {
				continue
			}
			for key := range tagged {
				keys[key] = struct{}{}
			}
		}
	}

	refetched := 0
	for key := range keys {
		e, ok := s.entries[key]
		if !ok {
			continue
		}
		e.stale = true
		if e.inflight != nil {
			e.staleAgain = true
			continue
		}
		if len(e.subs) > 0 {
			s.startLocked(ctx, e)
			refetched++
		}
	}

	for _, tag := range tags {
		cacheInvalidationsTotal.WithLabelValues(tag.Type).Inc()
	}
	if len(keys) > 0 {
		s.log.Debug(
			"cache tags invalidated",
			slog.Int("entries", len(keys)),
			slog.Int("refetched", refetched),
		)
	}

	return len(keys)
}

// Reset drops every entry and tag. Fetches started before the reset still
// answer their waiters but no longer write to the cache. Subscribed keys are
// recreated uninitialized and loaded again.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.entries
	s.generation++
	s.entries = make(map[Key]*entry)
	s.tagIndex = make(map[Tag]map[Key]struct{})

	for key, e := range old {
		if len(e.subs) == 0 {
			continue
		}

		fresh := s.entryLocked(key, e.opts, e.fetch)
		fresh.subs = e.subs
		for sub := range fresh.subs {
			sub.deliver(s.snapshotLocked(fresh))
		}
		if fresh.fetch != nil {
			s.startLocked(context.Background(), fresh)
		}
	}

	cacheEntries.Set(float64(len(s.entries)))
	s.log.Info("cache reset", slog.Int("dropped_entries", len(old)))
}

// Snapshot returns the current view of key; unknown keys are uninitialized.
func (s *Store) Snapshot(key Key) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return Snapshot{Key: key, Status: StatusUninitialized}
	}
	return s.snapshotLocked(e)
}

// Len returns the number of entries held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// EvictUnused removes entries without subscribers or fetches in flight that
// were last used more than keepFor ago. It returns the number removed.
func (s *Store) EvictUnused(keepFor time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-keepFor)
	removed := 0
	for key, e := range s.entries {
		if len(e.subs) > 0 || e.inflight != nil || e.lastUsed.After(cutoff) {
			continue
		}
		s.unindexLocked(e)
		delete(s.entries, key)
		removed++
	}

	if removed > 0 {
		cacheEntries.Set(float64(len(s.entries)))
	}
	return removed
}

func (s *Store) entryLocked(key Key, opts Options, fetch FetchFunc) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{
			key:    key,
			status: StatusUninitialized,
			subs:   make(map[*Subscription]struct{}),
		}
		s.entries[key] = e
		cacheEntries.Set(float64(len(s.entries)))
	}
	if fetch != nil {
		e.fetch = fetch
		e.opts = opts
	}
	return e
}

func (s *Store) freshLocked(e *entry) bool {
	if e.stale {
		return false
	}

	staleTime := e.opts.StaleTime
	if staleTime == 0 {
		staleTime = s.defaultStaleTime
	}
	if staleTime <= 0 {
		return true
	}
	return s.now().Sub(e.updatedAt) < staleTime
}

func (s *Store) startLocked(ctx context.Context, e *entry) *call {
	s.transitionLocked(e, StatusLoading)

	c := &call{done: make(chan struct{})}
	e.inflight = c
	s.publishLocked(e)

	go s.run(context.WithoutCancel(ctx), e, c, s.generation, e.fetch, e.opts)
	return c
}

func (s *Store) run(ctx context.Context, e *entry, c *call, generation uint64, fetch FetchFunc, opts Options) {
	var (
		data any
		tags []Tag
	)

	attempt := func() error {
		var err error
		data, tags, err = fetch(ctx)
		return err
	}

	var err error
	if opts.Retry {
		err = apperrors.WithRetry(ctx, attempt)
	} else {
		err = attempt()
	}

	s.mu.Lock()
	c.data, c.err = data, err
	if s.generation == generation && s.entries[e.key] == e {
		s.completeLocked(ctx, e, data, tags, err)
	}
	s.mu.Unlock()

	close(c.done)
}

func (s *Store) completeLocked(ctx context.Context, e *entry, data any, tags []Tag, err error) {
	e.inflight = nil

	if err != nil {
		e.err = err
		s.transitionLocked(e, StatusError)
		s.log.Debug("cache fetch failed", slog.String("key", e.key.String()), slog.Any("error", err))
	} else {
		e.data = data
		e.err = nil
		e.updatedAt = s.now()
		s.transitionLocked(e, StatusSuccess)
		s.reindexLocked(e, tags)
	}

	e.stale = e.staleAgain
	e.staleAgain = false
	s.publishLocked(e)

	if e.stale && len(e.subs) > 0 {
		s.startLocked(ctx, e)
	}
}

func (s *Store) transitionLocked(e *entry, to Status) {
	if !IsTransitionAllowed(e.status, to) {
		s.log.Warn(
			"unexpected cache status transition",
			slog.String("key", e.key.String()),
			slog.String("from", string(e.status)),
			slog.String("to", string(to)),
		)
	}
	e.status = to
}

func (s *Store) reindexLocked(e *entry, tags []Tag) {
	s.unindexLocked(e)
	e.tags = tags
	for _, tag := range tags {
		keys, ok := s.tagIndex[tag]
		if !ok {
			keys = make(map[Key]struct{})
			s.tagIndex[tag] = keys
		}
		keys[e.key] = struct{}{}
	}
}

func (s *Store) unindexLocked(e *entry) {
	for _, tag := range e.tags {
		keys, ok := s.tagIndex[tag]
		if !ok {
			continue
		}
		delete(keys, e.key)
		if len(keys) == 0 {
			delete(s.tagIndex, tag)
		}
	}
	e.tags = nil
}

func (s *Store) snapshotLocked(e *entry) Snapshot {
	return Snapshot{
		Key:       e.key,
		Status:    e.status,
		Data:      e.data,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
		Stale:     e.status == StatusSuccess && !s.freshLocked(e),
	}
}

func (s *Store) publishLocked(e *entry) {
	if len(e.subs) == 0 {
		return
	}
	snapshot := s.snapshotLocked(e)
	for sub := range e.subs {
		sub.deliver(snapshot)
	}
}

func (s *Store) unsubscribe(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[sub.key]
	if !ok {
		return
	}
	if _, subscribed := e.subs[sub]; !subscribed {
		return
	}
	delete(e.subs, sub)
	e.lastUsed = s.now()
	close(sub.updates)
}

func wait(ctx context.Context, c *call) (any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return c.data, c.err
	}
}
