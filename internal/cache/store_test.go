package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Proton-105/spark-client/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(clock *fakeClock) *Store {
	store := New(Config{}, testLogger())
	if clock != nil {
		store.now = clock.Now
	}
	return store
}

// countingFetch returns the call number as data and provides tags.
func countingFetch(calls *atomic.Int32, tags ...Tag) FetchFunc {
	return func(context.Context) (any, []Tag, error) {
		n := calls.Add(1)
		return int(n), tags, nil
	}
}

func waitForStatus(t *testing.T, sub *Subscription, want Status) Snapshot {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case snapshot, ok := <-sub.Updates():
			require.True(t, ok, "updates closed before status %s", want)
			if snapshot.Status == want {
				return snapshot
			}
		case <-timeout:
			t.Fatalf("timed out waiting for status %s, current %s", want, sub.Current().Status)
		}
	}
}

func TestStore_QueryCachesFreshData(t *testing.T) {
	store := newTestStore(nil)
	key := Key{Endpoint: "cachesFresh"}
	var calls atomic.Int32

	first, err := store.Query(context.Background(), key, Options{}, countingFetch(&calls))
	require.NoError(t, err)
	second, err := store.Query(context.Background(), key, Options{}, countingFetch(&calls))
	require.NoError(t, err)

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, StatusSuccess, store.Snapshot(key).Status)
}

func TestStore_QuerySharesInFlightFetch(t *testing.T) {
	store := newTestStore(nil)
	key := Key{Endpoint: "sharesInFlight"}

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(context.Context) (any, []Tag, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return "payload", nil, nil
	}

	type result struct {
		data any
		err  error
	}
	results := make(chan result, 2)
	query := func() {
		data, err := store.Query(context.Background(), key, Options{}, fetch)
		results <- result{data: data, err: err}
	}

	go query()
	<-started
	go query()

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(cacheRequestsTotal.WithLabelValues(key.Endpoint, "shared")) == 1
	}, 2*time.Second, 5*time.Millisecond)
	close(release)

	for i := 0; i < 2; i++ {
		r := <-results
		require.NoError(t, r.err)
		assert.Equal(t, "payload", r.data)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestStore_WaiterHonoursOwnContext(t *testing.T) {
	store := newTestStore(nil)
	key := Key{Endpoint: "waiterContext"}

	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, []Tag, error) {
		<-release
		return "late", nil, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Query(ctx, key, Options{}, fetch)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	data, err := store.Query(context.Background(), key, Options{}, fetch)
	require.NoError(t, err)
	assert.Equal(t, "late", data)
}

func TestStore_StaleTime(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)
	key := Key{Endpoint: "staleTime"}
	opts := Options{StaleTime: time.Minute}
	var calls atomic.Int32

	_, err := store.Query(context.Background(), key, opts, countingFetch(&calls))
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	data, err := store.Query(context.Background(), key, opts, countingFetch(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, data)

	clock.Advance(time.Minute)
	assert.True(t, store.Snapshot(key).Stale)
	data, err = store.Query(context.Background(), key, opts, countingFetch(&calls))
	require.NoError(t, err)
	assert.Equal(t, 2, data)
}

func TestStore_InvalidateRefetchesOnlySubscribedEntries(t *testing.T) {
	store := newTestStore(nil)

	listKey := Key{Endpoint: "listEvents"}
	detailKey := Key{Endpoint: "getEvent", Args: `"e-1"`}
	var listCalls, detailCalls atomic.Int32

	sub := store.Subscribe(listKey, Options{}, countingFetch(&listCalls, ListTag("Event")))
	defer sub.Unsubscribe()
	waitForStatus(t, sub, StatusSuccess)

	_, err := store.Query(context.Background(), detailKey, Options{}, countingFetch(&detailCalls, IDTag("Event", "e-1")))
	require.NoError(t, err)

	affected := store.Invalidate(context.Background(), TypeTag("Event"))
	assert.Equal(t, 2, affected)

	snapshot := waitForStatus(t, sub, StatusSuccess)
	assert.Equal(t, 2, snapshot.Data)
	assert.Equal(t, int32(2), listCalls.Load())

	assert.Equal(t, int32(1), detailCalls.Load())
	assert.True(t, store.Snapshot(detailKey).Stale)

	data, err := store.Query(context.Background(), detailKey, Options{}, countingFetch(&detailCalls, IDTag("Event", "e-1")))
	require.NoError(t, err)
	assert.Equal(t, 2, data)
}

func TestStore_InvalidateMatchesTagIDs(t *testing.T) {
	store := newTestStore(nil)
	var calls atomic.Int32

	_, err := store.Query(context.Background(), Key{Endpoint: "getEvent", Args: `"e-1"`}, Options{}, countingFetch(&calls, IDTag("Event", "e-1")))
	require.NoError(t, err)
	_, err = store.Query(context.Background(), Key{Endpoint: "getEvent", Args: `"e-2"`}, Options{}, countingFetch(&calls, IDTag("Event", "e-2")))
	require.NoError(t, err)

	assert.Equal(t, 1, store.Invalidate(context.Background(), IDTag("Event", "e-2")))
	assert.Equal(t, 0, store.Invalidate(context.Background(), TypeTag("User")))
	assert.False(t, store.Snapshot(Key{Endpoint: "getEvent", Args: `"e-1"`}).Stale)
	assert.True(t, store.Snapshot(Key{Endpoint: "getEvent", Args: `"e-2"`}).Stale)
}

func TestStore_InvalidateDuringFetchRefetchesAfterwards(t *testing.T) {
	store := newTestStore(nil)
	key := Key{Endpoint: "invalidateInFlight"}

	var calls atomic.Int32
	blocked := make(chan struct{})
	release := make(chan struct{})
	fetch := func(context.Context) (any, []Tag, error) {
		n := calls.Add(1)
		if n == 2 {
			close(blocked)
			<-release
		}
		return int(n), []Tag{TypeTag("Notification")}, nil
	}

	sub := store.Subscribe(key, Options{}, fetch)
	defer sub.Unsubscribe()
	waitForStatus(t, sub, StatusSuccess)

	go func() { _, _ = sub.Refetch(context.Background()) }()
	<-blocked

	store.Invalidate(context.Background(), TypeTag("Notification"))
	close(release)

	require.Eventually(t, func() bool {
		snapshot := sub.Current()
		return snapshot.Status == StatusSuccess && snapshot.Data == 3
	}, 2*time.Second, 5*time.Millisecond)
	assert.False(t, sub.Current().Stale)
}

func TestStore_ResetDropsEntriesAndDiscardsLateResults(t *testing.T) {
	store := newTestStore(nil)
	key := Key{Endpoint: "resetLate"}

	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(context.Context) (any, []Tag, error) {
		close(started)
		<-release
		return "before reset", []Tag{IDTag("User", "me")}, nil
	}

	done := make(chan any, 1)
	go func() {
		data, _ := store.Query(context.Background(), key, Options{}, fetch)
		done <- data
	}()

	<-started
	store.Reset()
	close(release)

	assert.Equal(t, "before reset", <-done)
	assert.Equal(t, StatusUninitialized, store.Snapshot(key).Status)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 0, store.Invalidate(context.Background(), IDTag("User", "me")))
}

func TestStore_ResetReloadsSubscribedEntries(t *testing.T) {
	store := newTestStore(nil)
	key := Key{Endpoint: "resetSubscribed"}
	var calls atomic.Int32

	sub := store.Subscribe(key, Options{}, countingFetch(&calls))
	defer sub.Unsubscribe()
	waitForStatus(t, sub, StatusSuccess)

	store.Reset()

	snapshot := waitForStatus(t, sub, StatusSuccess)
	assert.Equal(t, 2, snapshot.Data)
}

func TestStore_SubscribeRetriesErroredEntry(t *testing.T) {
	store := newTestStore(nil)
	key := Key{Endpoint: "subscribeAfterError"}
	errBoom := errors.New("boom")

	var calls atomic.Int32
	fetch := func(context.Context) (any, []Tag, error) {
		if calls.Add(1) == 1 {
			return nil, nil, errBoom
		}
		return "ok", nil, nil
	}

	_, err := store.Query(context.Background(), key, Options{}, fetch)
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, StatusError, store.Snapshot(key).Status)

	sub := store.Subscribe(key, Options{}, fetch)
	defer sub.Unsubscribe()
	snapshot := waitForStatus(t, sub, StatusSuccess)
	assert.Equal(t, "ok", snapshot.Data)
	assert.NoError(t, snapshot.Err)
}

func TestStore_RetryRetryableErrors(t *testing.T) {
	store := newTestStore(nil)
	key := Key{Endpoint: "retryable"}

	var calls atomic.Int32
	fetch := func(context.Context) (any, []Tag, error) {
		if calls.Add(1) == 1 {
			return nil, nil, apperrors.NewAPIError(503, "", nil)
		}
		return "recovered", nil, nil
	}

	data, err := store.Query(context.Background(), key, Options{Retry: true}, fetch)
	require.NoError(t, err)
	assert.Equal(t, "recovered", data)
	assert.Equal(t, int32(2), calls.Load())
}

func TestStore_RefetchUnknownKey(t *testing.T) {
	store := newTestStore(nil)
	_, err := store.Refetch(context.Background(), Key{Endpoint: "missing"})
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestStore_PassiveSubscriberRefetch(t *testing.T) {
	store := newTestStore(nil)
	key := Key{Endpoint: "passive"}

	sub := store.Subscribe(key, Options{}, nil)
	defer sub.Unsubscribe()
	assert.Equal(t, StatusUninitialized, sub.Current().Status)

	_, err := store.Refetch(context.Background(), key)
	require.ErrorIs(t, err, ErrNoFetch)

	var calls atomic.Int32
	_, err = store.Query(context.Background(), key, Options{}, countingFetch(&calls))
	require.NoError(t, err)

	data, err := store.Refetch(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 2, data)
	assert.Equal(t, 2, sub.Current().Data)
}

func TestStore_EvictUnused(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)
	var calls atomic.Int32

	unused := Key{Endpoint: "evictUnused"}
	mounted := Key{Endpoint: "evictMounted"}

	_, err := store.Query(context.Background(), unused, Options{}, countingFetch(&calls))
	require.NoError(t, err)
	sub := store.Subscribe(mounted, Options{}, countingFetch(&calls))
	defer sub.Unsubscribe()
	waitForStatus(t, sub, StatusSuccess)

	assert.Equal(t, 0, store.EvictUnused(time.Minute))

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, store.EvictUnused(time.Minute))
	assert.Equal(t, StatusUninitialized, store.Snapshot(unused).Status)
	assert.Equal(t, StatusSuccess, store.Snapshot(mounted).Status)
}

func TestSubscription_UnsubscribeClosesUpdates(t *testing.T) {
	store := newTestStore(nil)
	var calls atomic.Int32

	sub := store.Subscribe(Key{Endpoint: "unsubscribe"}, Options{}, countingFetch(&calls))
	waitForStatus(t, sub, StatusSuccess)

	sub.Unsubscribe()
	sub.Unsubscribe()

	for range sub.Updates() {
	}
}
