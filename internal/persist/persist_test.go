package persist

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/spark-client/internal/auth"
	"github.com/Proton-105/spark-client/pkg/redis"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore, func()) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}

	return mr, NewRedisStore(redis.NewMetricsClient(redis.Wrap(client))), cleanup
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Load(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// blockingStore never answers Load until its context ends.
type blockingStore struct {
	NopStore
}

func (blockingStore) Load(ctx context.Context, _ string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestPersistor_SaveKeepsOnlyAllowListedPaths(t *testing.T) {
	ms := &mockStore{}
	ms.On("Save", mock.Anything, DefaultKey, mock.MatchedBy(func(data []byte) bool {
		var tree map[string]map[string]string
		if err := json.Unmarshal(data, &tree); err != nil {
			return false
		}
		return len(tree) == 1 && len(tree["auth"]) == 1 && tree["auth"]["token"] == "T"
	})).Return(nil).Once()

	persistor := NewPersistor(ms, Options{}, testLogger())
	err := persistor.Save(context.Background(), auth.State{Token: "T", RefreshToken: "R", SessionToken: "S"})

	require.NoError(t, err)
	ms.AssertExpectations(t)
}

func TestPersistor_RoundTrip(t *testing.T) {
	testCases := []struct {
		name  string
		allow []string
		state auth.State
		want  auth.State
	}{
		{
			name:  "default allow list",
			state: auth.State{Token: "T", RefreshToken: "R"},
			want:  auth.State{Token: "T"},
		},
		{
			name:  "refresh token allowed",
			allow: []string{"auth.token", "auth.refresh_token"},
			state: auth.State{Token: "T", RefreshToken: "R", SessionToken: "S"},
			want:  auth.State{Token: "T", RefreshToken: "R"},
		},
		{
			name:  "unknown paths ignored",
			allow: []string{"auth.token", "users.me"},
			state: auth.State{Token: "T"},
			want:  auth.State{Token: "T"},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			store, err := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
			require.NoError(t, err)

			persistor := NewPersistor(store, Options{Allow: tc.allow}, testLogger())
			ctx := context.Background()

			require.NoError(t, persistor.Save(ctx, tc.state))
			got, err := persistor.Rehydrate(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPersistor_RehydrateMissingKeyIsEmpty(t *testing.T) {
	ms := &mockStore{}
	ms.On("Load", mock.Anything, "custom:key").Return(nil, ErrNotFound).Once()

	persistor := NewPersistor(ms, Options{Key: "custom:key"}, testLogger())
	state, err := persistor.Rehydrate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, auth.Anonymous, state)
	ms.AssertExpectations(t)
}

func TestPersistor_RehydrateTimeoutIsEmpty(t *testing.T) {
	persistor := NewPersistor(blockingStore{}, Options{RehydrateTimeout: 20 * time.Millisecond}, testLogger())

	start := time.Now()
	state, err := persistor.Rehydrate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, auth.Anonymous, state)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPersistor_RehydrateCorruptValue(t *testing.T) {
	ms := &mockStore{}
	ms.On("Load", mock.Anything, DefaultKey).Return([]byte(`"not an object"`), nil).Once()

	persistor := NewPersistor(ms, Options{}, testLogger())
	state, err := persistor.Rehydrate(context.Background())

	assert.Error(t, err)
	assert.Equal(t, auth.Anonymous, state)
}

func TestPersistor_PurgeWithRedis(t *testing.T) {
	mr, store, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	persistor := NewPersistor(store, Options{}, testLogger())
	ctx := context.Background()

	require.NoError(t, persistor.Save(ctx, auth.State{Token: "T"}))
	assert.True(t, mr.Exists(DefaultKey))

	state, err := persistor.Rehydrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "T", state.Token)

	require.NoError(t, persistor.Purge(ctx))
	assert.False(t, mr.Exists(DefaultKey))

	state, err = persistor.Rehydrate(ctx)
	require.NoError(t, err)
	assert.False(t, state.Authenticated())
}

func TestRedisStore_LoadMissing(t *testing.T) {
	_, store, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	_, err := store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_KeysShareOneFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "persist:root", []byte(`{"auth":{"token":"T"}}`)))
	require.NoError(t, store.Save(ctx, "persist:other", []byte(`{"x":1}`)))
	assert.Error(t, store.Save(ctx, "persist:bad", []byte(`{`)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Len(t, onDisk, 2)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, store.Delete(ctx, "persist:other"))
	_, err = store.Load(ctx, "persist:other")
	assert.ErrorIs(t, err, ErrNotFound)

	data, err := store.Load(ctx, "persist:root")
	require.NoError(t, err)
	assert.JSONEq(t, `{"auth":{"token":"T"}}`, string(data))
}

func TestFileStore_WatchReportsExternalChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var changes atomic.Int32
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(ready)
		done <- store.Watch(ctx, testLogger(), func() { changes.Add(1) })
	}()
	<-ready

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(`{"persist:root":{"auth":{"token":"X"}}}`), 0o600)
		return changes.Load() > 0
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
