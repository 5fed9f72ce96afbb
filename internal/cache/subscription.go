package cache

import (
	"context"
	"sync"
)

// Subscription keeps an entry mounted and receives its snapshots. Only the
// latest snapshot is buffered; a slow reader skips intermediate states.
type Subscription struct {
	store   *Store
	key     Key
	updates chan Snapshot
	once    sync.Once
}

func (s *Subscription) Key() Key {
	return s.key
}

// Updates is closed after Unsubscribe.
func (s *Subscription) Updates() <-chan Snapshot {
	return s.updates
}

// Current returns the entry's present snapshot without waiting for an update.
func (s *Subscription) Current() Snapshot {
	return s.store.Snapshot(s.key)
}

func (s *Subscription) Refetch(ctx context.Context) (any, error) {
	return s.store.Refetch(ctx, s.key)
}

// Unsubscribe is idempotent. The entry becomes eligible for eviction.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.store.unsubscribe(s)
	})
}

// deliver replaces any pending snapshot with snapshot. Callers hold the store lock.
func (s *Subscription) deliver(snapshot Snapshot) {
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- snapshot:
	default:
	}
}
