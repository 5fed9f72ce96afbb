package api

import (
	"context"
	"time"

	"github.com/Proton-105/spark-client/internal/cache"
)

// State is the typed view of a cache snapshot.
type State[R any] struct {
	Status    cache.Status
	Data      R
	HasData   bool
	Err       error
	Stale     bool
	UpdatedAt time.Time
}

func (s State[R]) Loading() bool {
	return s.Status == cache.StatusUninitialized || s.Status == cache.StatusLoading
}

func stateOf[R any](snapshot cache.Snapshot) State[R] {
	state := State[R]{
		Status:    snapshot.Status,
		Err:       snapshot.Err,
		Stale:     snapshot.Stale,
		UpdatedAt: snapshot.UpdatedAt,
	}
	if data, ok := snapshot.Data.(R); ok {
		state.Data = data
		state.HasData = true
	}
	return state
}

// Subscription is a typed cache subscription. Updates carries only the
// latest state and is closed after Unsubscribe.
type Subscription[R any] struct {
	inner   *cache.Subscription
	updates chan State[R]
}

func newSubscription[R any](inner *cache.Subscription) *Subscription[R] {
	s := &Subscription[R]{
		inner:   inner,
		updates: make(chan State[R], 1),
	}
	go s.forward()
	return s
}

func (s *Subscription[R]) forward() {
	defer close(s.updates)

	for snapshot := range s.inner.Updates() {
		state := stateOf[R](snapshot)
		select {
		case <-s.updates:
		default:
		}
		s.updates <- state
	}
}

func (s *Subscription[R]) Updates() <-chan State[R] {
	return s.updates
}

func (s *Subscription[R]) Current() State[R] {
	return stateOf[R](s.inner.Current())
}

func (s *Subscription[R]) Refetch(ctx context.Context) error {
	_, err := s.inner.Refetch(ctx)
	return err
}

func (s *Subscription[R]) Unsubscribe() {
	s.inner.Unsubscribe()
}
