// Package persist saves the allow-listed part of the client state between runs
// under a single namespaced key.
package persist

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Load when the key has never been saved.
var ErrNotFound = errors.New("persisted key not found")

// Store is a byte-oriented key-value backend.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// NopStore persists nothing.
type NopStore struct{}

func (NopStore) Load(context.Context, string) ([]byte, error) { return nil, ErrNotFound }

func (NopStore) Save(context.Context, string, []byte) error { return nil }

func (NopStore) Delete(context.Context, string) error { return nil }
