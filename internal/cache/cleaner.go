package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner evicts entries that have gone unused for longer than keepFor.
type Cleaner struct {
	store    *Store
	log      *slog.Logger
	keepFor  time.Duration
	interval time.Duration
}

func NewCleaner(store *Store, log *slog.Logger, keepFor, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		store:    store,
		log:      log,
		keepFor:  keepFor,
		interval: interval,
	}
}

// Run starts the eviction loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.store == nil || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("cache cleaner stopped", slog.Any("reason", ctx.Err()))
			return
		case <-ticker.C:
			if removed := c.store.EvictUnused(c.keepFor); removed > 0 {
				c.log.Debug("cache entries evicted", slog.Int("count", removed))
			}
		}
	}
}
