package tokens

import (
	"context"
	"time"

	"signature-service/internal/infra/logging"
)

// Reloader refreshes a Cache from a Repository at a fixed interval. A failed
// load keeps the previous table.
type Reloader struct {
	repo     Repository
	cache    *Cache
	interval time.Duration
}

// NewReloader creates a Reloader.
func NewReloader(repo Repository, cache *Cache, interval time.Duration) *Reloader {
	return &Reloader{repo: repo, cache: cache, interval: interval}
}

// LoadOnce loads the table once and replaces the cache on success.
func (r *Reloader) LoadOnce(ctx context.Context) error {
	m, err := r.repo.LoadTokens(ctx)
	if err != nil {
		return err
	}
	r.cache.Replace(m)
	logging.Info("API tokens loaded", "count", len(m))
	return nil
}

// Start reloads in the background until ctx is done.
func (r *Reloader) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				loadCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				if err := r.LoadOnce(loadCtx); err != nil {
					logging.Error("Failed to reload API tokens", "error", err)
				}
				cancel()
			case <-ctx.Done():
				return
			}
		}
	}()
}
