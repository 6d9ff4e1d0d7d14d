// Package tokens keeps the in-memory API token table used by key auth and
// per-token rate limiting.
package tokens

import (
	"context"
	"sync"
)

// Entry describes one API token.
type Entry struct {
	// RateLimit is the number of requests per limiter interval. Zero disables limiting for the token.
	RateLimit int
}

// Repository loads the full token table.
type Repository interface {
	LoadTokens(ctx context.Context) (map[string]Entry, error)
}

// Cache is a concurrency-safe snapshot of the token table.
type Cache struct {
	mu sync.RWMutex
	m  map[string]Entry
}

// NewCache returns an empty, not-yet-ready cache.
func NewCache() *Cache {
	return &Cache{}
}

// Replace swaps the whole table.
func (c *Cache) Replace(m map[string]Entry) {
	cp := make(map[string]Entry, len(m))
	for k, v := range m {
		cp[k] = v
	}
	c.mu.Lock()
	c.m = cp
	c.mu.Unlock()
}

// Ready reports whether the table has been loaded at least once.
func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.m != nil
}

// Valid reports whether token is known.
func (c *Cache) Valid(token string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.m[token]
	return ok
}

// RateLimit returns the limit of token, or 0 when unknown.
func (c *Cache) RateLimit(token string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.m[token].RateLimit
}
