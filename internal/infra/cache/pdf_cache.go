// Package cache stores signed PDFs in Redis keyed by their inputs.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"signature-service/internal/domain"
	"signature-service/internal/infra/logging"
)

const keyPrefix = "sigpdf:"

// PDFCache is a best-effort Redis cache. A nil *PDFCache is a valid,
// always-missing cache.
type PDFCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New wraps rdb. A non-positive ttl falls back to one minute.
func New(rdb *redis.Client, ttl time.Duration) *PDFCache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 1 * time.Minute
	}
	return &PDFCache{rdb: rdb, ttl: ttl}
}

// Key derives a SHA256-based cache key from the pipeline variant, the
// source document and the signature request.
func Key(variant string, source []byte, req domain.SignatureRequest) string {
	h := sha256.New()
	h.Write([]byte(variant))
	h.Write([]byte{0})
	h.Write(source)
	h.Write([]byte{0})
	h.Write([]byte(req.Name()))
	p := req.Placement
	for _, v := range []int{p.X, p.Y, p.Width, p.Height} {
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(v)))
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached document, if any. Redis failures count as a miss.
func (c *PDFCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	ctxRedis, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	cached, err := c.rdb.Get(ctxRedis, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logging.Warn("Redis read failed", "error", err)
		return nil, false
	}
	logging.Info("PDF cache hit", "key", key)
	return cached, true
}

// Set stores data under key. Failures are logged and dropped.
func (c *PDFCache) Set(ctx context.Context, key string, data []byte) {
	if c == nil {
		return
	}
	ctxRedis, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	if err := c.rdb.Set(ctxRedis, key, data, c.ttl).Err(); err != nil {
		logging.Warn("Redis write failed", "error", err)
	}
}
