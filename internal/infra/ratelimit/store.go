// Package ratelimit selects the storage backing fiber's limiter middleware.
package ratelimit

import (
	"github.com/gofiber/fiber/v2"
	memoryStorage "github.com/gofiber/storage/memory/v2"
	redisStorage "github.com/gofiber/storage/redis/v2"

	"signature-service/internal/infra/logging"
)

// RedisConfig points at the Redis database used for limiter counters.
type RedisConfig struct {
	Addr string
	DB   int
}

// NewStore returns a Redis-backed storage when cfg.Addr is set and
// reachable, and an in-process memory storage otherwise.
func NewStore(cfg RedisConfig) (store fiber.Storage) {
	store = memoryStorage.New() // safe default
	if cfg.Addr == "" {
		return store
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Error("Redis limiter store init panicked, falling back to memory", "panic", r)
		}
	}()
	store = redisStorage.New(redisStorage.Config{
		Addrs:    []string{cfg.Addr},
		Database: cfg.DB,
	})
	logging.Info("Using Redis for rate limiting", "addr", cfg.Addr, "db", cfg.DB)
	return store
}
