package cache

import (
	"context"
	"time"

	"github.com/arenaforge/gameapi/cache/local"
	cacheredis "github.com/arenaforge/gameapi/cache/redis"
	"github.com/arenaforge/gameapi/config"
)

// Cache defines the KV operations shared by the Redis and in-process backends.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Incr adds one to the integer at key and returns the new value. The ttl
	// is applied when the key is created and not extended afterwards.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// NewCache returns a Cache backed by Redis if RedisAddr is set,
// otherwise returns an in-process LocalCache.
func NewCache(cfg config.CacheConfig) (Cache, error) {
	if cfg.RedisAddr != "" {
		return cacheredis.NewCache(cacheredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}
	return local.NewCache(local.Config{
		GCInterval: cfg.LocalGCInterval,
	})
}

// IsNotFound reports whether err is a missing-key error from either backend.
func IsNotFound(err error) bool {
	return err == local.ErrNotFound || err == cacheredis.ErrNotFound
}
