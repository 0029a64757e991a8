package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sasakiai/poker-chip-distribution/internal/metrics"
)

// Redis shares cached results between service replicas.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis wraps a connected client. Entries expire after ttl.
func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.rdb.Get(ctx, resultKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("redis cache read failed", "key", key, "err", err)
		}
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("redis").Inc()
	return data, true
}

func (c *Redis) Set(ctx context.Context, key string, val []byte) {
	if err := c.rdb.Set(ctx, resultKey(key), val, c.ttl).Err(); err != nil {
		slog.Warn("redis cache write failed", "key", key, "err", err)
	}
}

func resultKey(key string) string { return "chipdist:result:" + key }
