package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Sasakiai/poker-chip-distribution/internal/metrics"
)

// LRU is an in-process cache bounded by entry count and age.
type LRU struct {
	entries *expirable.LRU[string, []byte]
}

// NewLRU creates a cache holding at most size entries for ttl each.
func NewLRU(size int, ttl time.Duration) *LRU {
	return &LRU{entries: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (c *LRU) Get(_ context.Context, key string) ([]byte, bool) {
	val, ok := c.entries.Get(key)
	if !ok {
		metrics.CacheMisses.WithLabelValues("lru").Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("lru").Inc()
	return append([]byte(nil), val...), true
}

func (c *LRU) Set(_ context.Context, key string, val []byte) {
	c.entries.Add(key, append([]byte(nil), val...))
}

// Len returns the number of live entries.
func (c *LRU) Len() int {
	return c.entries.Len()
}
