// Package cache stores encoded computation results. Results are pure
// functions of the operation, the request and the inventory snapshot, so a
// key derived from all three never needs invalidation; entries simply expire.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Cache is a best-effort byte store. A failing backend behaves like a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
}

// Key derives a cache key from an operation name and any JSON-encodable
// inputs.
func Key(op string, inputs ...any) (string, error) {
	h := sha256.New()
	h.Write([]byte(op))
	for _, in := range inputs {
		data, err := json.Marshal(in)
		if err != nil {
			return "", fmt.Errorf("cache key for %s: %w", op, err)
		}
		h.Write([]byte{0})
		h.Write(data)
	}
	return op + ":" + hex.EncodeToString(h.Sum(nil)), nil
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Nop) Set(context.Context, string, []byte)        {}
