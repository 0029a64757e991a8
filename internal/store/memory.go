package store

import (
	"context"
	"sync"

	"github.com/Sasakiai/poker-chip-distribution/internal/model"
)

// MemoryStore implements InventoryStore with an in-memory map. Replacements
// are whole-map swaps so readers see either the old or the new inventory,
// never a mix.
type MemoryStore struct {
	mu  sync.RWMutex
	inv model.Inventory
}

// NewMemoryStore creates a store seeded with a copy of initial.
func NewMemoryStore(initial model.Inventory) *MemoryStore {
	return &MemoryStore{inv: initial.Clone()}
}

func (s *MemoryStore) Inventory(_ context.Context) (model.Inventory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.inv.Clone(), nil
}

func (s *MemoryStore) ReplaceInventory(_ context.Context, inv model.Inventory) error {
	// Copy outside the lock; the caller keeps ownership of inv.
	next := inv.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.inv = next
	return nil
}
