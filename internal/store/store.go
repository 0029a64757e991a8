// Package store owns the shared chip inventory. The distribution core never
// holds the inventory itself; handlers read a snapshot from an
// InventoryStore and pass it in.
package store

import (
	"context"

	"github.com/Sasakiai/poker-chip-distribution/internal/model"
)

// InventoryStore holds the one mutable inventory of a running service.
type InventoryStore interface {
	// Inventory returns a snapshot the caller may keep and modify.
	Inventory(ctx context.Context) (model.Inventory, error)

	// ReplaceInventory swaps the whole inventory for inv.
	ReplaceInventory(ctx context.Context, inv model.Inventory) error
}
