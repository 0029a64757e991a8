// Package inventory compares chip demand against the physical chip supply.
//
// Every function here is a pure comparison over its inputs. Inventories are
// never mutated; ownership of the shared inventory lives in the store
// package.
package inventory

import (
	"fmt"

	"github.com/Sasakiai/poker-chip-distribution/internal/model"
)

// Check reports whether every demanded count fits the inventory. The
// shortage map is nil when feasible and otherwise lists demand − supply for
// each short denomination only. A denomination absent from the inventory has
// zero supply; one absent from demand has zero demand.
func Check(demand model.Allocation, inv model.Inventory) (bool, model.Shortage) {
	var shortage model.Shortage
	for d, want := range demand {
		if want <= 0 {
			continue
		}
		if have := inv[d]; want > have {
			if shortage == nil {
				shortage = make(model.Shortage)
			}
			shortage[d] = want - have
		}
	}
	return shortage == nil, shortage
}

// Totals sums per-player allocations into one demand map. Every
// denomination seen in any allocation appears in the result.
func Totals(allocs []model.Allocation) model.Allocation {
	out := make(model.Allocation)
	for _, a := range allocs {
		for d, n := range a {
			out[d] += n
		}
	}
	return out
}

// Scale returns a demand map with every count multiplied by players.
func Scale(a model.Allocation, players int) model.Allocation {
	out := make(model.Allocation, len(a))
	for d, n := range a {
		out[d] = n * int64(players)
	}
	return out
}

// PlayerShare returns each player's fair share of the inventory: the count
// of each denomination divided evenly, rounded down. It returns nil when
// players is not positive.
func PlayerShare(inv model.Inventory, players int) model.Inventory {
	if players <= 0 {
		return nil
	}
	out := make(model.Inventory, len(inv))
	for d, n := range inv {
		out[d] = n / int64(players)
	}
	return out
}

// TotalValue returns the nominal value of every chip in the inventory.
func TotalValue(inv model.Inventory) int64 {
	var v int64
	for d, n := range inv {
		v += int64(d) * n
	}
	return v
}

// Validate checks a replacement inventory against the configured
// denomination set: every key must be known and every count non-negative.
func Validate(inv model.Inventory, denoms []model.Denomination) error {
	known := make(map[model.Denomination]bool, len(denoms))
	for _, d := range denoms {
		known[d] = true
	}
	for d, n := range inv {
		if !known[d] {
			return fmt.Errorf("%w: invalid chip nominal %d, must be one of %v", model.ErrInvalidParameters, d, denoms)
		}
		if n < 0 {
			return fmt.Errorf("%w: chip count cannot be negative for nominal %d", model.ErrInvalidParameters, d)
		}
	}
	return nil
}
