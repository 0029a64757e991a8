// Package model defines the core domain types shared across the chip
// distribution service.
// All monetary values use shopspring/decimal, never float64.
// Chip counts and denominations are integers.
package model

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidParameters marks malformed or out-of-range caller input.
	// Never retried, never silently corrected.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrInvalidConfiguration marks a structural defect in the configured
	// denomination set (empty, non-ascending, non-positive).
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// Denomination is a chip face value (nominal), e.g. 1, 5, 25.
type Denomination int64

// Inventory maps a denomination to the number of physical chips available.
type Inventory map[Denomination]int64

// Clone returns an independent copy of the inventory.
func (inv Inventory) Clone() Inventory {
	out := make(Inventory, len(inv))
	for d, n := range inv {
		out[d] = n
	}
	return out
}

// Denominations returns the inventory keys in ascending order.
func (inv Inventory) Denominations() []Denomination {
	return SortedKeys(inv)
}

// SortedKeys returns the denominations of any chip-count map in ascending
// order.
func SortedKeys[M ~map[Denomination]int64](m M) []Denomination {
	ds := make([]Denomination, 0, len(m))
	for d := range m {
		ds = append(ds, d)
	}
	sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })
	return ds
}

// Allocation maps a denomination to a chip count for one player, or to a
// total across players.
type Allocation map[Denomination]int64

// Value returns Σ denomination × count in chip units.
func (a Allocation) Value() int64 {
	var v int64
	for d, n := range a {
		v += int64(d) * n
	}
	return v
}

// Chips returns the number of physical chips in the allocation.
func (a Allocation) Chips() int64 {
	var n int64
	for _, c := range a {
		n += c
	}
	return n
}

// Shortage maps a denomination to its deficit (demand − supply).
type Shortage map[Denomination]int64

// GameParams describes one game to distribute chips for.
type GameParams struct {
	Players         int               `json:"num_players"`
	BuyIns          []decimal.Decimal `json:"buy_ins"`
	SmallBlind      *decimal.Decimal  `json:"small_blind,omitempty"`
	BigBlind        *decimal.Decimal  `json:"big_blind,omitempty"`
	ForceMultiplier *decimal.Decimal  `json:"force_multiplier,omitempty"`
}

// HasBlinds reports whether both blinds are known.
func (p GameParams) HasBlinds() bool {
	return p.SmallBlind != nil && p.BigBlind != nil
}

// TotalBuyIn returns the sum of all buy-ins.
func (p GameParams) TotalBuyIn() decimal.Decimal {
	total := decimal.Zero
	for _, b := range p.BuyIns {
		total = total.Add(b)
	}
	return total
}

// AverageBuyIn returns the mean buy-in, or zero when there are none.
func (p GameParams) AverageBuyIn() decimal.Decimal {
	if len(p.BuyIns) == 0 {
		return decimal.Zero
	}
	return p.TotalBuyIn().Div(decimal.NewFromInt(int64(len(p.BuyIns))))
}

// Info carries descriptive metadata about a distribution.
type Info struct {
	TotalBuyIn      decimal.Decimal `json:"total_buy_in"`
	NumPlayers      int             `json:"num_players"`
	SmallBlindChips *int64          `json:"small_blind_chips"`
	BigBlindChips   *int64          `json:"big_blind_chips"`
	StackDepthBB    *float64        `json:"bb_per_player"`  // average stack in big blinds
	ChipsPerPlayer  []int64         `json:"chips_per_player"` // chip budget per player
	TotalChips      int64           `json:"total_chips"`      // physical chips handed out
}

// Result is the outcome of distributing chips at one multiplier.
// Derived and immutable once produced.
type Result struct {
	Multiplier     decimal.Decimal `json:"multiplier"`
	ChipValueInfo  string          `json:"chip_value_info"`
	Allocations    []Allocation    `json:"distribution_per_player"`
	TotalChipsUsed Allocation      `json:"total_chips_used"`
	Feasible       bool            `json:"is_feasible"`
	Shortage       Shortage        `json:"shortage"` // nil when feasible
	Info           Info            `json:"info"`
}

// ValueCheck compares what a custom chip set is worth against the buy-in.
type ValueCheck struct {
	ActualValuePerPlayer   decimal.Decimal `json:"actual_value_per_player"`
	ExpectedValuePerPlayer decimal.Decimal `json:"expected_value_per_player"`
	ValueDifference        decimal.Decimal `json:"value_difference"`
}

// CustomResult is a Result for a caller-supplied chip configuration.
type CustomResult struct {
	Result
	ValueCheck ValueCheck `json:"value_check"`
}
