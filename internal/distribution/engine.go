// Package distribution turns game parameters into a per-player chip
// distribution and checks it against an inventory snapshot.
//
// An Engine is built once from the configured denomination set and is safe
// for concurrent use: every method is a pure function of its arguments.
package distribution

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/Sasakiai/poker-chip-distribution/internal/allocate"
	"github.com/Sasakiai/poker-chip-distribution/internal/inventory"
	"github.com/Sasakiai/poker-chip-distribution/internal/model"
	"github.com/Sasakiai/poker-chip-distribution/internal/multiplier"
)

// StackDepthCenter is the stack depth, in big blinds, alternatives are
// ranked against.
const StackDepthCenter = 150.0

var two = decimal.NewFromInt(2)

// Engine computes distributions for a fixed denomination set.
type Engine struct {
	denoms  []model.Denomination
	weights multiplier.Weights
}

// New validates denoms (strictly ascending, positive) and returns an Engine.
func New(denoms []model.Denomination, w multiplier.Weights) (*Engine, error) {
	if err := allocate.ValidateDenominations(denoms); err != nil {
		return nil, err
	}
	return &Engine{
		denoms:  append([]model.Denomination(nil), denoms...),
		weights: w,
	}, nil
}

// Denominations returns a copy of the configured denomination set.
func (e *Engine) Denominations() []model.Denomination {
	return append([]model.Denomination(nil), e.denoms...)
}

// Distribute resolves the multiplier, allocates every player's chip budget
// and checks the total against inv. Infeasibility is reported in the result,
// never as an error.
func (e *Engine) Distribute(p model.GameParams, inv model.Inventory) (*model.Result, error) {
	p, err := e.prepare(p)
	if err != nil {
		return nil, err
	}
	m, err := multiplier.Select(p, e.denoms[0], e.weights)
	if err != nil {
		return nil, err
	}
	return e.distributeAt(p, m, inv)
}

// distributeAt allocates at a resolved multiplier. p must already be
// prepared.
func (e *Engine) distributeAt(p model.GameParams, m decimal.Decimal, inv model.Inventory) (*model.Result, error) {
	limits := e.playerLimits(inv, p.Players)

	allocs := make([]model.Allocation, len(p.BuyIns))
	budgets := make([]int64, len(p.BuyIns))
	for i, b := range p.BuyIns {
		budgets[i] = ChipBudget(b, m)
		a, err := allocate.Allocate(budgets[i], e.denoms, limits)
		if err != nil {
			return nil, fmt.Errorf("player %d at multiplier %s: %w", i+1, m, err)
		}
		allocs[i] = a
	}

	return e.describe(p, m, allocs, budgets, inventory.Totals(allocs), inv), nil
}

// describe assembles a Result from finished allocations.
func (e *Engine) describe(p model.GameParams, m decimal.Decimal, allocs []model.Allocation,
	budgets []int64, totals model.Allocation, inv model.Inventory) *model.Result {
	feasible, shortage := inventory.Check(totals, inv)

	info := model.Info{
		TotalBuyIn:     p.TotalBuyIn(),
		NumPlayers:     p.Players,
		ChipsPerPlayer: budgets,
		TotalChips:     totals.Chips(),
	}
	if p.HasBlinds() {
		sb := ChipBudget(*p.SmallBlind, m)
		bb := ChipBudget(*p.BigBlind, m)
		info.SmallBlindChips = &sb
		info.BigBlindChips = &bb

		// Depth is measured in the big blind as actually posted, in whole
		// chips. A big blind that rounds to zero chips has no depth.
		if bb > 0 {
			var sum int64
			for _, b := range budgets {
				sum += b
			}
			avgBudget := float64(sum) / float64(len(budgets))
			depth := math.Round(avgBudget/float64(bb)*100) / 100
			info.StackDepthBB = &depth
		}
	}

	return &model.Result{
		Multiplier:     m,
		ChipValueInfo:  ChipValueInfo(m, e.denoms),
		Allocations:    allocs,
		TotalChipsUsed: totals,
		Feasible:       feasible,
		Shortage:       shortage,
		Info:           info,
	}
}

// prepare validates p and fills in a missing blind at the standard 1:2
// ratio. Validation happens before any allocation work.
func (e *Engine) prepare(p model.GameParams) (model.GameParams, error) {
	if p.Players < 1 {
		return p, fmt.Errorf("%w: at least one player is required", model.ErrInvalidParameters)
	}
	if len(p.BuyIns) != p.Players {
		return p, fmt.Errorf("%w: number of buy-ins (%d) must match number of players (%d)",
			model.ErrInvalidParameters, len(p.BuyIns), p.Players)
	}
	if err := multiplier.Validate(p); err != nil {
		return p, err
	}
	return deriveBlinds(p), nil
}

func deriveBlinds(p model.GameParams) model.GameParams {
	switch {
	case p.SmallBlind != nil && p.BigBlind == nil:
		bb := p.SmallBlind.Mul(two)
		p.BigBlind = &bb
	case p.BigBlind != nil && p.SmallBlind == nil:
		sb := p.BigBlind.Div(two)
		p.SmallBlind = &sb
	}
	return p
}

// playerLimits caps each denomination at the player's fair share of inv.
// Denominations missing from inv get a zero limit. A nil inventory means
// unlimited.
func (e *Engine) playerLimits(inv model.Inventory, players int) model.Inventory {
	if inv == nil {
		return nil
	}
	limits := inventory.PlayerShare(inv, players)
	for _, d := range e.denoms {
		if _, ok := limits[d]; !ok {
			limits[d] = 0
		}
	}
	return limits
}

// ChipBudget converts money to chip units at multiplier m, rounding half
// away from zero.
func ChipBudget(money, m decimal.Decimal) int64 {
	return money.Div(m).Round(0).IntPart()
}

// ChipValueInfo describes what the smallest and largest chips are worth,
// e.g. "1 chip = 0.02 (chip 1 = 0.02, chip 1000 = 20)".
func ChipValueInfo(m decimal.Decimal, denoms []model.Denomination) string {
	if len(denoms) == 0 {
		return fmt.Sprintf("1 chip = %s", m)
	}
	lo, hi := denoms[0], denoms[len(denoms)-1]
	if lo == hi {
		return fmt.Sprintf("1 chip = %s (chip %d = %s)", m, lo, m.Mul(decimal.NewFromInt(int64(lo))))
	}
	return fmt.Sprintf("1 chip = %s (chip %d = %s, chip %d = %s)",
		m, lo, m.Mul(decimal.NewFromInt(int64(lo))), hi, m.Mul(decimal.NewFromInt(int64(hi))))
}
