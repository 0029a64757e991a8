package distribution

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Sasakiai/poker-chip-distribution/internal/inventory"
	"github.com/Sasakiai/poker-chip-distribution/internal/model"
)

// ValidateCustom checks a caller-chosen chip set. The same chips map is
// handed to every player. The value difference against the average buy-in
// is reported, not rejected.
func (e *Engine) ValidateCustom(p model.GameParams, m decimal.Decimal, chips model.Allocation, inv model.Inventory) (*model.CustomResult, error) {
	p.ForceMultiplier = nil
	p, err := e.prepare(p)
	if err != nil {
		return nil, err
	}
	if !m.IsPositive() {
		return nil, fmt.Errorf("%w: multiplier must be positive, got %s", model.ErrInvalidParameters, m)
	}

	known := make(map[model.Denomination]bool, len(e.denoms))
	for _, d := range e.denoms {
		known[d] = true
	}
	for d, n := range chips {
		if !known[d] {
			return nil, fmt.Errorf("%w: unknown denomination %d", model.ErrInvalidParameters, d)
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: negative count %d for denomination %d", model.ErrInvalidParameters, n, d)
		}
	}

	perPlayer := make(model.Allocation, len(e.denoms))
	for _, d := range e.denoms {
		perPlayer[d] = chips[d]
	}
	value := perPlayer.Value()

	allocs := make([]model.Allocation, p.Players)
	budgets := make([]int64, p.Players)
	for i := range allocs {
		allocs[i] = make(model.Allocation, len(perPlayer))
		for d, n := range perPlayer {
			allocs[i][d] = n
		}
		budgets[i] = value
	}

	res := e.describe(p, m, allocs, budgets, inventory.Scale(perPlayer, p.Players), inv)

	actual := decimal.NewFromInt(value).Mul(m)
	expected := p.AverageBuyIn()
	return &model.CustomResult{
		Result: *res,
		ValueCheck: model.ValueCheck{
			ActualValuePerPlayer:   actual,
			ExpectedValuePerPlayer: expected,
			ValueDifference:        actual.Sub(expected),
		},
	}, nil
}
