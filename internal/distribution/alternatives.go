package distribution

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Sasakiai/poker-chip-distribution/internal/model"
	"github.com/Sasakiai/poker-chip-distribution/internal/multiplier"
)

// DefaultMaxAlternatives is used when the caller asks for a non-positive
// number of alternatives.
const DefaultMaxAlternatives = 5

// Alternatives outside this average chip budget per player are not worth
// handing out: too few chips to bet with, or too many to count.
var (
	AlternativeBudgetMin int64 = 50
	AlternativeBudgetMax int64 = 10000
)

// FindAlternatives distributes at every round candidate multiplier and
// returns at most limit results, best first. Feasible results sort before
// infeasible ones, then by stack depth distance from 150 BB, then by total
// chip count, then larger multiplier first. Candidates whose budgets the
// denomination set cannot represent are skipped. A forced multiplier in p is
// ignored.
func (e *Engine) FindAlternatives(ctx context.Context, p model.GameParams, inv model.Inventory, limit int) ([]model.Result, error) {
	p, err := e.prepare(p)
	if err != nil {
		return nil, err
	}
	p.ForceMultiplier = nil
	if limit <= 0 {
		limit = DefaultMaxAlternatives
	}

	avg := p.AverageBuyIn()
	var candidates []decimal.Decimal
	for _, c := range multiplier.Candidates(avg) {
		if b := ChipBudget(avg, c); b >= AlternativeBudgetMin && b <= AlternativeBudgetMax {
			candidates = append(candidates, c)
		}
	}

	slots := make([]*model.Result, len(candidates))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := e.distributeAt(p, c, inv)
			if errors.Is(err, model.ErrInvalidParameters) {
				return nil
			}
			if err != nil {
				return err
			}
			slots[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]model.Result, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return rankLess(results[i], results[j])
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func rankLess(a, b model.Result) bool {
	if a.Feasible != b.Feasible {
		return a.Feasible
	}
	if da, db := depthDistance(a), depthDistance(b); math.Abs(da-db) > 1e-9 {
		return da < db
	}
	if a.Info.TotalChips != b.Info.TotalChips {
		return a.Info.TotalChips < b.Info.TotalChips
	}
	return a.Multiplier.GreaterThan(b.Multiplier)
}

// depthDistance is zero without blinds and infinite when the big blind
// rounds to no chips at all.
func depthDistance(r model.Result) float64 {
	if r.Info.StackDepthBB == nil {
		if r.Info.BigBlindChips != nil {
			return math.Inf(1)
		}
		return 0
	}
	return math.Abs(*r.Info.StackDepthBB - StackDepthCenter)
}

// ExcludeMultiplier drops results computed at m, keeping order.
func ExcludeMultiplier(results []model.Result, m decimal.Decimal) []model.Result {
	out := make([]model.Result, 0, len(results))
	for _, r := range results {
		if !r.Multiplier.Equal(m) {
			out = append(out, r)
		}
	}
	return out
}
