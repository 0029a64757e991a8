// Package allocate splits one player's chip budget across a denomination set.
//
// Denominations play fixed roles. The three largest (above the two smallest)
// carry most of the value, the second-smallest is guaranteed a handful of
// chips for making change, and the smallest absorbs whatever is left. Each
// role has a soft cap so no player ends up with a fistful of one colour.
//
// Allocate is exact: the returned counts always sum to the budget, or it
// returns an error.
package allocate

import (
	"fmt"

	"github.com/Sasakiai/poker-chip-distribution/internal/model"
)

type role int

const (
	roleSmallest role = iota
	roleSecond
	roleMiddle
	roleRank3
	roleRank2
	roleRank1
)

// Fractions of the budget aimed at each role in the first pass. Middle
// denominations share what the fixed roles leave.
var fractions = map[role]float64{
	roleRank1:    0.375,
	roleRank2:    0.275,
	roleRank3:    0.175,
	roleSecond:   0.05,
	roleSmallest: 0.025,
}

// Caps bound the first-pass count per role. Top-up passes may exceed them
// by TopUpStep.
var caps = map[role]int64{
	roleRank1:    8,
	roleRank2:    8,
	roleRank3:    10,
	roleMiddle:   10,
	roleSecond:   15,
	roleSmallest: 20,
}

const (
	// SecondSmallestMin is the floor for the second-smallest denomination.
	SecondSmallestMin = 10

	// TopUpStep is how many chips one top-up pass may add per denomination,
	// and how far above its cap a denomination may grow.
	TopUpStep = 5
)

// SmallestCap returns the soft cap on the smallest denomination.
func SmallestCap() int64 { return caps[roleSmallest] }

// ValidateDenominations checks that denoms is non-empty, positive and
// strictly ascending.
func ValidateDenominations(denoms []model.Denomination) error {
	if len(denoms) == 0 {
		return fmt.Errorf("%w: denomination set is empty", model.ErrInvalidConfiguration)
	}
	for i, d := range denoms {
		if d <= 0 {
			return fmt.Errorf("%w: denomination %d is not positive", model.ErrInvalidConfiguration, d)
		}
		if i > 0 && d <= denoms[i-1] {
			return fmt.Errorf("%w: denominations must be strictly ascending (%d after %d)",
				model.ErrInvalidConfiguration, d, denoms[i-1])
		}
	}
	return nil
}

func assignRoles(n int) []role {
	roles := make([]role, n)
	for i := range roles {
		roles[i] = roleMiddle
	}
	roles[0] = roleSmallest
	if n >= 2 {
		roles[1] = roleSecond
	}
	top := []role{roleRank1, roleRank2, roleRank3}
	for i, j := n-1, 0; i >= 2 && j < len(top); i, j = i-1, j+1 {
		roles[i] = top[j]
	}
	return roles
}

// allocator holds the working state for one Allocate call.
type allocator struct {
	denoms []model.Denomination
	roles  []role
	limits model.Inventory
	counts []int64
	rem    int64
}

// bound applies the per-denomination limit, if any, to c.
func (a *allocator) bound(i int, c int64) int64 {
	if a.limits == nil {
		return c
	}
	if l, ok := a.limits[a.denoms[i]]; ok && l < c {
		return max(l, 0)
	}
	return c
}

// ceiling is the most chips a top-up may bring denomination i to.
func (a *allocator) ceiling(i int) int64 {
	return a.bound(i, caps[a.roles[i]]+TopUpStep)
}

// Allocate splits budget chip units across denoms (ascending). limits, when
// non-nil, caps the count of each listed denomination; typically the
// per-player share of the physical inventory. A limit is respected by every
// step except the final fallback to the smallest denomination and the
// repair for sets whose smallest chip does not divide the remainder, which
// keep the result exact and let the caller detect the shortage. A budget no
// combination of denoms can make is ErrInvalidParameters.
func Allocate(budget int64, denoms []model.Denomination, limits model.Inventory) (model.Allocation, error) {
	if err := ValidateDenominations(denoms); err != nil {
		return nil, err
	}
	if budget < 0 {
		return nil, fmt.Errorf("%w: budget must not be negative, got %d", model.ErrInvalidParameters, budget)
	}

	reach := newReachability(denoms)
	if !reach.makeable(budget) {
		return nil, fmt.Errorf("%w: budget %d cannot be made from denominations %v",
			model.ErrInvalidParameters, budget, denoms)
	}

	a := &allocator{
		denoms: denoms,
		roles:  assignRoles(len(denoms)),
		limits: limits,
		counts: make([]int64, len(denoms)),
		rem:    budget,
	}
	a.initial(budget)
	a.topUp()

	smallest := int64(denoms[0])
	a.counts[0] += a.rem / smallest
	a.rem %= smallest
	if a.rem != 0 {
		a.repair(reach)
	}

	out := make(model.Allocation, len(denoms))
	for i, d := range denoms {
		out[d] = a.counts[i]
	}
	if v := out.Value(); v != budget {
		return nil, fmt.Errorf("allocation sums to %d, want %d", v, budget)
	}
	return out, nil
}

// repair hands chips back, smallest first, until the remainder can be made
// exactly from the set, then makes it. Only needed when the smallest
// denomination does not divide the remainder.
func (a *allocator) repair(reach *reachability) {
	for i, d := range a.denoms {
		for a.counts[i] > 0 && !reach.makeable(a.rem) {
			a.counts[i]--
			a.rem += int64(d)
		}
	}
	change, ok := reach.change(a.rem)
	if !ok {
		return
	}
	for i, n := range change {
		a.counts[i] += n
	}
	a.rem = 0
}

// initial hands each denomination its fraction of the budget, largest first.
func (a *allocator) initial(budget int64) {
	fixed := 0.0
	middles := 0
	for _, r := range a.roles {
		if r == roleMiddle {
			middles++
			continue
		}
		fixed += fractions[r]
	}
	middleShare := 0.0
	if middles > 0 {
		middleShare = max(0, 1-fixed) / float64(middles)
	}

	for i := len(a.denoms) - 1; i >= 0; i-- {
		d := int64(a.denoms[i])
		r := a.roles[i]
		f := fractions[r]
		if r == roleMiddle {
			f = middleShare
		}
		c := int64(f * float64(budget) / float64(d))
		if r == roleSecond {
			c = max(c, SecondSmallestMin)
		}
		c = min(c, a.bound(i, caps[r]), a.rem/d)
		a.counts[i] = c
		a.rem -= c * d
	}
}

// topUp adds chips above the smallest in steps of TopUpStep until the
// remainder fits the smallest denomination or nothing more can move.
func (a *allocator) topUp() {
	for a.rem > 0 {
		progress := false
		for i := len(a.denoms) - 1; i >= 1; i-- {
			d := int64(a.denoms[i])
			add := min(TopUpStep, a.ceiling(i)-a.counts[i], a.rem/d)
			if add > 0 {
				a.counts[i] += add
				a.rem -= add * d
				progress = true
			}
		}
		if progress {
			continue
		}
		smallest := int64(a.denoms[0])
		if a.counts[0]+a.rem/smallest <= a.bound(0, caps[roleSmallest]) {
			return
		}
		if !a.consolidate() {
			return
		}
	}
}

// consolidate trades lower chips plus the remainder for one chip of a larger
// denomination that still has room. It reports whether a trade happened.
func (a *allocator) consolidate() bool {
	for i := len(a.denoms) - 1; i >= 1; i-- {
		d := int64(a.denoms[i])
		if a.counts[i] >= a.ceiling(i) || a.rem >= d {
			continue
		}
		need := d - a.rem
		take := make([]int64, i)
		for j := i - 1; j >= 0 && need > 0; j-- {
			dj := int64(a.denoms[j])
			t := min(a.counts[j], need/dj)
			take[j] = t
			need -= t * dj
		}
		if need != 0 {
			continue
		}
		for j, t := range take {
			a.counts[j] -= t
		}
		a.counts[i]++
		a.rem = 0
		return true
	}
	return false
}
