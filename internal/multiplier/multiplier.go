// Package multiplier picks the money-per-chip multiplier for a game.
//
// A multiplier m means one chip of nominal 1 is worth m units of currency.
// Only "round" multipliers are considered: {1, 2, 5} × 10^k. With blinds the
// selector scores each candidate on three criteria:
//   - the big blind lands on a round chip count (5, 10, 20, 25, 50, ...)
//   - the average stack sits inside the 100–200 big blind band
//   - the smallest chip is small enough to post blinds and make change
//
// Without blinds it aims for a smallest chip worth about 1% of the average
// buy-in. Money stays in shopspring/decimal; scoring uses float64 internally
// and never feeds back into money values.
package multiplier

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/Sasakiai/poker-chip-distribution/internal/model"
)

var (
	// RoundBlindChips are the big blind sizes, in chips, that count as round.
	RoundBlindChips = []int64{5, 10, 20, 25, 50, 100, 200, 500}

	// StackDepthMin and StackDepthMax bound the preferred starting stack in
	// big blinds.
	StackDepthMin = 100.0
	StackDepthMax = 200.0

	// TargetChipToBlind is the preferred value of the smallest chip as a
	// fraction of the big blind (a 100-chip big blind).
	TargetChipToBlind = 0.01

	// MaxChipToBlind is the largest usable smallest-chip / big-blind ratio.
	MaxChipToBlind = 0.25

	// SmallestChipBandLow, SmallestChipBandHigh and SmallestChipTarget define
	// the no-blind rule: smallest chip value as a fraction of the average
	// buy-in.
	SmallestChipBandLow  = 0.005
	SmallestChipBandHigh = 0.02
	SmallestChipTarget   = 0.01

	// CandidateSpanLow and CandidateSpanHigh set the candidate range
	// [avg / CandidateSpanLow, avg × CandidateSpanHigh].
	CandidateSpanLow  = decimal.NewFromInt(10000)
	CandidateSpanHigh = decimal.NewFromInt(10)
)

var mantissas = []int64{1, 2, 5}

const epsilon = 1e-9

// Weights combines the blind scoring criteria. Higher weight, more influence.
type Weights struct {
	BlindRound    float64 `json:"blind_round" mapstructure:"blind_round"`
	StackDepth    float64 `json:"stack_depth" mapstructure:"stack_depth"`
	ChipUsability float64 `json:"chip_usability" mapstructure:"chip_usability"`
}

// DefaultWeights ranks blind roundness over stack depth over chip usability.
var DefaultWeights = Weights{
	BlindRound:    100,
	StackDepth:    10,
	ChipUsability: 1,
}

// Candidates returns the round multipliers between avgBuyIn/10000 and
// avgBuyIn×10 in ascending order.
func Candidates(avgBuyIn decimal.Decimal) []decimal.Decimal {
	if !avgBuyIn.IsPositive() {
		return nil
	}
	lo := avgBuyIn.Div(CandidateSpanLow)
	hi := avgBuyIn.Mul(CandidateSpanHigh)

	// Start one decade low so float rounding in Log10 cannot skip lo.
	exp := int32(math.Floor(math.Log10(lo.InexactFloat64()))) - 1

	var out []decimal.Decimal
	for {
		for _, m := range mantissas {
			c := decimal.New(m, exp)
			if c.GreaterThan(hi) {
				return out
			}
			if c.GreaterThanOrEqual(lo) {
				out = append(out, c)
			}
		}
		exp++
	}
}

// Validate checks buy-ins and blinds. It does not check the player count.
func Validate(p model.GameParams) error {
	if len(p.BuyIns) == 0 {
		return fmt.Errorf("%w: at least one buy-in is required", model.ErrInvalidParameters)
	}
	for i, b := range p.BuyIns {
		if !b.IsPositive() {
			return fmt.Errorf("%w: buy-in #%d must be positive, got %s", model.ErrInvalidParameters, i+1, b)
		}
	}
	if p.SmallBlind != nil && !p.SmallBlind.IsPositive() {
		return fmt.Errorf("%w: small blind must be positive", model.ErrInvalidParameters)
	}
	if p.BigBlind != nil && !p.BigBlind.IsPositive() {
		return fmt.Errorf("%w: big blind must be positive", model.ErrInvalidParameters)
	}
	if p.HasBlinds() && p.BigBlind.LessThanOrEqual(*p.SmallBlind) {
		return fmt.Errorf("%w: big blind must be greater than small blind", model.ErrInvalidParameters)
	}
	if p.ForceMultiplier != nil && !p.ForceMultiplier.IsPositive() {
		return fmt.Errorf("%w: forced multiplier must be positive", model.ErrInvalidParameters)
	}
	return nil
}

// Select returns the multiplier for the game. A forced multiplier is returned
// unchanged.
func Select(p model.GameParams, smallest model.Denomination, w Weights) (decimal.Decimal, error) {
	if err := Validate(p); err != nil {
		return decimal.Zero, err
	}
	if smallest <= 0 {
		return decimal.Zero, fmt.Errorf("%w: smallest denomination must be positive", model.ErrInvalidConfiguration)
	}
	if p.ForceMultiplier != nil {
		return *p.ForceMultiplier, nil
	}

	avg := p.AverageBuyIn()
	candidates := Candidates(avg)
	if p.HasBlinds() {
		return bestForBlinds(candidates, avg, *p.BigBlind, smallest, w), nil
	}
	return bestForStack(candidates, avg, smallest), nil
}

// Score computes the blind penalty of multiplier m. Lower is better.
//
//	score = BlindRound × roundMiss + StackDepth × depthPenalty + ChipUsability × chipPenalty
//
// roundMiss is 0 when bigBlind/m is a round chip count and 1 otherwise.
// depthPenalty is |depth − 150| / 50, so it stays ≤ 1 inside the band.
// chipPenalty is the log10 distance of the smallest chip from 1% of the big
// blind, plus 1 when the smallest chip exceeds a quarter of the big blind.
func Score(m, avgBuyIn, bigBlind decimal.Decimal, smallest model.Denomination, w Weights) float64 {
	bbChips := bigBlind.Div(m)

	roundMiss := 1.0
	if bbChips.IsInteger() && isRoundBlind(bbChips.IntPart()) {
		roundMiss = 0
	}

	center := (StackDepthMin + StackDepthMax) / 2
	halfWidth := (StackDepthMax - StackDepthMin) / 2
	depth := avgBuyIn.Div(m).InexactFloat64() / bbChips.InexactFloat64()
	depthPenalty := math.Abs(depth-center) / halfWidth

	ratio := decimal.NewFromInt(int64(smallest)).Mul(m).Div(bigBlind).InexactFloat64()
	chipPenalty := math.Abs(math.Log10(ratio / TargetChipToBlind))
	if ratio > MaxChipToBlind {
		chipPenalty++
	}

	return w.BlindRound*roundMiss + w.StackDepth*depthPenalty + w.ChipUsability*chipPenalty
}

func bestForBlinds(candidates []decimal.Decimal, avg, bigBlind decimal.Decimal, smallest model.Denomination, w Weights) decimal.Decimal {
	best := candidates[0]
	bestScore := math.Inf(1)
	// Ascending order: an equal score later means a larger multiplier wins.
	for _, c := range candidates {
		s := Score(c, avg, bigBlind, smallest, w)
		if s <= bestScore+epsilon {
			best = c
			bestScore = math.Min(bestScore, s)
		}
	}
	return best
}

func bestForStack(candidates []decimal.Decimal, avg decimal.Decimal, smallest model.Denomination) decimal.Decimal {
	lo := math.Log10(SmallestChipBandLow)
	hi := math.Log10(SmallestChipBandHigh)
	mid := math.Log10(SmallestChipTarget)

	best := candidates[0]
	bestIn := false
	bestDist := math.Inf(1)
	for _, c := range candidates {
		frac := math.Log10(decimal.NewFromInt(int64(smallest)).Mul(c).Div(avg).InexactFloat64())

		in := frac >= lo-epsilon && frac <= hi+epsilon
		var dist float64
		switch {
		case in:
			dist = math.Abs(frac - mid)
		case frac < lo:
			dist = lo - frac
		default:
			dist = frac - hi
		}

		switch {
		case in && !bestIn:
			best, bestIn, bestDist = c, true, dist
		case in == bestIn && dist <= bestDist+epsilon:
			best = c
			bestDist = math.Min(bestDist, dist)
		}
	}
	return best
}

func isRoundBlind(chips int64) bool {
	for _, r := range RoundBlindChips {
		if chips == r {
			return true
		}
	}
	return false
}
