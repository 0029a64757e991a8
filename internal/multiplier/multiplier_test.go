package multiplier

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sasakiai/poker-chip-distribution/internal/model"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func buyIns(vals ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = d(v)
	}
	return out
}

// --- Candidate tests ---

func TestCandidates_SpanAroundAverage(t *testing.T) {
	got := Candidates(d("100"))
	require.Len(t, got, 16)
	assert.True(t, got[0].Equal(d("0.01")), "first candidate %s", got[0])
	assert.True(t, got[len(got)-1].Equal(d("1000")), "last candidate %s", got[len(got)-1])

	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].GreaterThan(got[i-1]), "candidates must ascend: %s then %s", got[i-1], got[i])
	}
}

func TestCandidates_AreRoundValues(t *testing.T) {
	for _, c := range Candidates(d("37.5")) {
		mantissa := c.Coefficient().Int64()
		for mantissa%10 == 0 && mantissa > 0 {
			mantissa /= 10
		}
		assert.Contains(t, []int64{1, 2, 5}, mantissa, "candidate %s is not round", c)
	}
}

func TestCandidates_NonPositiveAverage(t *testing.T) {
	assert.Empty(t, Candidates(decimal.Zero))
	assert.Empty(t, Candidates(d("-5")))
}

// --- Selection tests ---

func TestSelect_EqualBuyInsWithBlinds(t *testing.T) {
	p := model.GameParams{
		Players:    6,
		BuyIns:     buyIns("100", "100", "100", "100", "100", "100"),
		SmallBlind: dp("1"),
		BigBlind:   dp("2"),
	}
	m, err := Select(p, 1, DefaultWeights)
	require.NoError(t, err)
	assert.True(t, m.Equal(d("0.02")), "expected 0.02, got %s", m)
}

func TestSelect_BigBlindLandsOnRoundChipCount(t *testing.T) {
	p := model.GameParams{
		Players:    8,
		BuyIns:     buyIns("200", "200", "200", "200", "200", "200", "200", "200"),
		SmallBlind: dp("2"),
		BigBlind:   dp("5"),
	}
	m, err := Select(p, 1, DefaultWeights)
	require.NoError(t, err)

	bbChips := d("5").Div(m)
	require.True(t, bbChips.IsInteger(), "big blind in chips should be whole, got %s", bbChips)
	assert.Contains(t, RoundBlindChips, bbChips.IntPart())
}

func TestSelect_NoBlindsUsesSmallestChipBand(t *testing.T) {
	p := model.GameParams{
		Players: 4,
		BuyIns:  buyIns("50", "100", "150", "200"),
	}
	m, err := Select(p, 1, DefaultWeights)
	require.NoError(t, err)
	assert.True(t, m.Equal(d("1")), "expected 1, got %s", m)

	frac := m.Div(p.AverageBuyIn()).InexactFloat64()
	assert.GreaterOrEqual(t, frac, SmallestChipBandLow)
	assert.LessOrEqual(t, frac, SmallestChipBandHigh)
}

func TestSelect_NoBlindsLargerSmallestChip(t *testing.T) {
	// Smallest chip 25: target multiplier ≈ 1000 × 1% / 25 = 0.4.
	p := model.GameParams{Players: 2, BuyIns: buyIns("1000", "1000")}
	m, err := Select(p, 25, DefaultWeights)
	require.NoError(t, err)
	assert.True(t, m.Equal(d("0.5")), "expected 0.5, got %s", m)
}

func TestSelect_ForcedReturnedUnchanged(t *testing.T) {
	p := model.GameParams{
		Players:         2,
		BuyIns:          buyIns("10", "10"),
		ForceMultiplier: dp("0.0001"),
	}
	m, err := Select(p, 1, DefaultWeights)
	require.NoError(t, err)
	assert.True(t, m.Equal(d("0.0001")))

	// Not a round value: still accepted.
	p.ForceMultiplier = dp("0.037")
	m, err = Select(p, 1, DefaultWeights)
	require.NoError(t, err)
	assert.True(t, m.Equal(d("0.037")))
}

func TestSelect_TieBreakPrefersLargerMultiplier(t *testing.T) {
	// With only the blind-roundness criterion, every candidate that puts the
	// big blind on a round chip count ties.
	w := Weights{BlindRound: 1}
	p := model.GameParams{
		Players:    6,
		BuyIns:     buyIns("100", "100", "100", "100", "100", "100"),
		SmallBlind: dp("1"),
		BigBlind:   dp("2"),
	}
	m, err := Select(p, 1, w)
	require.NoError(t, err)
	// 2 / 0.4 = 5 chips would be round but 0.4 is not a candidate; 0.2 → 10.
	assert.True(t, m.Equal(d("0.2")), "expected 0.2, got %s", m)
}

func TestSelect_InvalidParameters(t *testing.T) {
	tests := []struct {
		name string
		p    model.GameParams
	}{
		{"no buy-ins", model.GameParams{Players: 1}},
		{"zero buy-in", model.GameParams{Players: 2, BuyIns: buyIns("10", "0")}},
		{"negative buy-in", model.GameParams{Players: 1, BuyIns: buyIns("-10")}},
		{"big below small", model.GameParams{Players: 1, BuyIns: buyIns("10"), SmallBlind: dp("2"), BigBlind: dp("1")}},
		{"big equals small", model.GameParams{Players: 1, BuyIns: buyIns("10"), SmallBlind: dp("1"), BigBlind: dp("1")}},
		{"zero small blind", model.GameParams{Players: 1, BuyIns: buyIns("10"), SmallBlind: dp("0")}},
		{"negative forced", model.GameParams{Players: 1, BuyIns: buyIns("10"), ForceMultiplier: dp("-1")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Select(tt.p, 1, DefaultWeights)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrInvalidParameters), "got %v", err)
		})
	}
}

func TestSelect_InvalidSmallestDenomination(t *testing.T) {
	_, err := Select(model.GameParams{Players: 1, BuyIns: buyIns("10")}, 0, DefaultWeights)
	assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
}

// --- Score tests ---

func TestScore_RoundBlindDominates(t *testing.T) {
	avg, bb := d("100"), d("2")
	round := Score(d("0.02"), avg, bb, 1, DefaultWeights)  // 100 chips
	notRound := Score(d("0.05"), avg, bb, 1, DefaultWeights) // 40 chips
	assert.Less(t, round, notRound)
	assert.GreaterOrEqual(t, notRound-round, DefaultWeights.BlindRound-DefaultWeights.StackDepth)
}

func TestScore_UnusableSmallestChipPenalized(t *testing.T) {
	w := Weights{ChipUsability: 1}
	// Smallest chip worth 1 against a big blind of 2: ratio 0.5 > 0.25.
	unusable := Score(d("1"), d("100"), d("2"), 1, w)
	usable := Score(d("0.02"), d("100"), d("2"), 1, w)
	assert.InDelta(t, 0, usable, 1e-9)
	assert.Greater(t, unusable, 2.0)
}

func TestScore_StackDepthInsideBand(t *testing.T) {
	w := Weights{StackDepth: 1}
	// avg 300, bb 2 → 150 big blinds regardless of multiplier.
	assert.InDelta(t, 0, Score(d("0.02"), d("300"), d("2"), 1, w), 1e-9)
	// avg 100 → 50 big blinds, two half-widths from the center.
	assert.InDelta(t, 2, Score(d("0.02"), d("100"), d("2"), 1, w), 1e-9)
}
