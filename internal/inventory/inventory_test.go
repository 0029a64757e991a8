package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sasakiai/poker-chip-distribution/internal/model"
)

var caseInventory = model.Inventory{1: 150, 5: 150, 25: 100, 100: 50, 500: 25, 1000: 25}

func TestCheck_WithinSupply(t *testing.T) {
	ok, shortage := Check(model.Allocation{1: 150, 5: 10}, caseInventory)
	assert.True(t, ok)
	assert.Nil(t, shortage)
}

func TestCheck_ShortageOnlyForDeficits(t *testing.T) {
	demand := model.Allocation{1: 160, 5: 150, 100: 66, 500: 0}
	ok, shortage := Check(demand, caseInventory)
	require.False(t, ok)
	assert.Equal(t, model.Shortage{1: 10, 100: 16}, shortage)
}

func TestCheck_UnknownDenominationHasNoSupply(t *testing.T) {
	ok, shortage := Check(model.Allocation{2: 3}, caseInventory)
	assert.False(t, ok)
	assert.Equal(t, model.Shortage{2: 3}, shortage)
}

func TestCheck_EmptyDemand(t *testing.T) {
	ok, shortage := Check(nil, caseInventory)
	assert.True(t, ok)
	assert.Nil(t, shortage)

	ok, _ = Check(model.Allocation{}, nil)
	assert.True(t, ok)
}

func TestCheck_Monotonic(t *testing.T) {
	// Lowering demand never turns feasible into infeasible.
	demand := model.Allocation{1: 150, 5: 150, 25: 100, 100: 50, 500: 25, 1000: 25}
	ok, _ := Check(demand, caseInventory)
	require.True(t, ok)

	for d := range demand {
		lower := model.Allocation{}
		for k, v := range demand {
			lower[k] = v
		}
		lower[d]--
		ok, _ := Check(lower, caseInventory)
		assert.True(t, ok, "lowering %d broke feasibility", d)
	}
}

func TestCheck_DoesNotMutate(t *testing.T) {
	inv := caseInventory.Clone()
	Check(model.Allocation{1: 999}, inv)
	assert.Equal(t, caseInventory, inv)
}

func TestTotals(t *testing.T) {
	got := Totals([]model.Allocation{
		{1: 5, 5: 14, 25: 1},
		{1: 5, 5: 14, 25: 3},
		{1: 0, 5: 10},
	})
	assert.Equal(t, model.Allocation{1: 10, 5: 38, 25: 4}, got)
}

func TestScale(t *testing.T) {
	assert.Equal(t, model.Allocation{1: 60, 5: 108}, Scale(model.Allocation{1: 10, 5: 18}, 6))
}

func TestPlayerShare(t *testing.T) {
	got := PlayerShare(caseInventory, 6)
	assert.Equal(t, model.Inventory{1: 25, 5: 25, 25: 16, 100: 8, 500: 4, 1000: 4}, got)
	assert.Nil(t, PlayerShare(caseInventory, 0))
}

func TestTotalValue(t *testing.T) {
	// 150 + 750 + 2500 + 5000 + 12500 + 25000
	assert.Equal(t, int64(45900), TotalValue(caseInventory))
	assert.Equal(t, int64(0), TotalValue(nil))
}

func TestValidate(t *testing.T) {
	denoms := caseInventory.Denominations()

	assert.NoError(t, Validate(model.Inventory{1: 0, 1000: 3}, denoms))
	assert.ErrorIs(t, Validate(model.Inventory{2: 3}, denoms), model.ErrInvalidParameters)
	assert.ErrorIs(t, Validate(model.Inventory{5: -1}, denoms), model.ErrInvalidParameters)
}
