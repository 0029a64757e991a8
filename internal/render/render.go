// Package render formats distribution results as terminal tables for the
// chipdist CLI.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/Sasakiai/poker-chip-distribution/internal/chipspec"
	"github.com/Sasakiai/poker-chip-distribution/internal/distribution"
	"github.com/Sasakiai/poker-chip-distribution/internal/inventory"
	"github.com/Sasakiai/poker-chip-distribution/internal/model"
)

// Result renders one distribution: a summary box, one table row per player
// and a totals row.
func Result(r *model.Result, denoms []model.Denomination) (string, error) {
	var b strings.Builder
	b.WriteString(summary(r))
	b.WriteString("\n")

	table, err := allocationTable(r, denoms)
	if err != nil {
		return "", err
	}
	b.WriteString(table)
	return b.String(), nil
}

// Custom renders a custom chip set with its value check.
func Custom(r *model.CustomResult, denoms []model.Denomination) (string, error) {
	out, err := Result(&r.Result, denoms)
	if err != nil {
		return "", err
	}
	vc := r.ValueCheck
	check := pterm.Sprintfln("Value per player: %s (expected %s, difference %s)",
		vc.ActualValuePerPlayer, vc.ExpectedValuePerPlayer, vc.ValueDifference)
	if vc.ValueDifference.IsZero() {
		check = pterm.Green(check)
	} else {
		check = pterm.Yellow(check)
	}
	return out + "\n" + check, nil
}

// Alternatives renders ranked alternatives, one row per multiplier.
func Alternatives(results []model.Result) (string, error) {
	if len(results) == 0 {
		return pterm.Sprintln("No alternative multipliers."), nil
	}
	data := pterm.TableData{{"#", "Multiplier", "Chip value", "Chips/player", "Total chips", "BB/player", "Player 1", "Feasible"}}
	for i, r := range results {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			r.Multiplier.String(),
			r.ChipValueInfo,
			budgets(r.Info.ChipsPerPlayer),
			strconv.FormatInt(r.Info.TotalChips, 10),
			depth(r.Info.StackDepthBB),
			firstPlayer(r),
			feasible(r),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

// Inventory renders the chip inventory with its total nominal value.
func Inventory(inv model.Inventory) (string, error) {
	data := pterm.TableData{{"Nominal", "Chips", "Value"}}
	for _, d := range inv.Denominations() {
		data = append(data, []string{
			strconv.FormatInt(int64(d), 10),
			strconv.FormatInt(inv[d], 10),
			strconv.FormatInt(int64(d)*inv[d], 10),
		})
	}
	data = append(data, []string{"Total", "", strconv.FormatInt(inventory.TotalValue(inv), 10)})
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

func summary(r *model.Result) string {
	lines := []string{
		fmt.Sprintf("Multiplier:  %s", r.Multiplier),
		fmt.Sprintf("Chip value:  %s", r.ChipValueInfo),
		fmt.Sprintf("Buy-in:      %s total, %d players", r.Info.TotalBuyIn, r.Info.NumPlayers),
	}
	if r.Info.SmallBlindChips != nil && r.Info.BigBlindChips != nil {
		lines = append(lines, fmt.Sprintf("Blinds:      %d/%d chips, %s BB per player",
			*r.Info.SmallBlindChips, *r.Info.BigBlindChips, depth(r.Info.StackDepthBB)))
	}
	lines = append(lines, fmt.Sprintf("Total chips: %d", r.Info.TotalChips))
	if r.Feasible {
		lines = append(lines, pterm.Green("Inventory:   sufficient"))
	} else {
		lines = append(lines, pterm.Red("Inventory:   short "+distribution.FormatShortage(r.Shortage)))
	}
	return pterm.DefaultBox.WithTitle("Distribution").Sprint(strings.Join(lines, "\n"))
}

func allocationTable(r *model.Result, denoms []model.Denomination) (string, error) {
	header := []string{"Player"}
	for _, d := range denoms {
		header = append(header, strconv.FormatInt(int64(d), 10))
	}
	header = append(header, "Chips", "Value")
	data := pterm.TableData{header}

	for i, a := range r.Allocations {
		data = append(data, allocationRow(fmt.Sprintf("%d", i+1), a, denoms))
	}
	data = append(data, allocationRow("Total", r.TotalChipsUsed, denoms))
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

func allocationRow(label string, a model.Allocation, denoms []model.Denomination) []string {
	row := []string{label}
	for _, d := range denoms {
		row = append(row, strconv.FormatInt(a[d], 10))
	}
	return append(row, strconv.FormatInt(a.Chips(), 10), strconv.FormatInt(a.Value(), 10))
}

// Compact renders an allocation on one line in chipspec form.
func Compact(a model.Allocation) string {
	if s := chipspec.Format(a); s != "" {
		return s
	}
	return "-"
}

func firstPlayer(r model.Result) string {
	if len(r.Allocations) == 0 {
		return "-"
	}
	return Compact(r.Allocations[0])
}

func budgets(b []int64) string {
	if len(b) == 0 {
		return "-"
	}
	lo, hi := b[0], b[0]
	for _, v := range b[1:] {
		lo, hi = min(lo, v), max(hi, v)
	}
	if lo == hi {
		return strconv.FormatInt(lo, 10)
	}
	return fmt.Sprintf("%d-%d", lo, hi)
}

func depth(d *float64) string {
	if d == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*d, 'f', -1, 64)
}

func feasible(r model.Result) string {
	if r.Feasible {
		return pterm.Green("yes")
	}
	return pterm.Red("no")
}
