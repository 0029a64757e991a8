package distribution

import (
	"fmt"
	"strings"

	"github.com/Sasakiai/poker-chip-distribution/internal/model"
)

// Recommend summarises what the caller should do with an optimal result and
// its alternatives. alternatives is expected in ranked order with the
// optimal multiplier already removed.
func Recommend(optimal *model.Result, alternatives []model.Result) string {
	if optimal.Feasible {
		msg := fmt.Sprintf("✓ Optimal distribution is feasible with current inventory. Use multiplier %s.", optimal.Multiplier)
		if len(alternatives) > 0 {
			msg += " Check alternatives below for other options."
		}
		return msg
	}

	if len(alternatives) == 0 {
		return fmt.Sprintf("⚠ Optimal distribution has shortages: %s. Enable 'include_alternatives' to see other options.",
			FormatShortage(optimal.Shortage))
	}

	for _, alt := range alternatives {
		if !alt.Feasible {
			continue
		}
		depth := "N/A"
		if alt.Info.StackDepthBB != nil {
			depth = fmt.Sprintf("%g", *alt.Info.StackDepthBB)
		}
		return fmt.Sprintf("⚠ Optimal distribution has shortages. Recommended alternative: Use multiplier %s (Stack depth: %s BB)",
			alt.Multiplier, depth)
	}

	return fmt.Sprintf("✗ No feasible distribution found. Shortages: %s. Try: reduce players, lower buy-ins, or adjust blinds.",
		FormatShortage(optimal.Shortage))
}

// FormatShortage renders a shortage as "16 x nominal 100, 4 x nominal 500"
// in ascending denomination order.
func FormatShortage(s model.Shortage) string {
	parts := make([]string, 0, len(s))
	for _, d := range model.SortedKeys(s) {
		parts = append(parts, fmt.Sprintf("%d x nominal %d", s[d], d))
	}
	return strings.Join(parts, ", ")
}
