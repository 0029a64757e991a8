// Package chipspec reads and writes the compact chip-count notation used on
// the command line: "10x1,18x5,12x25" means ten 1s, eighteen 5s and twelve
// 25s.
package chipspec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Sasakiai/poker-chip-distribution/internal/model"
)

// itemRegex matches one {count}x{denomination} entry, e.g. 18x5.
var itemRegex = regexp.MustCompile(`^(\d+)\s*[xX]\s*(\d+)$`)

// ErrInvalidSpec wraps model.ErrInvalidParameters so callers can treat a bad
// spec like any other bad input.
var ErrInvalidSpec = fmt.Errorf("%w: chipspec", model.ErrInvalidParameters)

// Parse reads a comma-separated chip spec. Repeated denominations add up.
// An empty spec yields an empty map.
func Parse(spec string) (map[model.Denomination]int64, error) {
	out := make(map[model.Denomination]int64)
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return out, nil
	}

	for _, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		matches := itemRegex.FindStringSubmatch(item)
		if matches == nil {
			return nil, fmt.Errorf("%w: %q (expected {count}x{denomination}, e.g. 18x5)", ErrInvalidSpec, item)
		}
		count, err := strconv.ParseInt(matches[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: count %s is out of range", ErrInvalidSpec, matches[1])
		}
		denom, err := strconv.ParseInt(matches[2], 10, 64)
		if err != nil || denom == 0 {
			return nil, fmt.Errorf("%w: denomination %s must be a positive integer", ErrInvalidSpec, matches[2])
		}
		out[model.Denomination(denom)] += count
	}
	return out, nil
}

// ParseAllocation reads a spec as one player's chips.
func ParseAllocation(spec string) (model.Allocation, error) {
	m, err := Parse(spec)
	return model.Allocation(m), err
}

// ParseInventory reads a spec as an inventory.
func ParseInventory(spec string) (model.Inventory, error) {
	m, err := Parse(spec)
	return model.Inventory(m), err
}

// Format writes counts in ascending denomination order, skipping zeros.
func Format[M ~map[model.Denomination]int64](m M) string {
	parts := make([]string, 0, len(m))
	for _, d := range model.SortedKeys(m) {
		if m[d] == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%dx%d", m[d], d))
	}
	return strings.Join(parts, ",")
}
