// Package snapshot collapses raw standings rows into one current score per team.
package snapshot

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseScore parses a locale formatted points value where '.' groups
// thousands and ',' separates decimals, e.g. "1.234,56" -> 1234.56.
// Ordinary and non-breaking spaces are ignored.
func ParseScore(text string) (float64, error) {
	s := strings.Join(strings.Fields(text), "")
	if s == "" {
		return 0, ErrEmptyScore
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrInvalidScore, text, err)
	}
	return d.InexactFloat64(), nil
}
