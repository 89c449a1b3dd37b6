// Package teamkey canonicalizes team display names into matching keys.
package teamkey

import "strings"

// Normalize collapses whitespace runs to a single space, trims the ends and
// lower-cases the result. Two names differing only in case or spacing
// normalize to the same key, and Normalize(Normalize(x)) == Normalize(x).
func Normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

