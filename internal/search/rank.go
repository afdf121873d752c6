// Package search provides the ranking and matching primitives used by the
// registry and catalog queries.
//
//   - Rank orders results by a live credit score, highest first. The sort is
//     stable: equal scores keep their input order and there is no secondary
//     key.
//   - Normalize brings names, keywords, and categories into Unicode NFC so
//     that byte-wise containment behaves the same for composed and
//     decomposed input.
//
// The package holds no state and does no I/O; callers decide where the
// candidates and the scores come from.
package search

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CreditFunc returns the current credit score that ranks an item.
type CreditFunc[T any] func(T) int

// Rank returns a new slice with items ordered by descending credit.
// The input slice is not modified.
func Rank[T any](items []T, credit CreditFunc[T]) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		// descending: higher credit first
		return credit(b) - credit(a)
	})
	return out
}

// Normalize returns s in Unicode NFC. It does not trim or fold case:
// matching stays case-sensitive.
func Normalize(s string) string {
	return norm.NFC.String(s)
}

// CleanName trims surrounding whitespace and normalizes a display name,
// qualification, or category before it is stored.
func CleanName(s string) string {
	return Normalize(strings.TrimSpace(s))
}
