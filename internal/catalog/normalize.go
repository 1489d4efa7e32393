// Package catalog holds the static knowledge used to match free-form category
// text against the partitioned product catalogs: label normalization, the
// parent/alias taxonomy, the catalog registry and composable match predicates.
package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize lowercases raw, turns hyphens into spaces and trims the result.
// Normalize(Normalize(x)) == Normalize(x) for every x.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	// cases.Caser is stateful and not safe for concurrent use.
	lowered := cases.Lower(language.Und).String(raw)
	return strings.TrimSpace(strings.ReplaceAll(lowered, "-", " "))
}

// foldKey produces the lookup key for case-insensitive exact matching of display labels.
func foldKey(label string) string {
	return cases.Fold().String(strings.TrimSpace(label))
}

func containsFolded(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(Normalize(haystack), needle)
}
