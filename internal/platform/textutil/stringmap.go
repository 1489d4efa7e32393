// Package textutil holds small string helpers shared by the query and write paths.
package textutil

import (
	"sort"
	"strings"
)

// CollapseSpace trims s and folds every run of whitespace into a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeStringMap trims keys, collapses whitespace in values and drops entries whose key or
// value ends up empty. Keys that collide after trimming resolve to the lexically last raw key.
func NormalizeStringMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	raw := make([]string, 0, len(values))
	for key := range values {
		raw = append(raw, key)
	}
	sort.Strings(raw)

	result := make(map[string]string, len(values))
	for _, key := range raw {
		trimmedKey := strings.TrimSpace(key)
		value := CollapseSpace(values[key])
		if trimmedKey == "" || value == "" {
			continue
		}
		result[trimmedKey] = value
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
