package observability

import (
	"strings"
	"unicode"
)

// Log field limits, in runes.
const (
	maxRouteLen   = 180
	maxMethodLen  = 10
	maxCatalogLen = 40
	maxAddrLen    = 64
	defaultMaxLen = 256
)

// sanitizeString strips control characters from client supplied values and caps their length.
func sanitizeString(value string, limit int) string {
	if limit <= 0 {
		limit = defaultMaxLen
	}
	var b strings.Builder
	n := 0
	for _, r := range value {
		if unicode.IsControl(r) {
			continue
		}
		if n == limit {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
