package visitor

import "strings"

const (
	geoKeyPrefix     = "geoinfo"
	weatherKeyPrefix = "weather"
)

// buildKey derives a deterministic cache key from a prefix, a network
// address and optional extra discriminators. Equal normalized inputs always
// produce equal keys, which is what cache hit/miss correctness rests on.
func buildKey(prefix, address string, extra ...string) string {
	parts := make([]string, 0, 2+len(extra))
	parts = append(parts, prefix, addressToken(address))
	for _, e := range extra {
		parts = append(parts, normalizeToken(e))
	}
	return strings.Join(parts, "_")
}

// addressToken strips every non-alphanumeric rune so dotted IPv4 and
// colon-separated IPv6 forms both collapse to a single key-safe token.
func addressToken(address string) string {
	var b strings.Builder
	b.Grow(len(address))
	for _, r := range address {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeToken lower-cases, trims and joins whitespace-separated words
// with underscores, e.g. "  New York " -> "new_york".
func normalizeToken(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), "_")
}
