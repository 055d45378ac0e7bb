package util

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Sanitize strips control characters from scraped text, normalizes it under
// NFKD and trims surrounding whitespace. Safe to apply more than once.
func Sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if (r >= 0x00 && r < 0x20) || (r >= 0x7f && r < 0xa0) {
			return -1
		}
		return r
	}, s)

	return strings.TrimSpace(norm.NFKD.String(s))
}
