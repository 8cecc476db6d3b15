package common

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Fold normalizes text for comparison: NFKC form, lowercased, trimmed.
// Matches the normalization applied to multilingual catalog labels upstream.
func Fold(text string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(text)))
}
