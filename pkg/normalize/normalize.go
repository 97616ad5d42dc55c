// Package normalize cleans up captions produced by model-backed captioners:
// generic boilerplate openers are stripped and the result is bounded to the
// shared alt-text length ceiling.
package normalize

import (
	"strings"

	"github.com/menta2k/alt-text-service/pkg/types"
)

// boilerplatePrefixes are generic caption openers that vision models tend to
// emit. Checked in order, most specific first, so a generic prefix does not
// partially match a more specific one. At most one prefix is stripped.
var boilerplatePrefixes = []string{
	"a studio product photo of ",
	"a studio product shot of ",
	"a product photo of ",
	"a product image of ",
	"an image of ",
	"a picture of ",
	"a photo of ",
}

// Caption strips at most one leading boilerplate prefix (case-insensitive),
// trims surrounding whitespace and truncates to the alt-text ceiling without
// adding an ellipsis.
func Caption(raw string) string {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	for _, prefix := range boilerplatePrefixes {
		if strings.HasPrefix(lower, prefix) {
			// Prefixes are ASCII, so byte offsets line up with the
			// lowercased copy.
			s = s[len(prefix):]
			break
		}
	}
	return types.TruncateAltText(strings.TrimSpace(s))
}
