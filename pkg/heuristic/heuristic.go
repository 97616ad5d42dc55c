package heuristic

import (
	"fmt"
	"strings"

	"github.com/menta2k/alt-text-service/pkg/types"
)

// FallbackCaption is the minimal caption used when no other material exists.
const FallbackCaption = "product photo"

// Caption builds a deterministic caption from image metrics and product
// metadata. It performs no I/O: identical inputs yield byte-identical output.
// A nil metrics value means the image could not be fetched; that path never
// consults dimensions.
func Caption(metrics *types.ImageMetrics, title, vendor string) string {
	if metrics == nil {
		return minimalCaption(title)
	}

	var parts []string
	if t := cleanTitle(title, vendor); t != "" {
		parts = append(parts, t)
	}
	parts = append(parts, fmt.Sprintf("%s, %s %dx%dpx",
		FallbackCaption, metrics.Shape(), metrics.Width, metrics.Height))

	return types.TruncateAltText(strings.TrimSpace(strings.Join(parts, ", ")))
}

// minimalCaption is the no-metrics fallback: [trimmed title?, "product photo"].
func minimalCaption(title string) string {
	var parts []string
	if t := strings.TrimSpace(title); t != "" {
		parts = append(parts, t)
	}
	parts = append(parts, FallbackCaption)
	return types.TruncateAltText(strings.Join(parts, ", "))
}

// cleanTitle removes whole-token, case-insensitive occurrences of the vendor
// from the title and collapses the remaining whitespace. Partial-word matches
// are left alone: vendor "ACME" does not touch the token "ACMEs".
func cleanTitle(title, vendor string) string {
	tokens := strings.Fields(title)
	vendorTokens := strings.Fields(vendor)
	if len(vendorTokens) == 0 {
		return strings.Join(tokens, " ")
	}

	var kept []string
	for i := 0; i < len(tokens); {
		if vendorAt(tokens, vendorTokens, i) {
			i += len(vendorTokens)
			continue
		}
		kept = append(kept, tokens[i])
		i++
	}
	return strings.Join(kept, " ")
}

// vendorAt reports whether the vendor token sequence occurs in tokens at
// position i.
func vendorAt(tokens, vendor []string, i int) bool {
	if i+len(vendor) > len(tokens) {
		return false
	}
	for j, v := range vendor {
		if !strings.EqualFold(tokens[i+j], v) {
			return false
		}
	}
	return true
}
