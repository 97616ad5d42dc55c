package heuristic

import (
	"strings"
	"testing"

	"github.com/menta2k/alt-text-service/pkg/types"
)

func TestCaptionShapes(t *testing.T) {
	tests := []struct {
		name    string
		metrics types.ImageMetrics
		want    string
	}{
		{"square", types.ImageMetrics{Width: 100, Height: 100}, "product photo, square 100x100px"},
		{"landscape", types.ImageMetrics{Width: 200, Height: 100}, "product photo, landscape 200x100px"},
		{"portrait", types.ImageMetrics{Width: 100, Height: 200}, "product photo, portrait 100x200px"},
		{"near square", types.ImageMetrics{Width: 110, Height: 100}, "product photo, square 110x100px"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Caption(&tt.metrics, "", ""); got != tt.want {
				t.Errorf("Caption() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCaptionVendorDeduplication(t *testing.T) {
	metrics := types.ImageMetrics{Width: 100, Height: 100}

	got := Caption(&metrics, "ACME Widget", "ACME")
	if got != "Widget, product photo, square 100x100px" {
		t.Errorf("unexpected caption: %q", got)
	}

	// Case-insensitive whole-token removal
	got = Caption(&metrics, "Acme Widget by ACME", "acme")
	if strings.Contains(strings.ToLower(got), "acme") {
		t.Errorf("vendor token should be removed, got %q", got)
	}
	if !strings.Contains(got, "Widget") {
		t.Errorf("non-vendor tokens should survive, got %q", got)
	}

	// Partial-word matches stay untouched
	got = Caption(&metrics, "ACMEs Widget", "ACME")
	if !strings.Contains(got, "ACMEs") {
		t.Errorf("partial-word match should not be removed, got %q", got)
	}

	// Multi-word vendor removed as a sequence
	got = Caption(&metrics, "ACME Corp Widget", "ACME Corp")
	if got != "Widget, product photo, square 100x100px" {
		t.Errorf("unexpected caption for multi-word vendor: %q", got)
	}

	// Vendor absent from the title is a no-op
	got = Caption(&metrics, "Widget Deluxe", "ACME")
	if !strings.HasPrefix(got, "Widget Deluxe, ") {
		t.Errorf("title should be unchanged, got %q", got)
	}
}

func TestCaptionWithoutMetrics(t *testing.T) {
	if got := Caption(nil, "", ""); got != FallbackCaption {
		t.Errorf("expected bare fallback, got %q", got)
	}

	if got := Caption(nil, "  ACME Widget  ", ""); got != "ACME Widget, product photo" {
		t.Errorf("unexpected fallback caption: %q", got)
	}

	// The no-metrics path never mentions dimensions
	if got := Caption(nil, "Widget", "ACME"); strings.Contains(got, "px") {
		t.Errorf("no-metrics caption must not contain dimensions, got %q", got)
	}
}

func TestCaptionDeterministic(t *testing.T) {
	metrics := types.ImageMetrics{Width: 640, Height: 480}
	first := Caption(&metrics, "ACME Widget Deluxe", "ACME")
	for i := 0; i < 10; i++ {
		if got := Caption(&metrics, "ACME Widget Deluxe", "ACME"); got != first {
			t.Fatalf("call %d produced %q, first call produced %q", i, got, first)
		}
	}
}

func TestCaptionTruncation(t *testing.T) {
	metrics := types.ImageMetrics{Width: 800, Height: 600}
	longTitle := strings.Repeat("very long product name ", 20)

	got := Caption(&metrics, longTitle, "")
	if n := len([]rune(got)); n != types.MaxAltTextLen {
		t.Errorf("expected exactly %d characters, got %d", types.MaxAltTextLen, n)
	}

	got = Caption(nil, longTitle, "")
	if n := len([]rune(got)); n != types.MaxAltTextLen {
		t.Errorf("fallback path: expected exactly %d characters, got %d", types.MaxAltTextLen, n)
	}

	// A title whose word boundary lands exactly on the cut must not leave a
	// trailing space, on either path.
	boundaryTitle := strings.Repeat("long ", 100)
	for _, got := range []string{Caption(&metrics, boundaryTitle, ""), Caption(nil, boundaryTitle, "")} {
		if got != strings.TrimSpace(got) {
			t.Errorf("truncated caption has surrounding whitespace: %q", got)
		}
	}
}

func TestCaptionNeverEmpty(t *testing.T) {
	inputs := []struct {
		metrics *types.ImageMetrics
		title   string
		vendor  string
	}{
		{nil, "", ""},
		{nil, "   ", ""},
		{nil, "ACME", "ACME"},
		{&types.ImageMetrics{Width: 1, Height: 1}, "", ""},
		{&types.ImageMetrics{Width: 50, Height: 90}, "ACME", "ACME"},
	}

	for _, in := range inputs {
		got := Caption(in.metrics, in.title, in.vendor)
		if got == "" {
			t.Errorf("Caption(%v, %q, %q) returned empty string", in.metrics, in.title, in.vendor)
		}
		if n := len([]rune(got)); n > types.MaxAltTextLen {
			t.Errorf("Caption(%v, %q, %q) exceeds ceiling: %d chars", in.metrics, in.title, in.vendor, n)
		}
		if got != strings.TrimSpace(got) {
			t.Errorf("Caption(%v, %q, %q) has surrounding whitespace: %q", in.metrics, in.title, in.vendor, got)
		}
	}
}

func BenchmarkCaption(b *testing.B) {
	metrics := types.ImageMetrics{Width: 1920, Height: 1080}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Caption(&metrics, "ACME Widget Deluxe Edition", "ACME")
	}
}
