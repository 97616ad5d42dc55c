package types

import "strings"

// MaxAltTextLen is the hard ceiling for synthesized alt text, shared by the
// heuristic and normalization paths.
const MaxAltTextLen = 140

// CaptionRequest carries one caption-synthesis request. Title and vendor are
// optional product metadata; an empty string means absent.
type CaptionRequest struct {
	ImageURL string `json:"image_url"`
	Title    string `json:"title,omitempty"`
	Vendor   string `json:"vendor,omitempty"`
}

// ImageMetrics holds the pixel dimensions of a successfully decoded image.
type ImageMetrics struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ShapeClass is a coarse aspect-ratio bucket derived from pixel dimensions.
type ShapeClass string

const (
	ShapeSquare    ShapeClass = "square"
	ShapeLandscape ShapeClass = "landscape"
	ShapePortrait  ShapeClass = "portrait"
)

// Classify derives the shape class from pixel dimensions. An image is square
// when |width-height| is strictly less than 10% of the longer side; otherwise
// it is landscape or portrait by which side is longer.
func Classify(width, height int) ShapeClass {
	d := width - height
	if d < 0 {
		d = -d
	}
	longest := width
	if height > longest {
		longest = height
	}
	if float64(d) < 0.1*float64(longest) {
		return ShapeSquare
	}
	if width > height {
		return ShapeLandscape
	}
	return ShapePortrait
}

// Shape returns the shape class of the image these metrics describe.
func (m ImageMetrics) Shape() ShapeClass {
	return Classify(m.Width, m.Height)
}

// CaptionResult is the sole externally observable output of the pipeline.
// AltText is always non-empty, at most MaxAltTextLen characters, with no
// surrounding whitespace.
type CaptionResult struct {
	AltText string `json:"alt_text"`
}

// TruncateAltText cuts s to at most MaxAltTextLen characters. Truncation may
// cut mid-word; no ellipsis is added. A cut landing on a word boundary must
// not leave trailing whitespace, so the tail is trimmed after the cut.
func TruncateAltText(s string) string {
	r := []rune(s)
	if len(r) <= MaxAltTextLen {
		return s
	}
	return strings.TrimRight(string(r[:MaxAltTextLen]), " \t\n")
}
