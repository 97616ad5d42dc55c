// Package captioner defines the narrow call contract for model-backed image
// captioning. The model itself is an opaque capability behind one of the
// adapter packages; this package only fixes the interface and the failure
// taxonomy the orchestrator bases its fallback policy on.
package captioner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"
)

// ErrorKind classifies a model-backed caption failure.
type ErrorKind string

const (
	KindUnavailable     ErrorKind = "unavailable"
	KindTimeout         ErrorKind = "timeout"
	KindMalformedOutput ErrorKind = "malformed_output"
)

// Error is a typed captioning failure.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model caption: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("model caption: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the error kind of a caption failure, or "" for other errors.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// Wrap classifies a transport or backend error. Deadline expiry maps to
// KindTimeout, everything else to KindUnavailable.
func Wrap(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindUnavailable, Err: err}
}

const (
	// DefaultTimeout is applied by adapters when the incoming context
	// carries no deadline, so a single call cannot stall the pipeline.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxTokens bounds generation length; alt text is short.
	DefaultMaxTokens = 48
)

// Input carries the image and an optional steering hint for one caption call.
// ImageURL is always set; Image holds the already-decoded pixels when the
// fetch succeeded, which is the only case the orchestrator attempts a model
// caption.
type Input struct {
	ImageURL string
	Image    image.Image
	Title    string
}

// Captioner produces a natural-language caption for a product image. Adapters
// return raw model output; boilerplate stripping happens exactly once, in the
// orchestrator's normalization stage.
type Captioner interface {
	// Name identifies the backing capability, e.g. "infer" or "ollama".
	Name() string

	// Caption returns a caption or a typed *Error. It must respect ctx
	// cancellation and never block past its deadline.
	Caption(ctx context.Context, in Input) (string, error)
}
