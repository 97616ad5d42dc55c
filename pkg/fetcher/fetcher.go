// Package fetcher retrieves product images over HTTP under a fixed time
// budget and payload ceiling, and decodes them into pixel dimensions. Every
// failure is reported as a typed *Error; nothing escapes this boundary
// unclassified.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/menta2k/alt-text-service/pkg/processing"
	"github.com/menta2k/alt-text-service/pkg/types"
)

// ErrorKind classifies a fetch failure.
type ErrorKind string

const (
	KindInvalidScheme ErrorKind = "invalid_scheme"
	KindTimeout       ErrorKind = "timeout"
	KindTooLarge      ErrorKind = "too_large"
	KindHTTPError     ErrorKind = "http_error"
	KindDecodeError   ErrorKind = "decode_error"
)

// Error is a typed fetch failure.
type Error struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the error kind of a fetch failure, or "" for other errors.
func KindOf(err error) ErrorKind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Result holds everything one successful fetch produced. The decoded image is
// kept so model adapters can build payloads without a second network call.
type Result struct {
	Image   image.Image
	Metrics types.ImageMetrics
	Body    []byte
}

const (
	// DefaultTimeout bounds one fetch including connect and body read.
	DefaultTimeout = 15 * time.Second
	// DefaultMaxBodyBytes is the payload ceiling (5 MiB).
	DefaultMaxBodyBytes = 5 << 20
)

// Fetcher downloads and decodes images. One outbound call per invocation, no
// retries; retry policy belongs to the caller.
type Fetcher struct {
	client  *http.Client
	maxBody int64
	proc    *processing.Processor
}

// Options holds configuration for a Fetcher.
type Options struct {
	Timeout      time.Duration
	MaxBodyBytes int64
}

// New creates a Fetcher with default limits.
func New() *Fetcher {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a Fetcher with custom limits. Zero values fall back
// to the defaults.
func NewWithOptions(opts Options) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		maxBody: maxBody,
		proc:    processing.NewProcessor(),
	}
}

// ValidateScheme checks that rawURL parses and uses http or https. It never
// touches the network.
func ValidateScheme(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &Error{Kind: KindInvalidScheme, URL: rawURL, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &Error{Kind: KindInvalidScheme, URL: rawURL,
			Err: fmt.Errorf("unsupported URL scheme %q (only http and https are supported)", u.Scheme)}
	}
	return nil
}

// Fetch retrieves rawURL and decodes the body into an image. The body is read
// through a hard cap: at most maxBody+1 bytes ever reach memory, and an
// oversized response is abandoned rather than buffered.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	if err := ValidateScheme(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindHTTPError, URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", "alt-text-service/1.0 (+https://github.com/menta2k/alt-text-service)")

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &Error{Kind: KindTimeout, URL: rawURL, Err: err}
		}
		return nil, &Error{Kind: KindHTTPError, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: KindHTTPError, URL: rawURL,
			Err: fmt.Errorf("HTTP %d %s", resp.StatusCode, resp.Status)}
	}

	// Read one byte past the cap to detect oversized bodies without
	// downloading the rest.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		if isTimeout(err) {
			return nil, &Error{Kind: KindTimeout, URL: rawURL, Err: err}
		}
		return nil, &Error{Kind: KindHTTPError, URL: rawURL, Err: err}
	}
	if int64(len(body)) > f.maxBody {
		return nil, &Error{Kind: KindTooLarge, URL: rawURL,
			Err: fmt.Errorf("response body exceeds %d bytes", f.maxBody)}
	}

	img, err := f.proc.DecodeImage(body)
	if err != nil {
		return nil, &Error{Kind: KindDecodeError, URL: rawURL, Err: err}
	}

	normalized := f.proc.NormalizeColor(img)
	b := normalized.Bounds()
	return &Result{
		Image:   normalized,
		Metrics: types.ImageMetrics{Width: b.Dx(), Height: b.Dy()},
		Body:    body,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
