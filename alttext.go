// Package alttext synthesizes short, human-readable alt text for e-commerce
// product images.
//
// The pipeline fetches the image under a bounded time and size budget,
// prefers a model-backed caption when a captioner is configured, falls back
// to a deterministic heuristic built from pixel dimensions and product
// metadata, and normalizes the result. It is total: every well-formed request
// yields a non-empty caption of at most 140 characters, no matter which
// upstream stage failed.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		alttext "github.com/menta2k/alt-text-service"
//		"github.com/menta2k/alt-text-service/pkg/types"
//	)
//
//	func main() {
//		svc := alttext.New()
//		result := svc.SynthesizeCaption(context.Background(), types.CaptionRequest{
//			ImageURL: "https://cdn.example.com/widget.jpg",
//			Title:    "ACME Widget",
//			Vendor:   "ACME",
//		})
//		fmt.Println(result.AltText)
//	}
//
// The package consists of four pipeline stages:
//
// 1. Fetcher (pkg/fetcher): bounded image download and decode
// 2. Captioner (pkg/captioner): pluggable model-backed captioning
// 3. Heuristic (pkg/heuristic): deterministic dimension/metadata captions
// 4. Normalize (pkg/normalize): boilerplate stripping and length bounding
//
// The Service holds no cross-request state, so one instance can serve any
// number of concurrent requests without coordination.
package alttext

import (
	"context"
	"log/slog"

	"github.com/menta2k/alt-text-service/pkg/captioner"
	"github.com/menta2k/alt-text-service/pkg/fetcher"
	"github.com/menta2k/alt-text-service/pkg/heuristic"
	"github.com/menta2k/alt-text-service/pkg/normalize"
	"github.com/menta2k/alt-text-service/pkg/types"
)

// Version of the alt text library
const Version = "1.0.0"

// Source identifies which pipeline stage produced a caption.
type Source string

const (
	SourceModel     Source = "model"
	SourceHeuristic Source = "heuristic"
	SourceFallback  Source = "fallback"
)

// Fetcher retrieves and decodes a product image. pkg/fetcher provides the
// real implementation; tests inject stubs.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Result, error)
}

// Recorder receives pipeline outcomes for observability. Failures recorded
// here never reach the caller; implementations must be non-blocking and must
// not fail the request.
type Recorder interface {
	FetchFailed(ctx context.Context, kind fetcher.ErrorKind)
	ModelFailed(ctx context.Context, kind captioner.ErrorKind)
	CaptionProduced(ctx context.Context, source Source)
}

// NopRecorder discards all observations.
type NopRecorder struct{}

func (NopRecorder) FetchFailed(context.Context, fetcher.ErrorKind)   {}
func (NopRecorder) ModelFailed(context.Context, captioner.ErrorKind) {}
func (NopRecorder) CaptionProduced(context.Context, Source)          {}

// Outcome describes how a caption came to be, for logging and record keeping.
// Error kinds are informational only; they never branch the caption logic.
type Outcome struct {
	Source   Source
	FetchErr fetcher.ErrorKind
	ModelErr captioner.ErrorKind
}

// ErrorKind flattens the outcome's failure kinds into a single label, the
// first failure encountered along the pipeline. Empty when nothing failed.
func (o Outcome) ErrorKind() string {
	if o.FetchErr != "" {
		return "fetch_" + string(o.FetchErr)
	}
	if o.ModelErr != "" {
		return "model_" + string(o.ModelErr)
	}
	return ""
}

// Service orchestrates the caption pipeline. It is safe for concurrent use.
type Service struct {
	fetcher   Fetcher
	captioner captioner.Captioner
	recorder  Recorder
	logger    *slog.Logger
}

// Options holds dependencies for a Service. Zero values fall back to
// defaults; Captioner may stay nil to run heuristic-only.
type Options struct {
	Fetcher   Fetcher
	Captioner captioner.Captioner
	Recorder  Recorder
	Logger    *slog.Logger
}

// New creates a Service with the real fetcher and no model-backed captioner.
func New() *Service {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a Service with custom dependencies.
func NewWithOptions(opts Options) *Service {
	f := opts.Fetcher
	if f == nil {
		f = fetcher.New()
	}
	r := opts.Recorder
	if r == nil {
		r = NopRecorder{}
	}
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}
	return &Service{
		fetcher:   f,
		captioner: opts.Captioner,
		recorder:  r,
		logger:    l,
	}
}

// SynthesizeCaption runs the caption pipeline for one request and returns the
// result. See Synthesize for the variant that also reports the outcome.
func (s *Service) SynthesizeCaption(ctx context.Context, req types.CaptionRequest) types.CaptionResult {
	result, _ := s.Synthesize(ctx, req)
	return result
}

// Synthesize runs the caption pipeline for one request. It never returns an
// error: every failure downgrades to the next stage, ending at the literal
// fallback caption. The returned Outcome says which stage produced the text
// and what failed along the way.
func (s *Service) Synthesize(ctx context.Context, req types.CaptionRequest) (types.CaptionResult, Outcome) {
	var outcome Outcome

	res, err := s.fetcher.Fetch(ctx, req.ImageURL)
	if err != nil {
		outcome.FetchErr = fetcher.KindOf(err)
		s.recorder.FetchFailed(ctx, outcome.FetchErr)
		s.logger.Warn("image fetch failed",
			"url", req.ImageURL, "kind", string(outcome.FetchErr), "error", err)
		res = nil
	}

	if res != nil && s.captioner != nil {
		if alt, ok := s.modelCaption(ctx, req, res, &outcome); ok {
			outcome.Source = SourceModel
			s.recorder.CaptionProduced(ctx, SourceModel)
			return types.CaptionResult{AltText: alt}, outcome
		}
	}

	var metrics *types.ImageMetrics
	if res != nil {
		m := res.Metrics
		metrics = &m
	}

	alt := heuristic.Caption(metrics, req.Title, req.Vendor)
	outcome.Source = SourceHeuristic
	if alt == "" {
		alt = heuristic.FallbackCaption
		outcome.Source = SourceFallback
	}
	s.recorder.CaptionProduced(ctx, outcome.Source)
	return types.CaptionResult{AltText: alt}, outcome
}

// modelCaption attempts the model-backed path and normalizes its output. A
// false return means the heuristic path should take over.
func (s *Service) modelCaption(ctx context.Context, req types.CaptionRequest, res *fetcher.Result, outcome *Outcome) (string, bool) {
	raw, err := s.captioner.Caption(ctx, captioner.Input{
		ImageURL: req.ImageURL,
		Image:    res.Image,
		Title:    req.Title,
	})
	if err != nil {
		outcome.ModelErr = captioner.KindOf(err)
		s.recorder.ModelFailed(ctx, outcome.ModelErr)
		s.logger.Warn("model caption failed",
			"backend", s.captioner.Name(), "kind", string(outcome.ModelErr), "error", err)
		return "", false
	}

	alt := normalize.Caption(raw)
	if alt == "" {
		outcome.ModelErr = captioner.KindMalformedOutput
		s.recorder.ModelFailed(ctx, outcome.ModelErr)
		s.logger.Warn("model caption empty after normalization",
			"backend", s.captioner.Name())
		return "", false
	}
	return alt, true
}
