// Package metrics counts pipeline outcomes. The pipeline swallows fetch and
// model failures before they reach the caller, so these counters are the only
// place the underlying error kinds stay visible.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	alttext "github.com/menta2k/alt-text-service"
	"github.com/menta2k/alt-text-service/pkg/captioner"
	"github.com/menta2k/alt-text-service/pkg/fetcher"
)

// Metrics holds the caption pipeline counters.
type Metrics struct {
	Requests      *prometheus.CounterVec
	FetchFailures *prometheus.CounterVec
	ModelFailures *prometheus.CounterVec
}

// New registers the pipeline counters with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alttext_requests_total",
			Help: "Caption requests by the pipeline stage that produced the result.",
		}, []string{"source"}),
		FetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alttext_fetch_failures_total",
			Help: "Image fetch failures by error kind.",
		}, []string{"kind"}),
		ModelFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alttext_model_failures_total",
			Help: "Model-backed caption failures by error kind.",
		}, []string{"kind"}),
	}
}

// Recorder adapts Metrics to the alttext.Recorder interface.
type Recorder struct {
	m *Metrics
}

// NewRecorder creates a Recorder over m.
func NewRecorder(m *Metrics) *Recorder {
	return &Recorder{m: m}
}

func (r *Recorder) FetchFailed(_ context.Context, kind fetcher.ErrorKind) {
	r.m.FetchFailures.WithLabelValues(string(kind)).Inc()
}

func (r *Recorder) ModelFailed(_ context.Context, kind captioner.ErrorKind) {
	r.m.ModelFailures.WithLabelValues(string(kind)).Inc()
}

func (r *Recorder) CaptionProduced(_ context.Context, source alttext.Source) {
	r.m.Requests.WithLabelValues(string(source)).Inc()
}
