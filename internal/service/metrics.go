package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"docgen/internal/model"
)

// Generation outcomes reported by documents_generated_total.
const (
	OutcomeOK                = "ok"
	OutcomeUnrecorded        = "unrecorded"
	OutcomeRenderFailed      = "render_failed"
	OutcomePersistenceFailed = "persistence_failed"
	OutcomeCancelled         = "cancelled"
)

// GenerationMetrics counts generation events. A nil *GenerationMetrics is a no-op.
type GenerationMetrics struct {
	generated      *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
}

// NewGenerationMetrics creates the collectors and registers them on reg.
func NewGenerationMetrics(reg prometheus.Registerer) (*GenerationMetrics, error) {
	m := &GenerationMetrics{
		generated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "documents_generated_total",
				Help: "Total number of document generation attempts by outcome.",
			},
			[]string{"template", "format", "outcome"},
		),
		renderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "document_render_duration_seconds",
				Help:    "Time spent rendering a document.",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"template"},
		),
	}
	for _, c := range []prometheus.Collector{m.generated, m.renderDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *GenerationMetrics) observe(tmpl model.TemplateType, format model.DocumentType, outcome string) {
	if m == nil {
		return
	}
	m.generated.WithLabelValues(string(tmpl), string(format), outcome).Inc()
}

func (m *GenerationMetrics) observeRender(tmpl model.TemplateType, d time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.WithLabelValues(string(tmpl)).Observe(d.Seconds())
}
