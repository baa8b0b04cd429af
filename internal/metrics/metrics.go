// Package metrics holds the Prometheus collectors of the review service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgallion1/docreview/internal/engine"
)

const namespace = "docreview"

// Metrics owns a private registry so tests and multiple servers do not
// collide on the global one.
type Metrics struct {
	reg *prometheus.Registry

	// analyses counts finished jobs.
	// Labels: document_type, outcome (completed, failed)
	analyses *prometheus.CounterVec

	// analysisDuration measures engine run time.
	// Labels: document_type
	analysisDuration *prometheus.HistogramVec

	// feedbackItems counts emitted feedback by status.
	// Labels: document_type, status
	feedbackItems *prometheus.CounterVec

	// suppressed counts items dropped by frequency limits.
	suppressed prometheus.Counter

	// criticCalls counts critic requests.
	// Labels: outcome (ok, error, retry)
	criticCalls *prometheus.CounterVec

	queueDepth prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		analyses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "analyses_total",
			Help:      "Total analyses by document type and outcome",
		}, []string{"document_type", "outcome"}),
		analysisDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "analysis_duration_seconds",
			Help:      "Engine run duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
		}, []string{"document_type"}),
		feedbackItems: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "feedback_items_total",
			Help:      "Total emitted feedback items by status",
		}, []string{"document_type", "status"}),
		suppressed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "suppressed_items_total",
			Help:      "Total feedback items dropped by frequency limits",
		}),
		criticCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "critic",
			Name:      "calls_total",
			Help:      "Total critic calls by outcome",
		}, []string{"outcome"}),
		queueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "queue_depth",
			Help:      "Jobs waiting for a worker",
		}),
	}
}

// ObserveReport records a completed analysis.
func (m *Metrics) ObserveReport(r *engine.Report, d time.Duration) {
	if m == nil || r == nil {
		return
	}
	m.analyses.WithLabelValues(r.DocumentType, "completed").Inc()
	m.analysisDuration.WithLabelValues(r.DocumentType).Observe(d.Seconds())
	for _, it := range r.Feedback {
		m.feedbackItems.WithLabelValues(r.DocumentType, string(it.Status)).Inc()
	}
	m.suppressed.Add(float64(r.Stats.Suppressed))
}

// ObserveFailure records a failed analysis.
func (m *Metrics) ObserveFailure(documentType string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(documentType, "failed").Inc()
}

// CriticCall records one critic request outcome.
func (m *Metrics) CriticCall(outcome string) {
	if m == nil {
		return
	}
	m.criticCalls.WithLabelValues(outcome).Inc()
}

// SetQueueDepth reports the current queue length.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
