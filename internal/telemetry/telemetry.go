// Package telemetry exposes Prometheus metrics for the analysis endpoints.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for analysis request instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	analysisTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	observationRows  prometheus.Histogram
}

// New creates a metrics set on a private registry, so tests can create
// instances freely without duplicate-registration panics.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		analysisTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_analysis_requests_total",
			Help: "Analysis requests by kind and outcome.",
		}, []string{"analysis", "status"}),
		analysisDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "analytics_analysis_duration_seconds",
			Help:    "Wall-clock duration of analysis computations.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"analysis"}),
		observationRows: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "analytics_observation_rows",
			Help:    "Observation table sizes per analysis request.",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		}),
	}
}

// ObserveAnalysis records one analysis request.
func (m *Metrics) ObserveAnalysis(analysis, status string, rows int, elapsed time.Duration) {
	m.analysisTotal.WithLabelValues(analysis, status).Inc()
	m.analysisDuration.WithLabelValues(analysis).Observe(elapsed.Seconds())
	if rows > 0 {
		m.observationRows.Observe(float64(rows))
	}
}

// Handler returns the scrape endpoint for this metrics set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
