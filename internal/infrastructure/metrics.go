package infrastructure

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors the application reports.
type Metrics struct {
	registry *prometheus.Registry

	UploadsTotal       prometheus.Counter
	RowsIngestedTotal  prometheus.Counter
	RowsSkippedTotal   prometheus.Counter
	FilterChangesTotal prometheus.Counter

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a metrics bundle backed by its own registry, so tests
// can create bundles without double-registration panics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry: registry,
		UploadsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "postpulse_uploads_total",
			Help: "Number of dataset uploads accepted.",
		}),
		RowsIngestedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "postpulse_rows_ingested_total",
			Help: "Number of rows normalized into post records.",
		}),
		RowsSkippedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "postpulse_rows_skipped_total",
			Help: "Number of rows rejected for an unresolvable date.",
		}),
		FilterChangesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "postpulse_filter_changes_total",
			Help: "Number of filter selection updates.",
		}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "postpulse_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "postpulse_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler returns the HTTP handler serving this bundle's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
