package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	PipelineRunsTotal   *prometheus.CounterVec
	FetchDuration       prometheus.Histogram
	CacheLookupsTotal   *prometheus.CounterVec
}

// New registers the service metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		PipelineRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "release_pipeline_runs_total",
				Help: "Total number of fetch-extract-normalize runs.",
			},
			[]string{"status", "error_type"}, // status: success, failure
		),
		FetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "release_fetch_duration_seconds",
				Help:    "Duration of upstream page fetches.",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "release_cache_lookups_total",
				Help: "Cache lookups by result.",
			},
			[]string{"result"}, // hit, miss
		),
	}
}

// ObservePipeline records the outcome of one pipeline run.
func (m *Metrics) ObservePipeline(errorType string) {
	if m == nil {
		return
	}
	if errorType == "" {
		m.PipelineRunsTotal.WithLabelValues("success", "").Inc()
		return
	}
	m.PipelineRunsTotal.WithLabelValues("failure", errorType).Inc()
}

// ObserveCache records one cache lookup.
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}
