// Package metrics exposes screening counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Screening metrics
	instrumentsEvaluated *prometheus.CounterVec
	passes               *prometheus.CounterVec
	instrumentErrors     *prometheus.CounterVec
	runsTotal            *prometheus.CounterVec
	runDuration          prometheus.Histogram
	universeSize         prometheus.Gauge
	fetchTotal           *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)

	r.instrumentsEvaluated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockscreen_instruments_evaluated_total",
			Help: "Total number of instrument evaluations",
		},
		[]string{"strategy", "kind"},
	)
	r.passes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockscreen_passes_total",
			Help: "Total number of instruments passing a strategy",
		},
		[]string{"strategy", "kind"},
	)
	r.instrumentErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockscreen_instrument_errors_total",
			Help: "Instruments skipped because of a data or strategy error",
		},
		[]string{"code"},
	)
	r.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockscreen_runs_total",
			Help: "Total number of screening runs",
		},
		[]string{"status"},
	)
	r.runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stockscreen_run_duration_seconds",
			Help:    "Screening run duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)
	r.universeSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockscreen_universe_size",
			Help: "Number of instruments in the last screened universe",
		},
	)
	r.fetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockscreen_fetch_total",
			Help: "Series fetched from the collector",
		},
		[]string{"kind", "status"},
	)

	reg.MustRegister(r.instrumentsEvaluated)
	reg.MustRegister(r.passes)
	reg.MustRegister(r.instrumentErrors)
	reg.MustRegister(r.runsTotal)
	reg.MustRegister(r.runDuration)
	reg.MustRegister(r.universeSize)
	reg.MustRegister(r.fetchTotal)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordEvaluation records one strategy evaluation.
func (r *Registry) RecordEvaluation(strategy, kind string, passed bool) {
	r.instrumentsEvaluated.WithLabelValues(strategy, kind).Inc()
	if passed {
		r.passes.WithLabelValues(strategy, kind).Inc()
	}
}

// RecordInstrumentError records an instrument skipped by a run.
func (r *Registry) RecordInstrumentError(code string) {
	r.instrumentErrors.WithLabelValues(code).Inc()
}

// RecordRun records a finished run.
func (r *Registry) RecordRun(status string, duration float64) {
	r.runsTotal.WithLabelValues(status).Inc()
	r.runDuration.Observe(duration)
}

// SetUniverseSize sets the universe size.
func (r *Registry) SetUniverseSize(size int) {
	r.universeSize.Set(float64(size))
}

// RecordFetch records one collector fetch.
func (r *Registry) RecordFetch(kind string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	r.fetchTotal.WithLabelValues(kind, status).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
