package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector provides Prometheus metrics for generation calls
type MetricsCollector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	inFlight        *prometheus.GaugeVec
	registry        *prometheus.Registry
}

// NewCollector creates a new Prometheus metrics collector with its own registry
func NewCollector() *MetricsCollector {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llmadapter_requests_total",
			Help: "Total number of generation requests by backend and status",
		},
		[]string{"backend", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llmadapter_request_duration_seconds",
			Help:    "Duration of generation requests by backend",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0},
		},
		[]string{"backend"},
	)

	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llmadapter_errors_total",
			Help: "Total number of failed generation requests by backend and error type",
		},
		[]string{"backend", "error_type"},
	)

	inFlight := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "llmadapter_requests_in_flight",
			Help: "Generation requests currently waiting on a backend",
		},
		[]string{"backend"},
	)

	registry.MustRegister(requestsTotal)
	registry.MustRegister(requestDuration)
	registry.MustRegister(errorsTotal)
	registry.MustRegister(inFlight)

	return &MetricsCollector{
		requestsTotal:   requestsTotal,
		requestDuration: requestDuration,
		errorsTotal:     errorsTotal,
		inFlight:        inFlight,
		registry:        registry,
	}
}

// RecordOperation records a completed request and its duration
func (m *MetricsCollector) RecordOperation(ctx context.Context, backend string, status string, durationMs int64) {
	m.requestsTotal.WithLabelValues(backend, status).Inc()
	m.requestDuration.WithLabelValues(backend).Observe(float64(durationMs) / 1000.0)
}

// RecordError records an error occurrence
func (m *MetricsCollector) RecordError(ctx context.Context, backend string, errorType string) {
	m.errorsTotal.WithLabelValues(backend, errorType).Inc()
}

// AddInFlight adjusts the in-flight gauge for a backend
func (m *MetricsCollector) AddInFlight(ctx context.Context, backend string, delta int64) {
	m.inFlight.WithLabelValues(backend).Add(float64(delta))
}

// Registry returns the Prometheus registry for HTTP exposure
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}
