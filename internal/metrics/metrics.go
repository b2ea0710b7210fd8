// Package metrics defines the Prometheus instrumentation for the analytics service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector names used as label values.
const (
	CollectorSessions  = "sessions"
	CollectorEvents    = "events"
	CollectorRateLimit = "ratelimit"
)

// Metrics holds Prometheus metrics for monitoring.
// All methods are safe to call on a nil *Metrics, which records nothing.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Engine metrics
	ComposeDuration    *prometheus.HistogramVec
	CollectorFallbacks *prometheus.CounterVec
	MalformedRecords   *prometheus.CounterVec

	// Health metrics
	HealthChecksTotal     *prometheus.CounterVec
	ComponentHealthStatus *prometheus.GaugeVec
}

// New creates the service metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analytics_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ComposeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analytics_compose_duration_seconds",
				Help:    "Time taken to compose a metrics result",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"period"},
		),
		CollectorFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_collector_fallbacks_total",
				Help: "Number of times a collector replaced its output with a fallback after a store error",
			},
			[]string{"collector"},
		),
		MalformedRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_malformed_records_total",
				Help: "Number of persisted records that could not be decoded",
			},
			[]string{"source"},
		),
		HealthChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_health_checks_total",
				Help: "Total number of health checks",
			},
			[]string{"endpoint", "status"},
		),
		ComponentHealthStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "analytics_component_health_status",
				Help: "Health status of service components (1=healthy, 0=unhealthy)",
			},
			[]string{"component"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.HTTPRequestsTotal,
			m.HTTPRequestDuration,
			m.ComposeDuration,
			m.CollectorFallbacks,
			m.MalformedRecords,
			m.HealthChecksTotal,
			m.ComponentHealthStatus,
		)
	}

	return m
}

// ObserveHTTP records a completed HTTP request.
func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// ObserveCompose records how long a metrics composition took.
func (m *Metrics) ObserveCompose(period string, d time.Duration) {
	if m == nil {
		return
	}
	m.ComposeDuration.WithLabelValues(period).Observe(d.Seconds())
}

// CollectorFallback counts a collector falling back after a store error.
func (m *Metrics) CollectorFallback(collector string) {
	if m == nil {
		return
	}
	m.CollectorFallbacks.WithLabelValues(collector).Inc()
}

// MalformedRecord counts n undecodable records from source.
func (m *Metrics) MalformedRecord(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.MalformedRecords.WithLabelValues(source).Add(float64(n))
}

// HealthCheck records a health check outcome.
func (m *Metrics) HealthCheck(endpoint, status string) {
	if m == nil {
		return
	}
	m.HealthChecksTotal.WithLabelValues(endpoint, status).Inc()
}

// ComponentHealth sets a component's health gauge.
func (m *Metrics) ComponentHealth(component string, healthy bool) {
	if m == nil {
		return
	}
	v := float64(0)
	if healthy {
		v = 1
	}
	m.ComponentHealthStatus.WithLabelValues(component).Set(v)
}
