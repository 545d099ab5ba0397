package gate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request results recorded by Metrics
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// MetricsConfig configures the Metrics interceptor.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "logingate").
	Namespace string

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Metrics interceptor.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics counts requests by result and observes their duration
type Metrics struct {
	Base

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics ...
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := MetricsConfig{
		Namespace: "logingate",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "requests_total",
			Help:      "Total number of requests that entered the gate",
		}, []string{"result"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "request_duration_seconds",
			Help:      "Request duration in seconds from entering the gate to completion",
			Buckets:   config.Buckets,
		}, []string{"result"}),
	}
}

// Completed ...
func (m *Metrics) Completed(ex *Exchange, err error) {
	result := ResultOK
	switch {
	case err != nil:
		result = ResultError
	case ex.Rejected():
		result = ResultRejected
	}

	m.requests.WithLabelValues(result).Inc()
	m.duration.WithLabelValues(result).Observe(ex.outcome().Duration.Seconds())
}
