package tokenapi

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus instrumentation wrapper.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "liveguard").
	Namespace string

	// Subsystem is the metrics subsystem (default: "tokenapi").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for backend call duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus instrumentation wrapper.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
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

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "liveguard",
		Subsystem: "tokenapi",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// instrumentedAPI wraps an API with Prometheus metrics.
type instrumentedAPI struct {
	next API

	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
}

// Outcome labels for the calls counter.
const (
	outcomeOK     = "ok"
	outcomeDenied = "denied"
	outcomeError  = "error"
)

// WithMetrics wraps an API so every backend call is counted by operation
// and outcome and timed in a histogram.
//
//	api := tokenapi.WithMetrics(tokenapi.NewMemoryAPI(creds))
func WithMetrics(next API, opts ...MetricsOption) API {
	cfg := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	factory := promauto.With(cfg.Registry)

	return &instrumentedAPI{
		next: next,
		callsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "calls_total",
			Help:        "Total auth backend calls by operation and outcome",
			ConstLabels: cfg.ConstLabels,
		}, []string{"op", "outcome"}),
		callDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "call_duration_seconds",
			Help:        "Auth backend call duration in seconds",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}, []string{"op"}),
	}
}

func (i *instrumentedAPI) IssueToken(ctx context.Context, username, password string) (string, error) {
	start := time.Now()
	token, err := i.next.IssueToken(ctx, username, password)
	i.observe("issue_token", start, token, err)
	return token, err
}

func (i *instrumentedAPI) Status(ctx context.Context, token string) (string, error) {
	start := time.Now()
	refreshed, err := i.next.Status(ctx, token)
	i.observe("status", start, refreshed, err)
	return refreshed, err
}

func (i *instrumentedAPI) Revoke(ctx context.Context, token string) error {
	start := time.Now()
	err := i.next.Revoke(ctx, token)
	i.observe("revoke", start, "-", err)
	return err
}

func (i *instrumentedAPI) observe(op string, start time.Time, token string, err error) {
	outcome := outcomeOK
	switch {
	case err != nil:
		outcome = outcomeError
	case token == "":
		outcome = outcomeDenied
	}

	i.callsTotal.WithLabelValues(op, outcome).Inc()
	i.callDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
