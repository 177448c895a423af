package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	ferrors "github.com/vango-dev/fluxe/internal/errors"
	"github.com/vango-dev/fluxe/pkg/dispatcher"
	"github.com/vango-dev/fluxe/pkg/lifecycle"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "fluxe").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for dispatch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
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
		Namespace: "fluxe",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus metrics for one fluxe instance.
//
// Each Metrics registers its collectors once; creating two with the same
// registry and namespace panics.
type Metrics struct {
	config MetricsConfig

	dispatchesTotal   *prometheus.CounterVec
	dispatchDuration  *prometheus.HistogramVec
	dispatchErrors    *prometheus.CounterVec
	pendingOperations prometheus.Gauge
	operationsSettled *prometheus.CounterVec
}

// NewMetrics creates and registers the dispatch and operation metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		config: config,

		dispatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatches_total",
			Help:        "Total number of dispatched payloads",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "event", "status"}),

		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_duration_seconds",
			Help:        "Broadcast duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"store", "event"}),

		dispatchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_errors_total",
			Help:        "Total number of failed broadcasts",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "error_type"}),

		pendingOperations: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pending_operations",
			Help:        "Number of asynchronous operations tracked by lifecycle scopes",
			ConstLabels: config.ConstLabels,
		}),

		operationsSettled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "operations_settled_total",
			Help:        "Total number of tracked operations that left their scope",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),
	}
}

// Prometheus creates a Metrics with opts and returns its middleware.
//
// Example:
//
//	f := fluxe.New(fluxe.Config{
//	    Middleware: []dispatcher.Middleware{
//	        middleware.Prometheus(middleware.WithNamespace("myapp")),
//	    },
//	})
//
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) dispatcher.Middleware {
	return NewMetrics(opts...).Middleware()
}

// Middleware returns middleware that counts and times every broadcast.
// Rejected nested dispatches never reach middleware and are not counted.
func (m *Metrics) Middleware() dispatcher.Middleware {
	return dispatcher.MiddlewareFunc(func(ctx context.Context, p dispatcher.Payload, next dispatcher.Handler) error {
		start := time.Now()
		err := next(ctx, p)
		m.dispatchDuration.WithLabelValues(p.Store, p.Event).Observe(time.Since(start).Seconds())

		status := "success"
		if err != nil {
			status = "error"
			m.dispatchErrors.WithLabelValues(p.Store, categorizeError(err)).Inc()
		}
		m.dispatchesTotal.WithLabelValues(p.Store, p.Event, status).Inc()
		return err
	})
}

// TrackStores registers a gauge reporting count, typically the Len
// method of a fluxe instance.
func (m *Metrics) TrackStores(count func() int) {
	promauto.With(m.config.Registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   m.config.Namespace,
		Subsystem:   m.config.Subsystem,
		Name:        "stores",
		Help:        "Number of registered stores",
		ConstLabels: m.config.ConstLabels,
	}, func() float64 { return float64(count()) })
}

// OperationAdded implements lifecycle.Observer.
func (m *Metrics) OperationAdded() {
	m.pendingOperations.Inc()
}

// OperationSettled implements lifecycle.Observer.
func (m *Metrics) OperationSettled(outcome lifecycle.Outcome) {
	m.pendingOperations.Dec()
	m.operationsSettled.WithLabelValues(string(outcome)).Inc()
}

var _ lifecycle.Observer = (*Metrics)(nil)

// categorizeError returns a low-cardinality label for err: the registered
// error code when there is one.
func categorizeError(err error) string {
	var fe *ferrors.Error
	switch {
	case errors.Is(err, ErrPanic):
		return "panic"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "context"
	case errors.As(err, &fe) && fe.Code != "":
		return fe.Code
	default:
		return "internal"
	}
}
