package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	ferrors "github.com/vango-dev/fluxe/internal/errors"
	"github.com/vango-dev/fluxe/pkg/dispatcher"
	"github.com/vango-dev/fluxe/pkg/lifecycle"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if m.Gauge == nil {
		t.Fatal("expected gauge metric to have Gauge field")
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func testPayload(store, event string) dispatcher.Payload {
	return dispatcher.Payload{ID: "dispatch-1", Store: store, Event: event}
}

func TestMetricsMiddleware_RecordsSuccessAndError(t *testing.T) {
	t.Run("success increments success counter and duration", func(t *testing.T) {
		m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

		err := m.Middleware().Handle(context.Background(), testPayload("todos", "add"),
			func(context.Context, dispatcher.Payload) error { return nil })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := metricCounterValue(t, m.dispatchesTotal.WithLabelValues("todos", "add", "success")); got != 1 {
			t.Fatalf("dispatches_total(success)=%v, want 1", got)
		}
		if got := metricCounterValue(t, m.dispatchesTotal.WithLabelValues("todos", "add", "error")); got != 0 {
			t.Fatalf("dispatches_total(error)=%v, want 0", got)
		}
		if got := metricHistogramCount(t, m.dispatchDuration.WithLabelValues("todos", "add")); got == 0 {
			t.Fatal("expected dispatch_duration_seconds histogram to have sample count > 0")
		}
	})

	t.Run("error increments error counter and categorizes by code", func(t *testing.T) {
		m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
		handlerErr := ferrors.New(ferrors.CodeHandlerFailed).WithStore("todos")

		err := m.Middleware().Handle(context.Background(), testPayload("todos", "add"),
			func(context.Context, dispatcher.Payload) error { return handlerErr })
		if !errors.Is(err, handlerErr) {
			t.Fatalf("expected error to propagate, got %v", err)
		}

		if got := metricCounterValue(t, m.dispatchesTotal.WithLabelValues("todos", "add", "error")); got != 1 {
			t.Fatalf("dispatches_total(error)=%v, want 1", got)
		}
		if got := metricCounterValue(t, m.dispatchErrors.WithLabelValues("todos", ferrors.CodeHandlerFailed)); got != 1 {
			t.Fatalf("dispatch_errors_total(F021)=%v, want 1", got)
		}
	})
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"coded", ferrors.New(ferrors.CodeReentrant), ferrors.CodeReentrant},
		{"panic", ErrPanic, "panic"},
		{"canceled", context.Canceled, "context"},
		{"deadline", context.DeadlineExceeded, "context"},
		{"plain", errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := categorizeError(tt.err); got != tt.want {
				t.Errorf("categorizeError(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestMetrics_Observer(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	m.OperationAdded()
	m.OperationAdded()
	m.OperationSettled(lifecycle.OutcomeSuccess)

	if got := metricGaugeValue(t, m.pendingOperations); got != 1 {
		t.Fatalf("pending_operations=%v, want 1", got)
	}
	if got := metricCounterValue(t, m.operationsSettled.WithLabelValues("success")); got != 1 {
		t.Fatalf("operations_settled_total(success)=%v, want 1", got)
	}
}

func TestMetrics_TrackStores(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))

	count := 3
	m.TrackStores(func() int { return count })

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "test_stores" {
			continue
		}
		if got := mf.GetMetric()[0].GetGauge().GetValue(); got != 3 {
			t.Fatalf("test_stores=%v, want 3", got)
		}
		return
	}
	t.Fatal("test_stores not gathered")
}

func TestPrometheus_ReturnsMiddleware(t *testing.T) {
	mw := Prometheus(WithRegistry(prometheus.NewRegistry()))
	if mw == nil {
		t.Fatal("Prometheus returned nil")
	}
}
