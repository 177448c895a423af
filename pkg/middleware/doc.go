// Package middleware provides dispatch middleware for fluxe.
//
// This package includes:
//   - OpenTelemetry tracing of every broadcast
//   - Prometheus metrics for dispatches and tracked operations
//   - Logging and panic recovery
//
// Middleware is installed on the dispatcher, outermost first:
//
//	m := middleware.NewMetrics(middleware.WithNamespace("myapp"))
//	f := fluxe.New(fluxe.Config{
//	    Middleware: []dispatcher.Middleware{
//	        middleware.Recover(logger),
//	        middleware.OpenTelemetry(),
//	        m.Middleware(),
//	        middleware.Logging(logger),
//	    },
//	})
//	m.TrackStores(f.Len)
//
// # OpenTelemetry
//
// Each broadcast runs inside a span named after the payload and carrying
// its store, event and dispatch ID. The span is placed in the context the
// store handlers receive, so downstream calls inherit the trace:
//
//	func (t *Todos) Load(ctx context.Context) error {
//	    req, _ := http.NewRequestWithContext(ctx, "GET", url, nil)
//	    ...
//	}
//
// The tracer comes from the global provider; configure it with
// otel.SetTracerProvider before dispatching.
//
// # Prometheus Metrics
//
//   - fluxe_dispatches_total: broadcasts by store, event and status
//   - fluxe_dispatch_duration_seconds: broadcast duration histogram
//   - fluxe_dispatch_errors_total: failed broadcasts by store and error type
//   - fluxe_pending_operations: operations tracked by StorePromises scopes
//   - fluxe_operations_settled_total: tracked operations by outcome
//   - fluxe_stores: registered stores (after TrackStores)
//
// Metrics implements lifecycle.Observer, so scopes report to it with
// lifecycle.WithObserver(m).
package middleware
