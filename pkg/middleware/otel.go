package middleware

import (
	"context"
	"fmt"

	"github.com/vango-dev/fluxe/pkg/dispatcher"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for fluxe.
const defaultTracerName = "fluxe"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "fluxe").
	TracerName string

	// IncludeOptions records the payload options, formatted with %v, as a
	// span attribute. Options may contain user data, so this is disabled
	// by default.
	IncludeOptions bool

	// Filter determines which payloads to trace.
	// If nil, all payloads are traced.
	Filter func(p dispatcher.Payload) bool

	// AttributeExtractor returns extra attributes for a payload.
	AttributeExtractor func(p dispatcher.Payload) []attribute.KeyValue

	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithIncludeOptions enables recording payload options in traces.
func WithIncludeOptions(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeOptions = include
	}
}

// WithPayloadFilter sets a filter function for payloads.
func WithPayloadFilter(filter func(p dispatcher.Payload) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(p dispatcher.Payload) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry creates middleware that traces every broadcast.
//
// The span carries the payload's store, event and dispatch ID, records the
// broadcast error if any, and is attached to the context passed on to the
// store handlers. The tracer is resolved from the global provider when
// the middleware is created.
func OpenTelemetry(opts ...OTelOption) dispatcher.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	return dispatcher.MiddlewareFunc(func(ctx context.Context, p dispatcher.Payload, next dispatcher.Handler) error {
		if config.Filter != nil && !config.Filter(p) {
			return next(ctx, p)
		}

		attrs := []attribute.KeyValue{
			attribute.String("fluxe.store", p.Store),
			attribute.String("fluxe.event", p.Event),
			attribute.String("fluxe.dispatch_id", p.ID),
		}
		if config.IncludeOptions && p.Options != nil {
			attrs = append(attrs, attribute.String("fluxe.options", fmt.Sprintf("%v", p.Options)))
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(p)...)
		}

		spanCtx, span := config.tracer.Start(ctx, "fluxe.dispatch "+p.String(),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		err := next(context.WithValue(spanCtx, spanKey{}, span), p)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return err
	})
}

type spanKey struct{}

// SpanFromContext returns the broadcast span started by the OpenTelemetry
// middleware, or nil outside a traced broadcast.
//
// Example:
//
//	func (t *Todos) Add(ctx context.Context, item Item) {
//	    if span := middleware.SpanFromContext(ctx); span != nil {
//	        span.SetAttributes(attribute.Int("todos.count", len(t.items)))
//	    }
//	}
func SpanFromContext(ctx context.Context) trace.Span {
	span, _ := ctx.Value(spanKey{}).(trace.Span)
	return span
}
