package dispatcher

import "context"

// Handler runs a broadcast. The innermost Handler delivers the payload to
// the registered callbacks.
type Handler func(ctx context.Context, p Payload) error

// Middleware wraps a broadcast. Implementations call next to continue the
// chain and may replace ctx (for example to carry a trace span).
type Middleware interface {
	Handle(ctx context.Context, p Payload, next Handler) error
}

// MiddlewareFunc is a function adapter for Middleware.
type MiddlewareFunc func(ctx context.Context, p Payload, next Handler) error

// Handle implements Middleware.
func (f MiddlewareFunc) Handle(ctx context.Context, p Payload, next Handler) error {
	return f(ctx, p, next)
}

// Compose builds a handler chain from middleware and a final handler.
// Middleware is executed in order (first to last), with the handler at the end.
func Compose(ctx context.Context, p Payload, mw []Middleware, handler Handler) error {
	if len(mw) == 0 {
		return handler(ctx, p)
	}

	chain := handler
	for i := len(mw) - 1; i >= 0; i-- {
		m := mw[i]
		next := chain
		chain = func(ctx context.Context, p Payload) error {
			return m.Handle(ctx, p, next)
		}
	}

	return chain(ctx, p)
}

// Chain creates a middleware that combines multiple middleware in order.
func Chain(middleware ...Middleware) Middleware {
	return MiddlewareFunc(func(ctx context.Context, p Payload, next Handler) error {
		return Compose(ctx, p, middleware, next)
	})
}

// Skip bypasses mw for payloads matching condition.
func Skip(condition func(p Payload) bool, mw Middleware) Middleware {
	return MiddlewareFunc(func(ctx context.Context, p Payload, next Handler) error {
		if condition(p) {
			return next(ctx, p)
		}
		return mw.Handle(ctx, p, next)
	})
}

// Only runs mw for payloads matching condition.
func Only(condition func(p Payload) bool, mw Middleware) Middleware {
	return MiddlewareFunc(func(ctx context.Context, p Payload, next Handler) error {
		if !condition(p) {
			return next(ctx, p)
		}
		return mw.Handle(ctx, p, next)
	})
}
