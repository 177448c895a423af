package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/vango-dev/fluxe/pkg/dispatcher"
)

// ErrPanic wraps a panic recovered by Recover.
var ErrPanic = errors.New("middleware: handler panic")

// Logging creates middleware that logs every broadcast at debug level and
// failed broadcasts at warn level. If logger is nil, slog.Default() is used.
func Logging(logger *slog.Logger) dispatcher.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return dispatcher.MiddlewareFunc(func(ctx context.Context, p dispatcher.Payload, next dispatcher.Handler) error {
		start := time.Now()
		err := next(ctx, p)

		attrs := []any{
			"store", p.Store,
			"event", p.Event,
			"dispatch_id", p.ID,
			"duration", time.Since(start),
		}
		if err != nil {
			logger.WarnContext(ctx, "fluxe: dispatch failed", append(attrs, "error", err)...)
			return err
		}
		logger.DebugContext(ctx, "fluxe: dispatch", attrs...)
		return nil
	})
}

// Recover creates middleware that turns a panicking store handler into an
// error wrapping ErrPanic. The panic and its stack are logged at error
// level. If logger is nil, slog.Default() is used.
func Recover(logger *slog.Logger) dispatcher.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return dispatcher.MiddlewareFunc(func(ctx context.Context, p dispatcher.Payload, next dispatcher.Handler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorContext(ctx, "fluxe: handler panic",
					"panic", r,
					"store", p.Store,
					"event", p.Event,
					"dispatch_id", p.ID,
					"stack", string(debug.Stack()))
				err = fmt.Errorf("%w: %s: %v", ErrPanic, p, r)
			}
		}()
		return next(ctx, p)
	})
}
