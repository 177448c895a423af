package fluxe

import (
	"log/slog"

	"github.com/vango-dev/fluxe/pkg/dispatcher"
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config configures a Fluxe instance.
type Config struct {
	// Logger is the structured logger for registration and routing
	// diagnostics. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Dispatcher is the broadcast point stores register with.
	// If nil, a new dispatcher is created.
	Dispatcher *dispatcher.Dispatcher

	// Middleware wraps every broadcast, outermost first. Typical entries
	// come from the middleware package (Logging, Prometheus, OpenTelemetry)
	// and from devtools.
	Middleware []dispatcher.Middleware
}

// DefaultConfig returns the configuration used by the default instance.
func DefaultConfig() Config {
	return Config{
		Logger: slog.Default(),
	}
}
