package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/vango-dev/fluxe"
	"github.com/vango-dev/fluxe/internal/config"
	"github.com/vango-dev/fluxe/internal/demo"
	"github.com/vango-dev/fluxe/pkg/devtools"
	"github.com/vango-dev/fluxe/pkg/dispatcher"
	"github.com/vango-dev/fluxe/pkg/lifecycle"
	"github.com/vango-dev/fluxe/pkg/middleware"
)

func serveCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo stores behind devtools",
		Long: `Register the demo counter and todo stores and serve the devtools
HTTP surface for them.

Routes:
  GET  /stores
  GET  /stores/{id}
  POST /stores/{id}/actions/{event}
  GET  /stream     (WebSocket)
  GET  /metrics    (when metrics are enabled)

Examples:
  fluxe serve
  fluxe serve --port=8080
  curl -X POST localhost:7070/stores/todos/actions/add -d '{"title":"milk"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Devtools.Port = port
			}
			if host != "" {
				cfg.Devtools.Host = host
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, cmd)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")

	return cmd
}

// app is the wired demo application.
type app struct {
	fluxe    *fluxe.Fluxe
	devtools *devtools.Server
	metrics  *middleware.Metrics
	loader   *demo.Loader
}

// buildApp wires the demo stores, middleware and devtools from cfg.
func buildApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	var (
		mw       []dispatcher.Middleware
		metrics  *middleware.Metrics
		gatherer prometheus.Gatherer
	)

	mw = append(mw, middleware.Recover(logger))
	if cfg.Tracing.Enabled {
		mw = append(mw, middleware.OpenTelemetry(
			middleware.WithTracerName(cfg.Tracing.TracerName),
			middleware.WithIncludeOptions(cfg.Tracing.IncludeOptions),
		))
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = middleware.NewMetrics(
			middleware.WithRegistry(reg),
			middleware.WithNamespace(cfg.Metrics.Namespace),
		)
		mw = append(mw, metrics.Middleware())
		gatherer = reg
	}
	mw = append(mw, middleware.Logging(logger))

	f := fluxe.New(fluxe.Config{Logger: logger, Middleware: mw})
	if _, _, err := demo.Register(f); err != nil {
		return nil, err
	}
	if metrics != nil {
		metrics.TrackStores(f.Len)
	}

	dt := devtools.New(f, devtools.Config{
		Logger:       logger,
		Gatherer:     gatherer,
		MaxBodyBytes: cfg.Devtools.MaxBodyBytes,
	})
	f.Dispatcher().Use(dt.Middleware())

	todos, err := f.Actions(demo.TodosID)
	if err != nil {
		return nil, err
	}
	opts := []lifecycle.Option{lifecycle.WithExecutor(dt.Serialize)}
	if metrics != nil {
		opts = append(opts, lifecycle.WithObserver(metrics))
	}
	loader := demo.NewLoader(todos, logger, opts...)

	return &app{fluxe: f, devtools: dt, metrics: metrics, loader: loader}, nil
}

func runServe(ctx context.Context, cfg *config.Config, cmd *cobra.Command) error {
	logger := cfg.Log.NewLogger(cmd.ErrOrStderr())
	if cfg.Name != "" {
		logger = logger.With("app", cfg.Name)
	}

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.DevtoolsAddress())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.DevtoolsAddress(), err)
	}

	w := cmd.OutOrStdout()
	printBanner(w)
	success(w, "Devtools listening on http://%s", ln.Addr())
	info(w, "Stores: %v", a.fluxe.StoreIDs())
	if seed := cfg.SeedPath(); seed != "" {
		a.loader.Load(ctx, demo.FileSource(seed))
		info(w, "Loading todos from %s", seed)
	}
	defer a.loader.Close()

	srv := &http.Server{Handler: a.devtools.Handler()}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("fluxe: shutting down")
	a.devtools.Stream().Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Devtools.ShutdownTimeout.Duration())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
