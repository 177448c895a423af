package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	ferrors "github.com/vango-dev/fluxe/internal/errors"
	"github.com/vango-dev/fluxe/pkg/action"
	"github.com/vango-dev/fluxe/pkg/dispatcher"
	"github.com/vango-dev/fluxe/pkg/store"
)

// Registry is the part of *fluxe.Fluxe devtools reads.
type Registry interface {
	StoreIDs() []string
	Store(id string) (store.Store, error)
	Actions(id string) (*action.Set, error)
}

// Snapshotter is implemented by stores that can report their state.
// The snapshot must be JSON-encodable.
type Snapshotter interface {
	Snapshot() any
}

// OptionsDecoder is implemented by stores whose handlers take typed
// options. Without it, action bodies arrive as decoded JSON values.
type OptionsDecoder interface {
	DecodeOptions(event string, raw []byte) (any, error)
}

// Config configures a devtools server.
type Config struct {
	// Logger is used for request and stream diagnostics.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Gatherer serves /metrics. If nil, the route is not mounted.
	Gatherer prometheus.Gatherer

	// MaxBodyBytes limits action request bodies (default: 1 MiB).
	MaxBodyBytes int64
}

// Server is the devtools HTTP surface for one registry.
type Server struct {
	registry Registry
	stream   *Stream
	config   Config
	logger   *slog.Logger

	// invokeMu serializes actions triggered over HTTP so concurrent
	// requests do not collide on the non-reentrant dispatcher.
	invokeMu sync.Mutex
}

// New creates a devtools server for r.
func New(r Registry, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return &Server{
		registry: r,
		stream:   NewStream(logger),
		config:   cfg,
		logger:   logger,
	}
}

// Serialize runs fn while holding the lock that serializes HTTP-triggered
// actions. Use it as a lifecycle executor so background continuations
// that invoke actions do not collide with requests.
func (s *Server) Serialize(fn func()) {
	s.invokeMu.Lock()
	defer s.invokeMu.Unlock()
	fn()
}

// Stream returns the server's broadcast stream.
func (s *Server) Stream() *Stream {
	return s.stream
}

// Middleware returns dispatcher middleware that publishes every broadcast
// to the stream.
func (s *Server) Middleware() dispatcher.Middleware {
	return dispatcher.MiddlewareFunc(func(ctx context.Context, p dispatcher.Payload, next dispatcher.Handler) error {
		start := time.Now()
		err := next(ctx, p)

		if s.stream.ClientCount() == 0 {
			return err
		}
		msg := Message{
			Type:     MessageDispatch,
			Payload:  &p,
			Status:   "success",
			Duration: time.Since(start).String(),
		}
		if err != nil {
			msg.Status = "error"
			msg.Error = err.Error()
		}
		s.stream.Publish(msg)
		return err
	})
}

// Handler returns the devtools routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/stores", s.listStores)
	r.Get("/stores/{id}", s.getStore)
	r.Post("/stores/{id}/actions/{event}", s.invoke)
	r.Get("/stream", s.handleStream)
	if s.config.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// StoreInfo describes a registered store.
type StoreInfo struct {
	ID        string         `json:"id"`
	Events    []string       `json:"events"`
	Listeners map[string]int `json:"listeners"`
	State     any            `json:"state,omitempty"`
}

func (s *Server) describe(id string, withState bool) (StoreInfo, error) {
	st, err := s.registry.Store(id)
	if err != nil {
		return StoreInfo{}, err
	}
	actions, err := s.registry.Actions(id)
	if err != nil {
		return StoreInfo{}, err
	}

	info := StoreInfo{
		ID:        id,
		Events:    actions.Names(),
		Listeners: make(map[string]int),
	}
	if em := st.Emitter(); em != nil {
		for _, event := range em.EventNames() {
			info.Listeners[event] = em.ListenerCount(event)
		}
	}
	if snap, ok := st.(Snapshotter); ok && withState {
		info.State = snap.Snapshot()
	}
	return info, nil
}

func (s *Server) listStores(w http.ResponseWriter, r *http.Request) {
	ids := s.registry.StoreIDs()
	infos := make([]StoreInfo, 0, len(ids))
	for _, id := range ids {
		info, err := s.describe(id, false)
		if err != nil {
			s.writeError(w, err)
			return
		}
		infos = append(infos, info)
	}
	s.writeJSON(w, http.StatusOK, infos)
}

func (s *Server) getStore(w http.ResponseWriter, r *http.Request) {
	info, err := s.describe(chi.URLParam(r, "id"), true)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) invoke(w http.ResponseWriter, r *http.Request) {
	id, event := chi.URLParam(r, "id"), chi.URLParam(r, "event")

	st, err := s.registry.Store(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	actions, err := s.registry.Actions(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		s.writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
		return
	}
	options, err := decodeOptions(st, event, raw)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.invokeMu.Lock()
	err = actions.Invoke(r.Context(), event, options)
	s.invokeMu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}

	info, err := s.describe(id, true)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	s.stream.HandleWebSocket(w, r, &Message{Type: MessageHello, Stores: s.registry.StoreIDs()})
}

func decodeOptions(st store.Store, event string, raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if dec, ok := st.(OptionsDecoder); ok {
		return dec.DecodeOptions(event, raw)
	}
	var options any
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil, err
	}
	return options, nil
}

// statusFor maps dispatch and lookup errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, action.ErrUnknownAction):
		return http.StatusNotFound
	case errors.Is(err, store.ErrOptionsType):
		return http.StatusBadRequest
	case errors.Is(err, dispatcher.ErrReentrant):
		return http.StatusConflict
	case errors.Is(err, ferrors.Sentinel(ferrors.CategoryNotFound)):
		return http.StatusNotFound
	case errors.Is(err, ferrors.Sentinel(ferrors.CategoryDispatch)):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("devtools: request failed", "error", err)
	}

	var fe *ferrors.Error
	if errors.As(err, &fe) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, fe.FormatJSON())
		return
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("devtools: cannot write response", "error", err)
	}
}
