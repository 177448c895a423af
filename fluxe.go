package fluxe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	ferrors "github.com/vango-dev/fluxe/internal/errors"
	"github.com/vango-dev/fluxe/pkg/action"
	"github.com/vango-dev/fluxe/pkg/dispatcher"
	"github.com/vango-dev/fluxe/pkg/store"
)

// Fluxe is a registry of stores bound to one dispatcher.
//
// Stores are added once and live as long as the instance. Each registered
// store gets a dispatcher callback that routes payloads addressed to it,
// and an action set that produces those payloads.
type Fluxe struct {
	mu         sync.RWMutex
	dispatcher *dispatcher.Dispatcher
	stores     map[string]store.Store
	actions    map[string]*action.Set
	order      []string
	logger     *slog.Logger
}

// New creates a Fluxe instance.
func New(cfg Config) *Fluxe {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := cfg.Dispatcher
	if d == nil {
		d = dispatcher.New(dispatcher.WithLogger(logger))
	}
	if len(cfg.Middleware) > 0 {
		d.Use(cfg.Middleware...)
	}

	return &Fluxe{
		dispatcher: d,
		stores:     make(map[string]store.Store),
		actions:    make(map[string]*action.Set),
		logger:     logger,
	}
}

// AddStore registers s.
//
// Registration fails, in this order, when s has no identifier (F001), when
// a store with the same identifier exists (F002), when s declares no
// events (F003), when an event binding cannot be resolved (F004), or when
// s has no emitter (F005). All of these match ErrConfiguration.
func (f *Fluxe) AddStore(s store.Store) error {
	if isNil(s) {
		return ferrors.New(ferrors.CodeMissingID).WithDetail("AddStore was called with a nil store.")
	}
	id := s.StoreID()
	if id == "" {
		return ferrors.New(ferrors.CodeMissingID).WithDetail(fmt.Sprintf("The %T store returned an empty identifier.", s))
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, dup := f.stores[id]; dup {
		return ferrors.New(ferrors.CodeDuplicateID).WithStore(id)
	}

	table, err := store.Resolve(s)
	switch {
	case errors.Is(err, store.ErrEmptyEventMap):
		return ferrors.New(ferrors.CodeEmptyEventMap).WithStore(id)
	case err != nil:
		return ferrors.New(ferrors.CodeInvalidBinding).WithStore(id).Wrap(err)
	}

	if s.Emitter() == nil {
		return ferrors.New(ferrors.CodeMissingEmitter).WithStore(id)
	}

	f.dispatcher.Register(f.route(id, table))
	f.stores[id] = s
	f.actions[id] = action.Synthesize(id, table.Events(), f.dispatcher)
	f.order = append(f.order, id)

	f.logger.Debug("fluxe: store registered", "store", id, "events", table.Events())
	return nil
}

// route returns the dispatcher callback for one store. Payloads for other
// stores and events the store does not declare are ignored.
func (f *Fluxe) route(id string, table *store.Table) dispatcher.Callback {
	return func(ctx context.Context, p dispatcher.Payload) error {
		if p.Store != id {
			return nil
		}
		h, ok := table.Lookup(p.Event)
		if !ok {
			f.logger.Debug("fluxe: event not handled", "store", id, "event", p.Event, "dispatch_id", p.ID)
			return nil
		}
		err := h(ctx, p.Options)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, dispatcher.ErrReentrant):
			return ferrors.New(ferrors.CodeReentrant).
				WithStore(id).
				WithDetail(fmt.Sprintf("The handler for event %q invoked an action during the broadcast.", p.Event)).
				Wrap(err)
		default:
			return ferrors.New(ferrors.CodeHandlerFailed).
				WithStore(id).
				WithDetail(fmt.Sprintf("The handler for event %q returned an error.", p.Event)).
				Wrap(err)
		}
	}
}

// Store returns the registered store with the given identifier.
func (f *Fluxe) Store(id string) (store.Store, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	s, ok := f.stores[id]
	if !ok {
		return nil, notFound(id)
	}
	return s, nil
}

// Actions returns the action set of the registered store with the given
// identifier.
func (f *Fluxe) Actions(id string) (*action.Set, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	// Checked against the store registry so both lookups fail alike.
	if _, ok := f.stores[id]; !ok {
		return nil, notFound(id)
	}
	return f.actions[id], nil
}

// Dispatcher returns the dispatcher stores are registered with.
func (f *Fluxe) Dispatcher() *dispatcher.Dispatcher {
	return f.dispatcher
}

// StoreIDs returns the registered identifiers in registration order.
func (f *Fluxe) StoreIDs() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.order)
}

// Len returns the number of registered stores.
func (f *Fluxe) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.order)
}

// StoreAs returns the registered store with the given identifier as T.
// A store of another type is reported as not found.
func StoreAs[T store.Store](f *Fluxe, id string) (T, error) {
	var zero T
	s, err := f.Store(id)
	if err != nil {
		return zero, err
	}
	typed, ok := s.(T)
	if !ok {
		return zero, notFound(id).WithDetail(fmt.Sprintf("The store is a %T, not a %T.", s, zero))
	}
	return typed, nil
}

func isNil(s store.Store) bool {
	if s == nil {
		return true
	}
	v := reflect.ValueOf(s)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
