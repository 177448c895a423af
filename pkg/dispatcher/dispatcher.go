package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Token identifies a registered callback. It is returned by Register and
// accepted by Unregister and WaitFor.
type Token string

// Callback receives every dispatched payload. A non-nil error aborts the
// rest of the broadcast and is returned from Dispatch.
type Callback func(ctx context.Context, p Payload) error

// Dispatcher broadcasts payloads to registered callbacks.
//
// A Dispatcher is safe for concurrent use, but broadcasts never overlap:
// a Dispatch that starts while another is running returns ErrReentrant,
// whichever goroutine it comes from. Callers that dispatch from several
// goroutines must serialize their calls.
type Dispatcher struct {
	mu         sync.Mutex
	callbacks  map[Token]Callback
	order      []Token
	lastID     uint64
	middleware []Middleware
	logger     *slog.Logger

	// Broadcast state, valid while dispatching is true.
	dispatching bool
	pending     map[Token]bool
	handled     map[Token]bool
	current     Payload
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMiddleware appends middleware that wraps every broadcast.
func WithMiddleware(mw ...Middleware) Option {
	return func(d *Dispatcher) {
		d.middleware = append(d.middleware, mw...)
	}
}

// WithLogger sets the logger used for registration diagnostics.
// If nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// New creates an empty Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		callbacks: make(map[Token]Callback),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Register appends cb to the callback list and returns its token.
// Callbacks registered during a broadcast first run on the next one.
func (d *Dispatcher) Register(cb Callback) Token {
	if cb == nil {
		panic("dispatcher: Register called with nil callback")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastID++
	tok := Token(fmt.Sprintf("ID_%d", d.lastID))
	d.callbacks[tok] = cb
	d.order = append(d.order, tok)

	d.logger.Debug("dispatcher: callback registered", "token", tok)
	return tok
}

// Unregister removes the callback for tok. A callback removed during a
// broadcast is skipped if it has not run yet.
func (d *Dispatcher) Unregister(tok Token) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.callbacks[tok]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, tok)
	}
	delete(d.callbacks, tok)
	if i := slices.Index(d.order, tok); i >= 0 {
		d.order = slices.Delete(d.order, i, i+1)
	}

	d.logger.Debug("dispatcher: callback unregistered", "token", tok)
	return nil
}

// Use appends middleware. It takes effect from the next broadcast.
func (d *Dispatcher) Use(mw ...Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middleware = append(d.middleware, mw...)
}

// Len returns the number of registered callbacks.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.order)
}

// IsDispatching reports whether a broadcast is in progress.
func (d *Dispatcher) IsDispatching() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dispatching
}

// Dispatch delivers p to every registered callback in registration order.
//
// Dispatch returns ErrReentrant without delivering p if another broadcast
// is in progress. Otherwise it returns the first callback error, if any;
// callbacks after the failing one do not run. A panicking callback
// propagates the panic after the in-progress state is cleared.
func (d *Dispatcher) Dispatch(ctx context.Context, p Payload) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p = p.withID()

	d.mu.Lock()
	if d.dispatching {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrReentrant, p)
	}
	d.dispatching = true
	d.pending = make(map[Token]bool, len(d.order))
	d.handled = make(map[Token]bool, len(d.order))
	d.current = p
	mw := slices.Clone(d.middleware)
	d.mu.Unlock()

	defer d.stop()

	return Compose(ctx, p, mw, d.broadcast)
}

// WaitFor runs the callbacks for the given tokens before the caller
// continues. It may only be called from a callback during a broadcast.
// Callbacks that already ran are skipped; waiting on a callback that is
// itself waiting returns ErrCircularWait.
func (d *Dispatcher) WaitFor(ctx context.Context, tokens ...Token) error {
	d.mu.Lock()
	dispatching := d.dispatching
	d.mu.Unlock()
	if !dispatching {
		return ErrNotDispatching
	}

	for _, tok := range tokens {
		d.mu.Lock()
		pending := d.pending[tok]
		handled := d.handled[tok]
		_, registered := d.callbacks[tok]
		d.mu.Unlock()

		if pending {
			if !handled {
				return fmt.Errorf("%w: %s", ErrCircularWait, tok)
			}
			continue
		}
		if !registered {
			return fmt.Errorf("%w: %s", ErrUnknownToken, tok)
		}
		if err := d.invoke(ctx, tok); err != nil {
			return err
		}
	}
	return nil
}

// broadcast is the innermost handler of the middleware chain.
func (d *Dispatcher) broadcast(ctx context.Context, p Payload) error {
	d.mu.Lock()
	d.current = p
	order := slices.Clone(d.order)
	d.mu.Unlock()

	for _, tok := range order {
		d.mu.Lock()
		ran := d.pending[tok]
		d.mu.Unlock()
		if ran {
			continue
		}
		if err := d.invoke(ctx, tok); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) invoke(ctx context.Context, tok Token) error {
	d.mu.Lock()
	cb, ok := d.callbacks[tok]
	if ok {
		d.pending[tok] = true
	}
	p := d.current
	d.mu.Unlock()

	if !ok {
		return nil
	}
	if err := cb(ctx, p); err != nil {
		return err
	}

	d.mu.Lock()
	d.handled[tok] = true
	d.mu.Unlock()
	return nil
}

func (d *Dispatcher) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatching = false
	d.pending = nil
	d.handled = nil
	d.current = Payload{}
}
