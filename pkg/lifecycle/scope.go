package lifecycle

import (
	"log/slog"
	"slices"
	"sync"
)

// TeardownCancel is the reason outstanding operations are canceled with
// when their scope is torn down or their guard is released. Failures with
// this message are never logged.
const TeardownCancel = "component unmount cancel"

// IsTeardownCancel reports whether err is the cancellation issued by
// Teardown or Guard.Release.
func IsTeardownCancel(err error) bool {
	return err != nil && err.Error() == TeardownCancel
}

// Operation is an asynchronous computation that accepts continuations and
// can be asked to cancel. Canceling must route an error whose message is
// the reason to the error continuation. *task.Task implements Operation.
//
// Operations are tracked by identity, so implementations must be
// comparable (pointer types are).
type Operation interface {
	Then(onSuccess func(value any), onError func(err error))
	Cancel(reason string)
}

// PendingOperation is an operation and the continuations to run when it
// settles. OnSuccess and OnError may be nil.
type PendingOperation struct {
	Operation Operation
	OnSuccess func(value any)
	OnError   func(err error)
}

// State is the consumer-visible view of a scope.
type State struct {
	ActiveOperations []Operation
}

// Outcome labels how a tracked operation left its scope.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeError    Outcome = "error"
	OutcomeCanceled Outcome = "canceled"
	OutcomeRemoved  Outcome = "removed"
)

// Observer is notified as operations enter and leave a scope.
type Observer interface {
	OperationAdded()
	OperationSettled(outcome Outcome)
}

// Option configures a Scope.
type Option func(*Scope)

// WithLogger sets the logger for unhandled operation failures.
// If nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scope) {
		s.logger = logger
	}
}

// WithExecutor hands every continuation to exec instead of running it on
// the settling goroutine.
func WithExecutor(exec func(fn func())) Option {
	return func(s *Scope) {
		s.executor = exec
	}
}

// WithObserver reports operation counts to o.
func WithObserver(o Observer) Option {
	return func(s *Scope) {
		s.observer = o
	}
}

// entry is one operation added to a scope. Both flags are guarded by
// Scope.mu. An untracked entry still runs its continuations but is no
// longer counted by the observer.
type entry struct {
	op        Operation
	released  bool
	untracked bool
}

// Scope tracks the outstanding operations of one consumer.
// The zero value is ready to use.
type Scope struct {
	mu       sync.Mutex
	pending  []*entry
	torn     bool
	logger   *slog.Logger
	executor func(fn func())
	observer Observer
}

// NewScope creates a Scope.
func NewScope(opts ...Option) *Scope {
	s := &Scope{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitialState resets the scope for a freshly mounted consumer and returns
// its empty state.
func (s *Scope) InitialState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.torn = false
	return State{ActiveOperations: []Operation{}}
}

// State returns a snapshot of the outstanding operations.
func (s *Scope) State() State {
	return State{ActiveOperations: s.Pending()}
}

// Pending returns the outstanding operations in the order they were added.
func (s *Scope) Pending() []Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := make([]Operation, len(s.pending))
	for i, e := range s.pending {
		ops[i] = e.op
	}
	return ops
}

// Len returns the number of outstanding operations.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// AddPendingOperation tracks p.Operation until it settles.
//
// On success OnSuccess runs once and the operation leaves the scope. On
// failure the operation leaves the scope and OnError runs; without OnError
// the failure is logged unless it is the teardown cancellation. Adding to
// a torn-down scope cancels the operation immediately.
func (s *Scope) AddPendingOperation(p PendingOperation) *Guard {
	if p.Operation == nil {
		panic("lifecycle: AddPendingOperation called with nil Operation")
	}
	e := &entry{op: p.Operation}
	g := &Guard{scope: s, entry: e}

	s.mu.Lock()
	if s.torn {
		e.released = true
		s.mu.Unlock()
		p.Operation.Cancel(TeardownCancel)
		return g
	}
	s.pending = append(s.pending, e)
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.OperationAdded()
	}

	p.Operation.Then(
		func(value any) {
			s.deliver(func() {
				if !s.settle(e, OutcomeSuccess) {
					return
				}
				if p.OnSuccess != nil {
					p.OnSuccess(value)
				}
			})
		},
		func(err error) {
			s.deliver(func() {
				if !s.settle(e, OutcomeError) {
					if !IsTeardownCancel(err) {
						s.log().Debug("lifecycle: ignoring failure of released operation", "error", err)
					}
					return
				}
				switch {
				case p.OnError != nil:
					p.OnError(err)
				case !IsTeardownCancel(err):
					s.log().Error("lifecycle: pending operation failed", "error", err)
				}
			})
		},
	)
	return g
}

// RemovePendingOperation stops tracking op. Removing an operation that is
// not tracked is a no-op.
//
// The operation is not canceled and its continuations still run when it
// settles, even after Teardown, since Teardown only cancels what the scope
// still tracks. Use Guard.Release to cancel and drop it instead.
func (s *Scope) RemovePendingOperation(op Operation) {
	s.mu.Lock()
	removed := 0
	s.pending = slices.DeleteFunc(s.pending, func(e *entry) bool {
		if e.op != op {
			return false
		}
		e.untracked = true
		removed++
		return true
	})
	s.mu.Unlock()

	if s.observer != nil {
		for i := 0; i < removed; i++ {
			s.observer.OperationSettled(OutcomeRemoved)
		}
	}
}

// Teardown cancels every outstanding operation with TeardownCancel. Their
// continuations, and those of operations added later, are dropped.
func (s *Scope) Teardown() {
	s.mu.Lock()
	s.torn = true
	entries := s.pending
	s.pending = nil
	for _, e := range entries {
		e.released = true
	}
	s.mu.Unlock()

	for _, e := range entries {
		e.op.Cancel(TeardownCancel)
		if s.observer != nil {
			s.observer.OperationSettled(OutcomeCanceled)
		}
	}
}

// settle removes e from the scope. It reports false when e was already
// released, in which case its continuation must not run.
func (s *Scope) settle(e *entry, outcome Outcome) bool {
	s.mu.Lock()
	if e.released {
		s.mu.Unlock()
		return false
	}
	e.released = true
	tracked := !e.untracked
	s.pending = slices.DeleteFunc(s.pending, func(x *entry) bool { return x == e })
	s.mu.Unlock()

	if tracked && s.observer != nil {
		s.observer.OperationSettled(outcome)
	}
	return true
}

func (s *Scope) deliver(fn func()) {
	if s.executor != nil {
		s.executor(fn)
		return
	}
	fn()
}

func (s *Scope) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
