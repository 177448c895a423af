// Package task provides a cancellable asynchronous result with
// continuation callbacks.
//
// A Task settles exactly once: resolved with a value, rejected with an
// error, or canceled. Continuations attached with Then run on the goroutine
// that settles the task; continuations attached after settlement run
// immediately on the caller's goroutine.
//
//	t := task.Go(ctx, func(ctx context.Context) (any, error) {
//	    return client.FetchUser(ctx, id)
//	})
//	t.Then(
//	    func(v any) { user = v.(*User) },
//	    func(err error) { log.Println(err) },
//	)
//	t.Cancel("navigated away") // error path receives an error whose message is the reason
package task

import (
	"context"
	"errors"
	"sync"
)

// ErrCanceled matches every *CancelError via errors.Is.
var ErrCanceled = errors.New("task: canceled")

// ErrNilRejection replaces a nil error passed to Reject.
var ErrNilRejection = errors.New("task: rejected with nil error")

// CancelError is the error a canceled task settles with. Its message is
// exactly the cancel reason.
type CancelError struct {
	Reason string
}

// Error returns the cancel reason.
func (e *CancelError) Error() string { return e.Reason }

// Is reports whether target is ErrCanceled.
func (e *CancelError) Is(target error) bool { return target == ErrCanceled }

// IsCanceled reports whether err comes from Task.Cancel.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

type continuation struct {
	onSuccess func(value any)
	onError   func(err error)
}

// Task is a single asynchronous result.
type Task struct {
	mu      sync.Mutex
	settled bool
	value   any
	err     error
	conts   []continuation
	done    chan struct{}
	stop    context.CancelCauseFunc
}

// New returns a pending task settled by Resolve, Reject or Cancel.
func New() *Task {
	return &Task{done: make(chan struct{})}
}

// Resolved returns a task already resolved with v.
func Resolved(v any) *Task {
	t := New()
	t.Resolve(v)
	return t
}

// Rejected returns a task already rejected with err.
func Rejected(err error) *Task {
	t := New()
	t.Reject(err)
	return t
}

// Go runs fn on a new goroutine and settles the task with its result.
// The context passed to fn is canceled, with the *CancelError as cause,
// when the task is canceled.
func Go(ctx context.Context, fn func(ctx context.Context) (any, error)) *Task {
	ctx, stop := context.WithCancelCause(ctx)
	t := New()
	t.stop = stop

	go func() {
		defer stop(nil)
		v, err := fn(ctx)
		if err != nil {
			t.Reject(err)
			return
		}
		t.Resolve(v)
	}()
	return t
}

// Resolve settles the task with v. It reports false if the task had
// already settled.
func (t *Task) Resolve(v any) bool {
	return t.settle(v, nil)
}

// Reject settles the task with err. It reports false if the task had
// already settled.
func (t *Task) Reject(err error) bool {
	if err == nil {
		err = ErrNilRejection
	}
	return t.settle(nil, err)
}

// Cancel rejects a pending task with a *CancelError carrying reason and
// cancels the context of a task started with Go. Canceling a settled task
// is a no-op.
func (t *Task) Cancel(reason string) {
	err := &CancelError{Reason: reason}
	if t.settle(nil, err) && t.stop != nil {
		t.stop(err)
	}
}

// Then attaches continuations. Either may be nil.
func (t *Task) Then(onSuccess func(value any), onError func(err error)) {
	c := continuation{onSuccess: onSuccess, onError: onError}

	t.mu.Lock()
	if !t.settled {
		t.conts = append(t.conts, c)
		t.mu.Unlock()
		return
	}
	v, err := t.value, t.err
	t.mu.Unlock()

	run(c, v, err)
}

// Done is closed when the task settles.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Settled reports whether the task has settled.
func (t *Task) Settled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settled
}

// Wait blocks until the task settles or ctx is done.
func (t *Task) Wait(ctx context.Context) (any, error) {
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.value, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *Task) settle(v any, err error) bool {
	t.mu.Lock()
	if t.settled {
		t.mu.Unlock()
		return false
	}
	t.settled = true
	t.value = v
	t.err = err
	conts := t.conts
	t.conts = nil
	close(t.done)
	t.mu.Unlock()

	for _, c := range conts {
		run(c, v, err)
	}
	return true
}

func run(c continuation, v any, err error) {
	if err != nil {
		if c.onError != nil {
			c.onError(err)
		}
		return
	}
	if c.onSuccess != nil {
		c.onSuccess(v)
	}
}
