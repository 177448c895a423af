package dispatcher

import "errors"

var (
	// ErrReentrant is returned when Dispatch is called while a broadcast is
	// already in progress. The nested payload is not delivered.
	ErrReentrant = errors.New("dispatcher: cannot dispatch in the middle of a dispatch")

	// ErrNotDispatching is returned by WaitFor outside of a broadcast.
	ErrNotDispatching = errors.New("dispatcher: WaitFor must be invoked while dispatching")

	// ErrUnknownToken is returned when a token does not name a registered callback.
	ErrUnknownToken = errors.New("dispatcher: token does not map to a registered callback")

	// ErrCircularWait is returned by WaitFor when two callbacks wait on each other.
	ErrCircularWait = errors.New("dispatcher: circular dependency detected while waiting")
)
