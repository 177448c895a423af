package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyEventMap is returned when a store declares no events.
	ErrEmptyEventMap = errors.New("store: event map must declare at least one event")

	// ErrInvalidBinding is the parent of every per-binding failure.
	ErrInvalidBinding = errors.New("store: invalid event binding")

	// ErrEmptyEvent is returned when a binding has no event name.
	ErrEmptyEvent = errors.New("store: event name is empty")

	// ErrDuplicateEvent is returned when two bindings name the same event.
	ErrDuplicateEvent = errors.New("store: event name declared twice")

	// ErrNoHandler is returned when a binding has neither a handler nor a
	// method name.
	ErrNoHandler = errors.New("store: binding has neither handler nor method")

	// ErrAmbiguousBinding is returned when a binding has both a handler and
	// a method name.
	ErrAmbiguousBinding = errors.New("store: binding has both handler and method")

	// ErrMethodNotFound is returned when a bound method does not exist on
	// the store.
	ErrMethodNotFound = errors.New("store: method not found on store")

	// ErrMethodSignature is returned when a bound method is not one of the
	// supported handler shapes.
	ErrMethodSignature = errors.New("store: method has an unsupported signature")

	// ErrOptionsType is returned by typed handlers when the dispatched
	// options do not have the expected type.
	ErrOptionsType = errors.New("store: options have unexpected type")
)

// BindingError reports why one entry of an event map was rejected.
type BindingError struct {
	Index  int
	Event  string
	Method string
	Reason error
}

// Error implements the error interface.
func (e *BindingError) Error() string {
	reason := strings.TrimPrefix(e.Reason.Error(), "store: ")
	if e.Method != "" {
		return fmt.Sprintf("store: binding %d (event %q, method %q): %s", e.Index, e.Event, e.Method, reason)
	}
	return fmt.Sprintf("store: binding %d (event %q): %s", e.Index, e.Event, reason)
}

// Unwrap allows errors.Is against ErrInvalidBinding and the specific reason.
func (e *BindingError) Unwrap() []error {
	return []error{ErrInvalidBinding, e.Reason}
}

// OptionsError reports an options value a handler could not accept.
type OptionsError struct {
	Event string
	Want  string
	Got   string
}

// Error implements the error interface.
func (e *OptionsError) Error() string {
	return fmt.Sprintf("store: event %q expects options of type %s, got %s", e.Event, e.Want, e.Got)
}

// Unwrap returns ErrOptionsType.
func (e *OptionsError) Unwrap() error {
	return ErrOptionsType
}
