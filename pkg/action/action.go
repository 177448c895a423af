// Package action synthesizes the callable actions of a store.
//
// Every event of a registered store gets an Action. Invoking it sends
// exactly one payload through the dispatcher, addressed to the store that
// declared the event.
package action

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/vango-dev/fluxe/pkg/dispatcher"
)

// ErrUnknownAction is returned by Set.Invoke for an event the store does
// not declare.
var ErrUnknownAction = errors.New("action: unknown action")

// Action triggers one event on one store.
type Action func(ctx context.Context, options any) error

// Dispatcher is the part of *dispatcher.Dispatcher an action needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, p dispatcher.Payload) error
}

// Set holds the actions of one store, keyed by event name.
// A Set is immutable once built.
type Set struct {
	storeID string
	names   []string
	actions map[string]Action
}

// Synthesize builds the action set for storeID. events is the store's
// ordered event list.
func Synthesize(storeID string, events []string, d Dispatcher) *Set {
	s := &Set{
		storeID: storeID,
		names:   slices.Clone(events),
		actions: make(map[string]Action, len(events)),
	}
	for _, event := range events {
		s.actions[event] = bind(storeID, event, d)
	}
	return s
}

func bind(storeID, event string, d Dispatcher) Action {
	return func(ctx context.Context, options any) error {
		return d.Dispatch(ctx, dispatcher.Payload{
			Store:   storeID,
			Event:   event,
			Options: options,
		})
	}
}

// StoreID returns the store the actions target.
func (s *Set) StoreID() string { return s.storeID }

// Get returns the action for event.
func (s *Set) Get(event string) (Action, bool) {
	a, ok := s.actions[event]
	return a, ok
}

// Invoke runs the action for event.
func (s *Set) Invoke(ctx context.Context, event string, options any) error {
	a, ok := s.actions[event]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownAction, s.storeID, event)
	}
	return a(ctx, options)
}

// Names returns the action names in declaration order.
func (s *Set) Names() []string {
	return slices.Clone(s.names)
}

// Len returns the number of actions.
func (s *Set) Len() int {
	return len(s.names)
}
