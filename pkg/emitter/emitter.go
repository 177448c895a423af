// Package emitter provides the synchronous publish/subscribe capability
// attached to every fluxe store.
//
// Stores emit named events after they mutate state; views subscribe to
// those events to re-read the store. Delivery is synchronous and
// in-process: Emit calls every listener subscribed at the time of the call,
// in subscription order, before returning.
//
// The zero value is ready to use.
package emitter

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Listener receives the arguments passed to Emit.
type Listener func(args ...any)

// Subscription is the handle returned by Subscribe and Once.
type Subscription struct {
	id       string
	event    string
	fn       Listener
	once     bool
	emitter  *Emitter
	canceled atomic.Bool
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string { return s.id }

// Event returns the subscribed event name.
func (s *Subscription) Event() string { return s.event }

// Active reports whether the subscription still receives events.
func (s *Subscription) Active() bool { return !s.canceled.Load() }

// Unsubscribe removes the subscription. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.emitter.Unsubscribe(s.event, s)
}

// Emitter is a set of listeners keyed by event name.
type Emitter struct {
	mu        sync.RWMutex
	listeners map[string][]*Subscription
	order     []string // event names in first-subscription order
}

// New creates an Emitter.
func New() *Emitter {
	return &Emitter{}
}

// Subscribe registers fn for event.
func (e *Emitter) Subscribe(event string, fn Listener) *Subscription {
	return e.add(event, fn, false)
}

// Once registers fn for the next emission of event only.
func (e *Emitter) Once(event string, fn Listener) *Subscription {
	return e.add(event, fn, true)
}

func (e *Emitter) add(event string, fn Listener, once bool) *Subscription {
	if fn == nil {
		panic("emitter: nil listener")
	}
	sub := &Subscription{
		id:      uuid.NewString(),
		event:   event,
		fn:      fn,
		once:    once,
		emitter: e,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[string][]*Subscription)
	}
	if _, ok := e.listeners[event]; !ok {
		e.order = append(e.order, event)
	}
	e.listeners[event] = append(e.listeners[event], sub)
	return sub
}

// Unsubscribe removes sub from event. Removing an unknown subscription is
// a no-op.
func (e *Emitter) Unsubscribe(event string, sub *Subscription) {
	if sub == nil {
		return
	}
	sub.canceled.Store(true)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeLocked(event, sub)
}

func (e *Emitter) removeLocked(event string, sub *Subscription) {
	subs := e.listeners[event]
	i := slices.Index(subs, sub)
	if i < 0 {
		return
	}
	subs = slices.Delete(subs, i, i+1)
	if len(subs) == 0 {
		delete(e.listeners, event)
		if j := slices.Index(e.order, event); j >= 0 {
			e.order = slices.Delete(e.order, j, j+1)
		}
		return
	}
	e.listeners[event] = subs
}

// Emit calls every listener of event with args and reports whether event
// had listeners. Listeners added or removed during Emit take effect on the
// next emission.
func (e *Emitter) Emit(event string, args ...any) bool {
	e.mu.RLock()
	subs := slices.Clone(e.listeners[event])
	e.mu.RUnlock()

	if len(subs) == 0 {
		return false
	}

	for _, sub := range subs {
		if sub.once {
			// Only the first emission to claim a once listener delivers to it.
			if !sub.canceled.CompareAndSwap(false, true) {
				continue
			}
			e.mu.Lock()
			e.removeLocked(event, sub)
			e.mu.Unlock()
		} else if sub.canceled.Load() {
			continue
		}
		sub.fn(args...)
	}
	return true
}

// ListenerCount returns the number of listeners for event.
func (e *Emitter) ListenerCount(event string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[event])
}

// EventNames returns the events that currently have listeners, in the
// order they were first subscribed.
func (e *Emitter) EventNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.order)
}

// RemoveAll removes every listener for the given events, or for all events
// when none are given.
func (e *Emitter) RemoveAll(events ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(events) == 0 {
		for _, subs := range e.listeners {
			for _, sub := range subs {
				sub.canceled.Store(true)
			}
		}
		e.listeners = nil
		e.order = nil
		return
	}

	for _, event := range events {
		for _, sub := range e.listeners[event] {
			sub.canceled.Store(true)
		}
		delete(e.listeners, event)
		if j := slices.Index(e.order, event); j >= 0 {
			e.order = slices.Delete(e.order, j, j+1)
		}
	}
}
