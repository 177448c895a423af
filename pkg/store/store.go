package store

import "github.com/vango-dev/fluxe/pkg/emitter"

// Store is a named unit of application state.
type Store interface {
	// StoreID returns the identifier used to route payloads to the store.
	StoreID() string

	// EventMap returns the store's ordered event bindings. It is read once,
	// at registration.
	EventMap() EventMap

	// Emitter returns the emitter observers subscribe to.
	Emitter() *emitter.Emitter
}

// Base carries a store identifier and an emitter. Embed it in store types
// to satisfy the identifier and emitter parts of Store.
type Base struct {
	id      string
	emitter *emitter.Emitter
}

// NewBase creates a Base with the given identifier and a fresh emitter.
func NewBase(id string) Base {
	return Base{id: id, emitter: emitter.New()}
}

// StoreID implements Store.
func (b Base) StoreID() string { return b.id }

// Emitter implements Store.
func (b Base) Emitter() *emitter.Emitter { return b.emitter }

// Subscribe registers fn for event on the store's emitter.
func (b Base) Subscribe(event string, fn emitter.Listener) *emitter.Subscription {
	return b.emitter.Subscribe(event, fn)
}

// Unsubscribe removes sub from event on the store's emitter.
func (b Base) Unsubscribe(event string, sub *emitter.Subscription) {
	b.emitter.Unsubscribe(event, sub)
}

// Emit notifies the store's observers.
func (b Base) Emit(event string, args ...any) bool {
	return b.emitter.Emit(event, args...)
}
