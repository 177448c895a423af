package fluxe

import "github.com/vango-dev/fluxe/pkg/lifecycle"

// StorePromises tracks a consumer's outstanding asynchronous operations
// and cancels them when the consumer is torn down.
type StorePromises = lifecycle.Scope

// NewStorePromises creates a StorePromises scope.
func NewStorePromises(opts ...lifecycle.Option) *StorePromises {
	return lifecycle.NewScope(opts...)
}

// Mixins groups the helpers consumers attach to themselves.
var Mixins = struct {
	StorePromises func(opts ...lifecycle.Option) *StorePromises
}{
	StorePromises: NewStorePromises,
}
