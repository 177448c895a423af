package fluxe

import (
	"sync"

	"github.com/vango-dev/fluxe/pkg/action"
	"github.com/vango-dev/fluxe/pkg/dispatcher"
	"github.com/vango-dev/fluxe/pkg/store"
)

var (
	defaultMu sync.RWMutex
	defaultF  *Fluxe
)

// Default returns the process-wide instance, creating it with
// DefaultConfig on first use.
func Default() *Fluxe {
	defaultMu.RLock()
	f := defaultF
	defaultMu.RUnlock()
	if f != nil {
		return f
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultF == nil {
		defaultF = New(DefaultConfig())
	}
	return defaultF
}

// SetDefault replaces the process-wide instance and returns the previous
// one. Passing nil makes the next Default call create a fresh instance.
func SetDefault(f *Fluxe) *Fluxe {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultF
	defaultF = f
	return prev
}

// AddStore registers s with the default instance.
func AddStore(s store.Store) error {
	return Default().AddStore(s)
}

// GetStore returns a store registered with the default instance.
func GetStore(id string) (store.Store, error) {
	return Default().Store(id)
}

// GetActions returns the actions of a store registered with the default
// instance.
func GetActions(id string) (*action.Set, error) {
	return Default().Actions(id)
}

// Dispatcher returns the default instance's dispatcher.
func Dispatcher() *dispatcher.Dispatcher {
	return Default().Dispatcher()
}
