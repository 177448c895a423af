package demo

import (
	"sync"

	"github.com/vango-dev/fluxe/pkg/store"
)

// CounterID is the identifier of the counter store.
const CounterID = "counter"

// Counter is a store holding one integer.
type Counter struct {
	store.Base

	mu    sync.Mutex
	count int
}

// NewCounter creates a counter at zero.
func NewCounter() *Counter {
	return &Counter{Base: store.NewBase(CounterID)}
}

func (c *Counter) EventMap() store.EventMap {
	return store.Methods(
		"increment", "Increment",
		"decrement", "Decrement",
		"reset", "Reset",
	)
}

// Increment adds by, or one when by is zero.
func (c *Counter) Increment(by int) {
	if by == 0 {
		by = 1
	}
	c.set(func(n int) int { return n + by })
}

// Decrement subtracts by, or one when by is zero.
func (c *Counter) Decrement(by int) {
	if by == 0 {
		by = 1
	}
	c.set(func(n int) int { return n - by })
}

func (c *Counter) Reset() {
	c.set(func(int) int { return 0 })
}

// Count returns the current value.
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func (c *Counter) Snapshot() any {
	return map[string]int{"count": c.Count()}
}

// DecodeOptions accepts a bare JSON number for increment and decrement.
func (c *Counter) DecodeOptions(event string, raw []byte) (any, error) {
	var by int
	if err := unmarshal(raw, &by); err != nil {
		return nil, err
	}
	return by, nil
}

func (c *Counter) set(fn func(int) int) {
	c.mu.Lock()
	c.count = fn(c.count)
	n := c.count
	c.mu.Unlock()
	c.Emit(EventChange, n)
}
