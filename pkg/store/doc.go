// Package store defines what a fluxe store is and how its event map is
// turned into a dispatch table.
//
// A store is any type that reports an identifier, an ordered event map and
// an emitter. Embedding Base provides the identifier and the emitter:
//
//	type Counter struct {
//	    store.Base
//	    count int
//	}
//
//	func NewCounter() *Counter {
//	    return &Counter{Base: store.NewBase("counter")}
//	}
//
//	func (c *Counter) EventMap() store.EventMap {
//	    return store.EventMap{
//	        store.Handle("increment", c.increment),
//	        store.Method("reset", "Reset"),
//	    }
//	}
//
// Bindings name their handler either directly (On, Handle) or by method
// name (Method, Methods). Method names are resolved once, when the table
// is built, so a misspelled method fails registration instead of being
// silently ignored at dispatch time.
package store
