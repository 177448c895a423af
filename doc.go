// Package fluxe is a mediator between views and stores.
//
// A Fluxe instance owns one dispatcher and a registry of stores. Every store
// declares the events it answers through an event map; registering it
// resolves that map into a dispatch table and synthesizes one action per
// event. Invoking an action broadcasts a payload addressed to the store,
// and the store's handler for the event runs.
//
//	type Counter struct {
//	    store.Base
//	    n int
//	}
//
//	func (c *Counter) EventMap() store.EventMap {
//	    return store.Methods("increment", "Increment")
//	}
//
//	func (c *Counter) Increment() {
//	    c.n++
//	    c.Emit("change", c.n)
//	}
//
//	f := fluxe.New(fluxe.Config{})
//	_ = f.AddStore(&Counter{Base: store.NewBase("counter")})
//	actions, _ := f.Actions("counter")
//	_ = actions.Invoke(ctx, "increment", nil)
//
// Dispatching is not reentrant: invoking an action while a broadcast is in
// progress fails with ErrReentrant.
//
// A process-wide instance is reachable through Default and the
// package-level AddStore, GetStore and GetActions functions. Consumers that
// track asynchronous work obtain a scope through Mixins.StorePromises.
package fluxe
