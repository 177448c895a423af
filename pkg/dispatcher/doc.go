// Package dispatcher provides the central broadcast point for fluxe.
//
// A Dispatcher holds an ordered list of callbacks. Dispatch hands a Payload
// to every callback, synchronously and in registration order. Only one
// broadcast may be in progress at a time: calling Dispatch from inside a
// callback (or from anywhere else while a broadcast runs) fails with
// ErrReentrant instead of queueing or blocking.
//
//	d := dispatcher.New()
//	tok := d.Register(func(ctx context.Context, p dispatcher.Payload) error {
//	    if p.Store == "todos" {
//	        // handle p.Event
//	    }
//	    return nil
//	})
//	defer d.Unregister(tok)
//
//	err := d.Dispatch(ctx, dispatcher.Payload{Store: "todos", Event: "add"})
//
// # Ordering
//
// Callbacks registered earlier run first. WaitFor lets a callback force
// other callbacks to run before it continues within the same broadcast.
//
// # Middleware
//
// Middleware wraps each broadcast as a whole. It is the hook used for
// logging, metrics, tracing and the devtools stream.
package dispatcher
