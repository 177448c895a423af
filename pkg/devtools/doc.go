// Package devtools serves an HTTP inspection surface for a fluxe
// instance.
//
// Routes:
//
//	GET  /stores                         registered stores and their events
//	GET  /stores/{id}                    one store, with its snapshot if it has one
//	POST /stores/{id}/actions/{event}    invoke an action; the body is JSON options
//	GET  /stream                         WebSocket feed of every broadcast
//	GET  /metrics                        Prometheus metrics, when a gatherer is set
//
// The stream only sees broadcasts when the server's Middleware is
// installed on the dispatcher:
//
//	dt := devtools.New(f, devtools.Config{Logger: logger})
//	f.Dispatcher().Use(dt.Middleware())
//	http.ListenAndServe(":7070", dt.Handler())
//
// Devtools is meant for development; the stream accepts any origin.
package devtools
