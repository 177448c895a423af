package store

import (
	"context"
	"fmt"
	"reflect"
)

// Handler handles one event on a store. options is whatever the caller
// passed to the action, unvalidated.
type Handler func(ctx context.Context, options any) error

// Binding ties an event name to a handler. Exactly one of Method and
// Handler must be set.
type Binding struct {
	Event   string
	Method  string
	Handler Handler
}

// EventMap is an ordered list of bindings. Event names must be unique.
type EventMap []Binding

// Events returns the event names in declaration order.
func (m EventMap) Events() []string {
	names := make([]string, len(m))
	for i, b := range m {
		names[i] = b.Event
	}
	return names
}

// On binds event to h.
func On(event string, h Handler) Binding {
	return Binding{Event: event, Handler: h}
}

// Method binds event to the store method with the given name. The method
// is looked up when the dispatch table is built and may have any of these
// shapes, with or without a trailing error result:
//
//	func()
//	func(opts T)
//	func(ctx context.Context)
//	func(ctx context.Context, opts T)
func Method(event, method string) Binding {
	return Binding{Event: event, Method: method}
}

// Methods builds an event map from alternating event and method names.
//
//	store.Methods("increment", "HandleIncrement", "reset", "HandleReset")
func Methods(pairs ...string) EventMap {
	if len(pairs)%2 != 0 {
		panic("store: Methods requires event, method pairs")
	}
	m := make(EventMap, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		m = append(m, Method(pairs[i], pairs[i+1]))
	}
	return m
}

// Handle binds event to a handler that takes typed options. Nil options
// arrive as the zero value of T; options of any other type fail with an
// OptionsError.
func Handle[T any](event string, fn func(ctx context.Context, opts T) error) Binding {
	want := reflect.TypeOf((*T)(nil)).Elem()
	return On(event, func(ctx context.Context, options any) error {
		var opts T
		if options != nil {
			v, ok := options.(T)
			if !ok {
				return &OptionsError{Event: event, Want: want.String(), Got: fmt.Sprintf("%T", options)}
			}
			opts = v
		}
		return fn(ctx, opts)
	})
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// methodHandler adapts the named method of s into a Handler.
func methodHandler(s Store, event, name string) (Handler, error) {
	m := reflect.ValueOf(s).MethodByName(name)
	if !m.IsValid() {
		return nil, ErrMethodNotFound
	}

	mt := m.Type()
	if mt.IsVariadic() || mt.NumOut() > 1 || (mt.NumOut() == 1 && mt.Out(0) != errorType) {
		return nil, ErrMethodSignature
	}

	var (
		withCtx  bool
		optsType reflect.Type
	)
	switch in := mt.NumIn(); {
	case in == 0:
	case in == 1 && mt.In(0) == contextType:
		withCtx = true
	case in == 1:
		optsType = mt.In(0)
	case in == 2 && mt.In(0) == contextType:
		withCtx = true
		optsType = mt.In(1)
	default:
		return nil, ErrMethodSignature
	}

	return func(ctx context.Context, options any) error {
		args := make([]reflect.Value, 0, 2)
		if withCtx {
			if ctx == nil {
				ctx = context.Background()
			}
			args = append(args, reflect.ValueOf(ctx))
		}
		if optsType != nil {
			v, err := optionsValue(event, options, optsType)
			if err != nil {
				return err
			}
			args = append(args, v)
		}

		out := m.Call(args)
		if len(out) == 1 && !out[0].IsNil() {
			return out[0].Interface().(error)
		}
		return nil
	}, nil
}

func optionsValue(event string, options any, t reflect.Type) (reflect.Value, error) {
	if options == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(options)
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, &OptionsError{Event: event, Want: t.String(), Got: v.Type().String()}
	}
	return v, nil
}
