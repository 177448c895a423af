package store

import "slices"

// Table is a store's resolved dispatch table: every declared event mapped
// to a callable handler.
type Table struct {
	events   []string
	handlers map[string]Handler
}

// Resolve reads s's event map and binds every entry to a handler.
// It fails with ErrEmptyEventMap or a *BindingError.
func Resolve(s Store) (*Table, error) {
	m := s.EventMap()
	if len(m) == 0 {
		return nil, ErrEmptyEventMap
	}

	t := &Table{
		events:   make([]string, 0, len(m)),
		handlers: make(map[string]Handler, len(m)),
	}

	for i, b := range m {
		fail := func(reason error) error {
			return &BindingError{Index: i, Event: b.Event, Method: b.Method, Reason: reason}
		}

		if b.Event == "" {
			return nil, fail(ErrEmptyEvent)
		}
		if _, dup := t.handlers[b.Event]; dup {
			return nil, fail(ErrDuplicateEvent)
		}

		h := b.Handler
		switch {
		case h != nil && b.Method != "":
			return nil, fail(ErrAmbiguousBinding)
		case h == nil && b.Method == "":
			return nil, fail(ErrNoHandler)
		case h == nil:
			var err error
			if h, err = methodHandler(s, b.Event, b.Method); err != nil {
				return nil, fail(err)
			}
		}

		t.events = append(t.events, b.Event)
		t.handlers[b.Event] = h
	}

	return t, nil
}

// Lookup returns the handler for event.
func (t *Table) Lookup(event string) (Handler, bool) {
	h, ok := t.handlers[event]
	return h, ok
}

// Events returns the event names in declaration order.
func (t *Table) Events() []string {
	return slices.Clone(t.events)
}

// Len returns the number of events in the table.
func (t *Table) Len() int {
	return len(t.events)
}
