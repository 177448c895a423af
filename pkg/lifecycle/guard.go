package lifecycle

import "slices"

// Guard scopes one tracked operation. Releasing it cancels the operation
// and drops its continuations.
type Guard struct {
	scope *Scope
	entry *entry
}

// Operation returns the guarded operation.
func (g *Guard) Operation() Operation {
	return g.entry.op
}

// Released reports whether the operation has left its scope, by settling,
// by Release, or by Teardown.
func (g *Guard) Released() bool {
	g.scope.mu.Lock()
	defer g.scope.mu.Unlock()
	return g.entry.released
}

// Release cancels the operation with TeardownCancel unless it already
// left the scope. It is safe to call more than once.
func (g *Guard) Release() {
	s := g.scope
	s.mu.Lock()
	if g.entry.released {
		s.mu.Unlock()
		return
	}
	g.entry.released = true
	tracked := !g.entry.untracked
	s.pending = slices.DeleteFunc(s.pending, func(e *entry) bool { return e == g.entry })
	s.mu.Unlock()

	g.entry.op.Cancel(TeardownCancel)
	if tracked && s.observer != nil {
		s.observer.OperationSettled(OutcomeCanceled)
	}
}
