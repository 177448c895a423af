// Package lifecycle ties outstanding asynchronous operations to the
// lifetime of a transient consumer such as a mounted view.
//
// A consumer owns a Scope. Operations added to the scope are tracked until
// they settle; when the consumer is torn down, every operation still
// outstanding is canceled with the TeardownCancel reason and its
// continuations are dropped, so late completions never touch consumer
// state.
//
//	type TodoView struct {
//	    promises *lifecycle.Scope
//	}
//
//	func (v *TodoView) Mount() {
//	    v.promises.InitialState()
//	    v.promises.AddPendingOperation(lifecycle.PendingOperation{
//	        Operation: task.Go(ctx, loadTodos),
//	        OnSuccess: func(val any) { v.todos = val.([]Todo) },
//	    })
//	}
//
//	func (v *TodoView) Unmount() { v.promises.Teardown() }
//
// Continuations run on the goroutine that settles the operation unless the
// scope has an executor (WithExecutor), in which case they are handed to it.
// Pass the consumer's own event loop to make delivery and teardown
// strictly sequential.
package lifecycle
