package demo

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/fluxe/pkg/action"
	"github.com/vango-dev/fluxe/pkg/lifecycle"
	"github.com/vango-dev/fluxe/pkg/store"
	"github.com/vango-dev/fluxe/pkg/task"
)

// Source produces a todo list, typically from a remote service.
type Source func(ctx context.Context) ([]Item, error)

// FileSource reads a todo list from a YAML or JSON file. Each entry needs
// a title. Entries without an ID get a fresh one.
func FileSource(path string) Source {
	return func(ctx context.Context) ([]Item, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("demo: read seed file: %w", err)
		}
		var items []Item
		if err := yaml.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("demo: parse seed file %s: %w", path, err)
		}
		for i := range items {
			if items[i].Title == "" {
				return nil, fmt.Errorf("demo: seed item %d: %w", i, ErrEmptyTitle)
			}
			if items[i].ID == "" {
				items[i].ID = uuid.NewString()
			}
		}
		return items, ctx.Err()
	}
}

// Loader is a consumer of the todos store. It runs loads in the
// background and replaces the list with each result. Loads still running
// when the loader closes are canceled and their results dropped.
type Loader struct {
	actions  *action.Set
	promises *lifecycle.Scope
	logger   *slog.Logger
}

// NewLoader creates a loader that drives actions, the todos action set.
func NewLoader(actions *action.Set, logger *slog.Logger, opts ...lifecycle.Option) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{
		actions:  actions,
		promises: lifecycle.NewScope(append([]lifecycle.Option{lifecycle.WithLogger(logger)}, opts...)...),
		logger:   logger,
	}
	l.promises.InitialState()
	return l
}

// Load starts src and tracks it until it settles. Failures are logged by
// the scope.
func (l *Loader) Load(ctx context.Context, src Source) *lifecycle.Guard {
	t := task.Go(ctx, func(ctx context.Context) (any, error) {
		return src(ctx)
	})
	return l.promises.AddPendingOperation(lifecycle.PendingOperation{
		Operation: t,
		OnSuccess: func(v any) {
			items, _ := v.([]Item)
			if err := l.actions.Invoke(context.Background(), "replace", items); err != nil {
				l.logger.Warn("demo: cannot apply loaded todos", "error", err)
			}
		},
	})
}

// Pending returns the number of loads still running.
func (l *Loader) Pending() int {
	return l.promises.Len()
}

// Close cancels every running load.
func (l *Loader) Close() {
	l.promises.Teardown()
}

// Registrar is the part of *fluxe.Fluxe Register needs.
type Registrar interface {
	AddStore(s store.Store) error
}

// Register creates the demo stores and adds them to r.
func Register(r Registrar) (*Counter, *Todos, error) {
	c, t := NewCounter(), NewTodos()
	for _, s := range []store.Store{c, t} {
		if err := r.AddStore(s); err != nil {
			return nil, nil, err
		}
	}
	return c, t, nil
}
