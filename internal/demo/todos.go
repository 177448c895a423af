package demo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/vango-dev/fluxe/pkg/store"
)

// TodosID is the identifier of the todo list store.
const TodosID = "todos"

// EventChange is emitted by every demo store after its state changes.
const EventChange = "change"

var (
	ErrEmptyTitle  = errors.New("demo: todo title is empty")
	ErrUnknownItem = errors.New("demo: unknown todo item")
)

// Item is one entry of the todo list.
type Item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// AddOptions are the options of the add event.
type AddOptions struct {
	Title string `json:"title"`
}

// ItemOptions select an item by ID for toggle and remove.
type ItemOptions struct {
	ID string `json:"id"`
}

// Todos is a store holding an ordered todo list.
type Todos struct {
	store.Base

	mu    sync.Mutex
	items []Item
}

// NewTodos creates an empty list.
func NewTodos() *Todos {
	return &Todos{Base: store.NewBase(TodosID)}
}

func (t *Todos) EventMap() store.EventMap {
	return store.EventMap{
		store.Handle("add", t.Add),
		store.Handle("toggle", t.Toggle),
		store.Handle("remove", t.Remove),
		store.Handle("replace", t.Replace),
		store.Method("clearCompleted", "ClearCompleted"),
	}
}

// Add appends an item with a fresh ID.
func (t *Todos) Add(_ context.Context, opts AddOptions) error {
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		return ErrEmptyTitle
	}
	t.update(func(items []Item) []Item {
		return append(items, Item{ID: uuid.NewString(), Title: title})
	})
	return nil
}

// Toggle flips the done flag of an item.
func (t *Todos) Toggle(_ context.Context, opts ItemOptions) error {
	return t.updateItem(opts.ID, func(items []Item, i int) []Item {
		items[i].Done = !items[i].Done
		return items
	})
}

// Remove deletes an item.
func (t *Todos) Remove(_ context.Context, opts ItemOptions) error {
	return t.updateItem(opts.ID, func(items []Item, i int) []Item {
		return slices.Delete(items, i, i+1)
	})
}

// Replace sets the whole list, typically after loading it.
func (t *Todos) Replace(_ context.Context, items []Item) error {
	t.update(func([]Item) []Item { return slices.Clone(items) })
	return nil
}

// ClearCompleted removes every done item.
func (t *Todos) ClearCompleted() {
	t.update(func(items []Item) []Item {
		return slices.DeleteFunc(items, func(it Item) bool { return it.Done })
	})
}

// Items returns a copy of the list.
func (t *Todos) Items() []Item {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.items)
}

func (t *Todos) Snapshot() any {
	return map[string]any{"items": t.Items()}
}

// DecodeOptions decodes action bodies into the options type each event
// expects.
func (t *Todos) DecodeOptions(event string, raw []byte) (any, error) {
	var opts any
	switch event {
	case "add":
		opts = &AddOptions{}
	case "toggle", "remove":
		opts = &ItemOptions{}
	case "replace":
		opts = &[]Item{}
	default:
		return nil, nil
	}
	if err := unmarshal(raw, opts); err != nil {
		return nil, err
	}
	switch v := opts.(type) {
	case *AddOptions:
		return *v, nil
	case *ItemOptions:
		return *v, nil
	case *[]Item:
		return *v, nil
	}
	return nil, nil
}

func (t *Todos) update(fn func([]Item) []Item) {
	t.mu.Lock()
	t.items = fn(t.items)
	n := len(t.items)
	t.mu.Unlock()
	t.Emit(EventChange, n)
}

func (t *Todos) updateItem(id string, fn func(items []Item, i int) []Item) error {
	t.mu.Lock()
	i := slices.IndexFunc(t.items, func(it Item) bool { return it.ID == id })
	if i < 0 {
		t.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownItem, id)
	}
	t.items = fn(t.items, i)
	n := len(t.items)
	t.mu.Unlock()
	t.Emit(EventChange, n)
	return nil
}

func unmarshal(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
