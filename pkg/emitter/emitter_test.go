package emitter

import (
	"reflect"
	"testing"
)

func TestEmitDeliversInOrder(t *testing.T) {
	var e Emitter
	var got []string

	e.Subscribe("change", func(args ...any) { got = append(got, "first") })
	e.Subscribe("change", func(args ...any) { got = append(got, "second") })

	if !e.Emit("change") {
		t.Fatal("Emit() = false, want true for event with listeners")
	}
	if want := []string{"first", "second"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestEmitPassesArgs(t *testing.T) {
	e := New()
	var got []any
	e.Subscribe("change", func(args ...any) { got = args })

	e.Emit("change", "count", 3)

	if want := []any{"count", 3}; !reflect.DeepEqual(got, want) {
		t.Fatalf("args = %v, want %v", got, want)
	}
}

func TestEmitWithoutListeners(t *testing.T) {
	e := New()
	if e.Emit("nothing") {
		t.Fatal("Emit() = true, want false without listeners")
	}
}

func TestUnsubscribe(t *testing.T) {
	e := New()
	calls := 0
	sub := e.Subscribe("change", func(args ...any) { calls++ })

	e.Emit("change")
	sub.Unsubscribe()
	sub.Unsubscribe()
	e.Emit("change")

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if sub.Active() {
		t.Fatal("expected subscription to be inactive")
	}
	if e.ListenerCount("change") != 0 {
		t.Fatalf("ListenerCount() = %d, want 0", e.ListenerCount("change"))
	}
	if len(e.EventNames()) != 0 {
		t.Fatalf("EventNames() = %v, want empty", e.EventNames())
	}
}

func TestUnsubscribeDuringEmit(t *testing.T) {
	e := New()
	var second *Subscription
	secondCalls := 0

	e.Subscribe("change", func(args ...any) { second.Unsubscribe() })
	second = e.Subscribe("change", func(args ...any) { secondCalls++ })

	e.Emit("change")
	if secondCalls != 0 {
		t.Fatalf("listener removed during emit was called %d times", secondCalls)
	}
}

func TestOnce(t *testing.T) {
	e := New()
	calls := 0
	e.Once("ready", func(args ...any) { calls++ })

	e.Emit("ready")
	e.Emit("ready")

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if e.ListenerCount("ready") != 0 {
		t.Fatalf("ListenerCount() = %d, want 0 after once fired", e.ListenerCount("ready"))
	}
}

func TestEventNamesAndRemoveAll(t *testing.T) {
	e := New()
	noop := func(args ...any) {}
	e.Subscribe("b", noop)
	e.Subscribe("a", noop)
	e.Subscribe("b", noop)

	if got, want := e.EventNames(), []string{"b", "a"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("EventNames() = %v, want %v", got, want)
	}
	if e.ListenerCount("b") != 2 {
		t.Fatalf("ListenerCount(b) = %d, want 2", e.ListenerCount("b"))
	}

	e.RemoveAll("b")
	if got, want := e.EventNames(), []string{"a"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("EventNames() after RemoveAll(b) = %v, want %v", got, want)
	}

	e.RemoveAll()
	if len(e.EventNames()) != 0 {
		t.Fatalf("EventNames() after RemoveAll() = %v, want empty", e.EventNames())
	}
}

func TestSubscriptionIDsUnique(t *testing.T) {
	e := New()
	a := e.Subscribe("x", func(args ...any) {})
	b := e.Subscribe("x", func(args ...any) {})
	if a.ID() == "" || a.ID() == b.ID() {
		t.Fatalf("expected unique non-empty IDs, got %q and %q", a.ID(), b.ID())
	}
	if a.Event() != "x" {
		t.Fatalf("Event() = %q, want x", a.Event())
	}
}
