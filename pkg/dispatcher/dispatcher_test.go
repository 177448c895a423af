package dispatcher

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestDispatchOrder(t *testing.T) {
	d := New()
	var got []string

	d.Register(func(ctx context.Context, p Payload) error {
		got = append(got, "a:"+p.Event)
		return nil
	})
	d.Register(func(ctx context.Context, p Payload) error {
		got = append(got, "b:"+p.Event)
		return nil
	})

	if err := d.Dispatch(context.Background(), Payload{Store: "s", Event: "one"}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if err := d.Dispatch(context.Background(), Payload{Store: "s", Event: "two"}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	want := []string{"a:one", "b:one", "a:two", "b:two"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("delivery order = %v, want %v", got, want)
	}
}

func TestDispatchAssignsID(t *testing.T) {
	d := New()
	var seen Payload
	d.Register(func(ctx context.Context, p Payload) error {
		seen = p
		return nil
	})

	if err := d.Dispatch(context.Background(), Payload{Store: "s", Event: "e", Options: 3}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if seen.ID == "" {
		t.Fatal("expected payload ID to be assigned")
	}
	if seen.Options != 3 {
		t.Fatalf("Options = %v, want 3", seen.Options)
	}

	if err := d.Dispatch(context.Background(), Payload{ID: "fixed"}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if seen.ID != "fixed" {
		t.Fatalf("ID = %q, want caller-provided id to be kept", seen.ID)
	}
}

func TestDispatchReentrant(t *testing.T) {
	d := New()
	nested := 0
	var nestedErr error

	d.Register(func(ctx context.Context, p Payload) error {
		if p.Event == "outer" {
			nestedErr = d.Dispatch(ctx, Payload{Event: "inner"})
		}
		if p.Event == "inner" {
			nested++
		}
		return nil
	})

	if err := d.Dispatch(context.Background(), Payload{Event: "outer"}); err != nil {
		t.Fatalf("outer Dispatch() error = %v", err)
	}
	if !errors.Is(nestedErr, ErrReentrant) {
		t.Fatalf("nested Dispatch() error = %v, want ErrReentrant", nestedErr)
	}
	if nested != 0 {
		t.Fatalf("nested payload delivered %d times, want 0", nested)
	}
	if d.IsDispatching() {
		t.Fatal("expected dispatching flag to be cleared")
	}

	// The dispatcher is usable again after the failed nested call.
	if err := d.Dispatch(context.Background(), Payload{Event: "inner"}); err != nil {
		t.Fatalf("Dispatch() after reentrancy error = %v", err)
	}
	if nested != 1 {
		t.Fatalf("inner delivered %d times, want 1", nested)
	}
}

func TestDispatchCallbackErrorAborts(t *testing.T) {
	d := New()
	boom := errors.New("boom")
	ran := false

	d.Register(func(ctx context.Context, p Payload) error { return boom })
	d.Register(func(ctx context.Context, p Payload) error {
		ran = true
		return nil
	})

	err := d.Dispatch(context.Background(), Payload{Event: "e"})
	if !errors.Is(err, boom) {
		t.Fatalf("Dispatch() error = %v, want %v", err, boom)
	}
	if ran {
		t.Fatal("callback after the failing one should not run")
	}
	if d.IsDispatching() {
		t.Fatal("expected dispatching flag to be cleared after error")
	}
}

func TestDispatchPanicClearsState(t *testing.T) {
	d := New()
	d.Register(func(ctx context.Context, p Payload) error { panic("kaboom") })

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = d.Dispatch(context.Background(), Payload{Event: "e"})
	}()

	if d.IsDispatching() {
		t.Fatal("expected dispatching flag to be cleared after panic")
	}
}

func TestUnregister(t *testing.T) {
	d := New()
	calls := 0
	tok := d.Register(func(ctx context.Context, p Payload) error {
		calls++
		return nil
	})

	if d.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", d.Len())
	}
	if err := d.Unregister(tok); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}
	if err := d.Unregister(tok); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("second Unregister() error = %v, want ErrUnknownToken", err)
	}
	if err := d.Dispatch(context.Background(), Payload{}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if calls != 0 {
		t.Fatalf("unregistered callback called %d times", calls)
	}
}

func TestUnregisterDuringBroadcast(t *testing.T) {
	d := New()
	var second Token
	secondRan := false

	d.Register(func(ctx context.Context, p Payload) error {
		return d.Unregister(second)
	})
	second = d.Register(func(ctx context.Context, p Payload) error {
		secondRan = true
		return nil
	})

	if err := d.Dispatch(context.Background(), Payload{}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if secondRan {
		t.Fatal("callback removed mid-broadcast should be skipped")
	}
}

func TestWaitFor(t *testing.T) {
	d := New()
	var got []string
	var tokB Token

	d.Register(func(ctx context.Context, p Payload) error {
		if err := d.WaitFor(ctx, tokB); err != nil {
			return err
		}
		got = append(got, "a")
		return nil
	})
	tokB = d.Register(func(ctx context.Context, p Payload) error {
		got = append(got, "b")
		return nil
	})

	if err := d.Dispatch(context.Background(), Payload{}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	want := []string{"b", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v (b must run once, before a)", got, want)
	}
}

func TestWaitForErrors(t *testing.T) {
	t.Run("outside dispatch", func(t *testing.T) {
		d := New()
		if err := d.WaitFor(context.Background(), "ID_1"); !errors.Is(err, ErrNotDispatching) {
			t.Fatalf("WaitFor() error = %v, want ErrNotDispatching", err)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		d := New()
		d.Register(func(ctx context.Context, p Payload) error {
			return d.WaitFor(ctx, "ID_99")
		})
		if err := d.Dispatch(context.Background(), Payload{}); !errors.Is(err, ErrUnknownToken) {
			t.Fatalf("Dispatch() error = %v, want ErrUnknownToken", err)
		}
	})

	t.Run("circular", func(t *testing.T) {
		d := New()
		var a, b Token
		a = d.Register(func(ctx context.Context, p Payload) error {
			return d.WaitFor(ctx, b)
		})
		b = d.Register(func(ctx context.Context, p Payload) error {
			return d.WaitFor(ctx, a)
		})
		if err := d.Dispatch(context.Background(), Payload{}); !errors.Is(err, ErrCircularWait) {
			t.Fatalf("Dispatch() error = %v, want ErrCircularWait", err)
		}
	})
}

func TestRegisterNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Register(nil) to panic")
		}
	}()
	New().Register(nil)
}
