package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/fluxe/pkg/dispatcher"
)

func newBufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestLogging(t *testing.T) {
	logger, buf := newBufferLogger()
	mw := Logging(logger)

	_ = mw.Handle(context.Background(), testPayload("todos", "add"),
		func(context.Context, dispatcher.Payload) error { return nil })
	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, "store=todos") || !strings.Contains(out, "event=add") {
		t.Errorf("unexpected success log: %s", out)
	}

	buf.Reset()
	wantErr := errors.New("boom")
	err := mw.Handle(context.Background(), testPayload("todos", "add"),
		func(context.Context, dispatcher.Payload) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected error to propagate, got %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "level=WARN") || !strings.Contains(out, "error=boom") {
		t.Errorf("unexpected failure log: %s", out)
	}
}

func TestRecover(t *testing.T) {
	logger, buf := newBufferLogger()

	err := Recover(logger).Handle(context.Background(), testPayload("todos", "add"),
		func(context.Context, dispatcher.Payload) error { panic("kaboom") })

	if !errors.Is(err, ErrPanic) {
		t.Fatalf("Recover returned %v, want ErrPanic", err)
	}
	if !strings.Contains(err.Error(), "todos.add") || !strings.Contains(err.Error(), "kaboom") {
		t.Errorf("error %q does not describe the panic", err)
	}
	if !strings.Contains(buf.String(), "handler panic") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}

func TestRecover_DispatcherRecovers(t *testing.T) {
	logger, _ := newBufferLogger()
	d := dispatcher.New(dispatcher.WithMiddleware(Recover(logger)))
	d.Register(func(context.Context, dispatcher.Payload) error { panic("kaboom") })

	err := d.Dispatch(context.Background(), dispatcher.Payload{Store: "s", Event: "e"})
	if !errors.Is(err, ErrPanic) {
		t.Fatalf("Dispatch = %v, want ErrPanic", err)
	}
	if d.IsDispatching() {
		t.Fatal("dispatcher still dispatching after recovered panic")
	}
}
