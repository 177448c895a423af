package fluxe

import (
	"context"
	"testing"

	"github.com/vango-dev/fluxe/pkg/store"
)

// BenchmarkInvoke benchmarks one action through the dispatcher to a
// reflected method handler.
func BenchmarkInvoke(b *testing.B) {
	f := New(Config{})
	for _, id := range []string{"a", "b", "c", "d"} {
		_ = f.AddStore(newCounter(id))
	}
	actions, _ := f.Actions("c")
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = actions.Invoke(ctx, "increment", nil)
	}
}

// BenchmarkInvokeTyped benchmarks an action with typed options.
func BenchmarkInvokeTyped(b *testing.B) {
	type opts struct{ N int }
	f := New(Config{})
	_ = f.AddStore(newFuncStore("typed", store.Handle("set", func(context.Context, opts) error { return nil })))
	actions, _ := f.Actions("typed")
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = actions.Invoke(ctx, "set", opts{N: i})
	}
}

// BenchmarkAddStore benchmarks registration, including event map
// resolution.
func BenchmarkAddStore(b *testing.B) {
	for i := 0; i < b.N; i++ {
		f := New(Config{})
		_ = f.AddStore(newCounter("counter"))
	}
}
