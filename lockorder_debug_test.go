//go:build bcache_debug

package bcache

import (
	"testing"

	"github.com/djdv/go-bcache/device"
)

func TestLockTrace(t *testing.T) {
	t.Run("descending buckets", func(t *testing.T) {
		var trace lockTrace
		trace.acquire(rankBucket, 3)
		mustViolate(t, func() { trace.acquire(rankBucket, 1) })
	})
	t.Run("eviction after bucket", func(t *testing.T) {
		var trace lockTrace
		trace.acquire(rankBucket, 0)
		mustViolate(t, func() { trace.acquire(rankEviction, 0) })
	})
	t.Run("block while holding", func(t *testing.T) {
		var trace lockTrace
		trace.acquire(rankRef, 2)
		mustViolate(t, trace.mayBlock)
	})
	t.Run("release unheld", func(t *testing.T) {
		var trace lockTrace
		mustViolate(t, func() { trace.release(rankBucket, 0) })
	})
	t.Run("require unheld bucket", func(t *testing.T) {
		var trace lockTrace
		trace.acquire(rankEviction, 0)
		trace.acquire(rankBucket, 2)
		trace.requireHeld(rankBucket, 2)
		mustViolate(t, func() { trace.requireHeld(rankBucket, 0) })
	})
	t.Run("release out of order", func(t *testing.T) {
		var trace lockTrace
		trace.acquire(rankEviction, 0)
		trace.acquire(rankBucket, 1)
		trace.acquire(rankBucket, 2)
		trace.release(rankBucket, 1)
		trace.release(rankEviction, 0)
		trace.release(rankBucket, 2)
		trace.mayBlock()
	})
}

// Every path through the cache obeys the order;
// a violation would panic with an invariant message.
func TestLockTraceCachePaths(t *testing.T) {
	cache, err := New(device.NewMemory(8),
		WithBuffers(2), WithBuckets(3), WithBlockSize(8))
	if err != nil {
		t.Fatal(err)
	}
	for block := range uint32(9) {
		h := cache.Read(1, block)
		cache.Pin(h)
		cache.Write(h)
		cache.Release(h)
		cache.Unpin(h)
	}
	if err := cache.Verify(); err != nil {
		t.Fatal(err)
	}
	if cache.Stats().Relocations == 0 {
		t.Fatal("workload never moved a buffer between buckets")
	}
}

func mustViolate(tb testing.TB, fn func()) {
	tb.Helper()
	defer func() {
		tb.Helper()
		if _, ok := recover().(string); !ok {
			tb.Fatal("expected an invariant violation")
		}
	}()
	fn()
}
