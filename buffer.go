package bcache

import (
	"sync"
	"sync/atomic"
)

type (
	// buffer is one cache slot. Slots are allocated by [New]
	// and never freed; only their identity is recycled.
	//
	// Field guards:
	//   - dev, block, tagged, bucket: the lock of bucket; changed only by a
	//     miss holding the eviction lock and both affected bucket locks.
	//   - refs: refMu.
	//   - valid, data: the exclusive-use lock, or refs == 0 under the
	//     eviction lock.
	//   - recency: atomic, only ever raised.
	buffer struct {
		dev, block uint32
		tagged     bool // False until the buffer first holds a block.
		bucket     int

		refMu sync.Mutex
		refs  int

		recency atomic.Uint64

		exclusive sleepLock
		valid     bool
		data      []byte
	}

	// sleepLock is the exclusive-use lock of a buffer.
	// Waiters sleep on a condition variable; nobody spins.
	// The holder is identified by the owner token of its [Handle].
	sleepLock struct {
		mu     sync.Mutex
		cond   sync.Cond
		locked bool
		owner  uint64
	}

	// Handle is a caller's claim on a cached block, returned by
	// [Cache.Acquire] and [Cache.Read]. While the handle holds the block,
	// its payload may be read and modified through [Handle.Data].
	// After [Cache.Release] the handle must not be used,
	// except to [Cache.Unpin] a pin taken through it.
	Handle struct {
		buf   *buffer
		index int
		owner uint64
	}
)

func (l *sleepLock) init() { l.cond.L = &l.mu }

func (l *sleepLock) lock(owner uint64) (waited bool) {
	l.mu.Lock()
	for l.locked {
		waited = true
		l.cond.Wait()
	}
	l.locked = true
	l.owner = owner
	l.mu.Unlock()
	return waited
}

func (l *sleepLock) unlock() {
	l.mu.Lock()
	l.locked = false
	l.owner = 0
	l.mu.Unlock()
	l.cond.Signal()
}

func (l *sleepLock) holding(owner uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locked && l.owner == owner
}

// touch raises the recency of b to stamp. A stale stamp is dropped.
func (b *buffer) touch(stamp uint64) {
	for {
		current := b.recency.Load()
		if stamp <= current ||
			b.recency.CompareAndSwap(current, stamp) {
			return
		}
	}
}

// refcount reads the reference count under its lock.
func (b *buffer) refcount() int {
	b.refMu.Lock()
	defer b.refMu.Unlock()
	return b.refs
}

// Device returns the device number of the held block.
func (h *Handle) Device() uint32 { return h.buf.dev }

// Block returns the block number of the held block.
func (h *Handle) Block() uint32 { return h.buf.block }

// Valid reports whether the payload reflects the device contents,
// either because it was read or because the holder filled it.
func (h *Handle) Valid() bool { return h.buf.valid }

// SetValid marks the payload as reflecting the block's contents.
// A holder that overwrites a whole block without reading it
// uses this so later readers skip the device.
func (h *Handle) SetValid() { h.buf.valid = true }

// Data returns the block payload. The slice is shared
// with the cache and must not be retained after release.
func (h *Handle) Data() []byte { return h.buf.data }
