package bcache

import "fmt"

type (
	// lockRank names a class of lock in the cache.
	// Within one operation, locks are acquired in ascending
	// (rank, index) order; bucket locks use the bucket index.
	lockRank uint8
	heldLock struct {
		rank  lockRank
		index int
	}
	// lockTrace records the spin-style locks held by one operation.
	// Only debug builds record anything.
	lockTrace struct {
		held  [4]heldLock // Eviction, two buckets, one reference count.
		count int
	}
)

const (
	rankEviction lockRank = iota + 1
	rankBucket
	rankRef
)

func (r lockRank) String() string {
	switch r {
	case rankEviction:
		return "eviction"
	case rankBucket:
		return "bucket"
	case rankRef:
		return "refcount"
	default:
		return fmt.Sprintf("rank(%d)", uint8(r))
	}
}

func (h heldLock) before(next heldLock) bool {
	if h.rank != next.rank {
		return h.rank < next.rank
	}
	return h.index < next.index
}

func (h heldLock) String() string {
	return fmt.Sprintf("%s[%d]", h.rank, h.index)
}

func (t *lockTrace) acquire(rank lockRank, index int) {
	if !debugging {
		return
	}
	next := heldLock{rank: rank, index: index}
	for _, held := range t.held[:t.count] {
		invariant(held.before(next),
			fmt.Sprintf("lock order violated: %s acquired while holding %s", next, held))
	}
	invariant(t.count < len(t.held), "lock trace overflow")
	t.held[t.count] = next
	t.count++
}

func (t *lockTrace) release(rank lockRank, index int) {
	if !debugging {
		return
	}
	target := heldLock{rank: rank, index: index}
	for i, held := range t.held[:t.count] {
		if held == target {
			copy(t.held[i:], t.held[i+1:t.count])
			t.count--
			return
		}
	}
	invariant(false, fmt.Sprintf("released %s without holding it", target))
}

// requireHeld asserts that the operation holds the given lock.
func (t *lockTrace) requireHeld(rank lockRank, index int) {
	if !debugging {
		return
	}
	target := heldLock{rank: rank, index: index}
	for _, held := range t.held[:t.count] {
		if held == target {
			return
		}
	}
	invariant(false, fmt.Sprintf("%s is not held", target))
}

// mayBlock asserts that no spin-style lock is held,
// before the operation sleeps on an exclusive-use lock.
func (t *lockTrace) mayBlock() {
	if !debugging {
		return
	}
	invariant(t.count == 0,
		fmt.Sprintf("blocking while holding %v", t.held[:t.count]))
}
