package bcache

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/djdv/go-bcache/internal/ring"
)

//go:generate mockgen -destination=internal/mock/device.go -package=mock . Device

type (
	// Device performs the physical transfer of one block.
	// For reads it fills data; for writes it persists data.
	// Failures are fatal to the cache; see [ErrTransfer].
	Device interface {
		Transfer(dev, block uint32, data []byte, write bool) error
	}

	bucket struct {
		mu sync.Mutex
	}

	// Cache is a fixed pool of block buffers, indexed by a table
	// of independently locked buckets.
	// All methods are safe for concurrent use.
	// Constructed by [New].
	Cache struct {
		buffers []buffer
		buckets []bucket
		// Each list is guarded by the lock of its bucket.
		links *ring.Links
		// Serializes misses: the victim scan and any
		// relocation between buckets.
		eviction sync.Mutex

		device   Device
		clock    func() uint64
		ticks    atomic.Uint64
		owners   atomic.Uint64
		logger   *slog.Logger
		observer Observer
		stats    counters
	}

	missOutcome uint8
)

const (
	missFound missOutcome = iota // Another miss installed the block first.
	missEvicted
	missRelocated
	missExhausted
)

// New creates a [Cache] backed by device.
// Every buffer is allocated here and lives as long as the cache.
func New(device Device, options ...Option) (*Cache, error) {
	settings := defaultOptions()
	for _, apply := range options {
		apply(&settings)
	}
	switch {
	case device == nil:
		return nil, ErrNilDevice
	case settings.buffers < MinimumBuffers:
		return nil, minimumError(ErrInvalidCapacity, MinimumBuffers, settings.buffers)
	case settings.buckets < MinimumBuckets:
		return nil, minimumError(ErrInvalidBuckets, MinimumBuckets, settings.buckets)
	case settings.blockSize < MinimumBlockSize:
		return nil, minimumError(ErrInvalidBlockSize, MinimumBlockSize, settings.blockSize)
	}
	var (
		count   = settings.buffers
		size    = settings.blockSize
		storage = make([]byte, count*size)
		c       = &Cache{
			buffers:  make([]buffer, count),
			buckets:  make([]bucket, settings.buckets),
			links:    ring.New(count, settings.buckets),
			device:   device,
			clock:    settings.clock,
			logger:   settings.logger,
			observer: settings.observer,
		}
	)
	if c.clock == nil {
		c.clock = func() uint64 { return c.ticks.Add(1) }
	}
	// Unassigned buffers all start in the first bucket.
	for i := range c.buffers {
		buf := &c.buffers[i]
		buf.exclusive.init()
		start := i * size
		buf.data = storage[start : start+size : start+size]
		c.links.PushFront(0, i)
	}
	return c, nil
}

// Acquire returns a handle to the buffer holding (dev, block),
// registering the caller as an owner and granting it exclusive use.
// It sleeps while another owner holds the buffer.
// The payload is not read; see [Cache.Read].
//
// If every buffer is referenced, Acquire panics with
// an error wrapping [ErrNoBuffers].
func (c *Cache) Acquire(dev, block uint32) *Handle {
	var (
		trace  lockTrace
		target = c.bucketOf(block)
	)
	index, hit := c.lookup(&trace, dev, block, target)
	if !hit {
		var outcome missOutcome
		index, outcome = c.recycle(&trace, dev, block, target)
		switch outcome {
		case missFound:
			hit = true
		case missExhausted:
			c.fatal(exhaustedError(dev, block, len(c.buffers)))
		default:
			relocated := outcome == missRelocated
			c.stats.evictions.Add(1)
			if relocated {
				c.stats.relocations.Add(1)
			}
			c.observer.OnEvict(relocated)
			c.logger.Debug("recycled buffer",
				"dev", dev, "block", block,
				"buffer", index, "relocated", relocated)
		}
	}
	if hit {
		c.stats.hits.Add(1)
	} else {
		c.stats.misses.Add(1)
	}
	c.observer.OnLookup(hit)
	trace.mayBlock()
	return c.claim(index)
}

// Read is [Cache.Acquire] followed by a device read
// if the payload is not already valid.
func (c *Cache) Read(dev, block uint32) *Handle {
	h := c.Acquire(dev, block)
	if !h.buf.valid {
		c.transfer(h, false)
		h.buf.valid = true
		c.stats.fills.Add(1)
	}
	return h
}

// Write persists the payload of h to the device immediately.
// The caller must hold h; otherwise Write panics with
// an error wrapping [ErrNotHeld].
func (c *Cache) Write(h *Handle) {
	if !h.buf.exclusive.holding(h.owner) {
		c.fatal(notHeldError("write", h.buf.dev, h.buf.block))
	}
	c.transfer(h, true)
	c.stats.flushes.Add(1)
}

// Release gives up exclusive use of h and drops its reference.
// The caller must hold h; otherwise Release panics with
// an error wrapping [ErrNotHeld].
func (c *Cache) Release(h *Handle) {
	buf := h.buf
	if !buf.exclusive.holding(h.owner) {
		c.fatal(notHeldError("release", buf.dev, buf.block))
	}
	h.owner = 0 // Tokens start at 1.
	buf.exclusive.unlock()
	c.dropRef(h, "release", true)
}

// Pin adds a reference to the buffer of h without exclusive use,
// keeping the block resident until a matching [Cache.Unpin].
func (c *Cache) Pin(h *Handle) {
	var trace lockTrace
	c.lockRef(&trace, h.index)
	h.buf.refs++
	c.unlockRef(&trace, h.index)
}

// Unpin drops a reference added by [Cache.Pin].
func (c *Cache) Unpin(h *Handle) { c.dropRef(h, "unpin", false) }

// Stats returns a snapshot of the cache's counters.
func (c *Cache) Stats() Stats { return c.stats.snapshot() }

// Len returns the number of buffers in the pool.
func (c *Cache) Len() int { return len(c.buffers) }

// Buckets returns the number of buckets.
func (c *Cache) Buckets() int { return len(c.buckets) }

// BlockSize returns the payload size of each buffer.
func (c *Cache) BlockSize() int { return cap(c.buffers[0].data) }

func (c *Cache) bucketOf(block uint32) int {
	return int(block % uint32(len(c.buckets)))
}

// lookup searches the target bucket, taking a reference on a match.
func (c *Cache) lookup(trace *lockTrace, dev, block uint32, target int) (int, bool) {
	c.lockBucket(trace, target)
	defer c.unlockBucket(trace, target)
	return c.search(trace, dev, block, target)
}

// search scans bucket h for (dev, block) and takes a reference on a match.
// The caller holds the lock of bucket h.
func (c *Cache) search(trace *lockTrace, dev, block uint32, h int) (int, bool) {
	for i := range c.links.Members(h) {
		buf := &c.buffers[i]
		if !buf.tagged ||
			buf.dev != dev || buf.block != block {
			continue
		}
		c.lockRef(trace, i)
		buf.refs++
		c.unlockRef(trace, i)
		return i, true
	}
	return -1, false
}

// recycle assigns an unreferenced buffer to (dev, block),
// moving it into the target bucket if it lives elsewhere.
// The buffer is returned with one reference, invalid.
func (c *Cache) recycle(trace *lockTrace, dev, block uint32, target int) (int, missOutcome) {
	c.lockEviction(trace)
	defer c.unlockEviction(trace)
	for {
		victim := c.victim(trace)
		if victim < 0 {
			return -1, missExhausted
		}
		var (
			buf           = &c.buffers[victim]
			source        = buf.bucket
			first, second = min(source, target), max(source, target)
		)
		c.lockBucket(trace, first)
		if second != first {
			c.lockBucket(trace, second)
		}
		unlockBuckets := func() {
			if second != first {
				c.unlockBucket(trace, second)
			}
			c.unlockBucket(trace, first)
		}
		// The target was unlocked between the first search and
		// taking the eviction lock; a concurrent miss may have
		// installed the block in that window.
		if index, found := c.search(trace, dev, block, target); found {
			unlockBuckets()
			return index, missFound
		}
		c.lockRef(trace, victim)
		if buf.refs != 0 {
			// A hit on the victim's current identity
			// took a reference before we locked its bucket.
			c.unlockRef(trace, victim)
			unlockBuckets()
			continue
		}
		trace.requireHeld(rankBucket, source)
		trace.requireHeld(rankBucket, target)
		outcome := missEvicted
		if source != target {
			c.links.Move(target, victim)
			buf.bucket = target
			outcome = missRelocated
		}
		buf.dev, buf.block, buf.tagged = dev, block, true
		buf.valid = false
		buf.refs = 1
		c.unlockRef(trace, victim)
		unlockBuckets()
		return victim, outcome
	}
}

// victim returns the unreferenced buffer with the smallest recency,
// the earliest in pool order on ties, or -1 if all are referenced.
// The caller holds the eviction lock.
func (c *Cache) victim(trace *lockTrace) int {
	var (
		chosen = -1
		oldest uint64
	)
	for i := range c.buffers {
		buf := &c.buffers[i]
		c.lockRef(trace, i)
		free := buf.refs == 0
		c.unlockRef(trace, i)
		if !free {
			continue
		}
		if stamp := buf.recency.Load(); chosen < 0 || stamp < oldest {
			chosen, oldest = i, stamp
		}
	}
	return chosen
}

// claim sleeps until the caller has exclusive use of buffer index.
// No spin-style lock may be held.
func (c *Cache) claim(index int) *Handle {
	var (
		buf   = &c.buffers[index]
		owner = c.owners.Add(1)
		start = time.Now()
	)
	if waited := buf.exclusive.lock(owner); waited {
		c.stats.waits.Add(1)
		c.observer.OnWait(time.Since(start))
	}
	buf.touch(c.clock())
	return &Handle{buf: buf, index: index, owner: owner}
}

func (c *Cache) dropRef(h *Handle, op string, touch bool) {
	var (
		trace lockTrace
		buf   = h.buf
	)
	c.lockRef(&trace, h.index)
	if buf.refs == 0 {
		c.unlockRef(&trace, h.index)
		c.fatal(underflowError(op, buf.dev, buf.block))
	}
	buf.refs--
	if touch {
		buf.touch(c.clock())
	}
	c.unlockRef(&trace, h.index)
}

func (c *Cache) transfer(h *Handle, write bool) {
	var (
		buf   = h.buf
		start = time.Now()
		err   = c.device.Transfer(buf.dev, buf.block, buf.data, write)
	)
	c.observer.OnTransfer(write, time.Since(start), err)
	if err != nil {
		c.fatal(transferError(write, buf.dev, buf.block, err))
	}
}

// fatal halts the calling goroutine. Nothing in the cache
// recovers from these conditions.
func (c *Cache) fatal(err error) {
	c.logger.Error("buffer cache failure", "err", err)
	panic(err)
}

func (c *Cache) lockEviction(trace *lockTrace) {
	trace.acquire(rankEviction, 0)
	c.eviction.Lock()
}

func (c *Cache) unlockEviction(trace *lockTrace) {
	c.eviction.Unlock()
	trace.release(rankEviction, 0)
}

func (c *Cache) lockBucket(trace *lockTrace, h int) {
	trace.acquire(rankBucket, h)
	c.buckets[h].mu.Lock()
}

func (c *Cache) unlockBucket(trace *lockTrace, h int) {
	c.buckets[h].mu.Unlock()
	trace.release(rankBucket, h)
}

func (c *Cache) lockRef(trace *lockTrace, i int) {
	trace.acquire(rankRef, i)
	c.buffers[i].refMu.Lock()
}

func (c *Cache) unlockRef(trace *lockTrace, i int) {
	c.buffers[i].refMu.Unlock()
	trace.release(rankRef, i)
}

// Verify checks the structure of the bucket table:
// every buffer is linked into exactly one bucket, the bucket it records,
// and no two buffers carry the same block.
// It locks every bucket, in order, for the duration of the walk.
func (c *Cache) Verify() error {
	var trace lockTrace
	for h := range c.buckets {
		c.buckets[h].mu.Lock()
	}
	defer func() {
		for h := len(c.buckets) - 1; h >= 0; h-- {
			c.buckets[h].mu.Unlock()
		}
	}()
	type identity struct{ dev, block uint32 }
	var (
		errs   []error
		seen   = make([]int, len(c.buffers))
		owners = make(map[identity]int, len(c.buffers))
	)
	for h := range c.buckets {
		for i := range c.links.Members(h) {
			buf := &c.buffers[i]
			seen[i]++
			if buf.bucket != h {
				errs = append(errs, fmt.Errorf(
					"buffer %d linked in bucket %d but records bucket %d",
					i, h, buf.bucket))
			}
			if !buf.tagged {
				continue
			}
			if want := c.bucketOf(buf.block); want != h {
				errs = append(errs, fmt.Errorf(
					"buffer %d holds block %d in bucket %d, want bucket %d",
					i, buf.block, h, want))
			}
			id := identity{buf.dev, buf.block}
			if other, ok := owners[id]; ok {
				errs = append(errs, fmt.Errorf(
					"buffers %d and %d both hold block %d of device %d",
					other, i, buf.block, buf.dev))
			}
			owners[id] = i
			c.lockRef(&trace, i)
			refs := buf.refs
			c.unlockRef(&trace, i)
			if refs < 0 {
				errs = append(errs, fmt.Errorf(
					"buffer %d has negative reference count %d", i, refs))
			}
		}
	}
	for i, count := range seen {
		if count != 1 {
			errs = append(errs, fmt.Errorf(
				"buffer %d linked into %d buckets", i, count))
		}
	}
	return errors.Join(errs...)
}
