package bcache

import (
	"sync/atomic"
	"time"
)

// Observer receives cache events, typically to export metrics.
// Methods are called outside of the cache's internal locks,
// and may be called concurrently.
type Observer interface {
	// OnLookup is called once per acquisition.
	// hit is false when the block had to be assigned a buffer.
	OnLookup(hit bool)

	// OnEvict is called when a buffer is recycled for a new block.
	// relocated is true if the buffer moved to a different bucket.
	OnEvict(relocated bool)

	// OnTransfer is called after each device transfer.
	OnTransfer(write bool, duration time.Duration, err error)

	// OnWait is called when an acquisition had to sleep
	// until another holder released the buffer.
	OnWait(duration time.Duration)
}

// NoopObserver drops every event.
type NoopObserver struct{}

func (NoopObserver) OnLookup(bool)                         {}
func (NoopObserver) OnEvict(bool)                          {}
func (NoopObserver) OnTransfer(bool, time.Duration, error) {}
func (NoopObserver) OnWait(time.Duration)                  {}

// Stats is a snapshot of the cache's event counters.
type Stats struct {
	Hits, Misses,
	Evictions, Relocations,
	Fills, Flushes,
	Waits uint64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type counters struct {
	hits, misses,
	evictions, relocations,
	fills, flushes,
	waits atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Evictions:   c.evictions.Load(),
		Relocations: c.relocations.Load(),
		Fills:       c.fills.Load(),
		Flushes:     c.flushes.Load(),
		Waits:       c.waits.Load(),
	}
}
