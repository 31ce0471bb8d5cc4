package bcache

import (
	"io"
	"log/slog"
)

type options struct {
	buffers, buckets, blockSize int
	logger                      *slog.Logger
	observer                    Observer
	clock                       func() uint64
}

// Option configures a [Cache] built by [New].
type Option func(*options)

const (
	// DefaultBuffers is the pool capacity used when [WithBuffers] is not given.
	DefaultBuffers = 30
	// DefaultBuckets is the bucket count used when [WithBuckets] is not given.
	DefaultBuckets = 13
	// DefaultBlockSize is the payload size used when [WithBlockSize] is not given.
	DefaultBlockSize = 1024

	// MinimumBuffers is the smallest pool [New] accepts.
	MinimumBuffers = 1
	// MinimumBuckets is the smallest bucket count [New] accepts.
	MinimumBuckets = 1
	// MinimumBlockSize is the smallest payload size [New] accepts.
	MinimumBlockSize = 1
)

func defaultOptions() options {
	return options{
		buffers:   DefaultBuffers,
		buckets:   DefaultBuckets,
		blockSize: DefaultBlockSize,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		observer:  NoopObserver{},
	}
}

// WithBuffers sets the number of buffers in the pool.
// The pool never grows or shrinks after construction.
func WithBuffers(n int) Option {
	return func(o *options) { o.buffers = n }
}

// WithBuckets sets the number of independently locked buckets.
// A block lands in bucket block mod n.
func WithBuckets(n int) Option {
	return func(o *options) { o.buckets = n }
}

// WithBlockSize sets the payload size of every buffer in bytes.
// It must match the block size of the [Device].
func WithBlockSize(n int) Option {
	return func(o *options) { o.blockSize = n }
}

// WithLogger configures structured logging.
//
// If nil is passed, log records are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
		o.logger = logger
	}
}

// WithObserver configures a receiver for cache events.
//
// If nil is passed, events are dropped.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		if observer == nil {
			observer = NoopObserver{}
		}
		o.observer = observer
	}
}

// WithClock replaces the source of recency stamps.
// By default every access draws the next value of a logical counter,
// so no two accesses tie. A coarse clock (one that repeats values)
// makes ties possible; ties are broken by scan order.
// For example, with two buffers and a clock that always returns 0,
// releasing a block and acquiring a new one reuses the lowest-indexed
// free buffer, even one that was never used; under the default clock
// the least recently stamped buffer is chosen instead.
//
// The clock must never go backwards and must be safe for concurrent use.
func WithClock(clock func() uint64) Option {
	return func(o *options) { o.clock = clock }
}
