package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/djdv/go-bcache"
	"github.com/djdv/go-bcache/device"
	"github.com/djdv/go-bcache/metrics"
)

// Blocks are stamped with their own number and a version.
const (
	stampSize = 16
	deviceID  = 1
)

var errCorrupt = errors.New("block contents do not match the last write")

type (
	// workload is the state shared by every worker.
	workload struct {
		cache *bcache.Cache
		config
		// versions[block] is the last version written to block.
		// Accessed only while holding the block.
		versions []atomic.Uint64
		reads    atomic.Uint64
		writes   atomic.Uint64
	}
	closer func() error
)

func run(ctx context.Context, cfg config, logOut io.Writer) (*report, error) {
	logger := slog.New(slog.NewTextHandler(logOut,
		&slog.HandlerOptions{Level: cfg.level}))
	dev, closeDevice, err := openDevice(cfg)
	if err != nil {
		return nil, err
	}
	defer logClose(logger, "device", closeDevice)
	options := append(cfg.options, bcache.WithLogger(logger))
	if cfg.metricsAddr != "" {
		observer, stopServer, err := serveMetrics(cfg.metricsAddr, logger)
		if err != nil {
			return nil, err
		}
		defer logClose(logger, "metrics server", stopServer)
		options = append(options, bcache.WithObserver(observer))
	}
	cache, err := bcache.New(dev, options...)
	if err != nil {
		return nil, err
	}
	work := &workload{
		cache:    cache,
		config:   cfg,
		versions: make([]atomic.Uint64, cfg.blocks),
	}
	logger.Info("starting workload",
		"workers", cfg.workers, "ops", cfg.ops,
		"blocks", cfg.blocks, "pattern", cfg.pattern,
		"buffers", cache.Len(), "buckets", cache.Buckets())
	var (
		start       = time.Now()
		group, gctx = errgroup.WithContext(ctx)
	)
	for id := range cfg.workers {
		group.Go(func() error { return work.worker(gctx, id) })
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	if err := cache.Verify(); err != nil {
		return nil, err
	}
	return &report{
		elapsed:   elapsed,
		reads:     work.reads.Load(),
		writes:    work.writes.Load(),
		blockSize: cfg.blockSize,
		stats:     cache.Stats(),
	}, nil
}

func openDevice(cfg config) (bcache.Device, closer, error) {
	var (
		dev     device.BlockDevice
		closeFn closer = func() error { return nil }
	)
	if cfg.image != "" {
		file, err := device.OpenFile(cfg.image, deviceID, cfg.blockSize, cfg.blocks)
		if err != nil {
			return nil, nil, err
		}
		dev, closeFn = file, func() error {
			return errors.Join(file.Sync(), file.Close())
		}
	} else {
		dev = device.NewMemory(cfg.blockSize)
	}
	if cfg.rate > 0 {
		burst := max(cfg.blockSize, int(cfg.rate/10))
		dev = device.NewLimited(dev, cfg.rate, burst)
	}
	return dev, closeFn, nil
}

func serveMetrics(addr string, logger *slog.Logger) (bcache.Observer, closer, error) {
	registry := prometheus.NewRegistry()
	observer, err := metrics.New(registry, "bcache")
	if err != nil {
		return nil, nil, err
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", listener.Addr().String())
	stop := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
	return observer, stop, nil
}

func logClose(logger *slog.Logger, what string, closeFn closer) {
	if err := closeFn(); err != nil {
		logger.Error("close failed", "what", what, "err", err)
	}
}

// worker runs its share of operations. Fatal cache
// conditions surface as errors instead of crashing the command.
func (w *workload) worker(ctx context.Context, id int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fatal, ok := r.(error)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("worker %d: %w", id, fatal)
		}
	}()
	var (
		rng  = rand.New(rand.NewSource(w.seed + int64(id)))
		next = w.pattern.generator(rng, w.blocks, w.cache.Len()/2)
	)
	for range w.ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		block := next()
		write := rng.Float64() < w.writeRatio
		if err := w.operate(block, write); err != nil {
			return fmt.Errorf("worker %d: %w", id, err)
		}
	}
	return nil
}

func (w *workload) operate(block uint32, write bool) error {
	h := w.cache.Read(deviceID, block)
	defer w.cache.Release(h)
	var (
		data    = h.Data()
		want    = w.versions[block].Load()
		stamped = binary.LittleEndian.Uint64(data[8:stampSize])
		owner   = binary.LittleEndian.Uint64(data[:8])
	)
	// Version 0 is a block nobody wrote yet: all zeros.
	if stamped != want || (want != 0 && owner != uint64(block)) {
		return fmt.Errorf("%w: block %d holds version %d of block %d, want version %d",
			errCorrupt, block, stamped, owner, want)
	}
	w.reads.Add(1)
	if !write {
		return nil
	}
	want++
	binary.LittleEndian.PutUint64(data[:8], uint64(block))
	binary.LittleEndian.PutUint64(data[8:stampSize], want)
	w.cache.Write(h)
	w.versions[block].Store(want)
	w.writes.Add(1)
	return nil
}
