package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/djdv/go-bcache"
)

type settings struct {
	buffers, buckets, blockSize int
	workers, ops                int
	blocks                      uint32
	pattern                     string
	writeRatio                  float64
	image                       string
	rate                        string
	metricsAddr                 string
	logLevel                    string
	seed                        int64
}

var errWorkers = errors.New("workers must not outnumber buffers")

func newRootCommand() *cobra.Command {
	var set settings
	cmd := &cobra.Command{
		Use:   "bcache-stress",
		Short: "Stress a block buffer cache with concurrent readers and writers",
		Long: "Runs workers that read and write blocks through one cache.\n" +
			"Each write stamps the block with a new version; each read checks\n" +
			"that the version matches the last one written.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := set.parse()
			if err != nil {
				return err
			}
			report, err := run(cmd.Context(), cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			report.print(cmd.OutOrStdout())
			return nil
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&set.buffers, "buffers", bcache.DefaultBuffers, "number of buffers in the pool")
	flags.IntVar(&set.buckets, "buckets", bcache.DefaultBuckets, "number of hash buckets")
	flags.IntVar(&set.blockSize, "block-size", bcache.DefaultBlockSize, "bytes per block")
	flags.IntVar(&set.workers, "workers", 4, "concurrent workers, at most one buffer held each")
	flags.IntVar(&set.ops, "ops", 10_000, "operations per worker")
	flags.Uint32Var(&set.blocks, "blocks", 256, "distinct blocks the workload touches")
	flags.StringVar(&set.pattern, "pattern", patternUniform,
		fmt.Sprintf("block access pattern: %s, %s or %s", patternUniform, patternZipf, patternLoop))
	flags.Float64Var(&set.writeRatio, "write-ratio", 0.1, "fraction of operations that write")
	flags.StringVar(&set.image, "image", "", "disk image file; an in-memory device when empty")
	flags.StringVar(&set.rate, "rate", "", `device throughput limit, e.g. "8 MB" per second`)
	flags.StringVar(&set.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	flags.StringVar(&set.logLevel, "log-level", "info", "debug, info, warn or error")
	flags.Int64Var(&set.seed, "seed", 1, "random seed; each worker derives its own")
	return cmd
}

func (set settings) parse() (config, error) {
	cfg := config{
		options: []bcache.Option{
			bcache.WithBuffers(set.buffers),
			bcache.WithBuckets(set.buckets),
			bcache.WithBlockSize(set.blockSize),
		},
		blockSize:   set.blockSize,
		workers:     set.workers,
		ops:         set.ops,
		blocks:      set.blocks,
		writeRatio:  set.writeRatio,
		image:       set.image,
		metricsAddr: set.metricsAddr,
		seed:        set.seed,
	}
	switch {
	case set.workers < 1:
		return cfg, fmt.Errorf("workers: need at least 1, got %d", set.workers)
	case set.workers > set.buffers:
		return cfg, fmt.Errorf("%w: %d workers, %d buffers",
			errWorkers, set.workers, set.buffers)
	case set.blocks < 1:
		return cfg, errors.New("blocks: need at least 1")
	case set.writeRatio < 0 || set.writeRatio > 1:
		return cfg, fmt.Errorf("write-ratio: %g is not within [0, 1]", set.writeRatio)
	case set.blockSize < stampSize:
		return cfg, fmt.Errorf("block-size: need at least %d bytes for the version stamp, got %d",
			stampSize, set.blockSize)
	}
	var err error
	if cfg.pattern, err = parsePattern(set.pattern); err != nil {
		return cfg, err
	}
	if set.rate != "" {
		bytes, err := humanize.ParseBytes(set.rate)
		if err != nil {
			return cfg, fmt.Errorf("rate: %w", err)
		}
		cfg.rate = float64(bytes)
	}
	if err := cfg.level.UnmarshalText([]byte(set.logLevel)); err != nil {
		return cfg, fmt.Errorf("log-level: %w", err)
	}
	return cfg, nil
}

type config struct {
	options     []bcache.Option
	blockSize   int
	workers     int
	ops         int
	blocks      uint32
	pattern     pattern
	writeRatio  float64
	image       string
	rate        float64
	metricsAddr string
	level       slog.Level
	seed        int64
}
