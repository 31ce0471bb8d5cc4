package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/djdv/go-bcache"
)

type report struct {
	elapsed       time.Duration
	reads, writes uint64
	blockSize     int
	stats         bcache.Stats
}

func (r *report) print(out io.Writer) {
	var (
		ops       = r.stats.Hits + r.stats.Misses
		perSecond = float64(ops) / max(r.elapsed.Seconds(), 1e-9)
		size      = uint64(r.blockSize)
		tw        = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	)
	fmt.Fprintf(tw, "operations\t%s in %s (%s/s)\n",
		humanize.Comma(int64(ops)), r.elapsed.Round(time.Millisecond),
		humanize.Comma(int64(perSecond)))
	fmt.Fprintf(tw, "verified\t%s reads, %s writes\n",
		humanize.Comma(int64(r.reads)), humanize.Comma(int64(r.writes)))
	fmt.Fprintf(tw, "hit rate\t%s%%\n",
		humanize.FormatFloat("#.##", r.stats.HitRate()*100))
	fmt.Fprintf(tw, "evictions\t%s (%s relocated)\n",
		humanize.Comma(int64(r.stats.Evictions)),
		humanize.Comma(int64(r.stats.Relocations)))
	fmt.Fprintf(tw, "device reads\t%s\n", humanize.Bytes(r.stats.Fills*size))
	fmt.Fprintf(tw, "device writes\t%s\n", humanize.Bytes(r.stats.Flushes*size))
	fmt.Fprintf(tw, "exclusive waits\t%s\n", humanize.Comma(int64(r.stats.Waits)))
	tw.Flush()
}
