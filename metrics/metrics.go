// Package metrics exports buffer cache events to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/djdv/go-bcache"
)

// Observer implements [bcache.Observer] with Prometheus collectors.
type Observer struct {
	lookups   *prometheus.CounterVec
	evictions *prometheus.CounterVec
	transfers *prometheus.HistogramVec
	waits     prometheus.Histogram
}

var _ bcache.Observer = (*Observer)(nil)

// New creates an Observer and registers its collectors with reg.
// Metric names are prefixed with namespace.
func New(reg prometheus.Registerer, namespace string) (*Observer, error) {
	o := &Observer{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Block acquisitions, by whether the block was already cached",
		}, []string{"result"}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Buffers recycled for a new block, by whether they changed bucket",
		}, []string{"relocated"}),
		transfers: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transfer_duration_seconds",
			Help:      "Latency of device transfers",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"op", "status"}),
		waits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "exclusive_wait_seconds",
			Help:      "Time spent sleeping for another holder to release a buffer",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}
	for _, collector := range []prometheus.Collector{
		o.lookups, o.evictions, o.transfers, o.waits,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// OnLookup counts a lookup under its hit or miss label.
func (o *Observer) OnLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	o.lookups.WithLabelValues(result).Inc()
}

// OnEvict counts a recycled buffer.
func (o *Observer) OnEvict(relocated bool) {
	label := "false"
	if relocated {
		label = "true"
	}
	o.evictions.WithLabelValues(label).Inc()
}

// OnTransfer records the latency of a device transfer.
func (o *Observer) OnTransfer(write bool, d time.Duration, err error) {
	var (
		op     = "read"
		status = "success"
	)
	if write {
		op = "write"
	}
	if err != nil {
		status = "error"
	}
	o.transfers.WithLabelValues(op, status).Observe(d.Seconds())
}

// OnWait records time spent waiting for exclusive use.
func (o *Observer) OnWait(d time.Duration) {
	o.waits.Observe(d.Seconds())
}
