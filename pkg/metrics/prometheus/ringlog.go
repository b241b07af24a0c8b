// Package prometheus implements ringlog.Metrics on the registry owned by
// pkg/metrics. Import it for side effects to enable metrics.NewRinglogMetrics.
package prometheus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/ringlog/pkg/metrics"
	"github.com/marmos91/ringlog/pkg/ringlog"
)

func init() {
	metrics.RegisterRinglogMetricsConstructor(NewRinglogMetrics)
}

// collectors holds the vectors registered on one registry. They are shared
// by every ring log, which are told apart by the "log" label.
type collectors struct {
	appends        *prometheus.CounterVec
	appendDuration *prometheus.HistogramVec
	frameBytes     *prometheus.HistogramVec
	reads          *prometheus.CounterVec
	readDuration   *prometheus.HistogramVec
	readMessages   *prometheus.HistogramVec
	evictions      *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	usedBytes      *prometheus.GaugeVec
	capacityBytes  *prometheus.GaugeVec
}

var (
	collectorsMu  sync.Mutex
	collectorsReg *prometheus.Registry
	shared        *collectors
)

func collectorsFor(reg *prometheus.Registry) *collectors {
	collectorsMu.Lock()
	defer collectorsMu.Unlock()

	if shared != nil && collectorsReg == reg {
		return shared
	}

	f := promauto.With(reg)
	durationBuckets := []float64{
		0.01, // 10us
		0.05,
		0.1,
		0.5,
		1, // 1ms
		5,
		10,
		50,
		100, // 100ms, fsync on slow disks
	}

	shared = &collectors{
		appends: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ringlog_append_operations_total",
				Help: "Total number of successful appends",
			},
			[]string{"log"},
		),
		appendDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ringlog_append_duration_milliseconds",
				Help:    "Duration of append operations in milliseconds",
				Buckets: durationBuckets,
			},
			[]string{"log"},
		),
		frameBytes: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ringlog_append_frame_bytes",
				Help:    "Distribution of appended frame sizes, span prefix included",
				Buckets: prometheus.ExponentialBuckets(16, 4, 8), // 16B .. 256KiB
			},
			[]string{"log"},
		),
		reads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ringlog_read_operations_total",
				Help: "Total number of full message enumerations",
			},
			[]string{"log"},
		),
		readDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ringlog_read_duration_milliseconds",
				Help:    "Duration of message enumerations in milliseconds",
				Buckets: durationBuckets,
			},
			[]string{"log"},
		),
		readMessages: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ringlog_read_messages",
				Help:    "Number of messages returned per enumeration",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"log"},
		),
		evictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ringlog_evicted_messages_total",
				Help: "Total number of old messages dropped to make room",
			},
			[]string{"log"},
		),
		rejections: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ringlog_append_rejections_total",
				Help: "Total number of refused appends by reason",
			},
			[]string{"log", "reason"}, // too_large, cache_full, not_writable
		),
		usedBytes: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ringlog_used_bytes",
				Help: "Bytes of the data region holding live frames",
			},
			[]string{"log"},
		),
		capacityBytes: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ringlog_capacity_bytes",
				Help: "Size of the data region",
			},
			[]string{"log"},
		),
	}
	collectorsReg = reg
	return shared
}

// ringlogMetrics binds the shared collectors to one log name.
type ringlogMetrics struct {
	c    *collectors
	name string
}

// NewRinglogMetrics creates a ringlog.Metrics labelled with name.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewRinglogMetrics(name string) ringlog.Metrics {
	reg := metrics.GetRegistry()
	if reg == nil {
		return nil
	}
	return &ringlogMetrics{c: collectorsFor(reg), name: name}
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func (m *ringlogMetrics) ObserveAppend(bytes int64, duration time.Duration) {
	m.c.appends.WithLabelValues(m.name).Inc()
	m.c.appendDuration.WithLabelValues(m.name).Observe(ms(duration))
	m.c.frameBytes.WithLabelValues(m.name).Observe(float64(bytes))
}

func (m *ringlogMetrics) ObserveRead(messages int, _ int64, duration time.Duration) {
	m.c.reads.WithLabelValues(m.name).Inc()
	m.c.readDuration.WithLabelValues(m.name).Observe(ms(duration))
	m.c.readMessages.WithLabelValues(m.name).Observe(float64(messages))
}

func (m *ringlogMetrics) RecordEvictions(count int) {
	m.c.evictions.WithLabelValues(m.name).Add(float64(count))
}

func (m *ringlogMetrics) RecordRejection(reason string) {
	m.c.rejections.WithLabelValues(m.name, reason).Inc()
}

func (m *ringlogMetrics) RecordUsage(used, capacity uint64) {
	m.c.usedBytes.WithLabelValues(m.name).Set(float64(used))
	m.c.capacityBytes.WithLabelValues(m.name).Set(float64(capacity))
}
