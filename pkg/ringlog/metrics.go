package ringlog

import (
	"time"
)

// Rejection reasons passed to Metrics.RecordRejection.
const (
	RejectTooLarge    = "too_large"
	RejectCacheFull   = "cache_full"
	RejectNotWritable = "not_writable"
)

// Metrics provides observability for ring log operations.
//
// This is optional - a nil Metrics skips collection entirely. The Prometheus
// implementation lives in pkg/metrics/prometheus.
type Metrics interface {
	// ObserveAppend records a successful append of a frame of the given size.
	ObserveAppend(bytes int64, duration time.Duration)

	// ObserveRead records a full enumeration of the stored messages.
	ObserveRead(messages int, bytes int64, duration time.Duration)

	// RecordEvictions records how many old messages an append dropped.
	RecordEvictions(count int)

	// RecordRejection records an append refused for the given reason.
	RecordRejection(reason string)

	// RecordUsage records the bytes used by frames and the data region size.
	RecordUsage(used, capacity uint64)
}
