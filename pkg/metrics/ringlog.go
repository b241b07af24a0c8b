package metrics

import (
	"github.com/marmos91/ringlog/pkg/ringlog"
)

// NewRinglogMetrics returns a Prometheus-backed ringlog.Metrics labelled
// with name, or nil when metrics are disabled.
//
// Example usage:
//
//	metrics.InitRegistry()
//	cache, err := ringlog.Open(path, size, true, codec,
//		ringlog.WithMetrics(metrics.NewRinglogMetrics("events")))
func NewRinglogMetrics(name string) ringlog.Metrics {
	if !IsEnabled() || newPrometheusRinglogMetrics == nil {
		return nil
	}
	return newPrometheusRinglogMetrics(name)
}

// newPrometheusRinglogMetrics is set by pkg/metrics/prometheus so this
// package does not import its implementation.
var newPrometheusRinglogMetrics func(name string) ringlog.Metrics

// RegisterRinglogMetricsConstructor registers the Prometheus implementation.
// Called by pkg/metrics/prometheus during package initialization.
func RegisterRinglogMetricsConstructor(constructor func(name string) ringlog.Metrics) {
	newPrometheusRinglogMetrics = constructor
}
