package ringlog

// Option configures a Cache at Open.
type Option func(*options)

type options struct {
	metrics    Metrics
	syncWrites bool
	version    uint8
}

func defaultOptions() options {
	return options{
		version: HeaderVersion,
	}
}

// WithMetrics attaches a metrics sink. A nil value disables collection.
func WithMetrics(m Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithSyncWrites fsyncs the file after every append, once for the frame and
// once for the header offsets.
func WithSyncWrites(enabled bool) Option {
	return func(o *options) {
		o.syncWrites = enabled
	}
}

// withVersion overrides the expected format version (tests only).
func withVersion(version uint8) Option {
	return func(o *options) {
		o.version = version
	}
}
