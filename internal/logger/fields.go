package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging.
const (
	KeyTraceID = "trace_id" // OpenTelemetry trace ID
	KeySpanID  = "span_id"  // OpenTelemetry span ID
	KeyCommand = "command"  // CLI command name

	KeyPath         = "path"          // Ring log file path
	KeyMaximumBytes = "maximum_bytes" // Total file capacity
	KeyOverwrites   = "overwrites"    // Eviction policy flag
	KeyOldestOffset = "oldest_offset" // Offset of the oldest frame
	KeyNewestOffset = "newest_offset" // Offset just past the newest frame
	KeyEvicted      = "evicted"       // Messages dropped by an append
	KeyMessages     = "messages"      // Number of messages read
	KeyBytes        = "bytes"         // Frame or payload size

	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyConfig     = "config" // Configuration source
)

// Err returns an error attribute; nil errors produce an empty attribute.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Path returns a ring log path attribute.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// DurationMs returns the elapsed time since start in milliseconds.
func DurationMs(start time.Time) slog.Attr {
	return slog.Float64(KeyDurationMs, float64(time.Since(start).Microseconds())/1000.0)
}
