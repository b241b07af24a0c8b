package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for ring log operations.
const (
	AttrPath         = "ringlog.path"
	AttrMaximumBytes = "ringlog.maximum_bytes"
	AttrOverwrites   = "ringlog.overwrites"
	AttrBytes        = "ringlog.bytes"
	AttrEvicted      = "ringlog.evicted"
	AttrMessages     = "ringlog.messages"
	AttrCommand      = "cli.command"
)

// Span names.
const (
	SpanOpen   = "ringlog.open"
	SpanAppend = "ringlog.append"
	SpanList   = "ringlog.list"
	SpanStats  = "ringlog.stats"
	SpanTail   = "ringlog.tail"
)

func Path(p string) attribute.KeyValue {
	return attribute.String(AttrPath, p)
}

func MaximumBytes(n uint64) attribute.KeyValue {
	return attribute.Int64(AttrMaximumBytes, int64(n))
}

func Overwrites(b bool) attribute.KeyValue {
	return attribute.Bool(AttrOverwrites, b)
}

func Bytes(n int) attribute.KeyValue {
	return attribute.Int(AttrBytes, n)
}

func Evicted(n int) attribute.KeyValue {
	return attribute.Int(AttrEvicted, n)
}

func Messages(n int) attribute.KeyValue {
	return attribute.Int(AttrMessages, n)
}

func Command(name string) attribute.KeyValue {
	return attribute.String(AttrCommand, name)
}

// StartLogSpan starts a span for an operation on the ring log at path.
func StartLogSpan(ctx context.Context, name, path string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{Path(path)}, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(all...))
}
