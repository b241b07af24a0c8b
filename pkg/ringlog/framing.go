package ringlog

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Frame layout in the data region:
//
//	[span length: uint32 little-endian][payload: span length bytes]
//
// A span length of EndOfDataMarker is never a real payload; it terminates the
// scan of valid data so stale bytes from earlier laps need not be erased.
const (
	// SpanLength is the width of the encoded payload length. Changing it
	// makes every previously written file unreadable.
	SpanLength = 4

	// BoolLength is the width of an encoded boolean.
	BoolLength = 1

	// EndOfDataMarker is the reserved span length marking the end of data.
	EndOfDataMarker uint32 = math.MaxUint32
)

// byteOrder is applied to every fixed-width integer in the file.
var byteOrder = binary.LittleEndian

// EncodeSpan returns the SpanLength-byte encoding of a payload length.
func EncodeSpan(span uint32) []byte {
	b := make([]byte, SpanLength)
	byteOrder.PutUint32(b, span)
	return b
}

// DecodeSpan decodes a span length. b must be exactly SpanLength bytes.
func DecodeSpan(b []byte) (uint32, error) {
	if len(b) != SpanLength {
		return 0, fmt.Errorf("%w: span length is %d bytes, want %d", ErrFileCorrupted, len(b), SpanLength)
	}
	return byteOrder.Uint32(b), nil
}

// EncodeBool returns the single-byte encoding of v (0 or 1).
func EncodeBool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

// DecodeBool decodes a boolean. ok is false unless b is exactly one byte
// holding 0 or 1.
func DecodeBool(b []byte) (value bool, ok bool) {
	if len(b) != BoolLength {
		return false, false
	}
	switch b[0] {
	case 0:
		return false, true
	case 1:
		return true, true
	default:
		return false, false
	}
}

// encodeFrame writes the span-prefixed frame for payload into dst, which
// must have a length of at least SpanLength+len(payload), and returns it.
func encodeFrame(dst, payload []byte) []byte {
	frame := dst[:SpanLength+len(payload)]
	byteOrder.PutUint32(frame, uint32(len(payload)))
	copy(frame[SpanLength:], payload)
	return frame
}
