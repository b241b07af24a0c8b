package ringlog

import (
	"fmt"
)

// File header layout (little-endian), persisted at offset 0:
//
//	offset  0: format version          (1 byte)
//	offset  1: maximum bytes            (8 bytes)
//	offset  9: overwrites old messages  (1 byte, 0/1)
//	offset 10: offset of oldest message (8 bytes)
//	offset 18: offset of newest message (8 bytes)
//	offset 26: data region start
const (
	// HeaderVersion is the only format version this package reads.
	HeaderVersion uint8 = 1

	versionOffset      = 0
	maximumBytesOffset = versionOffset + 1
	overwritesOffset   = maximumBytesOffset + 8
	oldestOffset       = overwritesOffset + BoolLength
	newestOffset       = oldestOffset + 8

	// HeaderSize is the end of the header and the start of the data region.
	HeaderSize = newestOffset + 8
)

// FileHeader is the metadata stored at the start of a ring log file.
//
// Version, MaximumBytes and OverwritesOldMessages never change after the file
// is created. The two offsets point into [HeaderSize, MaximumBytes); both equal
// HeaderSize on a freshly created file.
type FileHeader struct {
	Version               uint8
	MaximumBytes          uint64
	OverwritesOldMessages bool
	OffsetOfOldestMessage uint64
	OffsetOfNewestMessage uint64
}

// newFileHeader returns the header of an empty file.
func newFileHeader(version uint8, maximumBytes uint64, overwritesOldMessages bool) FileHeader {
	return FileHeader{
		Version:               version,
		MaximumBytes:          maximumBytes,
		OverwritesOldMessages: overwritesOldMessages,
		OffsetOfOldestMessage: HeaderSize,
		OffsetOfNewestMessage: HeaderSize,
	}
}

// Encode serializes the header into HeaderSize bytes.
func (h FileHeader) Encode() []byte {
	b := make([]byte, HeaderSize)
	b[versionOffset] = h.Version
	byteOrder.PutUint64(b[maximumBytesOffset:], h.MaximumBytes)
	copy(b[overwritesOffset:], EncodeBool(h.OverwritesOldMessages))
	byteOrder.PutUint64(b[oldestOffset:], h.OffsetOfOldestMessage)
	byteOrder.PutUint64(b[newestOffset:], h.OffsetOfNewestMessage)
	return b
}

// encodeOffsets returns the oldest/newest offset fields as stored on disk.
func (h FileHeader) encodeOffsets() []byte {
	return h.Encode()[oldestOffset:HeaderSize]
}

// DecodeFileHeader parses a header. It fails with ErrFileCorrupted when b is
// shorter than HeaderSize, the version is not HeaderVersion, or the overwrite
// flag is neither 0 nor 1.
func DecodeFileHeader(b []byte) (FileHeader, error) {
	if len(b) < HeaderSize {
		return FileHeader{}, fmt.Errorf("%w: header is %d bytes, want %d", ErrFileCorrupted, len(b), HeaderSize)
	}
	if b[versionOffset] != HeaderVersion {
		return FileHeader{}, fmt.Errorf("%w: unknown format version %d", ErrFileCorrupted, b[versionOffset])
	}
	overwrites, ok := DecodeBool(b[overwritesOffset:oldestOffset])
	if !ok {
		return FileHeader{}, fmt.Errorf("%w: invalid overwrite flag %d", ErrFileCorrupted, b[overwritesOffset])
	}
	return FileHeader{
		Version:               b[versionOffset],
		MaximumBytes:          byteOrder.Uint64(b[maximumBytesOffset:]),
		OverwritesOldMessages: overwrites,
		OffsetOfOldestMessage: byteOrder.Uint64(b[oldestOffset:]),
		OffsetOfNewestMessage: byteOrder.Uint64(b[newestOffset:]),
	}, nil
}

// validate checks the offset invariants against the stored capacity.
func (h FileHeader) validate() error {
	if h.MaximumBytes < HeaderSize+SpanLength {
		return fmt.Errorf("%w: maximum bytes %d below minimum %d", ErrFileCorrupted, h.MaximumBytes, HeaderSize+SpanLength)
	}
	for _, off := range []uint64{h.OffsetOfOldestMessage, h.OffsetOfNewestMessage} {
		if off < HeaderSize || off >= h.MaximumBytes {
			return fmt.Errorf("%w: offset %d outside data region [%d, %d)", ErrFileCorrupted, off, HeaderSize, h.MaximumBytes)
		}
	}
	return nil
}

// dataRegionSize is the number of bytes available to frames.
func (h FileHeader) dataRegionSize() uint64 {
	return h.MaximumBytes - HeaderSize
}
