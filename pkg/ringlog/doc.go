// Package ringlog implements a persistent, fixed-capacity, file-backed
// append log for structured messages.
//
// A ring log file never grows past the maximum size it was created with. It
// is one flat byte sequence: a fixed header followed by a data region used
// as a circular buffer of length-prefixed frames, ordered oldest to newest
// and wrapping from the end of the file back to the start of the data region.
// A frame may be split across the wrap boundary.
//
// File Format (little-endian):
//
//	Header (26 bytes):
//	  - Version: uint8 (1 byte)
//	  - Maximum bytes: uint64 (8 bytes)
//	  - Overwrites old messages: bool (1 byte)
//	  - Offset of oldest message: uint64 (8 bytes)
//	  - Offset of newest message: uint64 (8 bytes)
//
//	Frames (variable):
//	  - Span length: uint32 (4 bytes), 0xFFFFFFFF marks the end of data
//	  - Payload: span length bytes
//
// The newest-message offset points just past the newest frame, where the
// next frame will be written. When it equals the oldest-message offset the
// cache is either empty or exactly full; it is empty only if an end-of-data
// marker sits at that offset.
//
// Capacity policies:
//   - Non-overwriting: an append that does not fit the free space fails with
//     ErrMessageLargerThanRemainingCacheSize and nothing changes.
//   - Overwriting: the minimal prefix of oldest messages is evicted to make
//     room for the new frame.
//
// The file is the only source of truth. Every operation re-reads the header
// before acting, so instances hand the file back and forth sequentially
// without sharing memory. Simultaneous writers are not supported; callers
// must serialize access across instances and processes themselves.
package ringlog
