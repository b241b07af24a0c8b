package ringlog

import (
	"errors"
)

// Ring log errors
var (
	// ErrFileCorrupted is returned when the file cannot be interpreted: the
	// header is short or carries an unknown format version, or a frame's
	// span length points past the stored data.
	ErrFileCorrupted = errors.New("ring log file corrupted")

	// ErrFileNotWritable is returned by Append when the persisted maximum size
	// or overwrite policy differ from the values the cache was opened with.
	// Reads remain permitted.
	ErrFileNotWritable = errors.New("ring log file not writable with this configuration")

	// ErrMessageLargerThanCacheCapacity is returned when a message's frame can
	// never fit in the data region, whatever the eviction policy.
	ErrMessageLargerThanCacheCapacity = errors.New("message larger than cache capacity")

	// ErrMessageLargerThanRemainingCacheSize is returned by non-overwriting
	// caches when the frame fits the total capacity but not the free space.
	ErrMessageLargerThanRemainingCacheSize = errors.New("message larger than remaining cache size")

	// ErrInvalidConfiguration is returned by Open for unusable parameters.
	ErrInvalidConfiguration = errors.New("invalid ring log configuration")

	// ErrCacheClosed is returned when operations are attempted on a closed cache.
	ErrCacheClosed = errors.New("ring log is closed")
)
