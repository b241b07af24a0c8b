package ringlog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/marmos91/ringlog/internal/bufpool"
	"github.com/marmos91/ringlog/internal/logger"
)

// Cache is a fixed-capacity append log of messages of type T stored in a
// single file.
//
// Thread Safety:
// Calls on one Cache are serialized by an internal mutex. Separate Cache
// instances on the same file are not coordinated.
type Cache[T any] struct {
	mu                    sync.Mutex
	path                  string
	file                  *os.File
	header                *HeaderHandle
	codec                 Codec[T]
	maximumBytes          uint64
	overwritesOldMessages bool
	metrics               Metrics
	syncWrites            bool
	closed                bool
}

// Stats is a point-in-time view of a ring log file.
type Stats struct {
	Path                  string `json:"path" yaml:"path"`
	Version               uint8  `json:"version" yaml:"version"`
	MaximumBytes          uint64 `json:"maximum_bytes" yaml:"maximum_bytes"`
	OverwritesOldMessages bool   `json:"overwrites_old_messages" yaml:"overwrites_old_messages"`
	OffsetOfOldestMessage uint64 `json:"offset_of_oldest_message" yaml:"offset_of_oldest_message"`
	OffsetOfNewestMessage uint64 `json:"offset_of_newest_message" yaml:"offset_of_newest_message"`
	UsedBytes             uint64 `json:"used_bytes" yaml:"used_bytes"`
	Capacity              uint64 `json:"capacity" yaml:"capacity"`
	Writable              bool   `json:"writable" yaml:"writable"`
}

// Open opens the ring log at path, creating and initialising the file when
// it is missing or empty.
//
// Parameters:
//   - path: File location (the parent directory must exist)
//   - maximumBytes: Total file size, header included
//   - shouldOverwriteOldMessages: Evict oldest messages instead of failing when full
//   - codec: Converts messages to and from payload bytes
//
// An existing file is opened as-is even if its stored configuration differs;
// such a cache can read but Append fails with ErrFileNotWritable.
func Open[T any](path string, maximumBytes uint64, shouldOverwriteOldMessages bool, codec Codec[T], opts ...Option) (*Cache[T], error) {
	if codec == nil {
		return nil, fmt.Errorf("%w: codec is required", ErrInvalidConfiguration)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	header, err := OpenHeaderHandle(path, maximumBytes, shouldOverwriteOldMessages, o.version)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		_ = header.Close()
		return nil, fmt.Errorf("open file: %w", err)
	}

	return &Cache[T]{
		path:                  path,
		file:                  f,
		header:                header,
		codec:                 codec,
		maximumBytes:          maximumBytes,
		overwritesOldMessages: shouldOverwriteOldMessages,
		metrics:               o.metrics,
		syncWrites:            o.syncWrites,
	}, nil
}

// Path returns the file location.
func (c *Cache[T]) Path() string {
	return c.path
}

// IsEmpty reports whether no message has been appended to the file.
func (c *Cache[T]) IsEmpty() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, ErrCacheClosed
	}

	if err := c.header.Synchronize(); err != nil {
		return false, err
	}
	used, err := c.usedBytes(c.header.Header())
	if err != nil {
		return false, err
	}
	return used == 0, nil
}

// IsWritable reports whether the persisted configuration matches the one
// this cache was opened with. It fails with ErrFileCorrupted when the stored
// format version is not the expected one.
func (c *Cache[T]) IsWritable() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, ErrCacheClosed
	}
	return c.header.IsWritable()
}

// Append stores message as the newest entry.
//
// Returns:
//   - ErrMessageLargerThanCacheCapacity: the frame can never fit
//   - ErrMessageLargerThanRemainingCacheSize: non-overwriting cache is full
//   - ErrFileNotWritable: persisted configuration differs from this cache's
//   - ErrFileCorrupted: header or frames cannot be interpreted
//
// On any error the stored messages are unchanged. The frame is written
// before the header offsets, so a failure in between leaves only inert bytes
// past the newest offset.
func (c *Cache[T]) Append(message T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCacheClosed
	}

	start := time.Now()

	payload, err := c.codec.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	frameSize := uint64(SpanLength) + uint64(len(payload))
	capacity := c.maximumBytes - HeaderSize
	if uint64(len(payload)) >= uint64(EndOfDataMarker) || frameSize > capacity {
		c.recordRejection(RejectTooLarge)
		return fmt.Errorf("%w: frame is %d bytes, data region is %d", ErrMessageLargerThanCacheCapacity, frameSize, capacity)
	}

	if err := c.header.Synchronize(); err != nil {
		return err
	}

	writable, err := c.header.IsWritable()
	if err != nil {
		return err
	}
	if !writable {
		logger.Warn("Ring log append rejected, file configuration differs",
			logger.KeyPath, c.path,
			logger.KeyMaximumBytes, c.maximumBytes,
			logger.KeyOverwrites, c.overwritesOldMessages)
		c.recordRejection(RejectNotWritable)
		return ErrFileNotWritable
	}

	h := c.header.Header()
	region := h.dataRegionSize()

	used, err := c.usedBytes(h)
	if err != nil {
		return err
	}

	oldest := h.OffsetOfOldestMessage
	evicted := 0
	for region-used < frameSize {
		if !c.overwritesOldMessages {
			c.recordRejection(RejectCacheFull)
			return fmt.Errorf("%w: frame is %d bytes, %d bytes free", ErrMessageLargerThanRemainingCacheSize, frameSize, region-used)
		}
		if used == 0 {
			c.recordRejection(RejectTooLarge)
			return fmt.Errorf("%w: frame is %d bytes, data region is %d", ErrMessageLargerThanCacheCapacity, frameSize, region)
		}

		span, err := c.readSpan(oldest, h.MaximumBytes)
		if err != nil {
			return err
		}
		evictedSize := uint64(SpanLength) + uint64(span)
		if span == EndOfDataMarker || evictedSize > used {
			return fmt.Errorf("%w: frame at offset %d spans %d bytes, %d in use", ErrFileCorrupted, oldest, evictedSize, used)
		}

		oldest = advance(oldest, evictedSize, h.MaximumBytes)
		used -= evictedSize
		evicted++
	}

	frame := encodeFrame(bufpool.Get(int(frameSize)), payload)
	defer bufpool.Put(frame)

	newest := h.OffsetOfNewestMessage
	if err := c.writeWrapped(frame, newest, h.MaximumBytes); err != nil {
		return err
	}

	nextNewest := advance(newest, frameSize, h.MaximumBytes)
	if region-used-frameSize >= SpanLength {
		if err := c.writeWrapped(EncodeSpan(EndOfDataMarker), nextNewest, h.MaximumBytes); err != nil {
			return err
		}
	}

	if c.syncWrites {
		if err := c.file.Sync(); err != nil {
			return fmt.Errorf("sync frame: %w", err)
		}
	}

	if err := c.header.UpdateOffsets(oldest, nextNewest); err != nil {
		return err
	}

	if c.syncWrites {
		if err := c.file.Sync(); err != nil {
			return fmt.Errorf("sync header: %w", err)
		}
	}

	if evicted > 0 {
		logger.Debug("Ring log evicted old messages",
			logger.KeyPath, c.path,
			logger.KeyEvicted, evicted,
			logger.KeyOldestOffset, oldest)
	}

	if c.metrics != nil {
		c.metrics.ObserveAppend(int64(frameSize), time.Since(start))
		if evicted > 0 {
			c.metrics.RecordEvictions(evicted)
		}
		c.metrics.RecordUsage(used+frameSize, region)
	}

	return nil
}

// Messages returns every stored message, oldest first. It never modifies
// the file; repeated calls without an intervening Append return equal results.
func (c *Cache[T]) Messages() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrCacheClosed
	}

	start := time.Now()

	if err := c.header.Synchronize(); err != nil {
		return nil, err
	}
	h := c.header.Header()

	remaining, err := c.usedBytes(h)
	if err != nil {
		return nil, err
	}

	messages := make([]T, 0)
	cursor := h.OffsetOfOldestMessage
	var bytesRead int64

	for remaining > 0 {
		if remaining < SpanLength {
			return nil, fmt.Errorf("%w: %d trailing bytes at offset %d", ErrFileCorrupted, remaining, cursor)
		}

		span, err := c.readSpan(cursor, h.MaximumBytes)
		if err != nil {
			return nil, err
		}
		if span == EndOfDataMarker {
			break
		}

		frameSize := uint64(SpanLength) + uint64(span)
		if frameSize > remaining {
			return nil, fmt.Errorf("%w: frame at offset %d spans %d bytes, %d remain", ErrFileCorrupted, cursor, frameSize, remaining)
		}

		payload := bufpool.Get(int(span))
		if err := c.readWrapped(payload, advance(cursor, SpanLength, h.MaximumBytes), h.MaximumBytes); err != nil {
			bufpool.Put(payload)
			return nil, err
		}

		message, err := c.codec.Unmarshal(payload)
		bufpool.Put(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: decode message at offset %d: %w", ErrFileCorrupted, cursor, err)
		}
		messages = append(messages, message)

		cursor = advance(cursor, frameSize, h.MaximumBytes)
		remaining -= frameSize
		bytesRead += int64(frameSize)
	}

	if c.metrics != nil {
		c.metrics.ObserveRead(len(messages), bytesRead, time.Since(start))
	}

	return messages, nil
}

// Stats returns the current on-disk state.
func (c *Cache[T]) Stats() (Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Stats{}, ErrCacheClosed
	}

	if err := c.header.Synchronize(); err != nil {
		return Stats{}, err
	}
	h := c.header.Header()

	used, err := c.usedBytes(h)
	if err != nil {
		return Stats{}, err
	}
	writable, err := c.header.IsWritable()
	if err != nil {
		return Stats{}, err
	}

	if c.metrics != nil {
		c.metrics.RecordUsage(used, h.dataRegionSize())
	}

	return Stats{
		Path:                  c.path,
		Version:               h.Version,
		MaximumBytes:          h.MaximumBytes,
		OverwritesOldMessages: h.OverwritesOldMessages,
		OffsetOfOldestMessage: h.OffsetOfOldestMessage,
		OffsetOfNewestMessage: h.OffsetOfNewestMessage,
		UsedBytes:             used,
		Capacity:              h.dataRegionSize(),
		Writable:              writable,
	}, nil
}

// Close releases the file handles. Further calls return ErrCacheClosed.
func (c *Cache[T]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if err := c.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close file: %w", err))
	}
	if err := c.header.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// usedBytes returns how many data region bytes hold live frames.
func (c *Cache[T]) usedBytes(h FileHeader) (uint64, error) {
	oldest, newest := h.OffsetOfOldestMessage, h.OffsetOfNewestMessage
	switch {
	case newest > oldest:
		return newest - oldest, nil
	case newest < oldest:
		return h.dataRegionSize() - (oldest - newest), nil
	}

	span, err := c.readSpan(oldest, h.MaximumBytes)
	if err != nil {
		return 0, err
	}
	if span == EndOfDataMarker {
		return 0, nil
	}
	return h.dataRegionSize(), nil
}

// readSpan reads the span length stored at offset.
func (c *Cache[T]) readSpan(offset, maximumBytes uint64) (uint32, error) {
	b := make([]byte, SpanLength)
	if err := c.readWrapped(b, offset, maximumBytes); err != nil {
		return 0, err
	}
	return DecodeSpan(b)
}

// readWrapped fills buf from offset, continuing at HeaderSize once the read
// reaches maximumBytes. len(buf) must not exceed the data region size.
func (c *Cache[T]) readWrapped(buf []byte, offset, maximumBytes uint64) error {
	first := min(uint64(len(buf)), maximumBytes-offset)
	if err := c.readFull(buf[:first], offset); err != nil {
		return err
	}
	return c.readFull(buf[first:], HeaderSize)
}

func (c *Cache[T]) readFull(buf []byte, offset uint64) error {
	if len(buf) == 0 {
		return nil
	}
	if _, err := c.file.ReadAt(buf, int64(offset)); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: read of %d bytes at offset %d passes end of file", ErrFileCorrupted, len(buf), offset)
		}
		return fmt.Errorf("read at offset %d: %w", offset, err)
	}
	return nil
}

// writeWrapped writes buf from offset, continuing at HeaderSize once the
// write reaches maximumBytes.
func (c *Cache[T]) writeWrapped(buf []byte, offset, maximumBytes uint64) error {
	first := min(uint64(len(buf)), maximumBytes-offset)
	if _, err := c.file.WriteAt(buf[:first], int64(offset)); err != nil {
		return fmt.Errorf("write at offset %d: %w", offset, err)
	}
	if first == uint64(len(buf)) {
		return nil
	}
	if _, err := c.file.WriteAt(buf[first:], HeaderSize); err != nil {
		return fmt.Errorf("write at offset %d: %w", HeaderSize, err)
	}
	return nil
}

func (c *Cache[T]) recordRejection(reason string) {
	if c.metrics != nil {
		c.metrics.RecordRejection(reason)
	}
}

// advance moves offset forward by n bytes inside the circular data region.
func advance(offset, n, maximumBytes uint64) uint64 {
	region := maximumBytes - HeaderSize
	return HeaderSize + (offset-HeaderSize+n)%region
}
