package ringlog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/marmos91/ringlog/internal/logger"
)

// HeaderHandle owns the header region of a ring log file.
//
// It keeps a working copy of the header that is only as fresh as the last
// Synchronize call. Callers synchronize before every operation that inspects
// or mutates offsets; nothing read earlier is trusted because another
// instance may have appended in between.
type HeaderHandle struct {
	file                  *os.File
	maximumBytes          uint64
	overwritesOldMessages bool
	version               uint8
	header                FileHeader
}

// OpenHeaderHandle opens (creating if needed) the file at path.
//
// An empty file is initialised: it is allocated to maximumBytes, a header
// with both offsets at HeaderSize is written, and an end-of-data marker is
// placed at the start of the data region. An existing non-empty file is left
// untouched; its header is loaded if it can be decoded; otherwise the
// corruption surfaces from IsWritable and Synchronize.
func OpenHeaderHandle(path string, maximumBytes uint64, overwritesOldMessages bool, version uint8) (*HeaderHandle, error) {
	if maximumBytes < HeaderSize+SpanLength {
		return nil, fmt.Errorf("%w: maximum bytes %d below minimum %d", ErrInvalidConfiguration, maximumBytes, HeaderSize+SpanLength)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	h := &HeaderHandle{
		file:                  f,
		maximumBytes:          maximumBytes,
		overwritesOldMessages: overwritesOldMessages,
		version:               version,
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	if info.Size() == 0 {
		if err := h.createNew(); err != nil {
			_ = f.Close()
			return nil, err
		}
		return h, nil
	}

	if err := h.Synchronize(); err != nil && !errors.Is(err, ErrFileCorrupted) {
		_ = f.Close()
		return nil, err
	}
	return h, nil
}

// createNew writes the header of an empty cache.
func (h *HeaderHandle) createNew() error {
	if err := allocate(h.file, int64(h.maximumBytes)); err != nil {
		return fmt.Errorf("allocate file: %w", err)
	}

	header := newFileHeader(h.version, h.maximumBytes, h.overwritesOldMessages)
	if _, err := h.file.WriteAt(header.Encode(), 0); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := h.file.WriteAt(EncodeSpan(EndOfDataMarker), HeaderSize); err != nil {
		return fmt.Errorf("write end of data marker: %w", err)
	}
	h.header = header

	logger.Debug("Ring log header created",
		logger.KeyPath, h.file.Name(),
		logger.KeyMaximumBytes, h.maximumBytes,
		logger.KeyOverwrites, h.overwritesOldMessages)
	return nil
}

// readHeaderBytes reads the raw header region from disk.
func (h *HeaderHandle) readHeaderBytes() ([]byte, error) {
	b := make([]byte, HeaderSize)
	n, err := h.file.ReadAt(b, 0)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: header is %d bytes, want %d", ErrFileCorrupted, n, HeaderSize)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	return b, nil
}

// IsWritable reports whether the persisted configuration matches this
// handle. A version mismatch is an error (the format cannot be read); a
// maximum size or overwrite policy mismatch only makes the file read-only.
func (h *HeaderHandle) IsWritable() (bool, error) {
	b, err := h.readHeaderBytes()
	if err != nil {
		return false, err
	}
	if b[versionOffset] != h.version {
		return false, fmt.Errorf("%w: file version %d, want %d", ErrFileCorrupted, b[versionOffset], h.version)
	}

	stored, err := DecodeFileHeader(b)
	if err != nil {
		return false, err
	}
	return stored.MaximumBytes == h.maximumBytes &&
		stored.OverwritesOldMessages == h.overwritesOldMessages, nil
}

// Synchronize reloads the header, offsets included, from disk.
func (h *HeaderHandle) Synchronize() error {
	b, err := h.readHeaderBytes()
	if err != nil {
		return err
	}
	header, err := DecodeFileHeader(b)
	if err != nil {
		return err
	}
	if err := header.validate(); err != nil {
		return err
	}
	h.header = header
	return nil
}

// UpdateOffsets persists new oldest/newest offsets.
func (h *HeaderHandle) UpdateOffsets(oldest, newest uint64) error {
	updated := h.header
	updated.OffsetOfOldestMessage = oldest
	updated.OffsetOfNewestMessage = newest

	if _, err := h.file.WriteAt(updated.encodeOffsets(), oldestOffset); err != nil {
		return fmt.Errorf("write header offsets: %w", err)
	}
	h.header = updated
	return nil
}

// Header returns the header as of the last Synchronize or UpdateOffsets.
func (h *HeaderHandle) Header() FileHeader {
	return h.header
}

// Close releases the file.
func (h *HeaderHandle) Close() error {
	if h.file == nil {
		return nil
	}
	err := h.file.Close()
	h.file = nil
	if err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	return nil
}
