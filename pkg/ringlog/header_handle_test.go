package ringlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenHeaderHandleCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")

	h, err := OpenHeaderHandle(path, 128, true, HeaderVersion)
	require.NoError(t, err)
	defer func() { _ = h.Close() }()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(128), info.Size(), "file is allocated up front")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, newFileHeader(HeaderVersion, 128, true).Encode(), raw[:HeaderSize])
	assert.Equal(t, EncodeSpan(EndOfDataMarker), raw[HeaderSize:HeaderSize+SpanLength])

	writable, err := h.IsWritable()
	require.NoError(t, err)
	assert.True(t, writable)
}

func TestOpenHeaderHandleRejectsTinyFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	_, err := OpenHeaderHandle(path, HeaderSize+SpanLength-1, true, HeaderVersion)
	require.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing is created")
}

func TestHeaderHandleExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")

	h1, err := OpenHeaderHandle(path, 128, true, HeaderVersion)
	require.NoError(t, err)
	require.NoError(t, h1.UpdateOffsets(HeaderSize+10, HeaderSize+20))
	require.NoError(t, h1.Close())

	t.Run("SameConfiguration", func(t *testing.T) {
		h, err := OpenHeaderHandle(path, 128, true, HeaderVersion)
		require.NoError(t, err)
		defer func() { _ = h.Close() }()

		assert.Equal(t, uint64(HeaderSize+10), h.Header().OffsetOfOldestMessage)
		assert.Equal(t, uint64(HeaderSize+20), h.Header().OffsetOfNewestMessage)

		writable, err := h.IsWritable()
		require.NoError(t, err)
		assert.True(t, writable)
	})

	t.Run("DifferentSize", func(t *testing.T) {
		h, err := OpenHeaderHandle(path, 256, true, HeaderVersion)
		require.NoError(t, err)
		defer func() { _ = h.Close() }()

		assert.Equal(t, uint64(128), h.Header().MaximumBytes, "persisted size wins")
		writable, err := h.IsWritable()
		require.NoError(t, err)
		assert.False(t, writable)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, int64(128), info.Size(), "existing file is not resized")
	})

	t.Run("DifferentPolicy", func(t *testing.T) {
		h, err := OpenHeaderHandle(path, 128, false, HeaderVersion)
		require.NoError(t, err)
		defer func() { _ = h.Close() }()

		writable, err := h.IsWritable()
		require.NoError(t, err)
		assert.False(t, writable)
	})
}

func TestHeaderHandleVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")

	old, err := OpenHeaderHandle(path, 128, true, 0)
	require.NoError(t, err)
	require.NoError(t, old.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte(0), raw[0])

	h, err := OpenHeaderHandle(path, 128, true, HeaderVersion)
	require.NoError(t, err, "unreadable headers are reported lazily")
	defer func() { _ = h.Close() }()

	_, err = h.IsWritable()
	assert.ErrorIs(t, err, ErrFileCorrupted)
	assert.ErrorIs(t, h.Synchronize(), ErrFileCorrupted)
}

func TestHeaderHandleTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	require.NoError(t, os.WriteFile(path, []byte{HeaderVersion, 1, 2}, 0644))

	h, err := OpenHeaderHandle(path, 128, true, HeaderVersion)
	require.NoError(t, err)
	defer func() { _ = h.Close() }()

	_, err = h.IsWritable()
	assert.ErrorIs(t, err, ErrFileCorrupted)
}

func TestHeaderHandleCloseTwice(t *testing.T) {
	h, err := OpenHeaderHandle(filepath.Join(t.TempDir(), "log"), 64, true, HeaderVersion)
	require.NoError(t, err)
	require.NoError(t, h.Close())
	assert.NoError(t, h.Close())
}
