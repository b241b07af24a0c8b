package ringlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderLayout(t *testing.T) {
	assert.Equal(t, 26, HeaderSize)

	h := FileHeader{
		Version:               HeaderVersion,
		MaximumBytes:          0x0102,
		OverwritesOldMessages: true,
		OffsetOfOldestMessage: 0x30,
		OffsetOfNewestMessage: 0x40,
	}
	b := h.Encode()
	require.Len(t, b, HeaderSize)

	assert.Equal(t, HeaderVersion, b[0])
	assert.Equal(t, []byte{0x02, 0x01, 0, 0, 0, 0, 0, 0}, b[1:9])
	assert.Equal(t, byte(1), b[9])
	assert.Equal(t, []byte{0x30, 0, 0, 0, 0, 0, 0, 0}, b[10:18])
	assert.Equal(t, []byte{0x40, 0, 0, 0, 0, 0, 0, 0}, b[18:26])

	decoded, err := DecodeFileHeader(b)
	require.NoError(t, err)
	assert.Equal(t, h, decoded)
	assert.Equal(t, b[10:26], h.encodeOffsets())
}

func TestNewFileHeader(t *testing.T) {
	h := newFileHeader(HeaderVersion, 1024, false)
	assert.Equal(t, uint64(HeaderSize), h.OffsetOfOldestMessage)
	assert.Equal(t, uint64(HeaderSize), h.OffsetOfNewestMessage)
	assert.Equal(t, uint64(1024-HeaderSize), h.dataRegionSize())
	assert.NoError(t, h.validate())
}

func TestDecodeFileHeaderErrors(t *testing.T) {
	valid := newFileHeader(HeaderVersion, 1024, true).Encode()

	t.Run("Short", func(t *testing.T) {
		_, err := DecodeFileHeader(valid[:HeaderSize-1])
		assert.ErrorIs(t, err, ErrFileCorrupted)
	})

	t.Run("UnknownVersion", func(t *testing.T) {
		b := append([]byte(nil), valid...)
		b[0] = 0
		_, err := DecodeFileHeader(b)
		assert.ErrorIs(t, err, ErrFileCorrupted)
	})

	t.Run("InvalidOverwriteFlag", func(t *testing.T) {
		b := append([]byte(nil), valid...)
		b[9] = 7
		_, err := DecodeFileHeader(b)
		assert.ErrorIs(t, err, ErrFileCorrupted)
	})
}

func TestHeaderValidate(t *testing.T) {
	h := newFileHeader(HeaderVersion, 100, true)

	h.OffsetOfNewestMessage = 100
	assert.ErrorIs(t, h.validate(), ErrFileCorrupted, "offset at maximum bytes")

	h.OffsetOfNewestMessage = HeaderSize - 1
	assert.ErrorIs(t, h.validate(), ErrFileCorrupted, "offset inside header")

	h = newFileHeader(HeaderVersion, HeaderSize+SpanLength-1, true)
	assert.ErrorIs(t, h.validate(), ErrFileCorrupted, "capacity below minimum")
}
