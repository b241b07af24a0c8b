package ringlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lorem = "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod " +
	"tempor incididunt ut labore et dolore magna aliqua. Ut enim ad minim veniam, " +
	"quis nostrud exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat."

// fakeMetrics records every call for assertions.
type fakeMetrics struct {
	mu         sync.Mutex
	appends    []int64
	reads      []int
	evictions  []int
	rejections []string
	used       uint64
	capacity   uint64
}

func (m *fakeMetrics) ObserveAppend(bytes int64, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appends = append(m.appends, bytes)
}

func (m *fakeMetrics) ObserveRead(messages int, _ int64, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads = append(m.reads, messages)
}

func (m *fakeMetrics) RecordEvictions(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictions = append(m.evictions, count)
}

func (m *fakeMetrics) RecordRejection(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejections = append(m.rejections, reason)
}

func (m *fakeMetrics) RecordUsage(used, capacity uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.used, m.capacity = used, capacity
}

var _ Metrics = (*fakeMetrics)(nil)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.ringlog")
}

func openStrings(t *testing.T, path string, maximumBytes uint64, overwrite bool, opts ...Option) *Cache[string] {
	t.Helper()
	c, err := Open[string](path, maximumBytes, overwrite, StringCodec{}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func messages(t *testing.T, c *Cache[string]) []string {
	t.Helper()
	got, err := c.Messages()
	require.NoError(t, err)
	return got
}

// frameBytes is the data region footprint of the given messages.
func frameBytes(msgs ...string) uint64 {
	var n uint64
	for _, m := range msgs {
		n += SpanLength + uint64(len(m))
	}
	return n
}

func repeat(i, n int) string {
	return strings.Repeat(string(rune('a'+i%26)), n)
}

func TestOpenValidation(t *testing.T) {
	t.Run("NilCodec", func(t *testing.T) {
		_, err := Open[string](tempPath(t), 100, true, nil)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})

	t.Run("BelowMinimumSize", func(t *testing.T) {
		_, err := Open[string](tempPath(t), HeaderSize+SpanLength-1, true, StringCodec{})
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})

	t.Run("MissingDirectory", func(t *testing.T) {
		_, err := Open[string](filepath.Join(t.TempDir(), "missing", "log"), 100, true, StringCodec{})
		assert.Error(t, err)
	})
}

func TestNewCache(t *testing.T) {
	path := tempPath(t)
	c := openStrings(t, path, 128, true)

	assert.Equal(t, path, c.Path())

	empty, err := c.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)

	writable, err := c.IsWritable()
	require.NoError(t, err)
	assert.True(t, writable)

	assert.Empty(t, messages(t, c))
	assert.NotNil(t, messages(t, c), "empty caches return an empty slice")

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{
		Path:                  path,
		Version:               HeaderVersion,
		MaximumBytes:          128,
		OverwritesOldMessages: true,
		OffsetOfOldestMessage: HeaderSize,
		OffsetOfNewestMessage: HeaderSize,
		UsedBytes:             0,
		Capacity:              128 - HeaderSize,
		Writable:              true,
	}, stats)
}

func TestAppendAndRead(t *testing.T) {
	path := tempPath(t)
	c := openStrings(t, path, 1024, false)

	for _, m := range []string{"first", "", "third"} {
		require.NoError(t, c.Append(m))
	}
	assert.Equal(t, []string{"first", "", "third"}, messages(t, c))
	assert.Equal(t, messages(t, c), messages(t, c), "reads do not modify the file")

	empty, err := c.IsEmpty()
	require.NoError(t, err)
	assert.False(t, empty)

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, frameBytes("first", "", "third"), stats.UsedBytes)
	assert.Equal(t, uint64(HeaderSize)+stats.UsedBytes, stats.OffsetOfNewestMessage)

	t.Run("Reopen", func(t *testing.T) {
		require.NoError(t, c.Close())
		reopened := openStrings(t, path, 1024, false)
		assert.Equal(t, []string{"first", "", "third"}, messages(t, reopened))
	})
}

func TestExactFit(t *testing.T) {
	words := strings.Fields(lorem)
	maximumBytes := HeaderSize + frameBytes(words...)

	t.Run("NonOverwriting", func(t *testing.T) {
		c := openStrings(t, tempPath(t), maximumBytes, false)
		for _, w := range words {
			require.NoError(t, c.Append(w))
		}
		assert.Equal(t, words, messages(t, c))

		stats, err := c.Stats()
		require.NoError(t, err)
		assert.Equal(t, stats.Capacity, stats.UsedBytes)
		assert.Equal(t, uint64(HeaderSize), stats.OffsetOfNewestMessage, "a full cache wraps to the start")
		assert.Equal(t, stats.OffsetOfOldestMessage, stats.OffsetOfNewestMessage)

		empty, err := c.IsEmpty()
		require.NoError(t, err)
		assert.False(t, empty)

		err = c.Append("x")
		assert.ErrorIs(t, err, ErrMessageLargerThanRemainingCacheSize)
		assert.Equal(t, words, messages(t, c), "failed appends change nothing")
	})

	t.Run("Overwriting", func(t *testing.T) {
		c := openStrings(t, tempPath(t), maximumBytes, true)
		for _, w := range words {
			require.NoError(t, c.Append(w))
		}

		require.NoError(t, c.Append("x"))
		want := append(append([]string{}, words[1:]...), "x")
		assert.Equal(t, want, messages(t, c), "only the oldest message is evicted")
	})
}

func TestOverwriteEvenDivisors(t *testing.T) {
	const region = 100

	for _, frame := range []int{5, 10, 20, 25, 50, 100} {
		t.Run(fmt.Sprintf("Frame%d", frame), func(t *testing.T) {
			c := openStrings(t, tempPath(t), HeaderSize+region, true)
			perLap := region / frame
			payload := frame - SpanLength

			total := 3 * perLap
			for i := 0; i < total; i++ {
				require.NoError(t, c.Append(repeat(i, payload)))
			}

			want := make([]string, 0, perLap)
			for i := total - perLap; i < total; i++ {
				want = append(want, repeat(i, payload))
			}
			assert.Equal(t, want, messages(t, c))

			stats, err := c.Stats()
			require.NoError(t, err)
			assert.Equal(t, uint64(region), stats.UsedBytes)
		})
	}
}

func TestOverwriteReplacement(t *testing.T) {
	m := &fakeMetrics{}
	c := openStrings(t, tempPath(t), HeaderSize+60, true, WithMetrics(m))

	a, b, cc := repeat(0, 16), repeat(1, 16), repeat(2, 16)
	for _, msg := range []string{a, b, cc} {
		require.NoError(t, c.Append(msg))
	}
	assert.Empty(t, m.evictions)

	t.Run("ShorterEvictsOne", func(t *testing.T) {
		d := repeat(3, 6)
		require.NoError(t, c.Append(d))
		assert.Equal(t, []string{b, cc, d}, messages(t, c))
		assert.Equal(t, []int{1}, m.evictions)
	})

	t.Run("LongerEvictsTwo", func(t *testing.T) {
		e := repeat(4, 36)
		require.NoError(t, c.Append(e))
		assert.Equal(t, []string{repeat(3, 6), e}, messages(t, c))
		assert.Equal(t, []int{1, 2}, m.evictions)
	})
}

func TestWrapAroundSplitsFrames(t *testing.T) {
	const region = 50
	path := tempPath(t)
	c := openStrings(t, path, HeaderSize+region, true)

	// 24-byte frames: the third starts 2 bytes before the end of the file, so
	// its span length is split across the boundary.
	msgs := []string{repeat(0, 20), repeat(1, 20), repeat(2, 20), repeat(3, 20)}

	require.NoError(t, c.Append(msgs[0]))
	require.NoError(t, c.Append(msgs[1]))
	require.NoError(t, c.Append(msgs[2]))
	assert.Equal(t, msgs[1:3], messages(t, c))

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint64(HeaderSize+24), stats.OffsetOfOldestMessage)
	assert.Equal(t, uint64(HeaderSize+22), stats.OffsetOfNewestMessage)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{20, 0}, raw[HeaderSize+48:HeaderSize+50], "low span bytes at the end of the file")
	assert.Equal(t, []byte{0, 0}, raw[HeaderSize:HeaderSize+2], "high span bytes at the start of the data region")
	assert.Equal(t, repeat(2, 20), string(raw[HeaderSize+2:HeaderSize+22]))

	require.NoError(t, c.Append(msgs[3]))
	assert.Equal(t, msgs[2:], messages(t, c))

	stats, err = c.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint64(HeaderSize+48), stats.OffsetOfOldestMessage)
	assert.Equal(t, uint64(HeaderSize+46), stats.OffsetOfNewestMessage)
}

func TestOverwriteMatchesQueueModel(t *testing.T) {
	const region = 100
	c := openStrings(t, tempPath(t), HeaderSize+region, true)
	rng := rand.New(rand.NewPCG(1, 2))

	var (
		model []string
		used  uint64
	)
	for i := 0; i < 500; i++ {
		msg := repeat(i, rng.IntN(region-SpanLength+1))
		frame := frameBytes(msg)
		for region-used < frame {
			used -= frameBytes(model[0])
			model = model[1:]
		}
		model = append(model, msg)
		used += frame

		require.NoError(t, c.Append(msg), "append %d", i)
		require.Equal(t, model, messages(t, c), "after append %d", i)
	}
}

func TestCapacityLimits(t *testing.T) {
	const region = 60

	for _, overwrite := range []bool{false, true} {
		t.Run(fmt.Sprintf("Overwrite=%t", overwrite), func(t *testing.T) {
			m := &fakeMetrics{}
			c := openStrings(t, tempPath(t), HeaderSize+region, overwrite, WithMetrics(m))

			err := c.Append(repeat(0, region-SpanLength+1))
			assert.ErrorIs(t, err, ErrMessageLargerThanCacheCapacity, "one byte too large")
			assert.Equal(t, []string{RejectTooLarge}, m.rejections)

			exact := repeat(1, region-SpanLength)
			require.NoError(t, c.Append(exact))
			assert.Equal(t, []string{exact}, messages(t, c))
		})
	}

	t.Run("OverwriteEvictsEverything", func(t *testing.T) {
		c := openStrings(t, tempPath(t), HeaderSize+region, true)
		require.NoError(t, c.Append("small"))
		require.NoError(t, c.Append("other"))

		big := repeat(2, region-SpanLength)
		require.NoError(t, c.Append(big))
		assert.Equal(t, []string{big}, messages(t, c))
	})
}

func TestMinimumSizeCache(t *testing.T) {
	c := openStrings(t, tempPath(t), HeaderSize+SpanLength, true)

	require.NoError(t, c.Append(""))
	assert.Equal(t, []string{""}, messages(t, c))

	require.NoError(t, c.Append(""))
	assert.Equal(t, []string{""}, messages(t, c))

	assert.ErrorIs(t, c.Append("a"), ErrMessageLargerThanCacheCapacity)
}

func TestRemainingSizeKeepsMessages(t *testing.T) {
	m := &fakeMetrics{}
	c := openStrings(t, tempPath(t), HeaderSize+60, false, WithMetrics(m))

	msgs := []string{repeat(0, 16), repeat(1, 16), repeat(2, 6)}
	for _, msg := range msgs {
		require.NoError(t, c.Append(msg))
	}

	err := c.Append(repeat(3, 16))
	require.ErrorIs(t, err, ErrMessageLargerThanRemainingCacheSize)
	assert.Equal(t, msgs, messages(t, c))
	assert.Equal(t, []string{RejectCacheFull}, m.rejections)

	require.NoError(t, c.Append(repeat(4, 6)), "a frame that fits the free space is accepted")
}

func TestInstancesShareFile(t *testing.T) {
	path := tempPath(t)
	a := openStrings(t, path, HeaderSize+60, true)
	b := openStrings(t, path, HeaderSize+60, true)

	require.NoError(t, a.Append("one"))
	require.NoError(t, b.Append("two"))
	require.NoError(t, a.Append("three"))

	assert.Equal(t, []string{"one", "two", "three"}, messages(t, a))
	assert.Equal(t, []string{"one", "two", "three"}, messages(t, b))

	// Evictions made by one instance are seen by the other.
	for i := 0; i < 5; i++ {
		writer := a
		if i%2 == 1 {
			writer = b
		}
		require.NoError(t, writer.Append(repeat(i, 16)))
	}
	assert.Equal(t, []string{repeat(2, 16), repeat(3, 16), repeat(4, 16)}, messages(t, a))
	assert.Equal(t, messages(t, a), messages(t, b))
}

func TestNotWritable(t *testing.T) {
	path := tempPath(t)
	original := openStrings(t, path, 100, true)
	require.NoError(t, original.Append("stored"))
	require.NoError(t, original.Close())

	tests := []struct {
		name         string
		maximumBytes uint64
		overwrite    bool
	}{
		{"DifferentSize", 200, true},
		{"DifferentPolicy", 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMetrics{}
			c := openStrings(t, path, tt.maximumBytes, tt.overwrite, WithMetrics(m))

			writable, err := c.IsWritable()
			require.NoError(t, err)
			assert.False(t, writable)

			assert.Equal(t, []string{"stored"}, messages(t, c), "reads are still allowed")

			assert.ErrorIs(t, c.Append("new"), ErrFileNotWritable)
			assert.Equal(t, []string{"stored"}, messages(t, c))
			assert.Equal(t, []string{RejectNotWritable}, m.rejections)

			stats, err := c.Stats()
			require.NoError(t, err)
			assert.Equal(t, uint64(100), stats.MaximumBytes)
			assert.True(t, stats.OverwritesOldMessages)
			assert.False(t, stats.Writable)
		})
	}
}

func TestVersionMismatch(t *testing.T) {
	path := tempPath(t)
	old := openStrings(t, path, 100, true, withVersion(0))
	require.NoError(t, old.Close())

	c := openStrings(t, path, 100, true)

	_, err := c.IsWritable()
	assert.ErrorIs(t, err, ErrFileCorrupted)
	assert.ErrorIs(t, c.Append("x"), ErrFileCorrupted)

	_, err = c.Messages()
	assert.ErrorIs(t, err, ErrFileCorrupted)
}

func TestCorruption(t *testing.T) {
	t.Run("UndecodablePayload", func(t *testing.T) {
		path := tempPath(t)
		writer := openStrings(t, path, 100, true)
		require.NoError(t, writer.Append("not json"))

		reader, err := Open[map[string]any](path, 100, true, JSONCodec[map[string]any]{})
		require.NoError(t, err)
		defer func() { _ = reader.Close() }()

		_, err = reader.Messages()
		require.ErrorIs(t, err, ErrFileCorrupted)
		var syntaxErr *json.SyntaxError
		assert.True(t, errors.As(err, &syntaxErr), "codec error is wrapped")
	})

	t.Run("SpanPastStoredData", func(t *testing.T) {
		path := tempPath(t)
		c := openStrings(t, path, 100, true)
		require.NoError(t, c.Append("abc"))

		f, err := os.OpenFile(path, os.O_RDWR, 0)
		require.NoError(t, err)
		_, err = f.WriteAt(EncodeSpan(50), HeaderSize)
		require.NoError(t, err)
		require.NoError(t, f.Close())

		_, err = c.Messages()
		assert.ErrorIs(t, err, ErrFileCorrupted)
	})

	t.Run("OffsetOutsideDataRegion", func(t *testing.T) {
		path := tempPath(t)
		c := openStrings(t, path, 100, true)

		h := newFileHeader(HeaderVersion, 100, true)
		h.OffsetOfNewestMessage = 100
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		require.NoError(t, err)
		_, err = f.WriteAt(h.Encode(), 0)
		require.NoError(t, err)
		require.NoError(t, f.Close())

		_, err = c.Messages()
		assert.ErrorIs(t, err, ErrFileCorrupted)
		assert.ErrorIs(t, c.Append("x"), ErrFileCorrupted)
	})

	t.Run("TruncatedHeader", func(t *testing.T) {
		path := tempPath(t)
		require.NoError(t, os.WriteFile(path, []byte{HeaderVersion, 0, 0}, 0644))

		c := openStrings(t, path, 100, true)
		_, err := c.IsEmpty()
		assert.ErrorIs(t, err, ErrFileCorrupted)
	})
}

func TestMarshalError(t *testing.T) {
	boom := errors.New("boom")
	codec := CodecFuncs[string]{
		MarshalFunc: func(m string) ([]byte, error) {
			if m == "bad" {
				return nil, boom
			}
			return []byte(m), nil
		},
		UnmarshalFunc: func(b []byte) (string, error) { return string(b), nil },
	}

	c, err := Open[string](tempPath(t), 100, true, codec)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	require.NoError(t, c.Append("good"))
	assert.ErrorIs(t, c.Append("bad"), boom)

	got, err := c.Messages()
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, got)
}

func TestJSONCodec(t *testing.T) {
	type record struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	c, err := Open[record](tempPath(t), 256, true, JSONCodec[record]{})
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	require.NoError(t, c.Append(record{Name: "a", Count: 1}))
	require.NoError(t, c.Append(record{Name: "b", Count: 2}))

	got, err := c.Messages()
	require.NoError(t, err)
	assert.Equal(t, []record{{"a", 1}, {"b", 2}}, got)
}

func TestBytesCodecCopies(t *testing.T) {
	payload := []byte("data")
	out, err := BytesCodec{}.Unmarshal(payload)
	require.NoError(t, err)
	payload[0] = 'X'
	assert.Equal(t, []byte("data"), out)
}

func TestClosedCache(t *testing.T) {
	c, err := Open[string](tempPath(t), 100, true, StringCodec{})
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.NoError(t, c.Close(), "closing twice is fine")

	assert.ErrorIs(t, c.Append("x"), ErrCacheClosed)
	_, err = c.Messages()
	assert.ErrorIs(t, err, ErrCacheClosed)
	_, err = c.IsEmpty()
	assert.ErrorIs(t, err, ErrCacheClosed)
	_, err = c.IsWritable()
	assert.ErrorIs(t, err, ErrCacheClosed)
	_, err = c.Stats()
	assert.ErrorIs(t, err, ErrCacheClosed)
}

func TestMetricsObservations(t *testing.T) {
	m := &fakeMetrics{}
	c := openStrings(t, tempPath(t), HeaderSize+100, true, WithMetrics(m), WithSyncWrites(true))

	require.NoError(t, c.Append("abc"))
	require.NoError(t, c.Append("defgh"))
	assert.Equal(t, []int64{7, 9}, m.appends)
	assert.Equal(t, uint64(16), m.used)
	assert.Equal(t, uint64(100), m.capacity)

	messages(t, c)
	assert.Equal(t, []int{2}, m.reads)
}

func TestConcurrentAppends(t *testing.T) {
	c := openStrings(t, tempPath(t), 64*1024, true)

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				assert.NoError(t, c.Append(fmt.Sprintf("w%d-%d", w, i)))
			}
		}(w)
	}
	wg.Wait()

	got := messages(t, c)
	assert.Len(t, got, workers*perWorker)

	// Each worker's messages keep their relative order.
	next := make(map[string]int)
	for _, msg := range got {
		var w, i int
		_, err := fmt.Sscanf(msg, "w%d-%d", &w, &i)
		require.NoError(t, err)
		key := fmt.Sprint(w)
		assert.Equal(t, next[key], i)
		next[key] = i + 1
	}
}
