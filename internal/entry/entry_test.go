package entry

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	e, err := New("WARNING", "disk almost full")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, LevelWarn, e.Level)
	assert.Equal(t, "disk almost full", e.Message)
	assert.WithinDuration(t, time.Now(), e.Time, time.Minute)
	assert.Equal(t, time.UTC, e.Time.Location())

	_, err = New("fatal", "x")
	assert.ErrorContains(t, err, "invalid level")
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]string{"": LevelInfo, "Debug": LevelDebug, " error ": LevelError, "warn": LevelWarn} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	e, err := New("info", "hello")
	require.NoError(t, err)

	payload, err := Codec().Marshal(e)
	require.NoError(t, err)
	got, err := Codec().Unmarshal(payload)
	require.NoError(t, err)

	assert.Equal(t, e.ID, got.ID)
	assert.True(t, e.Time.Equal(got.Time))
	assert.Equal(t, e.Message, got.Message)
}

func TestListRows(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	id := uuid.MustParse("6f1c8ad4-3c1f-4a51-9b5c-0e1f2a3b4c5d")
	l := List{{ID: id, Time: ts, Level: LevelError, Message: "boom"}}

	assert.Equal(t, []string{"Time", "Level", "Message", "ID"}, l.Headers())
	assert.Equal(t, [][]string{{"2026-01-02T03:04:05Z", "ERROR", "boom", id.String()}}, l.Rows())
}

func TestListLast(t *testing.T) {
	l := make(List, 5)
	for i := range l {
		l[i] = Entry{ID: uuid.New()}
	}

	assert.Equal(t, l, l.Last(0))
	assert.Equal(t, l, l.Last(10))
	assert.Equal(t, l[3:], l.Last(2))
}

func TestListSince(t *testing.T) {
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	l := make(List, 5)
	for i := range l {
		l[i] = Entry{ID: uuid.New(), Time: base.Add(time.Duration(i) * time.Second)}
	}

	assert.Equal(t, l[2:], l.Since(l[1]))
	assert.Empty(t, l.Since(l[4]))

	// An evicted entry falls back to timestamps.
	evicted := Entry{ID: uuid.New(), Time: base.Add(1500 * time.Millisecond)}
	assert.Equal(t, l[2:], l.Since(evicted))
}

func TestListFilter(t *testing.T) {
	l := List{{Level: LevelInfo}, {Level: LevelError}, {Level: LevelInfo}}
	assert.Len(t, l.Filter(LevelInfo), 2)
	assert.Len(t, l.Filter(LevelError), 1)
	assert.Equal(t, l, l.Filter(""))
}
