// Package entry defines the log record the ringlog CLI stores in a ring log.
package entry

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/ringlog/pkg/ringlog"
)

// Levels accepted by New.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Entry is one CLI-appended record.
type Entry struct {
	ID      uuid.UUID `json:"id" yaml:"id"`
	Time    time.Time `json:"time" yaml:"time"`
	Level   string    `json:"level" yaml:"level"`
	Message string    `json:"message" yaml:"message"`
}

// New builds an entry stamped with a random ID and the current UTC time.
func New(level, message string) (Entry, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		ID:      uuid.New(),
		Time:    time.Now().UTC(),
		Level:   lvl,
		Message: message,
	}, nil
}

// ParseLevel normalizes a level name. The empty string means info.
func ParseLevel(s string) (string, error) {
	switch l := strings.ToLower(strings.TrimSpace(s)); l {
	case "":
		return LevelInfo, nil
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return l, nil
	case "warning":
		return LevelWarn, nil
	default:
		return "", fmt.Errorf("invalid level %q (valid: debug, info, warn, error)", s)
	}
}

// Codec returns the codec entries are stored with.
func Codec() ringlog.Codec[Entry] {
	return ringlog.JSONCodec[Entry]{}
}

// List is a slice of entries renderable as a table.
type List []Entry

// Headers implements output.TableRenderer.
func (l List) Headers() []string {
	return []string{"Time", "Level", "Message", "ID"}
}

// Rows implements output.TableRenderer.
func (l List) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		rows = append(rows, []string{
			e.Time.Format(time.RFC3339),
			strings.ToUpper(e.Level),
			e.Message,
			e.ID.String(),
		})
	}
	return rows
}

// Last returns at most the n newest entries; n <= 0 returns all of them.
func (l List) Last(n int) List {
	if n <= 0 || n >= len(l) {
		return l
	}
	return l[len(l)-n:]
}

// Since returns the entries appended after last. When last is no longer
// stored (it was evicted) the entries timestamped after it are returned.
func (l List) Since(last Entry) List {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].ID == last.ID {
			return l[i+1:]
		}
	}
	out := make(List, 0, len(l))
	for _, e := range l {
		if e.Time.After(last.Time) {
			out = append(out, e)
		}
	}
	return out
}

// Filter returns the entries at the given level; an empty level keeps all.
func (l List) Filter(level string) List {
	if level == "" {
		return l
	}
	out := make(List, 0, len(l))
	for _, e := range l {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}
