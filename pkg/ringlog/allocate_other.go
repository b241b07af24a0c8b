//go:build !linux

package ringlog

import "os"

// allocate extends f to size bytes.
func allocate(f *os.File, size int64) error {
	return f.Truncate(size)
}
