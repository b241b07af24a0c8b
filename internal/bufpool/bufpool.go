// Package bufpool pools the byte slices used to encode and decode ring log
// frames.
//
// Buffers come in three size classes. Requests above the largest class are
// allocated directly and never pooled, so a log that occasionally stores a
// huge message does not keep that memory alive.
//
// # Usage
//
//	buf := bufpool.Get(size)
//	defer bufpool.Put(buf)
package bufpool

import (
	"sync"
)

// Default size classes.
const (
	// DefaultSmallSize fits typical single-line messages (512B)
	DefaultSmallSize = 512

	// DefaultMediumSize fits structured entries with context (8KB)
	DefaultMediumSize = 8 << 10

	// DefaultLargeSize is the largest pooled buffer (128KB)
	DefaultLargeSize = 128 << 10
)

// Config sets the pool size classes. Zero fields take the defaults; the
// resulting sizes must be strictly increasing.
type Config struct {
	SmallSize  int
	MediumSize int
	LargeSize  int
}

// Pool hands out byte slices from per-size-class sync.Pools.
//
// Thread Safety: all methods are safe for concurrent use.
type Pool struct {
	sizes [3]int
	pools [3]sync.Pool
}

// NewPool creates a pool. A nil cfg uses the defaults.
func NewPool(cfg *Config) *Pool {
	c := Config{}
	if cfg != nil {
		c = *cfg
	}
	if c.SmallSize <= 0 {
		c.SmallSize = DefaultSmallSize
	}
	if c.MediumSize <= 0 {
		c.MediumSize = DefaultMediumSize
	}
	if c.LargeSize <= 0 {
		c.LargeSize = DefaultLargeSize
	}

	p := &Pool{sizes: [3]int{c.SmallSize, c.MediumSize, c.LargeSize}}
	for i := range p.pools {
		size := p.sizes[i]
		p.pools[i].New = func() any {
			buf := make([]byte, size)
			return &buf
		}
	}
	return p
}

// class returns the index of the smallest class holding size, or -1.
func (p *Pool) class(size int) int {
	for i, s := range p.sizes {
		if size <= s {
			return i
		}
	}
	return -1
}

// Get returns a slice of length size. Its capacity is the size class, so
// callers may reslice up to cap without reallocating.
func (p *Pool) Get(size int) []byte {
	i := p.class(size)
	if i < 0 {
		return make([]byte, size)
	}
	buf := *p.pools[i].Get().(*[]byte)
	return buf[:size]
}

// Put returns buf to its size class. Slices not obtained from Get (any
// capacity that is not exactly a class size) are dropped.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}
	for i, s := range p.sizes {
		if cap(buf) == s {
			full := buf[:s]
			p.pools[i].Put(&full)
			return
		}
	}
}

var defaultPool = NewPool(nil)

// Get returns a buffer of length size from the default pool.
func Get(size int) []byte {
	return defaultPool.Get(size)
}

// Put returns buf to the default pool.
func Put(buf []byte) {
	defaultPool.Put(buf)
}
