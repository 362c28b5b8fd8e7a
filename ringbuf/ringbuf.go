// SPDX-License-Identifier: EPL-2.0

// Package ringbuf provides a lock-free single-producer, single-consumer ring
// buffer of float32 samples, used between the playback producer and the
// device callback.
package ringbuf

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Buffer is a lock-free SPSC ring buffer of interleaved samples.
//
// Positions only ever grow; the buffer size is a power of two so the slot is
// found by masking. The producer publishes its position after copying data in
// and the consumer publishes its position after copying data out.
//
// Write and Free belong to the producer. Read and Available belong to the
// consumer.
type Buffer struct {
	writePos atomic.Uint64
	_        cpu.CacheLinePad
	readPos  atomic.Uint64
	_        cpu.CacheLinePad

	buf  []float32
	mask uint64
}

// New returns a buffer holding at least minSize samples.
func New(minSize int) *Buffer {
	size := 1
	for size < minSize {
		size <<= 1
	}
	return &Buffer{
		buf:  make([]float32, size),
		mask: uint64(size - 1),
	}
}

// Cap returns the number of samples the buffer can hold.
func (b *Buffer) Cap() int {
	return len(b.buf)
}

// Write copies as much of p as fits and returns the number of samples written.
// It never blocks.
func (b *Buffer) Write(p []float32) int {
	w := b.writePos.Load()
	r := b.readPos.Load()

	n := min(uint64(len(p)), uint64(len(b.buf))-(w-r))
	if n == 0 {
		return 0
	}

	pos := w & b.mask
	first := uint64(len(b.buf)) - pos
	if first >= n {
		copy(b.buf[pos:pos+n], p[:n])
	} else {
		copy(b.buf[pos:], p[:first])
		copy(b.buf[:n-first], p[first:n])
	}

	b.writePos.Store(w + n)
	return int(n)
}

// Read copies up to len(p) samples out and returns how many were read. It
// never blocks.
func (b *Buffer) Read(p []float32) int {
	r := b.readPos.Load()
	w := b.writePos.Load()

	n := min(uint64(len(p)), w-r)
	if n == 0 {
		return 0
	}

	pos := r & b.mask
	first := uint64(len(b.buf)) - pos
	if first >= n {
		copy(p[:n], b.buf[pos:pos+n])
	} else {
		copy(p[:first], b.buf[pos:])
		copy(p[first:n], b.buf[:n-first])
	}

	b.readPos.Store(r + n)
	return int(n)
}

// Available returns the number of samples ready to read.
func (b *Buffer) Available() int {
	return int(b.writePos.Load() - b.readPos.Load())
}

// Free returns the number of samples that can be written.
func (b *Buffer) Free() int {
	return len(b.buf) - b.Available()
}

// Reset empties the buffer. Neither side may be running.
func (b *Buffer) Reset() {
	b.readPos.Store(0)
	b.writePos.Store(0)
}
