// Package linebuf provides a fixed-capacity byte buffer with a reservation
// mechanism. A reservation holds back a number of bytes so that content which
// must be appended last (a trailing newline, a terminator byte) always fits,
// no matter how much was written before it.
//
// The same type serves as the read target for sampled sources and as the
// assembly area for the emitted status line.
package linebuf

import (
	"errors"
	"fmt"
)

// ErrBufferFull is returned by Terminate when no byte is left for the
// terminator.
var ErrBufferFull = errors.New("linebuf: buffer full")

// Buffer is a bounded byte buffer. The invariant Len()+Reserved() <= Cap()
// holds at all times.
type Buffer struct {
	data     []byte
	length   int
	reserved int

	// scratch holds formatted output before the fitting prefix is copied.
	scratch []byte
}

// New creates a Buffer holding at most capacity bytes.
func New(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{data: make([]byte, capacity)}
}

// Reset empties the buffer and holds back reserve bytes. A reserve larger
// than the capacity is clamped.
func (b *Buffer) Reset(reserve int) {
	if reserve < 0 {
		reserve = 0
	}
	if reserve > len(b.data) {
		reserve = len(b.data)
	}
	b.length = 0
	b.reserved = reserve
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// Len returns the number of committed bytes.
func (b *Buffer) Len() int { return b.length }

// Reserved returns the number of bytes currently held back.
func (b *Buffer) Reserved() int { return b.reserved }

// Remaining returns the number of bytes available for writing now. It never
// goes below zero.
func (b *Buffer) Remaining() int {
	used := b.length + b.reserved
	if used >= len(b.data) {
		return 0
	}
	return len(b.data) - used
}

// Append copies p into the buffer and returns len(p). If p does not fit
// entirely nothing is written and 0 is returned.
func (b *Buffer) Append(p []byte) int {
	if len(p) > b.Remaining() {
		return 0
	}
	n := copy(b.data[b.length:], p)
	b.length += n
	return n
}

// AppendString is Append for strings.
func (b *Buffer) AppendString(s string) int {
	if len(s) > b.Remaining() {
		return 0
	}
	n := copy(b.data[b.length:], s)
	b.length += n
	return n
}

// Printf formats into the buffer, committing at most Remaining() bytes. When
// the formatted text is longer only the fitting prefix is kept. It returns the
// number of bytes committed.
func (b *Buffer) Printf(format string, args ...any) int {
	rem := b.Remaining()
	if rem == 0 {
		return 0
	}
	b.scratch = fmt.Appendf(b.scratch[:0], format, args...)
	n := copy(b.data[b.length:b.length+rem], b.scratch)
	b.length += n
	return n
}

// Spare returns the writable window of Remaining() bytes following the
// committed content. Bytes written there become part of the buffer only
// after Bump.
func (b *Buffer) Spare() []byte {
	return b.data[b.length : b.length+b.Remaining()]
}

// Bump commits n bytes previously written into Spare. Negative values are
// ignored and n is clamped to Remaining(). It returns the committed count.
func (b *Buffer) Bump(n int) int {
	if n <= 0 {
		return 0
	}
	if rem := b.Remaining(); n > rem {
		n = rem
	}
	b.length += n
	return n
}

// TakeReserve releases the reservation, making the held bytes available.
func (b *Buffer) TakeReserve() {
	b.reserved = 0
}

// Terminate appends a single terminator byte.
func (b *Buffer) Terminate(c byte) error {
	if b.Remaining() < 1 {
		return ErrBufferFull
	}
	b.data[b.length] = c
	b.length++
	return nil
}

// Bytes returns the committed content. The slice aliases the buffer and is
// valid until the next Reset.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.length]
}

// String returns a copy of the committed content.
func (b *Buffer) String() string {
	return string(b.data[:b.length])
}
