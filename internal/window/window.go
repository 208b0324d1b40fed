// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package window implements a sliding window over the contents of an
// io.Reader, for use by the JSON scanner.
//
// A window is a range of a reusable byte slice holding input that has been
// read but not yet consumed:
//
//	+---+---+---+---+---+---+---+---+---+---+---+---+
//	| 0 | 1 | 2 | 3 | 4 | 5 | 6 | 7 | 8 | 9 | a | b |
//	+---+---+---+---+---+---+---+---+---+---+---+---+
//	          ^                       ^           ^
//	          |                       |           |
//	          `- start                `- end      `- len(buf)
//	          |                       |
//	          `------ Window() -------'
//
// Fill shifts the unconsumed bytes to the front of the slice before reading,
// so a token that straddles a read boundary is never truncated.
package window

import (
	"fmt"
	"io"
)

// maxEmptyReads is the number of consecutive empty reads Fill will tolerate
// before reporting io.ErrNoProgress.
const maxEmptyReads = 100

// A Buffer is a sliding window over the bytes of an io.Reader.
type Buffer struct {
	r          io.Reader
	buf        []byte
	start, end int   // buf[start:end] is unconsumed input
	base       int64 // absolute input offset of buf[start]
	err        error // sticky read error, reported once the window drains
}

// New constructs a Buffer that reads from r in chunks of at most size bytes.
// It panics if size < 1.
func New(r io.Reader, size int) *Buffer {
	if size < 1 {
		panic(fmt.Sprintf("window: invalid buffer size %d", size))
	}
	return &Buffer{r: r, buf: make([]byte, size)}
}

// Window returns the unconsumed bytes currently held by b. The slice is only
// valid until the next call to Fill or Peek.
func (b *Buffer) Window() []byte { return b.buf[b.start:b.end] }

// Len reports the number of unconsumed bytes held by b.
func (b *Buffer) Len() int { return b.end - b.start }

// Cap reports the current capacity of the backing storage.
func (b *Buffer) Cap() int { return len(b.buf) }

// Offset reports the absolute offset in the input of the first unconsumed
// byte.
func (b *Buffer) Offset() int64 { return b.base }

// Byte returns the first unconsumed byte without consuming it. It reports
// false if the window is empty.
func (b *Buffer) Byte() (byte, bool) {
	if b.start < b.end {
		return b.buf[b.start], true
	}
	return 0, false
}

// Consume discards the first n unconsumed bytes.
// It panics if n exceeds the length of the window.
func (b *Buffer) Consume(n int) {
	if n < 0 || n > b.Len() {
		panic(fmt.Sprintf("window: consume %d of %d bytes", n, b.Len()))
	}
	b.start += n
	b.base += int64(n)
	if b.start == b.end {
		b.start, b.end = 0, 0
	}
}

// Fill reads more input into the window, and reports the number of bytes
// added. At the end of the input, Fill returns 0, io.EOF. Any other error is
// reported from the underlying reader. A read that returns data along with an
// error delivers the data first, and the error on the next call.
//
// Fill preserves the unconsumed contents of the window, shifting them to the
// front of the backing storage. The storage grows only if the unconsumed
// bytes already fill it.
func (b *Buffer) Fill() (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	if b.start > 0 {
		b.end = copy(b.buf, b.buf[b.start:b.end])
		b.start = 0
	}
	if b.end == len(b.buf) {
		grown := make([]byte, 2*len(b.buf))
		copy(grown, b.buf[:b.end])
		b.buf = grown
	}
	for range maxEmptyReads {
		n, err := b.r.Read(b.buf[b.end:])
		if n < 0 || n > len(b.buf)-b.end {
			panic(fmt.Sprintf("window: invalid read count %d", n))
		}
		b.end += n
		if err != nil {
			b.err = err
			if n > 0 {
				return n, nil
			}
			return 0, err
		} else if n > 0 {
			return n, nil
		}
	}
	b.err = io.ErrNoProgress
	return 0, b.err
}

// Peek returns the next k unconsumed bytes without consuming them, filling
// the window as needed. If fewer than k bytes remain in the input, Peek
// returns what is available along with the error that ended the input.
func (b *Buffer) Peek(k int) ([]byte, error) {
	for b.Len() < k {
		if _, err := b.Fill(); err != nil {
			return b.Window(), err
		}
	}
	return b.buf[b.start : b.start+k], nil
}
