// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package window_test

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/creachadair/jstream/internal/window"
	"github.com/creachadair/mds/mtest"
	"github.com/google/go-cmp/cmp"
)

// drain consumes all of b one byte at a time, filling as needed.
func drain(t *testing.T, b *window.Buffer) string {
	t.Helper()
	var sb strings.Builder
	for {
		c, ok := b.Byte()
		if !ok {
			if _, err := b.Fill(); err == io.EOF {
				return sb.String()
			} else if err != nil {
				t.Fatalf("Fill: unexpected error: %v", err)
			}
			continue
		}
		sb.WriteByte(c)
		b.Consume(1)
	}
}

func TestNewInvalidSize(t *testing.T) {
	mtest.MustPanic(t, func() { window.New(strings.NewReader("x"), 0) })
	mtest.MustPanic(t, func() { window.New(strings.NewReader("x"), -5) })
}

func TestDrain(t *testing.T) {
	const input = `{"key": "😀", "n": 12345.678e-9}`
	for size := 1; size <= 64; size++ {
		b := window.New(strings.NewReader(input), size)
		if got := drain(t, b); got != input {
			t.Errorf("Size %d: got %#q, want %#q", size, got, input)
		}
		if got, want := b.Offset(), int64(len(input)); got != want {
			t.Errorf("Size %d: offset is %d, want %d", size, got, want)
		}
		if b.Cap() != size {
			t.Errorf("Size %d: buffer grew to %d during a byte-wise drain", size, b.Cap())
		}
	}
}

func TestPeekAcrossRefill(t *testing.T) {
	// Each case peeks a token that straddles one or more refills.
	tests := []struct {
		input string
		skip  int
		peek  int
	}{
		{`"\u00e9"`, 1, 6},                     // escape split over small reads
		{`"\ud83d\ude00"`, 1, 12},              // surrogate pair escape
		{`[1234567890123456789012345]`, 1, 25}, // long number
		{`true`, 0, 4},
	}
	for _, tc := range tests {
		for size := 1; size <= 8; size++ {
			b := window.New(iotest.OneByteReader(strings.NewReader(tc.input)), size)
			if _, err := b.Peek(tc.skip); err != nil {
				t.Fatalf("Peek(%d): unexpected error: %v", tc.skip, err)
			}
			b.Consume(tc.skip)
			got, err := b.Peek(tc.peek)
			if err != nil {
				t.Fatalf("Size %d: Peek(%d): unexpected error: %v", size, tc.peek, err)
			}
			want := tc.input[tc.skip : tc.skip+tc.peek]
			if diff := cmp.Diff(want, string(got)); diff != "" {
				t.Errorf("Size %d: Peek (-want, +got):\n%s", size, diff)
			}
			if off := b.Offset(); off != int64(tc.skip) {
				t.Errorf("Size %d: offset is %d, want %d", size, off, tc.skip)
			}
		}
	}
}

func TestPeekShort(t *testing.T) {
	b := window.New(strings.NewReader("abc"), 2)
	got, err := b.Peek(5)
	if err != io.EOF {
		t.Errorf("Peek(5): got error %v, want %v", err, io.EOF)
	}
	if string(got) != "abc" {
		t.Errorf("Peek(5): got %q, want %q", got, "abc")
	}
}

func TestFillShiftsUnconsumed(t *testing.T) {
	b := window.New(strings.NewReader("abcdefgh"), 4)
	if n, err := b.Fill(); err != nil || n != 4 {
		t.Fatalf("Fill: got (%d, %v), want (4, nil)", n, err)
	}
	b.Consume(3) // leave "d" unconsumed
	if n, err := b.Fill(); err != nil || n != 3 {
		t.Fatalf("Fill: got (%d, %v), want (3, nil)", n, err)
	}
	if got := string(b.Window()); got != "defg" {
		t.Errorf("Window: got %q, want %q", got, "defg")
	}
	if b.Cap() != 4 {
		t.Errorf("Cap: got %d, want 4", b.Cap())
	}
}

type dataAndError struct{ done bool }

var errBroken = errors.New("broken pipe")

func (d *dataAndError) Read(p []byte) (int, error) {
	if d.done {
		return 0, errBroken
	}
	d.done = true
	return copy(p, "xy"), errBroken
}

func TestFillDataThenError(t *testing.T) {
	b := window.New(new(dataAndError), 8)
	if n, err := b.Fill(); err != nil || n != 2 {
		t.Fatalf("Fill: got (%d, %v), want (2, nil)", n, err)
	}
	b.Consume(2)
	if _, err := b.Fill(); !errors.Is(err, errBroken) {
		t.Errorf("Fill: got %v, want %v", err, errBroken)
	}
	if _, err := b.Fill(); !errors.Is(err, errBroken) {
		t.Errorf("Fill (again): got %v, want %v", err, errBroken)
	}
}

type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, nil }

func TestFillNoProgress(t *testing.T) {
	b := window.New(emptyReader{}, 8)
	if _, err := b.Fill(); err != io.ErrNoProgress {
		t.Errorf("Fill: got %v, want %v", err, io.ErrNoProgress)
	}
}
