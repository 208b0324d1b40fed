// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import "fmt"

// A Location describes a position in the source text. Line and column are
// 1-based, the offset is 0-based. All three count bytes of input.
type Location struct {
	Line   int   // line number, 1-based
	Column int   // column in line, 1-based
	Offset int64 // absolute offset from the start of input, 0-based
}

// String renders the location as line:col.
func (loc Location) String() string { return fmt.Sprintf("%d:%d", loc.Line, loc.Column) }

// IsValid reports whether loc describes a real position. The zero Location
// is not valid.
func (loc Location) IsValid() bool { return loc.Line > 0 }

// A tracker maintains the location of the next unconsumed byte.
// Only '\n' begins a new line; '\r' is an ordinary character.
type tracker struct {
	line, col int
	offset    int64
}

func newTracker() tracker { return tracker{line: 1, col: 1} }

// advance records the consumption of c.
func (t *tracker) advance(c byte) {
	t.offset++
	if c == '\n' {
		t.line++
		t.col = 1
	} else {
		t.col++
	}
}

// loc returns a snapshot of the current location.
func (t tracker) loc() Location {
	return Location{Line: t.line, Column: t.col, Offset: t.offset}
}
