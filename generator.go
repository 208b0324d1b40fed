// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"io"
	"math"
	"math/big"
	"strconv"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
	"github.com/creachadair/jstream/internal/escape"
	"github.com/hashicorp/go-hclog"
	"go4.org/mem"
)

// A Generator writes a single JSON value to an output stream. The caller
// describes the value with a sequence of method calls, which the generator
// checks against the JSON grammar before writing anything:
//
//	g, err := jstream.NewGenerator(w, nil)
//	...
//	g.StartObject()
//	g.Key("name")
//	g.String("value")
//	g.EndObject()
//	if err := g.Close(); err != nil {
//	   log.Fatalf("Generate failed: %v", err)
//	}
//
// Each method reports an error if the call is not valid in the current
// context, or if writing the output fails. The first error is terminal: it
// is returned by every later call, and no further output is written.
//
// Output is buffered. Call Flush to write buffered output, and Close to
// finish the document. A Generator is not safe for concurrent use.
type Generator struct {
	w   io.Writer
	set settings
	log hclog.Logger

	buf   []byte
	stack []genFrame
	root  bool // a root value has been started
	done  bool // the root value is complete
	err   error

	closed bool
}

// A genFrame is one level of the generator's nesting context.
type genFrame struct {
	obj bool // this frame is an object
	n   int  // number of elements (members) written
	key bool // object: a key was written and its value is pending
}

// NewGenerator constructs a Generator that writes to w. If w implements
// io.Closer, the generator takes ownership of it and closes it on Close.
// A nil opts uses default settings. It reports an error if opts is invalid.
func NewGenerator(w io.Writer, opts *Options) (*Generator, error) {
	set, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	return &Generator{
		w:   w,
		set: set,
		log: set.log,
		buf: make([]byte, 0, set.bufSize),
	}, nil
}

// Depth reports the number of objects and arrays currently open.
func (g *Generator) Depth() int { return len(g.stack) }

// StartObject begins a new object.
func (g *Generator) StartObject() error { return g.open("StartObject", true) }

// EndObject ends the innermost open object.
func (g *Generator) EndObject() error { return g.close("EndObject", true) }

// StartArray begins a new array.
func (g *Generator) StartArray() error { return g.open("StartArray", false) }

// EndArray ends the innermost open array.
func (g *Generator) EndArray() error { return g.close("EndArray", false) }

// End ends the innermost open object or array.
func (g *Generator) End() error {
	if err := g.check("End"); err != nil {
		return err
	} else if len(g.stack) == 0 {
		return g.fail(genErrorf("End", "no open object or array"))
	}
	return g.close("End", g.stack[len(g.stack)-1].obj)
}

// Key writes the name of an object member. The next call must write the
// member's value.
func (g *Generator) Key(name string) error {
	const op = "Key"
	if err := g.check(op); err != nil {
		return err
	}
	if len(g.stack) == 0 || !g.stack[len(g.stack)-1].obj {
		return g.fail(genErrorf(op, "key outside an object"))
	}
	top := &g.stack[len(g.stack)-1]
	if top.key {
		return g.fail(genErrorf(op, "key %q follows a key without a value", name))
	}
	g.separate(top)
	top.key = true
	g.buf = AppendQuote(g.buf, name, g.set.asciiOnly)
	g.buf = append(g.buf, ':')
	if g.set.pretty {
		g.buf = append(g.buf, ' ')
	}
	return g.flushIfFull()
}

// String writes a string value.
func (g *Generator) String(s string) error {
	return g.scalar("String", func(b []byte) []byte {
		b = append(b, '"')
		b = escape.Quote(b, mem.S(s), g.set.asciiOnly)
		return append(b, '"')
	})
}

// Int64 writes an integer value.
func (g *Generator) Int64(v int64) error {
	return g.scalar("Int64", func(b []byte) []byte { return strconv.AppendInt(b, v, 10) })
}

// Uint64 writes an unsigned integer value.
func (g *Generator) Uint64(v uint64) error {
	return g.scalar("Uint64", func(b []byte) []byte { return strconv.AppendUint(b, v, 10) })
}

// Float64 writes a floating-point value in the shortest form that parses
// back to the same value. NaN and infinities are not valid JSON, and are
// reported as errors.
func (g *Generator) Float64(v float64) error {
	const op = "Float64"
	if math.IsNaN(v) || math.IsInf(v, 0) {
		if err := g.check(op); err != nil {
			return err
		}
		return g.fail(genErrorf(op, "unsupported value %v", v))
	}
	return g.scalar(op, func(b []byte) []byte { return appendFloat(b, v) })
}

// Bool writes true or false.
func (g *Generator) Bool(v bool) error {
	return g.scalar("Bool", func(b []byte) []byte { return strconv.AppendBool(b, v) })
}

// Null writes null.
func (g *Generator) Null() error {
	return g.scalar("Null", func(b []byte) []byte { return append(b, "null"...) })
}

// Number writes n exactly as it was scanned.
func (g *Generator) Number(n Number) error {
	const op = "Number"
	if n.text == "" {
		if err := g.check(op); err != nil {
			return err
		}
		return g.fail(genErrorf(op, "invalid zero Number"))
	}
	return g.scalar(op, func(b []byte) []byte { return append(b, n.text...) })
}

// Decimal writes the exact value of d. Infinite and NaN values are reported
// as errors.
func (g *Generator) Decimal(d *apd.Decimal) error {
	const op = "Decimal"
	if d == nil || d.Form != apd.Finite {
		if err := g.check(op); err != nil {
			return err
		} else if d == nil {
			return g.fail(genErrorf(op, "nil value"))
		}
		return g.fail(genErrorf(op, "unsupported value %s", d.String()))
	}
	return g.scalar(op, func(b []byte) []byte { return append(b, d.String()...) })
}

// BigInt writes the exact value of z.
func (g *Generator) BigInt(z *big.Int) error {
	const op = "BigInt"
	if z == nil {
		if err := g.check(op); err != nil {
			return err
		}
		return g.fail(genErrorf(op, "nil value"))
	}
	return g.scalar(op, func(b []byte) []byte { return z.Append(b, 10) })
}

// Flush writes any buffered output to the underlying writer.
func (g *Generator) Flush() error {
	if err := g.check("Flush"); err != nil {
		return err
	}
	return g.flush()
}

// Close flushes buffered output and releases the underlying writer, closing
// it if it implements io.Closer. It reports an error if the root value is
// missing or incomplete, or if an earlier call failed. Calling Close more
// than once is harmless; only the first call closes the writer.
func (g *Generator) Close() error {
	if g.closed {
		return nil
	}
	err := g.err
	if err == nil {
		switch {
		case len(g.stack) != 0:
			err = g.fail(genErrorf("Close", "%d unclosed object or array", len(g.stack)))
		case !g.done:
			err = g.fail(genErrorf("Close", "no value was written"))
		}
	}
	if ferr := g.flush(); err == nil {
		err = ferr
	}
	g.closed = true
	if c, ok := g.w.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "closing output")
		}
	}
	if err != nil {
		g.log.Debug("generator closed with error", "error", err)
	}
	return err
}

// check reports whether g is able to accept a call.
func (g *Generator) check(op string) error {
	if g.closed {
		return ErrClosed
	}
	return g.err
}

// scalar writes a single value produced by put.
func (g *Generator) scalar(op string, put func([]byte) []byte) error {
	if err := g.value(op); err != nil {
		return err
	}
	g.buf = put(g.buf)
	g.complete()
	return g.flushIfFull()
}

// value checks whether a value may be written in the current context, and
// writes any separator that must precede it.
func (g *Generator) value(op string) error {
	if err := g.check(op); err != nil {
		return err
	}
	if len(g.stack) == 0 {
		if g.root {
			return g.fail(genErrorf(op, "multiple top-level values"))
		}
		g.root = true
		return nil
	}
	top := &g.stack[len(g.stack)-1]
	if top.obj {
		if !top.key {
			return g.fail(genErrorf(op, "object member requires a key"))
		}
		top.key = false
		return nil
	}
	g.separate(top)
	return nil
}

// separate writes the comma and indentation before the next element of top.
func (g *Generator) separate(top *genFrame) {
	if top.n > 0 {
		g.buf = append(g.buf, ',')
	}
	top.n++
	g.newline(len(g.stack))
}

func (g *Generator) newline(depth int) {
	if !g.set.pretty {
		return
	}
	g.buf = append(g.buf, '\n')
	for range depth {
		g.buf = append(g.buf, g.set.indent...)
	}
}

// complete records the end of a value.
func (g *Generator) complete() {
	if len(g.stack) == 0 {
		g.done = true
	}
}

func (g *Generator) open(op string, obj bool) error {
	if err := g.value(op); err != nil {
		return err
	}
	g.stack = append(g.stack, genFrame{obj: obj})
	if obj {
		g.buf = append(g.buf, '{')
	} else {
		g.buf = append(g.buf, '[')
	}
	return g.flushIfFull()
}

func (g *Generator) close(op string, obj bool) error {
	if err := g.check(op); err != nil {
		return err
	}
	if len(g.stack) == 0 {
		return g.fail(genErrorf(op, "no open object or array"))
	}
	top := g.stack[len(g.stack)-1]
	if top.obj != obj {
		if obj {
			return g.fail(genErrorf(op, "innermost container is an array"))
		}
		return g.fail(genErrorf(op, "innermost container is an object"))
	} else if top.key {
		return g.fail(genErrorf(op, "key without a value"))
	}
	g.stack = g.stack[:len(g.stack)-1]
	if top.n > 0 {
		g.newline(len(g.stack))
	}
	if obj {
		g.buf = append(g.buf, '}')
	} else {
		g.buf = append(g.buf, ']')
	}
	g.complete()
	return g.flushIfFull()
}

func (g *Generator) flushIfFull() error {
	if len(g.buf) < g.set.bufSize {
		return nil
	}
	return g.flush()
}

func (g *Generator) flush() error {
	if len(g.buf) == 0 {
		return nil
	}
	_, err := g.w.Write(g.buf)
	g.buf = g.buf[:0]
	if err != nil {
		return g.fail(&Error{Kind: IOError, Op: "Flush", Message: err.Error(), err: err})
	}
	return nil
}

func (g *Generator) fail(err error) error {
	if g.err == nil {
		g.err = err
	}
	return err
}

// appendFloat formats v as encoding/json does: plain decimal notation for
// moderate magnitudes, and exponent notation otherwise.
func appendFloat(b []byte, v float64) []byte {
	abs := math.Abs(v)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	start := len(b)
	b = strconv.AppendFloat(b, v, format, -1, 64)
	if format == 'e' {
		// Clean up e-09 to e-9.
		if n := len(b) - start; n >= 4 && b[len(b)-4] == 'e' && b[len(b)-3] == '-' && b[len(b)-2] == '0' {
			b[len(b)-2] = b[len(b)-1]
			b = b[:len(b)-1]
		}
	}
	return b
}
