// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-hclog"
)

// ErrClosed is reported by a Parser or Generator that has been closed.
var ErrClosed = errors.New("jstream: use of closed stream")

// Event is the type of a parser event.
type Event byte

// Constants defining the valid Event values.
const (
	NoEvent     Event = iota // no current event
	StartObject              // "{"
	EndObject                // "}"
	StartArray               // "["
	EndArray                 // "]"
	KeyName                  // object member name
	ValueString              // string value
	ValueNumber              // number value
	ValueTrue                // true
	ValueFalse               // false
	ValueNull                // null
)

var eventStr = [...]string{
	NoEvent:     "NoEvent",
	StartObject: "StartObject",
	EndObject:   "EndObject",
	StartArray:  "StartArray",
	EndArray:    "EndArray",
	KeyName:     "KeyName",
	ValueString: "ValueString",
	ValueNumber: "ValueNumber",
	ValueTrue:   "ValueTrue",
	ValueFalse:  "ValueFalse",
	ValueNull:   "ValueNull",
}

func (e Event) String() string {
	if int(e) >= len(eventStr) {
		return fmt.Sprintf("Event(%d)", e)
	}
	return eventStr[e]
}

// IsValue reports whether e is a complete scalar value.
func (e Event) IsValue() bool { return e >= ValueString && e <= ValueNull }

type parseState byte

const (
	expectValue      parseState = iota // any value
	expectValueOrEnd                   // first array element or "]"
	expectKeyOrEnd                     // first object key or "}"
	expectKey                          // object key after ","
	expectColon                        // ":" after an object key
	expectCommaOrEnd                   // "," or a close after a value
	stateDone                          // the root value is complete
	stateFailed                        // an error was reported
	stateClosed                        // Close was called
)

// A frame is one level of the parser's nesting context.
type frame bool

const (
	inArray  frame = false
	inObject frame = true
)

// A Parser is a pull parser for a single JSON value. Each call to Next
// advances the parser to the next event in the input, and the accessor
// methods report the contents of that event.
//
// The input must contain exactly one JSON value, optionally surrounded by
// whitespace. The parser is not safe for concurrent use.
//
// Basic usage:
//
//	p, err := jstream.NewParser(r, nil)
//	...
//	defer p.Close()
//	for p.HasNext() {
//	   evt, err := p.Next()
//	   if err != nil {
//	      log.Fatalf("Parse failed: %v", err)
//	   }
//	   log.Printf("Event %v: %q", evt, p.Text())
//	}
type Parser struct {
	s     *Scanner
	src   io.Reader
	log   hclog.Logger
	depth int // maximum nesting depth, <= 0 for no limit

	state parseState
	stack []frame
	event Event
	err   error

	// A token scanned by HasNext after the root value, not yet consumed.
	peeked  bool
	peekErr error
	hold    []byte // text of the current event while a token is peeked

	start, end Location // span of the token for the current event
}

// NewParser constructs a Parser that reads from r. If r implements
// io.Closer, the parser takes ownership of it and closes it on Close.
// A nil opts uses default settings. It reports an error if opts is invalid.
func NewParser(r io.Reader, opts *Options) (*Parser, error) {
	set, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	s := newScanner(r, set)
	return &Parser{
		s:     s,
		src:   r,
		log:   set.log,
		depth: set.maxDepth,
		start: s.Start(),
		end:   s.Location(),
	}, nil
}

// HasNext reports whether a call to Next will return an event or an error.
// It returns false once the root value and any trailing whitespace have
// been consumed, or after the parser has failed or been closed.
//
// HasNext does not consume an event, and calling it repeatedly has no
// further effect. After the root value is complete it reads ahead to look
// for extra input, which may refill the input buffer, but it does not change
// Location or the contents of the current event.
func (p *Parser) HasNext() bool {
	switch p.state {
	case stateFailed, stateClosed:
		return false
	case stateDone:
		if !p.peeked {
			p.hold = append(p.hold[:0], p.s.Text()...)
			p.peekErr = p.s.Next()
			p.peeked = true
		}
		return p.peekErr != io.EOF
	default:
		return true
	}
}

// Next advances p to the next event and returns it. After the root value is
// complete, Next returns io.EOF if no further input remains. Any other error
// has concrete type *Error; after such an error the parser is unusable and
// every subsequent call reports the same error.
func (p *Parser) Next() (Event, error) {
	switch p.state {
	case stateFailed:
		return NoEvent, p.err
	case stateClosed:
		return NoEvent, ErrClosed
	}
	for {
		if err := p.token(); err == io.EOF {
			if p.state == stateDone {
				p.event = NoEvent
				return NoEvent, io.EOF
			}
			return p.failf(GrammarError, p.s.loc.loc(), "unexpected end of input")
		} else if err != nil {
			return p.fail(err)
		}
		p.end = p.s.Location()
		tok := p.s.Token()

		switch p.state {
		case expectValue:
			return p.value(tok)

		case expectValueOrEnd:
			if tok == RSquare {
				return p.close(tok)
			}
			return p.value(tok)

		case expectKeyOrEnd:
			if tok == RBrace {
				return p.close(tok)
			} else if tok != String {
				return p.unexpected(tok, String, RBrace)
			}
			p.state = expectColon
			return p.emit(KeyName)

		case expectKey:
			if tok != String {
				return p.unexpected(tok, String)
			}
			p.state = expectColon
			return p.emit(KeyName)

		case expectColon:
			if tok != Colon {
				return p.unexpected(tok, Colon)
			}
			p.state = expectValue

		case expectCommaOrEnd:
			top := p.stack[len(p.stack)-1]
			switch tok {
			case Comma:
				if top == inObject {
					p.state = expectKey
				} else {
					p.state = expectValue
				}
			case RBrace, RSquare:
				return p.close(tok)
			default:
				if top == inObject {
					return p.unexpected(tok, Comma, RBrace)
				}
				return p.unexpected(tok, Comma, RSquare)
			}

		case stateDone:
			return p.failf(GrammarError, p.end, "unexpected %v after top-level value", tok)

		default:
			return NoEvent, errors.AssertionFailedf("parser in invalid state %d", p.state)
		}
	}
}

// Event returns the current event, or NoEvent if Next has not been called or
// the input is exhausted.
func (p *Parser) Event() Event { return p.event }

// Depth reports the number of objects and arrays currently open.
func (p *Parser) Depth() int { return len(p.stack) }

// Location returns the location immediately after the most recently
// consumed token.
func (p *Parser) Location() Location { return p.end }

// Start returns the location of the first byte of the token for the current
// event.
func (p *Parser) Start() Location { return p.start }

// Text returns the text of the current event. For KeyName and ValueString,
// this is the unescaped string; for ValueNumber it is the literal text of
// the number; for other events it is the text of the token.
//
// The return value is only valid until the next call of Next or HasNext.
// The caller must copy the contents of the returned slice if it is needed
// beyond that.
func (p *Parser) Text() []byte {
	if p.peeked {
		return p.hold
	}
	return p.s.Text()
}

// Copy returns a copy of the text of the current event.
func (p *Parser) Copy() []byte { return p.s.copyOf(p.Text()) }

// Number returns the value of the current event, which must be ValueNumber.
func (p *Parser) Number() (Number, error) {
	if p.event != ValueNumber {
		return Number{}, errors.Newf("current event is %v, not %v", p.event, ValueNumber)
	}
	return makeNumber(string(p.Text())), nil
}

// IsIntegral reports whether the current event is a number written as an
// integer. See Number.IsIntegral.
func (p *Parser) IsIntegral() bool {
	n, err := p.Number()
	return err == nil && n.IsIntegral()
}

// Int64 returns the value of the current number event as an int64.
func (p *Parser) Int64() (int64, error) {
	n, err := p.Number()
	if err != nil {
		return 0, err
	}
	return n.Int64()
}

// Int32 returns the value of the current number event as an int32.
func (p *Parser) Int32() (int32, error) {
	n, err := p.Number()
	if err != nil {
		return 0, err
	}
	return n.Int32()
}

// BigInt returns the value of the current number event as a big.Int.
func (p *Parser) BigInt() (*big.Int, error) {
	n, err := p.Number()
	if err != nil {
		return nil, err
	}
	return n.BigInt()
}

// Decimal returns the exact value of the current number event.
func (p *Parser) Decimal() (*apd.Decimal, error) {
	n, err := p.Number()
	if err != nil {
		return nil, err
	}
	return n.Decimal()
}

// Float64 returns the value of the current number event as a float64,
// possibly with loss of precision.
func (p *Parser) Float64() (float64, error) {
	n, err := p.Number()
	if err != nil {
		return 0, err
	}
	return n.Float64()
}

// Skip advances p past the end of the innermost open object or array, so
// that the current event is its EndObject or EndArray. If no object or array
// is open, Skip does nothing.
func (p *Parser) Skip() error {
	d := len(p.stack)
	for len(p.stack) >= d && d > 0 {
		if _, err := p.Next(); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the input of p, closing it if it implements io.Closer.
// After Close, Next reports ErrClosed. Calling Close more than once is
// harmless; only the first call closes the input.
func (p *Parser) Close() error {
	if p.state == stateClosed {
		return nil
	}
	p.state = stateClosed
	p.event = NoEvent
	if c, ok := p.src.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return errors.Wrap(err, "closing input")
		}
	}
	return nil
}

// token advances to the next token, consuming one peeked by HasNext first.
func (p *Parser) token() error {
	if p.peeked {
		p.peeked = false
		return p.peekErr
	}
	return p.s.Next()
}

// value handles a token that begins a value.
func (p *Parser) value(tok Token) (Event, error) {
	switch tok {
	case LBrace:
		if err := p.push(inObject); err != nil {
			return NoEvent, err
		}
		p.state = expectKeyOrEnd
		return p.emit(StartObject)
	case LSquare:
		if err := p.push(inArray); err != nil {
			return NoEvent, err
		}
		p.state = expectValueOrEnd
		return p.emit(StartArray)
	case String:
		return p.scalar(ValueString)
	case Integer, Float:
		return p.scalar(ValueNumber)
	case True:
		return p.scalar(ValueTrue)
	case False:
		return p.scalar(ValueFalse)
	case Null:
		return p.scalar(ValueNull)
	default:
		return p.failf(GrammarError, p.end, "unexpected %v", tok)
	}
}

func (p *Parser) scalar(e Event) (Event, error) {
	p.complete()
	return p.emit(e)
}

// close handles a token that ends an object or array.
func (p *Parser) close(tok Token) (Event, error) {
	top := p.stack[len(p.stack)-1]
	if want := tok == RBrace; want != bool(top) {
		return p.failf(GrammarError, p.end, "mismatched %v", tok)
	}
	p.stack = p.stack[:len(p.stack)-1]
	p.complete()
	if tok == RBrace {
		return p.emit(EndObject)
	}
	return p.emit(EndArray)
}

// complete updates the state after a value ends.
func (p *Parser) complete() {
	if len(p.stack) == 0 {
		p.state = stateDone
	} else {
		p.state = expectCommaOrEnd
	}
}

func (p *Parser) push(f frame) error {
	if p.depth > 0 && len(p.stack) >= p.depth {
		_, err := p.failf(ResourceLimitError, p.end, "nesting depth exceeds %d", p.depth)
		return err
	}
	p.stack = append(p.stack, f)
	return nil
}

func (p *Parser) emit(e Event) (Event, error) {
	p.event = e
	p.start = p.s.Start()
	return e, nil
}

func (p *Parser) unexpected(got Token, want ...Token) (Event, error) {
	return p.failf(GrammarError, p.end, "%s", tokLabel(want, got))
}

func (p *Parser) fail(err error) (Event, error) {
	p.state = stateFailed
	p.event = NoEvent
	p.err = err
	return NoEvent, err
}

func (p *Parser) failf(kind ErrorKind, loc Location, msg string, args ...any) (Event, error) {
	e := newErrorf(kind, loc, msg, args...)
	p.log.Debug("parse failed", "kind", kind.String(), "location", loc.String(), "error", e.Message)
	return p.fail(e)
}

// tokLabel makes a human-readable summary string for the given token types.
func tokLabel(tokens []Token, got any) string {
	if len(tokens) == 0 {
		return fmt.Sprint(got)
	}
	var exp string
	if len(tokens) == 1 {
		exp = tokens[0].String()
	} else {
		last := len(tokens) - 1
		ss := make([]string, len(tokens)-1)
		for i, tok := range tokens[:last] {
			ss[i] = tok.String()
		}
		exp = strings.Join(ss, ", ") + " or " + tokens[last].String()
	}
	return fmt.Sprintf("expected %s, got %v", exp, got)
}
