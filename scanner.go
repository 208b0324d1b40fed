// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"io"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/creachadair/jstream/internal/window"
	"go4.org/mem"
)

// Token is the type of a lexical token in the JSON grammar.
type Token byte

// Constants defining the valid Token values.
const (
	Invalid Token = iota // invalid token
	LBrace               // left brace "{"
	RBrace               // right brace "}"
	LSquare              // left square bracket "["
	RSquare              // right square bracket "]"
	Comma                // comma ","
	Colon                // colon ":"
	Integer              // number: integer with no fraction or exponent
	Float                // number with fraction and/or exponent
	String               // quoted string
	True                 // constant: true
	False                // constant: false
	Null                 // constant: null
)

var tokenStr = [...]string{
	Invalid: "invalid token",
	LBrace:  `"{"`,
	RBrace:  `"}"`,
	LSquare: `"["`,
	RSquare: `"]"`,
	Comma:   `","`,
	Colon:   `":"`,
	Integer: "integer",
	Float:   "number",
	String:  "string",
	True:    "true",
	False:   "false",
	Null:    "null",
}

func (t Token) String() string {
	v := int(t)
	if v >= len(tokenStr) {
		return tokenStr[Invalid]
	}
	return tokenStr[v]
}

// A Scanner reads lexical tokens from an input stream.  Each call to Next
// advances the scanner to the next token, or reports an error.
//
// The scanner decodes string escapes as it reads, so the text of a String
// token is its unescaped contents. The scanner enforces the token and
// whitespace limits from its Options, reporting a ResourceLimitError rather
// than buffering without bound.
type Scanner struct {
	in   *window.Buffer
	set  settings
	loc  tracker
	buf  []byte   // text of the current token
	tbuf [][]byte // allocation pool for Copy
	tok  Token
	err  error

	start, end Location // location of the current token
}

// NewScanner constructs a new lexical scanner that consumes input from r.
// A nil opts uses default settings. It reports an error if opts is invalid.
func NewScanner(r io.Reader, opts *Options) (*Scanner, error) {
	set, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	return newScanner(r, set), nil
}

func newScanner(r io.Reader, set settings) *Scanner {
	loc := newTracker()
	return &Scanner{
		in:    window.New(r, set.bufSize),
		set:   set,
		loc:   loc,
		start: loc.loc(),
		end:   loc.loc(),
	}
}

// Next advances s to the next token of the input, or reports an error.
// At the end of the input, Next returns io.EOF. Any other error has concrete
// type *Error, and is returned again by all subsequent calls.
func (s *Scanner) Next() error {
	if s.err != nil {
		return s.err
	}
	s.buf = s.buf[:0]
	s.tok = Invalid

	var nspace int
	for {
		ch, err := s.peek()
		if err == io.EOF {
			s.err = io.EOF
			return io.EOF
		} else if err != nil {
			return s.fail(IOError, err)
		}

		// Discard whitespace, up to the configured limit.
		if isSpace(ch) {
			s.advance(ch)
			nspace++
			if s.set.maxSpace > 0 && nspace > s.set.maxSpace {
				return s.failf(ResourceLimitError, "whitespace exceeds %d bytes", s.set.maxSpace)
			}
			continue
		}
		s.start = s.loc.loc()

		if t, ok := selfDelim(ch); ok {
			s.advance(ch)
			s.buf = append(s.buf, ch)
			s.tok = t
			return s.done()
		}
		if isNumStart(ch) {
			return s.scanNumber(ch)
		}
		if ch == '"' {
			return s.scanString()
		}

		// Handle constants: true, false, null
		var want mem.RO
		switch ch {
		case 't':
			s.tok, want = True, mem.S("true")
		case 'f':
			s.tok, want = False, mem.S("false")
		case 'n':
			s.tok, want = Null, mem.S("null")
		default:
			s.advance(ch)
			if ch >= utf8.RuneSelf {
				return s.failf(LexicalError, "unexpected byte %#02x", ch)
			}
			return s.failf(LexicalError, "unexpected %q", ch)
		}
		if err := s.scanName(); err != nil {
			return err
		} else if got := mem.B(s.buf); !got.Equal(want) {
			s.tok = Invalid
			return s.failf(LexicalError, "unknown constant %q", got.StringCopy())
		}
		return s.done()
	}
}

// Token returns the type of the current token.
func (s *Scanner) Token() Token { return s.tok }

// Err returns the last error reported by Next, or nil.
func (s *Scanner) Err() error { return s.err }

// Text returns the text of the current token. For a String token, this is
// the unescaped contents of the string without quotation marks; for all
// other tokens it is the literal text of the token.  The return value is
// only valid until the next call of Next. The caller must copy the contents
// of the returned slice if it is needed beyond that.
func (s *Scanner) Text() []byte { return s.buf }

// Copy returns a copy of the text of the current token.
func (s *Scanner) Copy() []byte { return s.copyOf(s.buf) }

// Number returns the value of the current token, which must be an Integer or
// a Float.
func (s *Scanner) Number() (Number, error) {
	if s.tok != Integer && s.tok != Float {
		return Number{}, errors.Newf("current token is %v, not a number", s.tok)
	}
	return makeNumber(string(s.buf)), nil
}

// Start returns the location of the first byte of the current token.
func (s *Scanner) Start() Location { return s.start }

// Location returns the location immediately after the current token.
func (s *Scanner) Location() Location { return s.end }

func (s *Scanner) done() error {
	s.end = s.loc.loc()
	return nil
}

// scanString consumes a string token, whose opening quote is next in the
// input. Escapes are decoded into s.buf as they are read. A high surrogate
// escape is held until the next escape shows whether it completes a pair;
// an unpaired surrogate decodes to U+FFFD.
func (s *Scanner) scanString() error {
	s.advance('"')

	var (
		nb      int  // content bytes consumed, for the token limit
		pending rune // unpaired high surrogate, or 0
		need    int  // continuation bytes expected in a UTF-8 sequence
		mark    int  // offset in s.buf of the current UTF-8 sequence
	)
	flush := func() {
		if pending != 0 {
			s.buf = utf8.AppendRune(s.buf, utf8.RuneError)
			pending = 0
		}
	}
	next := func() (byte, error) {
		ch, err := s.peek()
		if err == io.EOF {
			return 0, s.failf(LexicalError, "unterminated string")
		} else if err != nil {
			return 0, s.fail(IOError, err)
		}
		s.advance(ch)
		return ch, nil
	}
	count := func() error {
		nb++
		if s.set.maxToken > 0 && nb > s.set.maxToken {
			return s.failf(ResourceLimitError, "string exceeds %d bytes", s.set.maxToken)
		}
		return nil
	}

	for {
		ch, err := next()
		if err != nil {
			return err
		}
		if ch == '"' && need == 0 {
			flush()
			s.tok = String
			return s.done()
		}
		if err := count(); err != nil {
			return err
		}

		// Complete a multi-byte UTF-8 sequence.
		if need > 0 {
			if ch&0xC0 != 0x80 {
				return s.failf(LexicalError, "invalid UTF-8 in string")
			}
			s.buf = append(s.buf, ch)
			if need--; need == 0 {
				if r, n := utf8.DecodeRune(s.buf[mark:]); r == utf8.RuneError && n <= 1 {
					return s.failf(LexicalError, "invalid UTF-8 in string")
				}
			}
			continue
		}

		switch {
		case ch == '\\':
			esc, err := next()
			if err != nil {
				return err
			} else if err := count(); err != nil {
				return err
			}
			if esc == 'u' {
				r, err := s.readHex4(count)
				if err != nil {
					return err
				}
				switch {
				case utf16.IsSurrogate(r) && r < 0xdc00: // high half
					flush()
					pending = r
				case utf16.IsSurrogate(r): // low half
					if pending != 0 {
						s.buf = utf8.AppendRune(s.buf, utf16.DecodeRune(pending, r))
						pending = 0
					} else {
						s.buf = utf8.AppendRune(s.buf, utf8.RuneError)
					}
				default:
					flush()
					s.buf = utf8.AppendRune(s.buf, r)
				}
				continue
			}
			dec, ok := unescape(esc)
			if !ok {
				return s.failf(LexicalError, "invalid %q after escape", esc)
			}
			flush()
			s.buf = append(s.buf, dec)

		case ch < ' ':
			return s.failf(LexicalError, "unescaped control %q in string", ch)

		case ch < utf8.RuneSelf:
			flush()
			s.buf = append(s.buf, ch)

		default:
			flush()
			switch {
			case ch&0xE0 == 0xC0:
				need = 1
			case ch&0xF0 == 0xE0:
				need = 2
			case ch&0xF8 == 0xF0:
				need = 3
			default:
				return s.failf(LexicalError, "invalid UTF-8 in string")
			}
			mark = len(s.buf)
			s.buf = append(s.buf, ch)
		}
	}
}

// readHex4 reads exactly 4 hexadecimal digits from the input and returns
// their value. Each digit is reported to count.
func (s *Scanner) readHex4(count func() error) (rune, error) {
	var v rune
	for range 4 {
		ch, err := s.peek()
		if err == io.EOF {
			return 0, s.failf(LexicalError, "unterminated string")
		} else if err != nil {
			return 0, s.fail(IOError, err)
		}
		s.advance(ch)
		if err := count(); err != nil {
			return 0, err
		}
		d, ok := hexValue(ch)
		if !ok {
			return 0, s.failf(LexicalError, "invalid Unicode escape: %q is not a hex digit", ch)
		}
		v = v<<4 | rune(d)
	}
	return v, nil
}

// scanNumber consumes a number token, whose first byte is start.
func (s *Scanner) scanNumber(start byte) error {
	if err := s.take(start); err != nil {
		return err
	}
	first := start
	if start == '-' {
		// If there is a leading sign, we need at least one digit.
		ch, err := s.require(isDigit, "digit")
		if err != nil {
			return err
		}
		first = ch
	}

	// Extra leading zeroes are disallowed by the JSON spec.
	// That is: 0.12 is OK, 01.2 is not.
	if first == '0' {
		ch, ok, err := s.peekOpt()
		if err != nil {
			return err
		} else if ok && isDigit(ch) {
			s.advance(ch)
			return s.failf(LexicalError, "extra leading zeroes")
		}
	} else if err := s.readDigits(); err != nil {
		return err
	}

	tok := Integer

	// If a decimal point follows, consume a fractional part.
	ch, ok, err := s.peekOpt()
	if err != nil {
		return err
	} else if ok && ch == '.' {
		if err := s.take(ch); err != nil {
			return err
		} else if _, err := s.require(isDigit, "digit after decimal point"); err != nil {
			return err
		} else if err := s.readDigits(); err != nil {
			return err
		}
		tok = Float
		ch, ok, err = s.peekOpt()
		if err != nil {
			return err
		}
	}

	// If an exponent follows, consume it.
	if ok && (ch == 'e' || ch == 'E') {
		if err := s.take(ch); err != nil {
			return err
		} else if _, err := s.require(isExpStart, "sign or digit"); err != nil {
			return err
		}
		if last := s.buf[len(s.buf)-1]; last == '-' || last == '+' {
			if _, err := s.require(isDigit, "exponent digit"); err != nil {
				return err
			}
		}
		if err := s.readDigits(); err != nil {
			return err
		}
		tok = Float
	}
	s.tok = tok
	return s.done()
}

// readDigits consumes decimal digits until a non-digit or the end of input.
func (s *Scanner) readDigits() error {
	for {
		ch, ok, err := s.peekOpt()
		if err != nil {
			return err
		} else if !ok || !isDigit(ch) {
			return nil
		}
		if err := s.take(ch); err != nil {
			return err
		}
	}
}

// scanName consumes a run of lowercase letters beginning a constant.
func (s *Scanner) scanName() error {
	for {
		ch, ok, err := s.peekOpt()
		if err != nil {
			return err
		} else if !ok || !isNameRune(ch) {
			return nil
		}
		if err := s.take(ch); err != nil {
			return err
		}
	}
}

// peek returns the next unconsumed byte of input without consuming it,
// refilling the window if necessary.
func (s *Scanner) peek() (byte, error) {
	if ch, ok := s.in.Byte(); ok {
		return ch, nil
	}
	n, err := s.in.Fill()
	if err != nil {
		return 0, err
	}
	if s.set.log.IsTrace() {
		s.set.log.Trace("refill", "bytes", n, "offset", s.in.Offset())
	}
	ch, _ := s.in.Byte()
	return ch, nil
}

// peekOpt is as peek, but reports the end of input as ok == false rather
// than as an error. Other errors are recorded as I/O failures.
func (s *Scanner) peekOpt() (byte, bool, error) {
	ch, err := s.peek()
	if err == io.EOF {
		return 0, false, nil
	} else if err != nil {
		return 0, false, s.fail(IOError, err)
	}
	return ch, true, nil
}

// advance consumes ch, which must be the next byte of input.
func (s *Scanner) advance(ch byte) {
	s.in.Consume(1)
	s.loc.advance(ch)
}

// take consumes ch and adds it to the token text, subject to the token
// length limit.
func (s *Scanner) take(ch byte) error {
	s.advance(ch)
	s.buf = append(s.buf, ch)
	if s.set.maxToken > 0 && len(s.buf) > s.set.maxToken {
		return s.failf(ResourceLimitError, "%v exceeds %d bytes", s.tokenLabel(), s.set.maxToken)
	}
	return nil
}

// require reads a single byte matching f from the input, or reports an error
// mentioning the desired label. A non-matching byte is consumed, so the
// error location follows it.
func (s *Scanner) require(f func(byte) bool, label string) (byte, error) {
	ch, err := s.peek()
	if err == io.EOF {
		return 0, s.failf(LexicalError, "want %s, got end of input", label)
	} else if err != nil {
		return 0, s.fail(IOError, err)
	} else if !f(ch) {
		s.advance(ch)
		return 0, s.failf(LexicalError, "got %q, want %s", ch, label)
	}
	return ch, s.take(ch)
}

func (s *Scanner) tokenLabel() string {
	if s.tok == Invalid {
		return "number"
	}
	return s.tok.String()
}

func (s *Scanner) fail(kind ErrorKind, err error) error {
	e := newError(kind, s.loc.loc(), err)
	s.tok = Invalid
	s.err = e
	s.set.log.Debug("scan failed", "kind", kind.String(), "location", e.Location.String(), "error", e.Message)
	return e
}

func (s *Scanner) failf(kind ErrorKind, msg string, args ...any) error {
	return s.fail(kind, errors.Newf(msg, args...))
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\r' || ch == '\n' || ch == '\t'
}

func isNumStart(ch byte) bool { return ch == '-' || isDigit(ch) }
func isExpStart(ch byte) bool { return ch == '-' || ch == '+' || isDigit(ch) }
func isDigit(ch byte) bool    { return '0' <= ch && ch <= '9' }
func isNameRune(ch byte) bool { return ch >= 'a' && ch <= 'z' }

func hexValue(ch byte) (byte, bool) {
	switch {
	case '0' <= ch && ch <= '9':
		return ch - '0', true
	case 'a' <= ch && ch <= 'f':
		return ch - 'a' + 10, true
	case 'A' <= ch && ch <= 'F':
		return ch - 'A' + 10, true
	}
	return 0, false
}

// unescape returns the byte denoted by the single-character escape \ch.
func unescape(ch byte) (byte, bool) {
	switch ch {
	case '"', '\\', '/':
		return ch, true
	case 'b':
		return '\b', true
	case 'f':
		return '\f', true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	}
	return 0, false
}

var self = [...]Token{LBrace, RBrace, LSquare, RSquare, Comma, Colon}

func selfDelim(ch byte) (Token, bool) {
	i := strings.IndexByte("{}[],:", ch)
	if i >= 0 {
		return self[i], true
	}
	return Invalid, false
}

func (s *Scanner) copyOf(text []byte) []byte {
	const minBlockSlop = 4
	const smallSizeFraction = 16
	const bufBlockBytes = 16384

	// For values bigger than smallSizeFraction of the block size, don't bother
	// batching, make an outright copy.
	if len(text) >= bufBlockBytes/smallSizeFraction {
		return append([]byte(nil), text...)
	}

	// Look for a block with space enough to hold a copy of text.
	i := 0
	for i < len(s.tbuf) {
		if n := len(s.tbuf[i]) + len(text); n < cap(s.tbuf[i]) {
			// There is room in this block.
			break
		} else if cap(s.tbuf[i])-len(text) < minBlockSlop {
			// There is no room in this block, but it is nearly-enough full.
			// Allocate a fresh block at this location and release the old one.
			// The old block will be retained until all its tokens are released.
			s.tbuf[i] = make([]byte, 0, bufBlockBytes)
			break
		}
		i++
	}
	if i == len(s.tbuf) {
		// No block had room; add a new empty one to the arena.
		s.tbuf = append(s.tbuf, make([]byte, 0, bufBlockBytes))
	}
	p := len(s.tbuf[i])
	s.tbuf[i] = append(s.tbuf[i], text...)
	return s.tbuf[i][p : p+len(text) : p+len(text)]
}
