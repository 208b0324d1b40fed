// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
)

var (
	// ErrNotIntegral is reported when an integer conversion is requested for
	// a number with a non-zero fractional part.
	ErrNotIntegral = errors.New("number has a fractional part")

	// ErrRange is reported when a number is outside the range of the
	// requested type.
	ErrRange = errors.New("number out of range")
)

// maxExponent bounds the exponent magnitude a Number records exactly.
// Larger exponents saturate; no conversion accepts them.
const maxExponent = 1 << 40

// A Number is an exact decimal value scanned from a JSON number literal.
// The value is (-1)^neg × digits × 10^exp, where digits is a string of
// decimal digits with no redundant leading zeros.
//
// A Number is never rounded through a binary floating-point type; use the
// conversion methods to obtain a value of the desired type.
type Number struct {
	text     string
	neg      bool
	digits   string
	exp      int64
	integral bool
}

// ParseNumber parses s as a JSON number literal. It reports an error if s is
// not exactly one valid number.
func ParseNumber(s string) (Number, error) {
	sc, err := NewScanner(strings.NewReader(s), nil)
	if err != nil {
		return Number{}, err
	}
	if err := sc.Next(); err != nil {
		return Number{}, errors.Wrapf(err, "parse number %q", s)
	} else if tok := sc.Token(); tok != Integer && tok != Float {
		return Number{}, errors.Newf("parse number %q: got %v", s, tok)
	}
	if sc.Start().Offset != 0 || sc.Location().Offset != int64(len(s)) {
		return Number{}, errors.Newf("parse number %q: extra input", s)
	}
	n, _ := sc.Number()
	if err := sc.Next(); err == nil {
		return Number{}, errors.Newf("parse number %q: extra input", s)
	} else if err != io.EOF {
		return Number{}, errors.Wrapf(err, "parse number %q", s)
	}
	return n, nil
}

// makeNumber constructs a Number from text, which must be a valid JSON number
// literal.
func makeNumber(text string) Number {
	n := Number{text: text, integral: true}
	s := text
	if s[0] == '-' {
		n.neg = true
		s = s[1:]
	}
	mant := s
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mant = s[:i]
		exp, neg := int64(0), false
		for _, c := range s[i+1:] {
			switch {
			case c == '-':
				neg = true
			case c == '+':
			case exp < maxExponent:
				exp = exp*10 + int64(c-'0')
			}
		}
		if neg {
			exp = -exp
			n.integral = n.integral && exp == 0
		}
		n.exp = exp
	}
	if i := strings.IndexByte(mant, '.'); i >= 0 {
		frac := mant[i+1:]
		n.exp -= int64(len(frac))
		mant = mant[:i] + frac
		n.integral = false
	}
	mant = strings.TrimLeft(mant, "0")
	if mant == "" {
		mant = "0"
	}
	n.digits = mant
	return n
}

// Text returns the literal text of n as it appeared in the input.
func (n Number) Text() string { return n.text }

// String returns the literal text of n.
func (n Number) String() string { return n.text }

// Sign reports the sign of n: -1, 0, or +1.
func (n Number) Sign() int {
	switch {
	case n.digits == "0" || n.digits == "":
		return 0
	case n.neg:
		return -1
	default:
		return 1
	}
}

// Digits returns the significant decimal digits of n, with leading zeros
// removed. The value of n is ±Digits×10^Exponent.
func (n Number) Digits() string { return n.digits }

// Exponent returns the base-10 exponent applied to Digits.
func (n Number) Exponent() int64 { return n.exp }

// IsIntegral reports whether n was written as an integer: the literal has
// no fractional part and no negative exponent.
func (n Number) IsIntegral() bool { return n.integral }

// normalize returns the digits and exponent of n with trailing zeros moved
// into the exponent.
func (n Number) normalize() (string, int64) {
	d, e := n.digits, n.exp
	if d == "0" {
		return d, 0
	}
	for len(d) > 1 && d[len(d)-1] == '0' {
		d = d[:len(d)-1]
		e++
	}
	return d, e
}

// magnitude returns |n| as a uint64 if n is integral and |n| <= limit.
func (n Number) magnitude(limit uint64) (uint64, error) {
	d, e := n.normalize()
	if e < 0 {
		return 0, errors.Wrapf(ErrNotIntegral, "%s", n.text)
	} else if d == "0" {
		return 0, nil
	} else if int64(len(d))+e > 20 {
		return 0, errors.Wrapf(ErrRange, "%s", n.text)
	}
	var u uint64
	for i := 0; i < len(d); i++ {
		v := uint64(d[i] - '0')
		if u > (limit-v)/10 {
			return 0, errors.Wrapf(ErrRange, "%s", n.text)
		}
		u = u*10 + v
	}
	for ; e > 0; e-- {
		if u > limit/10 {
			return 0, errors.Wrapf(ErrRange, "%s", n.text)
		}
		u *= 10
	}
	return u, nil
}

// Int64 returns the value of n as an int64. It reports ErrNotIntegral if n
// has a fractional part, or ErrRange if n does not fit.
func (n Number) Int64() (int64, error) {
	limit := uint64(math.MaxInt64)
	if n.neg {
		limit++
	}
	u, err := n.magnitude(limit)
	if err != nil {
		return 0, err
	}
	if n.neg && u > 0 {
		return -int64(u-1) - 1, nil
	}
	return int64(u), nil
}

// Int32 returns the value of n as an int32, with the same rules as Int64.
func (n Number) Int32() (int32, error) {
	limit := uint64(math.MaxInt32)
	if n.neg {
		limit++
	}
	u, err := n.magnitude(limit)
	if err != nil {
		return 0, err
	}
	if n.neg {
		return int32(-int64(u)), nil
	}
	return int32(u), nil
}

// Uint64 returns the value of n as a uint64. Negative values other than
// zero are reported as ErrRange.
func (n Number) Uint64() (uint64, error) {
	if n.Sign() < 0 {
		if _, err := n.magnitude(math.MaxUint64); err != nil {
			return 0, err
		}
		return 0, errors.Wrapf(ErrRange, "%s", n.text)
	}
	return n.magnitude(math.MaxUint64)
}

// BigInt returns the value of n as an integer of arbitrary size. It reports
// ErrNotIntegral if n has a fractional part.
func (n Number) BigInt() (*big.Int, error) {
	d, e := n.normalize()
	if e < 0 {
		return nil, errors.Wrapf(ErrNotIntegral, "%s", n.text)
	} else if e > apd.MaxExponent {
		return nil, errors.Wrapf(ErrRange, "%s", n.text)
	}
	z, ok := new(big.Int).SetString(d, 10)
	if !ok {
		return nil, errors.AssertionFailedf("invalid digits %q", d)
	}
	if e > 0 {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(e), nil)
		z.Mul(z, scale)
	}
	if n.neg {
		z.Neg(z)
	}
	return z, nil
}

// Decimal returns the exact value of n as an arbitrary-precision decimal.
// The conversion is lossless; it reports ErrRange only if the exponent of n
// does not fit in an int32.
func (n Number) Decimal() (*apd.Decimal, error) {
	if n.exp > math.MaxInt32 || n.exp < math.MinInt32 {
		return nil, errors.Wrapf(ErrRange, "%s", n.text)
	}
	d := &apd.Decimal{Negative: n.neg, Exponent: int32(n.exp)}
	if _, ok := d.Coeff.SetString(n.digits, 10); !ok {
		return nil, errors.AssertionFailedf("invalid digits %q", n.digits)
	}
	return d, nil
}

// Float64 returns the nearest float64 to n. The conversion may lose
// precision. If n is too large in magnitude, Float64 returns ±Inf and
// ErrRange.
func (n Number) Float64() (float64, error) {
	f, err := strconv.ParseFloat(n.text, 64)
	if err != nil {
		return f, errors.Wrapf(ErrRange, "%s", n.text)
	}
	return f, nil
}

// Cmp compares n and m exactly, and returns -1 if n < m, 0 if n == m, and +1
// if n > m.
func (n Number) Cmp(m Number) int {
	ns, ms := n.Sign(), m.Sign()
	if ns != ms {
		if ns < ms {
			return -1
		}
		return 1
	} else if ns == 0 {
		return 0
	}
	c := cmpMagnitude(n, m)
	if ns < 0 {
		return -c
	}
	return c
}

// Equal reports whether n and m have the same value.
func (n Number) Equal(m Number) bool { return n.Cmp(m) == 0 }

// cmpMagnitude compares |n| and |m| for non-zero n and m.
func cmpMagnitude(n, m Number) int {
	nd, ne := n.normalize()
	md, me := m.normalize()

	// Compare the position of the most significant digit first.
	if na, ma := int64(len(nd))+ne, int64(len(md))+me; na != ma {
		if na < ma {
			return -1
		}
		return 1
	}

	// Same magnitude: compare digit by digit, padding the shorter with zeros.
	for i := 0; i < max(len(nd), len(md)); i++ {
		a, b := byte('0'), byte('0')
		if i < len(nd) {
			a = nd[i]
		}
		if i < len(md) {
			b = md[i]
		}
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}
	return 0
}
