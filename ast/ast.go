// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package ast defines a tree representation of JSON values, built from the
// events of a jstream.Parser and written with a jstream.Generator.
package ast

import (
	"math"
	"strconv"

	"github.com/creachadair/jstream"
)

// A Value is an arbitrary JSON value.
type Value interface {
	// JSON returns the compact JSON encoding of the value.
	JSON() string
}

// An Object is a collection of key-value members.
type Object []*Member

// JSON satisfies the Value interface.
func (o Object) JSON() string { return toJSON(o) }

// Len reports the number of members in o.
func (o Object) Len() int { return len(o) }

// Find returns the first member of o with the given key, or nil.
func (o Object) Find(key string) *Member {
	for _, m := range o {
		if m.Key == key {
			return m
		}
	}
	return nil
}

// A Member is a single key-value pair belonging to an Object.
type Member struct {
	Key   string
	Value Value
}

// Field constructs an object member with the given key and value.
func Field(key string, val Value) *Member { return &Member{Key: key, Value: val} }

// An Array is a sequence of values.
type Array []Value

// JSON satisfies the Value interface.
func (a Array) JSON() string { return toJSON(a) }

// Len reports the number of elements in a.
func (a Array) Len() int { return len(a) }

// A String is a string value. Its contents are unescaped.
type String string

// JSON satisfies the Value interface.
func (s String) JSON() string { return jstream.Quote(string(s)) }

// A Number is a numeric value, which preserves the exact text of the number.
type Number struct{ jstream.Number }

// JSON satisfies the Value interface.
func (n Number) JSON() string { return n.Text() }

// Int constructs a Number with the value of z.
func Int(z int64) Number { return mustNumber(strconv.FormatInt(z, 10)) }

// Float constructs a Number with the value of f. It panics if f is NaN or
// infinite, since those have no JSON representation.
func Float(f float64) Number {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		panic("ast: unsupported float value " + strconv.FormatFloat(f, 'g', -1, 64))
	}
	return mustNumber(strconv.FormatFloat(f, 'g', -1, 64))
}

func mustNumber(s string) Number {
	n, err := jstream.ParseNumber(s)
	if err != nil {
		panic(err)
	}
	return Number{Number: n}
}

// A Bool is a Boolean constant, true or false.
type Bool bool

// JSON satisfies the Value interface.
func (b Bool) JSON() string { return strconv.FormatBool(bool(b)) }

// Null is the null constant.
var Null Value = nullValue{}

type nullValue struct{}

func (nullValue) JSON() string { return "null" }

// toJSON renders a composite value. Values built by this package always
// encode successfully, so failures produce an empty string.
func toJSON(v Value) string {
	s, err := Format(v, nil)
	if err != nil {
		return ""
	}
	return s
}
