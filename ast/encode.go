// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package ast

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creachadair/jstream"
)

// Encode writes v to g as a sequence of generator calls.
func Encode(g *jstream.Generator, v Value) error {
	switch t := v.(type) {
	case Object:
		if err := g.StartObject(); err != nil {
			return err
		}
		for _, m := range t {
			if err := g.Key(m.Key); err != nil {
				return err
			} else if err := Encode(g, m.Value); err != nil {
				return err
			}
		}
		return g.EndObject()
	case Array:
		if err := g.StartArray(); err != nil {
			return err
		}
		for _, elt := range t {
			if err := Encode(g, elt); err != nil {
				return err
			}
		}
		return g.EndArray()
	case String:
		return g.String(string(t))
	case Number:
		return g.Number(t.Number)
	case Bool:
		return g.Bool(bool(t))
	case nullValue:
		return g.Null()
	default:
		return errors.Newf("unsupported value type %T", v)
	}
}

// Format renders v as JSON text using a generator with the given options.
// A nil opts renders compact output.
func Format(v Value, opts *jstream.Options) (string, error) {
	var sb strings.Builder
	g, err := jstream.NewGenerator(&sb, opts)
	if err != nil {
		return "", err
	}
	if err := Encode(g, v); err != nil {
		return "", err
	} else if err := g.Close(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// ToAny converts v into plain Go values: map[string]any for objects, []any
// for arrays, string, bool, and nil. Numbers become int64 if they are
// integers in range, and float64 otherwise. If an object has duplicate keys,
// the last one wins.
func ToAny(v Value) any {
	switch t := v.(type) {
	case Object:
		m := make(map[string]any, len(t))
		for _, mem := range t {
			m[mem.Key] = ToAny(mem.Value)
		}
		return m
	case Array:
		out := make([]any, len(t))
		for i, elt := range t {
			out[i] = ToAny(elt)
		}
		return out
	case String:
		return string(t)
	case Number:
		if z, err := t.Int64(); err == nil {
			return z
		}
		f, _ := t.Float64()
		return f
	case Bool:
		return bool(t)
	default:
		return nil
	}
}

// Equal reports whether a and b are structurally equal. Objects are equal if
// they have the same members in the same order. Numbers are compared by
// exact decimal value, so 1.0 and 10e-1 are equal.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Object:
		y, ok := b.(Object)
		if !ok || len(x) != len(y) {
			return false
		}
		for i, m := range x {
			if m.Key != y[i].Key || !Equal(m.Value, y[i].Value) {
				return false
			}
		}
		return true
	case Array:
		y, ok := b.(Array)
		if !ok || len(x) != len(y) {
			return false
		}
		for i, elt := range x {
			if !Equal(elt, y[i]) {
				return false
			}
		}
		return true
	case Number:
		y, ok := b.(Number)
		return ok && x.Equal(y.Number)
	default:
		return a == b
	}
}

// Path traverses a sequence of nested values starting from v, and returns
// the value at the end of the path. Each element of path must be one of:
//
//   - A string, to select the member of an object with that key.
//   - An int, to select the element of an array at that index. Negative
//     indices count backward from the end of the array.
//   - A func(Value) (Value, error), which is called with the current value.
//
// If the path cannot be followed, Path returns v and an error.
func Path(v Value, path ...any) (Value, error) {
	cur := v
	for i, elt := range path {
		switch t := elt.(type) {
		case string:
			obj, ok := cur.(Object)
			if !ok {
				return v, errors.Newf("at %d: got %T, want object", i, cur)
			}
			m := obj.Find(t)
			if m == nil {
				return v, errors.Newf("at %d: key %q not found", i, t)
			}
			cur = m.Value
		case int:
			arr, ok := cur.(Array)
			if !ok {
				return v, errors.Newf("at %d: got %T, want array", i, cur)
			}
			pos := t
			if pos < 0 {
				pos += len(arr)
			}
			if pos < 0 || pos >= len(arr) {
				return v, errors.Newf("at %d: index %d out of range (0..%d)", i, t, len(arr))
			}
			cur = arr[pos]
		case func(Value) (Value, error):
			next, err := t(cur)
			if err != nil {
				return v, errors.Wrapf(err, "at %d", i)
			}
			cur = next
		default:
			return v, errors.Newf("at %d: invalid path element %T", i, elt)
		}
	}
	return cur, nil
}
