// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package ast

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creachadair/jstream"
)

// Parse parses and returns the single JSON value from r. A nil opts uses
// default settings. The caller retains ownership of r.
func Parse(r io.Reader, opts *jstream.Options) (Value, error) {
	p, err := jstream.NewParser(r, opts)
	if err != nil {
		return nil, err
	}
	var h parseHandler
	for {
		evt, err := p.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		if err := h.handle(p, evt); err != nil {
			return nil, err
		}
	}
	if h.root == nil {
		return nil, errors.New("incomplete value")
	}
	return h.root, nil
}

// ParseString parses and returns the single JSON value in s.
func ParseString(s string, opts *jstream.Options) (Value, error) {
	return Parse(strings.NewReader(s), opts)
}

// A parseHandler constructs a syntax tree from parser events.
type parseHandler struct {
	stk  []*frame
	root Value
}

// A frame is an object or array under construction.
type frame struct {
	obj Object
	arr Array
	key string // the pending member key, if obj != nil
}

func (h *parseHandler) top() *frame { return h.stk[len(h.stk)-1] }

func (h *parseHandler) pop() *frame {
	last := h.top()
	h.stk = h.stk[:len(h.stk)-1]
	return last
}

func (h *parseHandler) push(f *frame) { h.stk = append(h.stk, f) }

// reduce adds a completed value to the enclosing object or array, or records
// it as the root.
func (h *parseHandler) reduce(v Value) {
	if len(h.stk) == 0 {
		h.root = v
		return
	}
	f := h.top()
	if f.obj != nil {
		f.obj = append(f.obj, &Member{Key: f.key, Value: v})
	} else {
		f.arr = append(f.arr, v)
	}
}

func (h *parseHandler) handle(p *jstream.Parser, evt jstream.Event) error {
	switch evt {
	case jstream.StartObject:
		h.push(&frame{obj: Object{}})
	case jstream.StartArray:
		h.push(&frame{arr: Array{}})
	case jstream.EndObject:
		h.reduce(h.pop().obj)
	case jstream.EndArray:
		h.reduce(h.pop().arr)
	case jstream.KeyName:
		h.top().key = string(p.Text())
	case jstream.ValueString:
		h.reduce(String(p.Text()))
	case jstream.ValueNumber:
		n, err := p.Number()
		if err != nil {
			return err
		}
		h.reduce(Number{Number: n})
	case jstream.ValueTrue, jstream.ValueFalse:
		h.reduce(Bool(evt == jstream.ValueTrue))
	case jstream.ValueNull:
		h.reduce(Null)
	default:
		return errors.Newf("unknown event %v", evt)
	}
	return nil
}
