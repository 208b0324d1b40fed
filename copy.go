// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"io"

	"github.com/cockroachdb/errors"
)

// Copy reads events from p and writes the corresponding calls to g, until p
// reaches the end of its input or either one reports an error. It returns
// the number of events copied. Numbers are copied exactly as written in the
// input.
//
// Copy does not close either p or g.
func Copy(g *Generator, p *Parser) (int, error) {
	var nc int
	for {
		evt, err := p.Next()
		if err == io.EOF {
			return nc, nil
		} else if err != nil {
			return nc, err
		}
		switch evt {
		case StartObject:
			err = g.StartObject()
		case EndObject:
			err = g.EndObject()
		case StartArray:
			err = g.StartArray()
		case EndArray:
			err = g.EndArray()
		case KeyName:
			err = g.Key(string(p.Text()))
		case ValueString:
			err = g.String(string(p.Text()))
		case ValueNumber:
			n, nerr := p.Number()
			if nerr != nil {
				return nc, nerr
			}
			err = g.Number(n)
		case ValueTrue, ValueFalse:
			err = g.Bool(evt == ValueTrue)
		case ValueNull:
			err = g.Null()
		default:
			return nc, errors.AssertionFailedf("unexpected event %v", evt)
		}
		if err != nil {
			return nc, err
		}
		nc++
	}
}
