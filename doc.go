// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package jstream implements a streaming JSON scanner, pull parser, and
// generator that work in bounded memory.
//
// # Scanning
//
// The Scanner type implements a lexical scanner for JSON. Construct a scanner
// from an io.Reader and call its Next method to iterate over the stream. Next
// advances to the next input token and returns nil, or reports an error:
//
//	s, err := jstream.NewScanner(input, nil)
//	...
//	for s.Next() == nil {
//	   log.Printf("Next token: %v %q", s.Token(), s.Text())
//	}
//
// Next returns io.EOF when the input has been fully consumed. Any other error
// indicates an I/O, lexical, or resource limit error in the input.
//
//	if err := s.Err(); err != io.EOF {
//	   log.Fatalf("Scanning failed: %v", err)
//	}
//
// # Parsing
//
// The Parser type is a pull parser. Each call to Next returns the next Event
// in the input, checked against the grammar of a single JSON value:
//
//	p, err := jstream.NewParser(input, nil)
//	...
//	for {
//	   evt, err := p.Next()
//	   if err == io.EOF {
//	      break
//	   } else if err != nil {
//	      log.Fatalf("Parse failed: %v", err)
//	   }
//	   log.Printf("%v at %v: %q", evt, p.Start(), p.Text())
//	}
//
// The text of a KeyName or ValueString event is decoded. The text of a
// ValueNumber event is the number exactly as written; use the Number, Int64,
// BigInt, Decimal, or Float64 methods to convert it. The Text of an event is
// only valid until the next call to Next; use Copy to retain it.
//
// # Generating
//
// The Generator type writes JSON to an io.Writer. Calls that would produce
// invalid JSON report an error, and the first error is returned by every
// subsequent call:
//
//	opts := jstream.DefaultOptions()
//	opts.Pretty = true
//	g, err := jstream.NewGenerator(w, opts)
//	...
//	g.StartObject()
//	g.Key("name")
//	g.String("value")
//	g.EndObject()
//	if err := g.Close(); err != nil {
//	   log.Fatalf("Generate failed: %v", err)
//	}
//
// The Copy function connects a Parser to a Generator, to reformat a stream.
//
// # Errors
//
// Errors reported by this package have concrete type *jstream.Error, which
// carries an ErrorKind and, for input errors, the Location of the failure.
// Use KindOf and LocationOf to inspect errors wrapped by other packages.
//
// # Limits
//
// The Options type bounds the memory used for input buffering, the length of
// a single token, the length of a run of whitespace, and the nesting depth of
// the input. Exceeding a limit reports a ResourceLimitError.
package jstream
