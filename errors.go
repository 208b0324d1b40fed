// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorKind classifies the errors reported by a Scanner, Parser, or
// Generator.
type ErrorKind byte

// Constants defining the valid ErrorKind values.
const (
	NoError            ErrorKind = iota // not an *Error
	LexicalError                        // malformed token
	GrammarError                        // valid token in an invalid position
	ResourceLimitError                  // a configured limit was exceeded
	GenerationError                     // invalid sequence of generator calls
	IOError                             // the underlying reader or writer failed
)

var kindStr = [...]string{
	NoError:            "no error",
	LexicalError:       "lexical error",
	GrammarError:       "syntax error",
	ResourceLimitError: "limit exceeded",
	GenerationError:    "generation error",
	IOError:            "I/O error",
}

func (k ErrorKind) String() string {
	if int(k) >= len(kindStr) {
		return kindStr[NoError]
	}
	return kindStr[k]
}

// Error is the concrete type of errors reported by this package.  Callers
// can use errors.As to recover an *Error and switch on its Kind.
//
// Errors reported while reading carry the Location of the offending input.
// Errors reported by a Generator have no location, but Op names the call
// that failed.
type Error struct {
	Kind     ErrorKind
	Location Location // zero for generation errors
	Op       string   // the offending generator call, if any
	Message  string

	err error
}

// Error satisfies the error interface.
func (e *Error) Error() string {
	if e.Location.IsValid() {
		return fmt.Sprintf("at %s: %s: %s", e.Location, e.Kind, e.Message)
	} else if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap supports error wrapping.
func (e *Error) Unwrap() error { return e.err }

// KindOf reports the ErrorKind of err, if err is or wraps an *Error.
// Otherwise it returns NoError.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return NoError
}

// LocationOf reports the location carried by err, if err is or wraps an
// *Error with a location.
func LocationOf(err error) (Location, bool) {
	var e *Error
	if errors.As(err, &e) && e.Location.IsValid() {
		return e.Location, true
	}
	return Location{}, false
}

func newError(kind ErrorKind, loc Location, cause error) *Error {
	return &Error{Kind: kind, Location: loc, Message: cause.Error(), err: cause}
}

func newErrorf(kind ErrorKind, loc Location, msg string, args ...any) *Error {
	return newError(kind, loc, errors.Newf(msg, args...))
}

func genErrorf(op, msg string, args ...any) *Error {
	cause := errors.Newf(msg, args...)
	return &Error{Kind: GenerationError, Op: op, Message: cause.Error(), err: cause}
}
