// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creachadair/jstream/internal/escape"
	"go4.org/mem"
)

// Quote encodes src as a JSON string value. The contents are escaped and
// double quotation marks are added.
func Quote(src string) string { return string(AppendQuote(nil, src, false)) }

// AppendQuote appends the JSON string encoding of src to dst, including
// quotation marks, and returns the extended slice. If asciiOnly is true,
// all non-ASCII characters are escaped.
func AppendQuote(dst []byte, src string, asciiOnly bool) []byte {
	dst = append(dst, '"')
	dst = escape.Quote(dst, mem.S(src), asciiOnly)
	return append(dst, '"')
}

// Unquote decodes a JSON string value.  Double quotation marks are removed,
// and escape sequences are replaced with their unescaped equivalents. An
// unpaired surrogate escape is replaced by the Unicode replacement rune.
//
// Unquote reports an error if src is not exactly one valid JSON string.
func Unquote(src string) ([]byte, error) {
	if len(src) < 2 || !strings.HasPrefix(src, `"`) || !strings.HasSuffix(src, `"`) {
		return nil, errors.New("missing quotations")
	}
	set, err := (*Options)(nil).resolve()
	if err != nil {
		return nil, err
	}
	set.maxToken, set.maxSpace = 0, 0
	s := newScanner(strings.NewReader(src), set)
	if err := s.Next(); err != nil {
		return nil, err
	} else if s.Token() != String {
		return nil, errors.Newf("got %v, want string", s.Token())
	}
	out := s.Copy()
	if err := s.Next(); err == nil {
		return nil, errors.New("extra input after string")
	} else if err != io.EOF {
		return nil, err
	}
	return out, nil
}
