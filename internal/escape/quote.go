// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Package escape implements the string escaping rules shared by the JSON
// generator and its helpers.
package escape

import (
	"unicode/utf16"
	"unicode/utf8"

	"go4.org/mem"
)

var controlEsc = [...]byte{
	'\b': 'b',
	'\f': 'f',
	'\n': 'n',
	'\r': 'r',
	'\t': 't',
	' ':  ' ', // sentinel
}

var hexDigit = []byte("0123456789abcdef")

// Quote appends the escaped contents of src to dst and returns the extended
// slice. Quotation marks are not added.
//
// The characters '"' and '\\' and all control characters are escaped. If
// asciiOnly is true, every rune outside ASCII is also escaped as \uXXXX,
// using a surrogate pair for runes outside the Basic Multilingual Plane.
// Invalid UTF-8 sequences are encoded as \ufffd.
func Quote(dst []byte, src mem.RO, asciiOnly bool) []byte {
	for src.Len() > 0 {
		r, n := mem.DecodeRune(src)
		src = src.SliceFrom(n)

		if r < utf8.RuneSelf {
			if r < ' ' {
				if b := controlEsc[r]; b != 0 {
					dst = append(dst, '\\', b)
				} else {
					dst = appendU(dst, r)
				}
			} else if r == '\\' || r == '"' {
				dst = append(dst, '\\', byte(r))
			} else {
				dst = append(dst, byte(r))
			}
			continue
		}

		switch {
		case r == utf8.RuneError && n == 1:
			dst = append(dst, `\ufffd`...)
		case !asciiOnly:
			dst = utf8.AppendRune(dst, r)
		case r > 0xffff:
			hi, lo := utf16.EncodeRune(r)
			dst = appendU(appendU(dst, hi), lo)
		default:
			dst = appendU(dst, r)
		}
	}
	return dst
}

// appendU appends the escape \uXXXX for r, which must be < 0x10000.
func appendU(dst []byte, r rune) []byte {
	return append(dst, '\\', 'u',
		hexDigit[(r>>12)&15], hexDigit[(r>>8)&15], hexDigit[(r>>4)&15], hexDigit[r&15])
}
