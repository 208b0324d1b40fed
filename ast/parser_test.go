// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package ast_test

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/creachadair/jstream"
	"github.com/creachadair/jstream/ast"
)

func TestParse(t *testing.T) {
	input, err := os.ReadFile("../testdata/input.json")
	if err != nil {
		t.Fatalf("Reading test input: %v", err)
	}

	start := time.Now()
	v, err := ast.Parse(bytes.NewReader(input), nil)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	t.Logf("Parsed %d bytes [%v elapsed]", len(input), elapsed)

	// Inspect some of the structure of the test value to make sure we got
	// something approximating sense.
	//
	// If the testdata file changes, this may need to be updated.
	//
	// {
	//   "episodes": [
	//     {
	//       ...
	//       "summary": "whatever blah blah",
	//       ...
	//     },
	//     ...
	//   ]
	// }
	//

	root, ok := v.(ast.Object)
	if !ok {
		t.Fatalf("Root is %T, not object", v)
	}
	mem := root.Find("episodes")
	if mem == nil {
		t.Fatal(`Key "episodes" not found`)
	}
	lst, ok := mem.Value.(ast.Array)
	if !ok {
		t.Fatalf("Member value is %T, not array", mem.Value)
	} else if len(lst) == 0 {
		t.Fatal("Array value is empty")
	}
	obj, ok := lst[1].(ast.Object)
	if !ok {
		t.Fatalf("Array entry is %T, not object", lst[1])
	}
	check(t, obj, "summary", func(s ast.String) {
		t.Logf("String field value: %s", s)
	})
	check(t, obj, "episode", func(v ast.Number) {
		t.Logf("Number field value: %v", v)
		if !v.IsIntegral() {
			t.Errorf("Number %s should be recognized as integer", v.JSON())
		}
	})
	check(t, obj, "hasDetail", func(v ast.Bool) {
		t.Logf("Bool field value: %v", v)
	})
	check(t, obj, "guests", func(v ast.Array) {
		if len(v) != 2 {
			t.Errorf("Guests: got %d values, want 2", len(v))
		}
	})

	// Large numbers survive exactly.
	views, err := ast.Path(v, "episodes", -1, "ratings", "views")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if got, want := views.JSON(), "123456789012345678901234567890"; got != want {
		t.Errorf("Views: got %s, want %s", got, want)
	}
}

func check[T any](t *testing.T, obj ast.Object, key string, f func(T)) {
	t.Helper()
	if v := obj.Find(key); v == nil {
		t.Fatalf("Key %q not found", key)
	} else if tv, ok := v.Value.(T); !ok {
		var zero T
		t.Fatalf("Key %q value is %T, not %T", key, v.Value, zero)
	} else if f != nil {
		f(tv)
	}
}

func TestRoundTrip(t *testing.T) {
	input, err := os.ReadFile("../testdata/input.json")
	if err != nil {
		t.Fatalf("Reading test input: %v", err)
	}
	want, err := ast.Parse(bytes.NewReader(input), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	opts := func(pretty, ascii bool, indent string) *jstream.Options {
		o := jstream.DefaultOptions()
		o.Pretty, o.ASCIIOnly, o.Indent = pretty, ascii, indent
		o.BufferSize = 7
		return o
	}
	tests := []struct {
		name string
		opts *jstream.Options
	}{
		{"Default", nil},
		{"Compact", opts(false, false, "")},
		{"Pretty", opts(true, false, "")},
		{"PrettyTabs", opts(true, false, "\t")},
		{"ASCII", opts(false, true, "")},
		{"PrettyASCII", opts(true, true, " ")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			text, err := ast.Format(want, tc.opts)
			if err != nil {
				t.Fatalf("Format: %v", err)
			}
			got, err := ast.ParseString(text, tc.opts)
			if err != nil {
				t.Fatalf("Parse formatted: %v\n%s", err, text)
			}
			if !ast.Equal(got, want) {
				t.Errorf("Round trip changed value:\ngot:  %s\nwant: %s", got.JSON(), want.JSON())
			}
			if tc.opts != nil && tc.opts.ASCIIOnly {
				for i, b := range []byte(text) {
					if b >= 0x80 {
						t.Fatalf("Output has non-ASCII byte %#02x at offset %d", b, i)
					}
				}
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  jstream.ErrorKind
	}{
		{"", jstream.GrammarError},
		{"  \n ", jstream.GrammarError},
		{`{"a":1`, jstream.GrammarError},
		{`[1,]`, jstream.GrammarError},
		{`[1] [2]`, jstream.GrammarError},
		{`{"a" 1}`, jstream.GrammarError},
		{`[tru]`, jstream.LexicalError},
		{`"abc`, jstream.LexicalError},
		{`[[[[1]]]]`, jstream.ResourceLimitError},
	}
	opts := jstream.DefaultOptions()
	opts.MaxDepth = 3
	for _, tc := range tests {
		v, err := ast.ParseString(tc.input, opts)
		if err == nil {
			t.Errorf("Parse %q: got %s, want error", tc.input, v.JSON())
			continue
		}
		if got := jstream.KindOf(err); got != tc.kind {
			t.Errorf("Parse %q: got %v (%v), want %v", tc.input, got, err, tc.kind)
		}
	}
}
