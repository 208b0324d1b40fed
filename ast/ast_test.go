// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package ast_test

import (
	"errors"
	"math"
	"testing"

	"github.com/creachadair/jstream"
	"github.com/creachadair/jstream/ast"
	"github.com/creachadair/mds/mtest"
	"github.com/google/go-cmp/cmp"
)

const testJSON = `{
  "list": [
    {
      "x": 1
    },
    {
      "x": 2
    }
  ],
  "y": {
    "hello": "there"
  },
  "o": [
    "hi",
    "yourself"
  ],
  "xyz": {
    "p": true,
    "d": true,
    "q": false
  }
}`

func TestPath(t *testing.T) {
	v, err := ast.ParseString(testJSON, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tests := []struct {
		name string
		path []any
		want ast.Value
		fail bool
	}{
		{"NilInput", nil, v, false},
		{"NoMatch", []any{"nonesuch"}, v, true},
		{"WrongType", []any{11}, v, true},

		{"ArrayPos", []any{"list", 1},
			v.(ast.Object).Find("list").Value.(ast.Array)[1],
			false,
		},
		{"ArrayNeg", []any{"list", -1},
			v.(ast.Object).Find("list").Value.(ast.Array)[1],
			false,
		},
		{"ArrayRange", []any{"o", 25}, v, true},
		{"ObjPath", []any{"xyz", "d"},
			v.(ast.Object).Find("xyz").Value.(ast.Object).Find("d").Value,
			false,
		},

		{"FuncArray", []any{"o", testPathFunc}, ast.Int(2), false},
		{"FuncObj", []any{"xyz", testPathFunc}, ast.Int(3), false},
		{"FuncWrong", []any{"xyz", "d", testPathFunc}, v, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ast.Path(v, tc.path...)
			if err != nil {
				if tc.fail {
					t.Logf("Got expected error: %v", err)
				} else {
					t.Fatalf("Path: unexpected error: %v", err)
				}
			} else if tc.fail {
				t.Fatalf("Path: got %s, want error", got.JSON())
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Wrong result (-want, +got):\n%s", diff)
			} else if err == nil {
				t.Logf("Found %s OK", got.JSON())
			}
		})
	}
}

func testPathFunc(v ast.Value) (ast.Value, error) {
	if ln, ok := v.(interface{ Len() int }); ok {
		return ast.Int(int64(ln.Len())), nil
	}
	return nil, errors.New("not a thing with length")
}

func TestJSON(t *testing.T) {
	tests := []struct {
		input ast.Value
		want  string
	}{
		{ast.Null, "null"},

		{ast.Bool(false), "false"},
		{ast.Bool(true), "true"},

		{ast.String(""), `""`},
		{ast.String("a \t b"), `"a \t b"`},
		{ast.String(`say "hi" \o/`), `"say \"hi\" \\o/"`},

		{ast.Float(-0.00239), `-0.00239`},
		{ast.Float(1e300), `1e+300`},

		{ast.Int(0), `0`},
		{ast.Int(15), `15`},
		{ast.Int(-25), `-25`},

		{ast.Array{}, `[]`},
		{ast.Array{
			ast.Bool(false),
		}, `[false]`},
		{ast.Array{
			ast.Bool(true),
			ast.Int(199),
		}, `[true,199]`},
		{ast.Array{
			ast.String("free"),
			ast.String("your"),
			ast.String("mind"),
		}, `["free","your","mind"]`},

		{ast.Object{}, `{}`},
		{ast.Object{
			ast.Field("xs", ast.Null),
		}, `{"xs":null}`},
		{ast.Object{
			ast.Field("name", ast.String("Dennis")),
			ast.Field("age", ast.Int(37)),
			ast.Field("isOld", ast.Bool(false)),
		}, `{"name":"Dennis","age":37,"isOld":false}`},

		{ast.Object{
			ast.Field("values", ast.Array{
				ast.Int(5),
				ast.Int(10),
				ast.Bool(true),
			}),
			ast.Field("page", ast.Object{
				ast.Field("token", ast.String("xyz-pdq-zvm")),
				ast.Field("count", ast.Int(100)),
			}),
		}, `{"values":[5,10,true],"page":{"token":"xyz-pdq-zvm","count":100}}`},
	}
	for _, test := range tests {
		got := test.input.JSON()
		if got != test.want {
			t.Errorf("Input: %+v\nGot:  %s\nWant: %s", test.input, got, test.want)
		}
	}
}

func TestFormatPretty(t *testing.T) {
	v, err := ast.ParseString(`{"a":[1,{}],"b":[],"c":{"d":null}}`, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	opts := jstream.DefaultOptions()
	opts.Pretty = true
	opts.Indent = "  "
	got, err := ast.Format(v, opts)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	const want = `{
  "a": [
    1,
    {}
  ],
  "b": [],
  "c": {
    "d": null
  }
}`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Format (-want, +got):\n%s", diff)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{`null`, `null`, true},
		{`true`, `false`, false},
		{`"a"`, `"a"`, true},
		{`"a"`, `"b"`, false},
		{`1`, `1.0`, true},
		{`1`, `10e-1`, true},
		{`100`, `1e2`, true},
		{`0.1`, `0.10000000000000001`, false},
		{`999999999999999999999999999999`, `999999999999999999999999999998`, false},
		{`[]`, `{}`, false},
		{`[1, 2]`, `[1, 2]`, true},
		{`[1, 2]`, `[2, 1]`, false},
		{`{"a": 1, "b": 2}`, `{"a": 1, "b": 2}`, true},
		{`{"a": 1, "b": 2}`, `{"b": 2, "a": 1}`, false},
		{`{"a": [true]}`, `{"a": [null]}`, false},
		{`"1"`, `1`, false},
	}
	for _, tc := range tests {
		a, err := ast.ParseString(tc.a, nil)
		if err != nil {
			t.Fatalf("Parse %q: %v", tc.a, err)
		}
		b, err := ast.ParseString(tc.b, nil)
		if err != nil {
			t.Fatalf("Parse %q: %v", tc.b, err)
		}
		if got := ast.Equal(a, b); got != tc.want {
			t.Errorf("Equal(%s, %s): got %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestToAny(t *testing.T) {
	v, err := ast.ParseString(`{"a": [1, 2.5, "x", true, null], "b": {}, "c": -7e2, "a": "last"}`, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := map[string]any{
		"a": "last",
		"b": map[string]any{},
		"c": int64(-700),
	}
	if diff := cmp.Diff(want, ast.ToAny(v)); diff != "" {
		t.Errorf("ToAny (-want, +got):\n%s", diff)
	}

	arr := v.(ast.Object)[0].Value
	wantArr := []any{int64(1), 2.5, "x", true, nil}
	if diff := cmp.Diff(wantArr, ast.ToAny(arr)); diff != "" {
		t.Errorf("ToAny (-want, +got):\n%s", diff)
	}
}

func TestFloatPanics(t *testing.T) {
	var zero float64
	mtest.MustPanic(t, func() { ast.Float(zero / zero) })
	mtest.MustPanic(t, func() { ast.Float(math.Inf(-1)) })
}
