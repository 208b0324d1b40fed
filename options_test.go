// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream_test

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/creachadair/jstream"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/hashicorp/go-hclog"
)

func TestDecodeOptions(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want *jstream.Options
	}{
		{"Empty", nil, jstream.DefaultOptions()},
		{"Typed", map[string]any{
			"buffer_size":      64,
			"max_token_length": 1024,
			"max_whitespace":   -1,
			"max_depth":        int64(12),
			"pretty":           true,
			"indent":           "\t",
			"ascii_only":       true,
		}, &jstream.Options{
			BufferSize:     64,
			MaxTokenLength: 1024,
			MaxWhitespace:  -1,
			MaxDepth:       12,
			Pretty:         true,
			Indent:         "\t",
			ASCIIOnly:      true,
		}},
		{"Weak", map[string]any{
			"buffer_size": "128",
			"pretty":      "true",
			"max_depth":   float64(3),
		}, &jstream.Options{
			BufferSize:     128,
			MaxTokenLength: jstream.DefaultMaxTokenLength,
			MaxDepth:       3,
			Pretty:         true,
			Indent:         jstream.DefaultIndent,
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := jstream.DecodeOptions(tc.raw)
			if err != nil {
				t.Fatalf("DecodeOptions: unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got, cmpopts.IgnoreFields(jstream.Options{}, "Logger")); diff != "" {
				t.Errorf("Options (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeOptionsErrors(t *testing.T) {
	for _, raw := range []map[string]any{
		{"no_such_option": 1},
		{"buffer_size": 0},
		{"buffer_size": "lots"},
		{"indent": "--"},
		{"pretty": map[string]any{"on": true}},
	} {
		if got, err := jstream.DecodeOptions(raw); err == nil {
			t.Errorf("DecodeOptions(%v): got %+v, want error", raw, got)
		} else {
			t.Logf("DecodeOptions(%v): got expected error: %v", raw, err)
		}
	}
}

func TestLogger(t *testing.T) {
	var buf strings.Builder
	opts := jstream.DefaultOptions()
	opts.BufferSize = 2
	opts.Logger = hclog.New(&hclog.LoggerOptions{
		Name:   "test",
		Level:  hclog.Trace,
		Output: &buf,
	})
	p := mustParser(t, strings.NewReader(`[1, 2, x]`), opts)
	_, err := eventLog(p)
	if err == nil {
		t.Fatal("Parse: got nil, want error")
	}
	logs := buf.String()
	for _, want := range []string{"refill", "scan failed", "location=1:9"} {
		if !strings.Contains(logs, want) {
			t.Errorf("Logs do not contain %q:\n%s", want, logs)
		}
	}
}

func TestErrorFormat(t *testing.T) {
	p := mustParser(t, strings.NewReader("[\n  1 2]"), nil)
	_, err := eventLog(p)
	if got, want := err.Error(), `at 2:6: syntax error: expected "," or "]", got integer`; got != want {
		t.Errorf("Error: got %q, want %q", got, want)
	}
	var perr *jstream.Error
	if !errors.As(err, &perr) {
		t.Fatalf("Error %T is not *jstream.Error", err)
	}
	if perr.Op != "" {
		t.Errorf("Op: got %q, want empty", perr.Op)
	}
	if loc, ok := jstream.LocationOf(err); !ok || loc.Offset != 7 {
		t.Errorf("LocationOf: got %v, %v; want offset 7", loc, ok)
	}

	wrapped := errors.Wrap(err, "reading config")
	if got := jstream.KindOf(wrapped); got != jstream.GrammarError {
		t.Errorf("KindOf(wrapped): got %v, want %v", got, jstream.GrammarError)
	}
	if got := jstream.KindOf(errors.New("other")); got != jstream.NoError {
		t.Errorf("KindOf(other): got %v, want %v", got, jstream.NoError)
	}
}
