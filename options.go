// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"github.com/cockroachdb/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/hashicorp/go-hclog"
)

// Default values for Options fields.
const (
	DefaultBufferSize     = 4096
	DefaultMaxTokenLength = 1 << 24
	DefaultMaxDepth       = 1000
	DefaultIndent         = "    "
)

// Options carry settings for a Scanner, Parser, or Generator.  A nil *Options
// is equivalent to the result of DefaultOptions. Fields irrelevant to a
// particular consumer are ignored by it.
type Options struct {
	// BufferSize is the number of bytes requested from the input on each
	// refill, and the number of bytes a Generator buffers before writing to
	// its output. It must be at least 1.
	BufferSize int `mapstructure:"buffer_size"`

	// MaxTokenLength bounds the length in bytes of a single string, number, or
	// keyword token. Exceeding it is a ResourceLimitError. A value <= 0 means
	// no limit.
	MaxTokenLength int `mapstructure:"max_token_length"`

	// MaxWhitespace bounds the length of a run of whitespace between tokens.
	// If zero, the value of MaxTokenLength is used; if negative, there is no
	// limit.
	MaxWhitespace int `mapstructure:"max_whitespace"`

	// MaxDepth bounds the nesting depth of objects and arrays. A value <= 0
	// means no limit.
	MaxDepth int `mapstructure:"max_depth"`

	// Pretty enables indentation of generated output.
	Pretty bool `mapstructure:"pretty"`

	// Indent is the unit of indentation per nesting level when Pretty is set.
	// If empty, DefaultIndent is used.
	Indent string `mapstructure:"indent"`

	// ASCIIOnly causes a Generator to escape every character above U+007F.
	ASCIIOnly bool `mapstructure:"ascii_only"`

	// Logger receives diagnostic logs. If nil, logs are discarded.
	Logger hclog.Logger `mapstructure:"-"`
}

// DefaultOptions returns a new Options value populated with default settings.
func DefaultOptions() *Options {
	return &Options{
		BufferSize:     DefaultBufferSize,
		MaxTokenLength: DefaultMaxTokenLength,
		MaxDepth:       DefaultMaxDepth,
		Indent:         DefaultIndent,
	}
}

// Validate reports an error if o contains invalid settings.
func (o *Options) Validate() error {
	if o.BufferSize < 1 {
		return errors.Newf("buffer size must be at least 1, got %d", o.BufferSize)
	}
	for _, r := range o.Indent {
		if r != ' ' && r != '\t' {
			return errors.Newf("indent must contain only spaces and tabs, got %q", o.Indent)
		}
	}
	return nil
}

// DecodeOptions decodes settings from a map of option names to values,
// starting from the defaults. Keys are the mapstructure names of the Options
// fields (for example "buffer_size"); unknown keys are reported as errors.
func DecodeOptions(raw map[string]any) (*Options, error) {
	opts := DefaultOptions()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           opts,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, errors.Wrap(err, "decoding options")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// resolve returns the effective settings for o, applying defaults.
func (o *Options) resolve() (settings, error) {
	if o == nil {
		o = DefaultOptions()
	}
	if err := o.Validate(); err != nil {
		return settings{}, err
	}
	s := settings{
		bufSize:   o.BufferSize,
		maxToken:  o.MaxTokenLength,
		maxSpace:  o.MaxWhitespace,
		maxDepth:  o.MaxDepth,
		pretty:    o.Pretty,
		indent:    o.Indent,
		asciiOnly: o.ASCIIOnly,
		log:       o.Logger,
	}
	if s.maxSpace == 0 {
		s.maxSpace = s.maxToken
	}
	if s.indent == "" {
		s.indent = DefaultIndent
	}
	if s.log == nil {
		s.log = hclog.NewNullLogger()
	}
	return s, nil
}

// settings are the resolved values of an Options.
type settings struct {
	bufSize   int
	maxToken  int // <= 0 is unlimited
	maxSpace  int // <= 0 is unlimited
	maxDepth  int // <= 0 is unlimited
	pretty    bool
	indent    string
	asciiOnly bool
	log       hclog.Logger
}
