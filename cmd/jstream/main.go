// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Program jstream reformats, validates, and traces JSON documents using the
// streaming parser and generator of package jstream.
package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creachadair/jstream"
	"github.com/creachadair/jstream/ast"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func main() {
	if err := makeRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "jstream: %v\n", err)
		os.Exit(1)
	}
}

// settings holds the values of the flags shared by all subcommands.
type settings struct {
	configFile     string
	bufferSize     int
	maxTokenLength int
	maxDepth       int
	logLevel       string
}

func (s *settings) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&s.configFile, "config", "", "read options from this JSON file")
	fs.IntVar(&s.bufferSize, "buffer-size", jstream.DefaultBufferSize, "input and output buffer size in bytes")
	fs.IntVar(&s.maxTokenLength, "max-token-length", jstream.DefaultMaxTokenLength, "maximum token length in bytes (0 for no limit)")
	fs.IntVar(&s.maxDepth, "max-depth", jstream.DefaultMaxDepth, "maximum nesting depth (0 for no limit)")
	fs.StringVar(&s.logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error, off)")
}

// options returns the effective options for cmd. Values from the config
// file, if any, take precedence over defaults, and flags set explicitly on
// the command line take precedence over the config file.
func (s *settings) options(cmd *cobra.Command) (*jstream.Options, error) {
	opts := jstream.DefaultOptions()
	if s.configFile != "" {
		raw, err := loadConfig(s.configFile)
		if err != nil {
			return nil, err
		}
		opts, err = jstream.DecodeOptions(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "config %q", s.configFile)
		}
	}

	fs := cmd.Flags()
	if fs.Changed("buffer-size") {
		opts.BufferSize = s.bufferSize
	}
	if fs.Changed("max-token-length") {
		opts.MaxTokenLength = s.maxTokenLength
	}
	if fs.Changed("max-depth") {
		opts.MaxDepth = s.maxDepth
	}

	level := hclog.LevelFromString(s.logLevel)
	if level == hclog.NoLevel {
		return nil, errors.Newf("invalid log level %q", s.logLevel)
	}
	opts.Logger = hclog.New(&hclog.LoggerOptions{
		Name:   "jstream",
		Level:  level,
		Output: cmd.ErrOrStderr(),
	})
	return opts, opts.Validate()
}

// loadConfig reads a JSON object of option settings from path.
func loadConfig(path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	v, err := ast.Parse(f, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "config %q", path)
	}
	obj, ok := v.(ast.Object)
	if !ok {
		return nil, errors.Newf("config %q: got %s, want an object", path, truncate(v.JSON(), 20))
	}
	return ast.ToAny(obj).(map[string]any), nil
}

func makeRootCommand() *cobra.Command {
	var s settings
	cmd := &cobra.Command{
		Use:   "jstream <command> [flags]",
		Short: "Reformat, validate, and trace JSON documents",
		Long: `Reformat, validate, and trace JSON documents.

Input is read in a single streaming pass with bounded memory. The limits on
buffer size, token length, and nesting depth may be set with flags or with a
JSON config file whose keys are option names, for example:

    {"buffer_size": 65536, "max_depth": 64, "indent": "  "}

Flags set on the command line override the config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	s.addFlags(cmd.PersistentFlags())

	cmd.AddCommand(makeFmtCommand(&s))
	cmd.AddCommand(makeCheckCommand(&s))
	cmd.AddCommand(makeEventsCommand(&s))
	return cmd
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
