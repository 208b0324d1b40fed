// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/creachadair/jstream"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func makeFmtCommand(s *settings) *cobra.Command {
	var compact, ascii bool
	var indent string
	cmd := &cobra.Command{
		Use:   "fmt [FILE]",
		Short: "Reformat a JSON document",
		Long: `Reformat the JSON document in FILE, or standard input if FILE is omitted,
and write the result to standard output. Numbers and strings are preserved
exactly; only whitespace and escaping change.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := s.options(cmd)
			if err != nil {
				return err
			}
			opts.Pretty = !compact
			if cmd.Flags().Changed("indent") {
				opts.Indent = indent
			}
			if ascii {
				opts.ASCIIOnly = true
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			in, name, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			if err := reformat(in, cmd.OutOrStdout(), opts); err != nil {
				return errors.Wrap(err, name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&compact, "compact", false, "write compact output with no whitespace")
	cmd.Flags().StringVar(&indent, "indent", jstream.DefaultIndent, "indentation unit for pretty output")
	cmd.Flags().BoolVar(&ascii, "ascii", false, "escape all non-ASCII characters")
	return cmd
}

// reformat copies the document from r to w, closing r.
func reformat(r io.Reader, w io.Writer, opts *jstream.Options) error {
	p, err := jstream.NewParser(r, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	// Hide any Close method of w so the generator does not close it.
	g, err := jstream.NewGenerator(struct{ io.Writer }{w}, opts)
	if err != nil {
		return err
	}
	// On failure, skip Close so the partial document is not flushed.
	nc, err := jstream.Copy(g, p)
	if err != nil {
		return err
	} else if err := g.Close(); err != nil {
		return err
	}
	opts.Logger.Debug("reformatted document", "events", nc)
	_, err = io.WriteString(w, "\n")
	return err
}

func makeCheckCommand(s *settings) *cobra.Command {
	var jobs int
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Validate JSON documents",
		Long: `Validate each FILE as a single JSON document. Files are checked
concurrently. Each invalid file is reported as

    file:line:col: message

and the command exits with an error if any file is invalid.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := s.options(cmd)
			if err != nil {
				return err
			}
			problems, err := checkFiles(cmd.Context(), args, opts, jobs)
			if err != nil {
				return err
			}
			var nbad int
			for _, p := range problems {
				if p != "" {
					fmt.Fprintln(cmd.OutOrStdout(), p)
					nbad++
				}
			}
			if nbad != 0 {
				return errors.Newf("%d of %d files are invalid", nbad, len(args))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&jobs, "jobs", runtime.NumCPU(), "maximum number of files to check concurrently")
	return cmd
}

// checkFiles validates the named files concurrently, running at most jobs
// checks at once. It returns a slice parallel to names whose entries are
// empty for valid files and describe the problem otherwise. An error is
// reported only if ctx ends before all the files are checked.
func checkFiles(ctx context.Context, names []string, opts *jstream.Options, jobs int) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	problems := make([]string, len(names))
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			o := *opts
			o.Logger = opts.Logger.With("file", name)
			problems[i] = checkFile(name, &o)
			return nil
		})
	}
	return problems, g.Wait()
}

// checkFile parses the named file and describes the first problem found, or
// returns "" if the file is a valid JSON document.
func checkFile(name string, opts *jstream.Options) string {
	f, err := os.Open(name)
	if err != nil {
		return fmt.Sprintf("%s: %v", name, err)
	}
	p, err := jstream.NewParser(f, opts)
	if err != nil {
		f.Close()
		return fmt.Sprintf("%s: %v", name, err)
	}
	defer p.Close()

	var nev int
	for {
		_, err := p.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			var perr *jstream.Error
			if errors.As(err, &perr) && perr.Location.IsValid() {
				return fmt.Sprintf("%s:%d:%d: %s: %s",
					name, perr.Location.Line, perr.Location.Column, perr.Kind, perr.Message)
			}
			return fmt.Sprintf("%s: %v", name, err)
		}
		nev++
	}
	opts.Logger.Debug("file is valid", "events", nev)
	return ""
}

func makeEventsCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "events [FILE]",
		Short: "Print the parser events of a JSON document",
		Long: `Print one line for each parser event in FILE, or standard input if FILE
is omitted. Each line gives the location where the event's token starts, the
event, and the text of keys and values.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := s.options(cmd)
			if err != nil {
				return err
			}
			in, name, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			if err := printEvents(in, cmd.OutOrStdout(), opts); err != nil {
				return errors.Wrap(err, name)
			}
			return nil
		},
	}
}

// printEvents writes one line for each event parsed from r to w, closing r.
func printEvents(r io.Reader, w io.Writer, opts *jstream.Options) error {
	p, err := jstream.NewParser(r, opts)
	if err != nil {
		return err
	}
	defer p.Close()
	for {
		evt, err := p.Next()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		var werr error
		switch {
		case evt == jstream.KeyName || evt == jstream.ValueString:
			_, werr = fmt.Fprintf(w, "%v %v %s\n", p.Start(), evt, jstream.Quote(string(p.Text())))
		case evt.IsValue():
			_, werr = fmt.Fprintf(w, "%v %v %s\n", p.Start(), evt, p.Text())
		default:
			_, werr = fmt.Fprintf(w, "%v %v\n", p.Start(), evt)
		}
		if werr != nil {
			return werr
		}
	}
}

// openInput opens the file named by args[0], or returns the command's input
// if args is empty. The caller is responsible for closing the result.
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, string, error) {
	if len(args) == 0 {
		return io.NopCloser(cmd.InOrStdin()), "<stdin>", nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, "", err
	}
	return f, args[0], nil
}
