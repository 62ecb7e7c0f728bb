package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"minipack/internal/diag"
	"minipack/internal/diagfmt"
	"minipack/internal/source"
)

// errReported marks a failure whose diagnostics were already printed.
var errReported = errors.New("build failed")

type outputOpts struct {
	color          bool
	quiet          bool
	timings        bool
	maxDiagnostics int
	format         diagfmt.Format
	pathMode       diagfmt.PathMode
	baseDir        string
}

func readOutputOpts(cmd *cobra.Command) (outputOpts, error) {
	var opts outputOpts
	flags := cmd.Root().PersistentFlags()

	colorFlag, err := flags.GetString("color")
	if err != nil {
		return opts, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch strings.ToLower(colorFlag) {
	case "on":
		opts.color = true
	case "off":
		opts.color = false
	case "auto", "":
		opts.color = isTerminal(os.Stderr)
	default:
		return opts, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}

	if opts.quiet, err = flags.GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = flags.GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if opts.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	formatFlag, err := flags.GetString("diagnostics-format")
	if err != nil {
		return opts, fmt.Errorf("failed to get diagnostics-format flag: %w", err)
	}
	if opts.format, err = diagfmt.ParseFormat(formatFlag); err != nil {
		return opts, err
	}
	pathFlag, err := flags.GetString("path-mode")
	if err != nil {
		return opts, fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	if opts.pathMode, err = diagfmt.ParsePathMode(pathFlag); err != nil {
		return opts, err
	}
	if wd, err := os.Getwd(); err == nil {
		opts.baseDir = wd
	}
	return opts, nil
}

// buildReport is what one entry produced for the terminal.
type buildReport struct {
	bag   *diag.Bag
	files *source.FileSet
	err   error
}

func newBag(opts outputOpts) *diag.Bag {
	return diag.NewBag(opts.maxDiagnostics)
}

// printReports renders diagnostics and fatal errors of every report to w.
// Cancellations caused by a sibling's failure are not shown.
func printReports(w io.Writer, opts outputOpts, reports []buildReport) error {
	failed := false
	for _, r := range reports {
		if r.err != nil && !errors.Is(r.err, context.Canceled) {
			failed = true
		}
	}
	shown := func(err error) bool {
		return err != nil && (!failed || !errors.Is(err, context.Canceled))
	}

	if opts.format == diagfmt.FormatJSON {
		jopts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         opts.pathMode,
			BaseDir:          opts.baseDir,
			IncludeNotes:     true,
		}
		var all []diagfmt.DiagnosticJSON
		dropped := 0
		for _, r := range reports {
			if r.bag != nil {
				r.bag.Sort()
				all = append(all, diagfmt.Convert(r.bag.Items(), r.files, jopts)...)
				dropped += r.bag.Dropped()
			}
			if shown(r.err) {
				all = append(all, diagfmt.ConvertError(r.err, r.files, jopts))
			}
		}
		return diagfmt.Encode(w, diagfmt.NewOutput(all, dropped, opts.maxDiagnostics))
	}

	popts := diagfmt.PrettyOpts{
		Color:     opts.color,
		PathMode:  opts.pathMode,
		BaseDir:   opts.baseDir,
		ShowNotes: true,
	}
	for _, r := range reports {
		if r.bag != nil && r.bag.Len() > 0 && !(opts.quiet && !r.bag.HasErrors()) {
			r.bag.Sort()
			diagfmt.Pretty(w, r.bag, r.files, popts)
			fmt.Fprintln(w)
		}
		if shown(r.err) {
			diagfmt.PrettyError(w, r.err, r.files, popts)
		}
	}
	return nil
}

// reportFailure prints errors that no command rendered itself.
func reportFailure(cmd *cobra.Command, err error) {
	if errors.Is(err, errReported) {
		return
	}
	c := color.New(color.FgRed, color.Bold)
	if !isTerminal(os.Stderr) {
		c.DisableColor()
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", c.Sprint("error:"), err)
}
