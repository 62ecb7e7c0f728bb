package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"minipack/internal/buildpipeline"
	"minipack/internal/diagfmt"
	"minipack/internal/ui"
)

// progressView decides whether `build` draws the live progress view.
type progressView uint8

const (
	progressAuto progressView = iota // only when stdout is a terminal
	progressOn
	progressOff
)

func parseProgressView(value string) (progressView, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return progressAuto, nil
	case "on", "always":
		return progressOn, nil
	case "off", "never":
		return progressOff, nil
	}
	return progressAuto, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

// enabled also turns the view off for --quiet and for machine-readable diagnostics.
func (v progressView) enabled(out outputOpts, tty bool) bool {
	if out.quiet || out.format != diagfmt.FormatPretty {
		return false
	}
	switch v {
	case progressOn:
		return true
	case progressOff:
		return false
	}
	return tty
}

type buildOutcome struct {
	results []buildpipeline.Result
	err     error
}

// runBuildsWithUI runs BuildAll while a progress view renders its events.
// entries are the Request.Entry values; the view uses them as row keys.
func runBuildsWithUI(ctx context.Context, title string, entries []string, reqs []buildpipeline.Request, jobs int) ([]buildpipeline.Result, error) {
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan buildOutcome, 1)

	go func() {
		sink := buildpipeline.ChannelSink{Ch: events}
		withSink := make([]buildpipeline.Request, len(reqs))
		for i := range reqs {
			withSink[i] = reqs[i]
			withSink[i].Progress = sink
		}
		res, err := buildpipeline.BuildAll(ctx, withSink, jobs)
		outcomeCh <- buildOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, entries, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithContext(ctx))
	_, uiErr := program.Run()
	if uiErr != nil {
		// builds keep sending until they finish
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
