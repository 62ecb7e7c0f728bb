package ui

import (
	"errors"
	"strings"
	"testing"

	"minipack/internal/buildpipeline"
)

func newTestModel(entries ...string) *progressModel {
	ch := make(chan buildpipeline.Event)
	return NewProgressModel("bundling", entries, ch).(*progressModel)
}

func TestApplyEventTracksStages(t *testing.T) {
	m := newTestModel("src/a.js", "src/b.js")

	steps := []struct {
		ev     buildpipeline.Event
		status string
		detail string
	}{
		{buildpipeline.Event{Entry: "src/a.js", Stage: buildpipeline.StageGraph, Status: buildpipeline.StatusWorking}, "loading", ""},
		{buildpipeline.Event{Entry: "src/a.js", Stage: buildpipeline.StageGraph, Status: buildpipeline.StatusWorking, Detail: "3 modules"}, "loading", "3 modules"},
		{buildpipeline.Event{Entry: "src/a.js", Stage: buildpipeline.StageEmit, Status: buildpipeline.StatusWorking}, "emitting", "3 modules"},
		{buildpipeline.Event{Entry: "src/a.js", Stage: buildpipeline.StageWrite, Status: buildpipeline.StatusDone, Detail: "dist/a.bundle.js"}, "done", "dist/a.bundle.js"},
	}
	for i, s := range steps {
		m.applyEvent(s.ev)
		item := m.items[0]
		if item.status != s.status || item.detail != s.detail {
			t.Fatalf("step %d: status=%q detail=%q, want %q %q", i, item.status, item.detail, s.status, s.detail)
		}
	}
	if m.items[1].status != "queued" {
		t.Errorf("untouched entry status = %q", m.items[1].status)
	}
	if got := m.percent(); got != 0.5 {
		t.Errorf("percent = %v, want 0.5", got)
	}
}

func TestApplyEventError(t *testing.T) {
	m := newTestModel("a.js")
	m.applyEvent(buildpipeline.Event{
		Entry:  "a.js",
		Stage:  buildpipeline.StageGraph,
		Status: buildpipeline.StatusError,
		Err:    errors.New("a.js: BND1004: cannot resolve\nmore"),
	})
	if m.items[0].status != "error" || m.items[0].detail != "a.js: BND1004: cannot resolve" {
		t.Errorf("item = %+v", m.items[0])
	}
	if m.percent() != 1 {
		t.Errorf("failed entries count as finished")
	}
}

func TestApplyEventUnknownEntry(t *testing.T) {
	m := newTestModel("a.js")
	if cmd := m.applyEvent(buildpipeline.Event{Entry: "other.js", Status: buildpipeline.StatusDone}); cmd != nil {
		t.Error("unknown entries must be ignored")
	}
}

func TestViewListsEntries(t *testing.T) {
	m := newTestModel("src/a.js")
	m.applyEvent(buildpipeline.Event{Entry: "src/a.js", Stage: buildpipeline.StageGraph, Status: buildpipeline.StatusWorking, Detail: "4 modules"})
	m.done = true

	view := m.View()
	for _, want := range []string{"done: bundling", "loading", "src/a.js", "4 modules"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short.js", 20, "short.js"},
		{"a/very/long/path/module.js", 10, "a/very/..."},
		{"abcdef", 3, "abc"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
