package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"minipack/internal/config"
	"minipack/internal/diag"
	"minipack/internal/diagfmt"
	"minipack/internal/graph"
	"minipack/internal/metafile"
	"minipack/internal/source"
)

func flagsWith(set ...string) bundleFlags {
	bf := bundleFlags{
		target:         "es2015",
		maxModules:     graph.DefaultMaxModules,
		metafileFormat: "json",
		set:            make(map[string]bool),
	}
	for _, s := range set {
		bf.set[s] = true
	}
	return bf
}

func TestPlanBuildsFromArgs(t *testing.T) {
	cwd := filepath.FromSlash("/work")
	reqs, err := planBuilds(flagsWith(), []string{"src/a.js", "/abs/b.js"}, nil, cwd)
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 2 {
		t.Fatalf("got %d requests", len(reqs))
	}
	if reqs[0].Entry != filepath.Join(cwd, "src", "a.js") || reqs[1].Entry != filepath.FromSlash("/abs/b.js") {
		t.Errorf("entries = %s, %s", reqs[0].Entry, reqs[1].Entry)
	}
	r := reqs[0]
	if r.OutDir != filepath.Join(cwd, "dist") || r.Policy != graph.PolicyDedupe || !r.Memoize || !r.Write || r.Metafile {
		t.Errorf("defaults not applied: %+v", r)
	}
}

func TestPlanBuildsManifestAndOverrides(t *testing.T) {
	root := filepath.FromSlash("/proj")
	cfg := config.Default()
	cfg.Build.Entries = []string{"src/main.js"}
	cfg.Build.OutDir = "out"
	cfg.Build.Metafile = true
	cfg.Build.MetafileFormat = "msgpack"
	cfg.Graph.MaxModules = 50
	manifest := &config.Manifest{Path: filepath.Join(root, config.FileName), Root: root, Config: cfg}

	tests := []struct {
		name  string
		flags bundleFlags
		check func(t *testing.T, bf bundleFlags)
	}{
		{
			name:  "manifest values",
			flags: flagsWith(),
		},
		{
			name: "flags win",
			flags: func() bundleFlags {
				bf := flagsWith("outdir", "max-modules", "target")
				bf.outdir = "build"
				bf.maxModules = 7
				bf.target = "es2020"
				bf.noDedupe = true
				bf.noMemoize = true
				return bf
			}(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqs, err := planBuilds(tt.flags, nil, manifest, filepath.FromSlash("/elsewhere"))
			if err != nil {
				t.Fatal(err)
			}
			r := reqs[0]
			if r.Entry != filepath.Join(root, "src", "main.js") {
				t.Errorf("entry = %s", r.Entry)
			}
			if !r.Metafile || r.MetafileFormat != metafile.FormatMsgpack {
				t.Errorf("metafile settings lost: %v %v", r.Metafile, r.MetafileFormat)
			}
			if len(tt.flags.set) == 0 {
				if r.OutDir != filepath.Join(root, "out") || r.MaxModules != 50 || r.Target != "es2015" || r.Policy != graph.PolicyDedupe || !r.Memoize {
					t.Errorf("manifest not applied: %+v", r)
				}
				return
			}
			if r.OutDir != filepath.Join(filepath.FromSlash("/elsewhere"), "build") || r.MaxModules != 7 || r.Target != "es2020" {
				t.Errorf("flags not applied: %+v", r)
			}
			if r.Policy != graph.PolicyLiteral || r.Memoize {
				t.Errorf("--no-dedupe/--no-memoize ignored: %+v", r)
			}
		})
	}
}

func TestPlanBuildsErrors(t *testing.T) {
	outfile := flagsWith()
	outfile.outfile = "x.js"
	badTarget := flagsWith("target")
	badTarget.target = "es3"
	badMax := flagsWith("max-modules")
	badMax.maxModules = 0

	tests := []struct {
		name  string
		flags bundleFlags
		args  []string
		want  string
	}{
		{"no entries", flagsWith(), nil, "no entry given"},
		{"outfile with two entries", outfile, []string{"a.js", "b.js"}, "--outfile needs exactly one entry"},
		{"bad target", badTarget, []string{"a.js"}, "es3"},
		{"bad max modules", badMax, []string{"a.js"}, "--max-modules must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := planBuilds(tt.flags, tt.args, nil, "/work")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestDisplayPathInCwd(t *testing.T) {
	cwd := filepath.FromSlash("/work")
	if got := displayPath(cwd, filepath.Join(cwd, "dist", "a.bundle.js")); got != "dist/a.bundle.js" {
		t.Errorf("inside cwd: %q", got)
	}
	if got := displayPath(cwd, filepath.FromSlash("/other/a.js")); got != "/other/a.js" {
		t.Errorf("outside cwd: %q", got)
	}
}

func TestRenderGraphTable(t *testing.T) {
	m := &metafile.Metafile{
		Policy:  "dedupe",
		Memoize: true,
		Modules: []metafile.Module{
			{ID: 0, Path: "/w/entry.js", Imports: []metafile.Import{{Specifier: "./message.js", ID: 1}}},
			{ID: 1, Path: "/w/message.js", Imports: []metafile.Import{{Specifier: "./name.js", ID: 2}}},
			{ID: 2, Path: "/w/name.js"},
		},
	}
	var buf bytes.Buffer
	renderGraphTable(&buf, m, "/w")
	want := "ID  MODULE      IMPORTS\n" +
		"0   entry.js    ./message.js -> 1\n" +
		"1   message.js  ./name.js -> 2\n" +
		"2   name.js\n" +
		"\n3 modules, policy dedupe, memoize true\n"
	if buf.String() != want {
		t.Errorf("table:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestPrintReportsJSON(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("/w/entry.js", []byte("import x from './x.js';\n"))
	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevWarning, diag.ProjImportCycle, "/w/a.js", "cycle"))
	de := diag.Errorf(diag.BundleUnresolvedSpecifier, "/w/x.js", nil, "cannot resolve %q", "./x.js")
	de.Diagnostic = de.At(source.SpanOf(id, 14, 8))

	reports := []buildReport{
		{bag: bag, files: fs, err: de},
		{bag: diag.NewBag(10), err: fmt.Errorf("wrapped: %w", context.Canceled)},
	}

	var buf bytes.Buffer
	opts := outputOpts{format: diagfmt.FormatJSON, pathMode: diagfmt.PathModeRelative, baseDir: "/w", maxDiagnostics: 100}
	if err := printReports(&buf, opts, reports); err != nil {
		t.Fatal(err)
	}
	var out diagfmt.DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("bad JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 2 {
		t.Fatalf("count = %d, want the warning and the fatal error only:\n%s", out.Count, buf.String())
	}
	if out.Diagnostics[1].Code != "BND1004" || out.Diagnostics[1].Location == nil || out.Diagnostics[1].Location.StartCol != 15 {
		t.Errorf("fatal error = %+v", out.Diagnostics[1])
	}
}

func TestProgressView(t *testing.T) {
	for in, want := range map[string]progressView{"": progressAuto, "ON": progressOn, " never ": progressOff} {
		got, err := parseProgressView(in)
		if err != nil || got != want {
			t.Errorf("parseProgressView(%q) = %d, %v", in, got, err)
		}
	}
	if _, err := parseProgressView("maybe"); err == nil {
		t.Error("expected error")
	}

	tests := []struct {
		view progressView
		out  outputOpts
		tty  bool
		want bool
	}{
		{progressAuto, outputOpts{}, true, true},
		{progressAuto, outputOpts{}, false, false},
		{progressOn, outputOpts{}, false, true},
		{progressOn, outputOpts{quiet: true}, true, false},
		{progressOn, outputOpts{format: diagfmt.FormatJSON}, true, false},
		{progressOff, outputOpts{}, true, false},
	}
	for _, tt := range tests {
		if got := tt.view.enabled(tt.out, tt.tty); got != tt.want {
			t.Errorf("%d.enabled(%+v, %t) = %t", tt.view, tt.out, tt.tty, got)
		}
	}
}

func TestHumanBytes(t *testing.T) {
	tests := map[int]string{0: "0 B", 1023: "1023 B", 1536: "1.5 KiB", 3 << 20: "3.0 MiB"}
	for n, want := range tests {
		if got := humanBytes(n); got != want {
			t.Errorf("humanBytes(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestCollectVersion(t *testing.T) {
	short := collectVersion(false)
	if short.Tool != "minipack" || short.Version == "" || strings.Contains(short.Version, "\x1b") {
		t.Errorf("short = %+v", short)
	}
	if short.GitCommit != "" || short.GoVersion != "" {
		t.Errorf("short output carries build metadata: %+v", short)
	}
	full := collectVersion(true)
	if full.GitCommit == "" || full.BuildDate == "" || !strings.HasPrefix(full.GoVersion, "go") {
		t.Errorf("full = %+v", full)
	}
}
