package metafile

import (
	"bytes"
	"strings"
	"testing"

	"minipack/internal/asset"
	"minipack/internal/graph"
)

func literalDiamond() *graph.Graph {
	paths := []string{"/app/a.js", "/app/b.js", "/app/c.js", "/app/d.js", "/app/d.js"}
	links := [][]asset.Entry{
		{{Specifier: "./b.js", ID: 1}, {Specifier: "./c.js", ID: 2}},
		{{Specifier: "./d.js", ID: 3}},
		{{Specifier: "./d.js", ID: 4}},
		nil,
		nil,
	}
	g := &graph.Graph{Entry: "/app/a.js", Policy: graph.PolicyLiteral}
	for i, p := range paths {
		a := &asset.Asset{ID: asset.ID(i), Path: p, Code: strings.Repeat("x", 10*(i+1))}
		m := asset.NewMapping(len(links[i]))
		for _, e := range links[i] {
			m.Set(e.Specifier, e.ID)
		}
		a.Link(m)
		g.Assets = append(g.Assets, a)
	}
	return g
}

func TestEncodeDecode(t *testing.T) {
	m := FromGraph(literalDiamond(), false, func(string) int { return 7 })
	m.Output = &Output{Path: "/out/a.bundle.js", Bytes: 900}

	for _, format := range []Format{FormatJSON, FormatMsgpack} {
		t.Run(format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, m, format); err != nil {
				t.Fatal(err)
			}
			got, err := Decode(&buf, format)
			if err != nil {
				t.Fatal(err)
			}
			if got.Policy != "literal" || len(got.Modules) != 5 || got.Output.Bytes != 900 {
				t.Fatalf("decoded %+v", got)
			}
			imp := got.Modules[2].Imports[0]
			if imp.Specifier != "./d.js" || imp.ID != 4 || imp.Path != "/app/d.js" {
				t.Errorf("import = %+v", imp)
			}
			if got.Digest == "" || got.Digest != m.Digest {
				t.Errorf("digest = %q, want %q", got.Digest, m.Digest)
			}
			if got.Modules[0].Bytes != 7 {
				t.Errorf("bytes = %d", got.Modules[0].Bytes)
			}
		})
	}
}

func TestDecodeRejectsSchema(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{"schema": 99}`), FormatJSON); err == nil {
		t.Fatal("expected schema error")
	}
}

func TestAnalyze(t *testing.T) {
	a := Analyze(FromGraph(literalDiamond(), false, nil))
	if a.TotalBytes != 150 {
		t.Errorf("TotalBytes = %d, want 150", a.TotalBytes)
	}
	if len(a.Modules) != 4 {
		t.Fatalf("got %d modules, want 4 distinct paths", len(a.Modules))
	}
	top := a.Modules[0]
	if top.Path != "/app/d.js" || top.Copies != 2 || top.CodeBytes != 90 {
		t.Errorf("top = %+v", top)
	}
	if len(a.Warnings) != 1 || !strings.Contains(a.Warnings[0], "/app/d.js is bundled 2 times") {
		t.Errorf("warnings = %v", a.Warnings)
	}

	var out bytes.Buffer
	Display(&out, a, true)
	for _, want := range []string{"Bundle Analysis: /app/a.js", "150 B", "60.0%", "x2"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("display missing %q:\n%s", want, out.String())
		}
	}
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"/short.js", 20, "/short.js"},
		{"/very/long/path/to/module.js", 12, "...module.js"},
		{"/日本語/ファイル.js", 10, "...イル.js"},
	}
	for _, tt := range tests {
		got := truncatePath(tt.in, tt.max)
		if got != tt.want {
			t.Errorf("truncatePath(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
