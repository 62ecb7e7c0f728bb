package jsparse

import (
	"errors"
	"testing"

	"minipack/internal/diag"
	"minipack/internal/source"
)

func load(t *testing.T, content string) (*source.FileSet, *source.File) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("/app/mod.js", []byte(content))
	return fs, fs.Get(id)
}

func TestImports(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "default import",
			src:  "import message from './message.js';\nconsole.log(message);\n",
			want: []string{"./message.js"},
		},
		{
			name: "named and side effect",
			src:  "import { a, b as c } from \"./a.js\";\nimport './side.js';\n",
			want: []string{"./a.js", "./side.js"},
		},
		{
			name: "duplicates preserved",
			src:  "import x from './b.js';\nimport { y } from './b.js';\n",
			want: []string{"./b.js", "./b.js"},
		},
		{
			name: "re-exports",
			src:  "export { name } from './name.js';\nexport * from './all.js';\nexport const z = 1;\n",
			want: []string{"./name.js", "./all.js"},
		},
		{
			name: "no imports",
			src:  "export default 42;\n",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, f := load(t, tt.src)
			tree, err := Parse(f)
			if err != nil {
				t.Fatal(err)
			}
			imports, err := Imports(tree)
			if err != nil {
				t.Fatal(err)
			}
			if len(imports) != len(tt.want) {
				t.Fatalf("got %d imports, want %d", len(imports), len(tt.want))
			}
			for i, imp := range imports {
				if imp.Specifier != tt.want[i] {
					t.Errorf("import %d = %q, want %q", i, imp.Specifier, tt.want[i])
				}
			}
		})
	}
}

func TestImportSpans(t *testing.T) {
	src := "import a from './b.js';\nimport c from './b.js';\n"
	fs, f := load(t, src)
	tree, err := Parse(f)
	if err != nil {
		t.Fatal(err)
	}
	imports, err := Imports(tree)
	if err != nil {
		t.Fatal(err)
	}
	if len(imports) != 2 {
		t.Fatalf("got %d imports", len(imports))
	}
	for i, wantLine := range []uint32{1, 2} {
		sp := imports[i].Span
		if got := src[sp.Start:sp.End]; got != "'./b.js'" {
			t.Errorf("span %d covers %q", i, got)
		}
		start, _ := fs.Resolve(sp)
		if start.Line != wantLine {
			t.Errorf("span %d on line %d, want %d", i, start.Line, wantLine)
		}
	}
}

func TestParseSyntaxError(t *testing.T) {
	_, f := load(t, "import from from from;\n")
	_, err := Parse(f)
	if !errors.Is(err, diag.ErrSyntaxError) {
		t.Fatalf("err = %v, want syntax error", err)
	}
}
