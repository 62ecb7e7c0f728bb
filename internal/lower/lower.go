// Package lower rewrites ES module syntax into the CommonJS shape the bundle
// runtime executes: imports become require calls, exports become assignments
// on module.exports.
package lower

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	"github.com/evanw/esbuild/pkg/api"

	"minipack/internal/asset"
	"minipack/internal/diag"
	"minipack/internal/source"
)

// DefaultTarget matches the syntax level of a stock preset-env build.
const DefaultTarget = "es2015"

var targets = map[string]api.Target{
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// ParseTarget validates a target name such as "es2015" or "esnext".
func ParseTarget(name string) (api.Target, error) {
	if name == "" {
		name = DefaultTarget
	}
	t, ok := targets[strings.ToLower(name)]
	if !ok {
		return api.DefaultTarget, fmt.Errorf("unknown target %q", name)
	}
	return t, nil
}

// Transformer implements asset.Transformer on top of esbuild.
type Transformer struct {
	Target   api.Target
	Reporter diag.Reporter // receives esbuild warnings, may be nil
}

// New returns a Transformer for the named target.
func New(target string, reporter diag.Reporter) (*Transformer, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	return &Transformer{Target: t, Reporter: reporter}, nil
}

// Transform lowers the tree's source to CommonJS.
func (t *Transformer) Transform(tree asset.Tree) (string, error) {
	file := tree.File()
	res := api.Transform(string(file.Content), api.TransformOptions{
		Loader:     api.LoaderJS,
		Format:     api.FormatCommonJS,
		Target:     t.Target,
		Sourcefile: file.Path,
		LogLevel:   api.LogLevelSilent,
	})

	if t.Reporter != nil {
		for _, w := range res.Warnings {
			d := diag.New(diag.SevWarning, diag.ProjTransformWarning, file.Path, w.Text)
			if sp, ok := messageSpan(file, w); ok {
				d = d.At(sp)
			}
			t.Reporter.Report(d)
		}
	}

	if len(res.Errors) > 0 {
		first := res.Errors[0]
		e := diag.Errorf(diag.BundleTransformError, file.Path, nil, "%s", first.Text)
		if sp, ok := messageSpan(file, first); ok {
			e.Diagnostic = e.At(sp)
		}
		for _, extra := range res.Errors[1:] {
			if sp, ok := messageSpan(file, extra); ok {
				e.Diagnostic = e.WithNote(sp, extra.Text)
			} else {
				e.Diagnostic = e.WithHint(extra.Text)
			}
		}
		return "", e
	}
	return string(res.Code), nil
}

func messageSpan(file *source.File, msg api.Message) (source.Span, bool) {
	loc := msg.Location
	if loc == nil {
		return source.Span{}, false
	}
	line, err := safecast.Conv[uint32](loc.Line)
	if err != nil {
		return source.Span{}, false
	}
	col, err := safecast.Conv[uint32](loc.Column)
	if err != nil {
		return source.Span{}, false
	}
	off, ok := file.Offset(line, col)
	if !ok {
		return source.Span{}, false
	}
	length := max(loc.Length, 1)
	if rest := len(file.Content) - int(off); length > rest {
		length = rest
	}
	return source.SpanOf(file.ID, int(off), length), true
}
