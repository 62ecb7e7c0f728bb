package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"minipack/internal/diag"
	"minipack/internal/source"
)

type palette struct {
	err, warn, info, note *color.Color
	code, path, gutter    *color.Color
	caret                 *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		code:   color.New(color.Bold),
		path:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.code, p.path, p.gutter, p.caret} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty renders the bag as
//
//	path:line:col: ERROR BND1004: message
//	   3 | import x from './x.js';
//	     |               ^~~~~~~~
//	   = note: ...
//
// fs may be nil; spans are then ignored and only paths are printed.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	p := newPalette(opts.Color)
	items := bag.Items()
	for i := range items {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, p, &items[i], fs, opts)
	}
	if n := bag.Dropped(); n > 0 {
		fmt.Fprintf(w, "\n%s %d more diagnostics not shown\n", p.note.Sprint("..."), n)
	}
}

// PrettyError renders a single fatal error. Errors that carry no diagnostic
// are printed as plain ERROR lines.
func PrettyError(w io.Writer, err error, fs *source.FileSet, opts PrettyOpts) {
	if err == nil {
		return
	}
	p := newPalette(opts.Color)
	if de, ok := diag.AsError(err); ok {
		d := de.Diagnostic
		prettyOne(w, p, &d, fs, opts)
		if de.Err != nil && !strings.Contains(d.Message, de.Err.Error()) {
			fmt.Fprintf(w, "   %s caused by: %s\n", p.gutter.Sprint("="), de.Err)
		}
		return
	}
	fmt.Fprintf(w, "%s: %s\n", p.err.Sprint("ERROR"), err)
}

func prettyOne(w io.Writer, p palette, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	file := spanFile(fs, d.Primary, d.HasSpan)

	path := d.Path
	if file != nil {
		path = file.Path
	}
	loc := displayPath(path, opts.PathMode, opts.BaseDir)
	if file != nil {
		start, _ := fs.Resolve(d.Primary)
		loc += ":" + strconv.FormatUint(uint64(start.Line), 10) + ":" + strconv.FormatUint(uint64(start.Col), 10)
	}
	if loc != "" {
		fmt.Fprintf(w, "%s: ", p.path.Sprint(loc))
	}
	fmt.Fprintf(w, "%s %s: %s\n",
		p.severity(d.Severity).Sprint(d.Severity.String()),
		p.code.Sprint(d.Code.ID()),
		d.Message,
	)

	if file != nil {
		snippet(w, p, fs, file, d.Primary, opts)
	}

	for _, n := range d.Notes {
		nf := spanFile(fs, n.Span, n.HasSpan)
		if nf == nil {
			fmt.Fprintf(w, "   %s %s: %s\n", p.gutter.Sprint("="), p.note.Sprint("note"), n.Msg)
			continue
		}
		start, _ := fs.Resolve(n.Span)
		fmt.Fprintf(w, "   %s %s: %s:%d:%d: %s\n", p.gutter.Sprint("="), p.note.Sprint("note"),
			displayPath(nf.Path, opts.PathMode, opts.BaseDir), start.Line, start.Col, n.Msg)
		if opts.ShowNotes {
			snippet(w, p, fs, nf, n.Span, PrettyOpts{Width: opts.Width})
		}
	}
}

func spanFile(fs *source.FileSet, sp source.Span, has bool) *source.File {
	if fs == nil || !has || int(sp.File) >= fs.Len() {
		return nil
	}
	return fs.Get(sp.File)
}

// snippet prints the primary line (with opts.Context lines above it) and
// an underline below the span. Multi-line spans are underlined to the end
// of their first line.
func snippet(w io.Writer, p palette, fs *source.FileSet, file *source.File, sp source.Span, opts PrettyOpts) {
	start, end := fs.Resolve(sp)
	first := start.Line
	if opts.Context > 0 {
		first = 1
		if ctx := uint32(opts.Context); start.Line > ctx {
			first = start.Line - ctx
		}
	}
	gw := len(strconv.FormatUint(uint64(start.Line), 10))
	blank := strings.Repeat(" ", gw+1)

	for ln := first; ln <= start.Line; ln++ {
		text := clip(file.GetLine(ln), opts.Width)
		fmt.Fprintf(w, "%*d %s %s\n", gw+1, ln, p.gutter.Sprint("|"), text)
	}

	line := file.GetLine(start.Line)
	col := int(start.Col) - 1
	if col > len(line) {
		col = len(line)
	}
	stop := len(line)
	if end.Line == start.Line {
		stop = min(int(end.Col)-1, len(line))
	}
	if stop < col {
		stop = col
	}

	pad := padFor(line[:col])
	width := runewidth.StringWidth(line[col:stop])
	if width < 1 {
		width = 1
	}
	marks := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, "%s %s %s%s\n", blank, p.gutter.Sprint("|"), pad, p.caret.Sprint(marks))
}

// padFor returns whitespace with the display width of prefix; tabs are kept
// so the caret lines up with the source above it.
func padFor(prefix string) string {
	var sb strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			sb.WriteByte('\t')
			continue
		}
		sb.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return sb.String()
}

func clip(s string, width uint8) string {
	if width == 0 || runewidth.StringWidth(s) <= int(width) {
		return s
	}
	return runewidth.Truncate(s, int(width), "…")
}
