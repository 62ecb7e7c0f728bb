package diag

import (
	"minipack/internal/source"
)

type Note struct {
	Span    source.Span
	HasSpan bool
	Msg     string
}

// Diagnostic is a single finding about a module or the graph.
// Primary may be the zero Span when no source location is known;
// Path then names the file the finding is about.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Path     string
	Primary  source.Span
	HasSpan  bool
	Notes    []Note
}

func New(sev Severity, code Code, path, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Path:     path,
		Message:  msg,
	}
}

// At attaches a primary source location.
func (d Diagnostic) At(sp source.Span) Diagnostic {
	d.Primary = sp
	d.HasSpan = true
	return d
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, HasSpan: true, Msg: msg})
	return d
}

// WithHint adds a note that has no source location.
func (d Diagnostic) WithHint(msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Msg: msg})
	return d
}
