package diagfmt

import (
	"encoding/json"
	"io"

	"minipack/internal/diag"
	"minipack/internal/source"
)

// LocationJSON представляет местоположение в файле для JSON
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

type NoteJSON struct {
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
}

// DiagnosticJSON представляет диагностику в JSON формате.
// Location is omitted for diagnostics about a whole file or the graph.
type DiagnosticJSON struct {
	Severity string        `json:"severity"`
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Path     string        `json:"path,omitempty"`
	Location *LocationJSON `json:"location,omitempty"`
	Notes    []NoteJSON    `json:"notes,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Dropped     int              `json:"dropped,omitempty"`
}

func makeLocation(span source.Span, file *source.File, fs *source.FileSet, opts JSONOpts) *LocationJSON {
	loc := &LocationJSON{
		File:      displayPath(file.Path, opts.PathMode, opts.BaseDir),
		StartByte: span.Start,
		EndByte:   span.End,
	}
	if opts.IncludePositions {
		startPos, endPos := fs.Resolve(span)
		loc.StartLine = startPos.Line
		loc.StartCol = startPos.Col
		loc.EndLine = endPos.Line
		loc.EndCol = endPos.Col
	}
	return loc
}

// Convert maps diagnostics resolved against fs to their JSON shape. Builds
// of several entries use one FileSet each, so callers convert per build and
// concatenate.
func Convert(items []diag.Diagnostic, fs *source.FileSet, opts JSONOpts) []DiagnosticJSON {
	out := make([]DiagnosticJSON, 0, len(items))
	for i := range items {
		d := &items[i]
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
			Path:     displayPath(d.Path, opts.PathMode, opts.BaseDir),
		}
		if f := spanFile(fs, d.Primary, d.HasSpan); f != nil {
			dj.Location = makeLocation(d.Primary, f, fs, opts)
		}
		// у таймингов полезная нагрузка лежит в заметке
		if opts.IncludeNotes || d.Code == diag.ObsTimings {
			for _, n := range d.Notes {
				nj := NoteJSON{Message: n.Msg}
				if f := spanFile(fs, n.Span, n.HasSpan); f != nil {
					nj.Location = makeLocation(n.Span, f, fs, opts)
				}
				dj.Notes = append(dj.Notes, nj)
			}
		}
		out = append(out, dj)
	}
	return out
}

// ConvertError maps a fatal build error. Errors without a diagnostic become
// an ERROR with the unknown code.
func ConvertError(err error, fs *source.FileSet, opts JSONOpts) DiagnosticJSON {
	if de, ok := diag.AsError(err); ok {
		return Convert([]diag.Diagnostic{de.Diagnostic}, fs, opts)[0]
	}
	return DiagnosticJSON{
		Severity: diag.SevError.String(),
		Code:     diag.UnknownCode.ID(),
		Message:  err.Error(),
	}
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	diagnostics := Convert(bag.Items(), fs, opts)
	return NewOutput(diagnostics, bag.Dropped(), opts.Max)
}

// NewOutput wraps converted diagnostics, cutting them to limit when limit > 0.
func NewOutput(diagnostics []DiagnosticJSON, dropped, limit int) DiagnosticsOutput {
	if limit > 0 && len(diagnostics) > limit {
		dropped += len(diagnostics) - limit
		diagnostics = diagnostics[:limit]
	}
	if diagnostics == nil {
		diagnostics = []DiagnosticJSON{}
	}
	return DiagnosticsOutput{
		Diagnostics: diagnostics,
		Count:       len(diagnostics),
		Dropped:     dropped,
	}
}

// JSON форматирует диагностики в JSON формат.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	return Encode(w, BuildDiagnosticsOutput(bag, fs, opts))
}

func Encode(w io.Writer, out DiagnosticsOutput) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
