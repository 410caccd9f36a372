package diagfmt

import (
	"quill/internal/diag"
	"quill/internal/source"
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

// NoteJSON представляет дополнительную заметку для JSON
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// Build converts diags into their JSON form. Diagnostics whose span does not
// belong to fs are skipped.
func Build(diags []diag.Diagnostic, fs *source.FileSet, opts JSONOpts) []DiagnosticJSON {
	if fs == nil {
		return nil
	}
	out := make([]DiagnosticJSON, 0, len(diags))
	for _, d := range diags {
		if opts.Max > 0 && len(out) >= opts.Max {
			break
		}
		loc, ok := makeLocation(d.Primary, fs, opts)
		if !ok {
			continue
		}
		dj := DiagnosticJSON{
			Severity: d.Severity.Label(),
			Code:     d.Code.ID(),
			Message:  d.Message,
			Location: loc,
		}
		if opts.IncludeNotes {
			for _, n := range d.Notes {
				if nl, ok := makeLocation(n.Span, fs, opts); ok {
					dj.Notes = append(dj.Notes, NoteJSON{Message: n.Msg, Location: nl})
				}
			}
		}
		out = append(out, dj)
	}
	return out
}

// makeLocation создаёт LocationJSON из Span
func makeLocation(span source.Span, fs *source.FileSet, opts JSONOpts) (LocationJSON, bool) {
	if int(span.File) >= fs.Len() {
		return LocationJSON{}, false
	}
	file := fs.Get(span.File)
	loc := LocationJSON{
		File:      displayPath(file, opts.BaseDir),
		StartByte: span.Start,
		EndByte:   span.End,
	}
	if opts.IncludePositions {
		start, end := fs.Resolve(span)
		loc.StartLine, loc.StartCol = start.Line, start.Col
		loc.EndLine, loc.EndCol = end.Line, end.Col
	}
	return loc, true
}
