package diag

import (
	"fmt"
	"sort"
	"strings"

	"quill/internal/source"
)

type shortDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatShortDiagnostics renders one line per diagnostic:
//
//	error SYN2001 path/to/file.json:3:7 unexpected ']'
//
// Entries are sorted by path, position, severity and code. Paths are shown
// relative to baseDir when they live under it. Notes become "note" lines.
func FormatShortDiagnostics(diags []Diagnostic, fs *source.FileSet, baseDir string, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}

	rendered := make([]shortDiagnostic, 0, len(diags))
	for i := range diags {
		d := &diags[i]
		if loc, ok := resolveSpan(fs, baseDir, d.Primary); ok {
			rendered = append(rendered, shortDiagnostic{
				Severity: d.Severity.Label(),
				Code:     d.Code.ID(),
				Path:     loc.Path,
				Line:     loc.Line,
				Column:   loc.Column,
				Message:  sanitizeMessage(d.Message),
			})
		}
		if !includeNotes {
			continue
		}
		for _, note := range d.Notes {
			nloc, ok := resolveSpan(fs, baseDir, note.Span)
			if !ok {
				continue
			}
			rendered = append(rendered, shortDiagnostic{
				Severity: "note",
				Code:     d.Code.ID(),
				Path:     nloc.Path,
				Line:     nloc.Line,
				Column:   nloc.Column,
				Message:  sanitizeMessage(note.Msg),
			})
		}
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		if di.Severity != dj.Severity {
			return di.Severity < dj.Severity
		}
		return di.Code < dj.Code
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s:%d:%d %s", d.Severity, d.Code, d.Path, d.Line, d.Column, d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

type resolvedSpan struct {
	Path   string
	Line   uint32
	Column uint32
}

func resolveSpan(fs *source.FileSet, baseDir string, span source.Span) (resolvedSpan, bool) {
	if int(span.File) >= fs.Len() {
		return resolvedSpan{}, false
	}
	file := fs.Get(span.File)
	if int(span.Start) > len(file.Content) {
		return resolvedSpan{}, false
	}
	path := file.Path
	if baseDir != "" && file.Flags&source.FileVirtual == 0 {
		if rel, err := source.RelativePath(path, baseDir); err == nil {
			path = rel
		}
	}
	start, _ := fs.Resolve(span)
	return resolvedSpan{Path: path, Line: start.Line, Column: start.Col}, true
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
