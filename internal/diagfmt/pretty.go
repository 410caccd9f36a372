package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"quill/internal/diag"
	"quill/internal/source"
)

// Pretty форматирует диагностики в человекочитаемый вид:
//
//	error[SYN2009]: expected ',' between items
//	  --> bad.json:1:4
//	   |
//	 1 | [1 2
//	   |    ^
//
// diags are printed in the given order; sort the bag beforehand.
func Pretty(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) error {
	p := newPainter(opts.Color)
	tabWidth := opts.TabWidth
	if tabWidth <= 0 {
		tabWidth = 4
	}
	var b strings.Builder
	for i, d := range diags {
		if i > 0 {
			b.WriteByte('\n')
		}
		sev := p.severity(d.Severity)
		fmt.Fprintf(&b, "%s%s: %s\n", sev.Sprint(d.Severity.Label()), sev.Sprintf("[%s]", d.Code.ID()), p.bold.Sprint(d.Message))
		writeSnippet(&b, p, fs, d.Primary, "", opts, tabWidth)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(&b, "  %s %s\n", p.note.Sprint("= note:"), n.Msg)
			if n.Span != d.Primary {
				writeSnippet(&b, p, fs, n.Span, "-", opts, tabWidth)
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeSnippet(b *strings.Builder, p painter, fs *source.FileSet, span source.Span, mark string, opts PrettyOpts, tabWidth int) {
	if fs == nil || int(span.File) >= fs.Len() {
		return
	}
	file := fs.Get(span.File)
	if int(span.Start) > len(file.Content) {
		return
	}
	start, end := fs.Resolve(span)
	gutter := strings.Repeat(" ", len(strconv.FormatUint(uint64(start.Line), 10)))
	fmt.Fprintf(b, "%s%s %s:%d:%d\n", gutter, p.gutter.Sprint("-->"), displayPath(file, opts.BaseDir), start.Line, start.Col)

	line := file.GetLine(start.Line)
	fmt.Fprintf(b, "%s %s\n", gutter, p.gutter.Sprint("|"))
	fmt.Fprintf(b, "%s %s %s\n", p.gutter.Sprint(start.Line), p.gutter.Sprint("|"), expandTabs(line, tabWidth))

	col := min(int(start.Col)-1, len(line))
	pad := runewidth.StringWidth(expandTabs(line[:col], tabWidth))
	// multi-line spans are underlined to the end of the first line
	stop := len(line)
	if end.Line == start.Line {
		stop = min(int(end.Col)-1, len(line))
	}
	width := max(runewidth.StringWidth(expandTabs(line[col:max(stop, col)], tabWidth)), 1)
	if mark == "" {
		mark = "^"
	}
	fmt.Fprintf(b, "%s %s %s%s\n", gutter, p.gutter.Sprint("|"), strings.Repeat(" ", pad), p.caret.Sprint(strings.Repeat(mark, width)))
}

func expandTabs(s string, width int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", width))
}

func displayPath(file *source.File, baseDir string) string {
	if baseDir == "" || file.Flags&source.FileVirtual != 0 {
		return file.Path
	}
	if rel, err := source.RelativePath(file.Path, baseDir); err == nil {
		return rel
	}
	return file.Path
}

type painter struct {
	err, warn, info *color.Color
	bold, gutter    *color.Color
	caret, note     *color.Color
}

func newPainter(enabled bool) painter {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return painter{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		bold:   mk(color.Bold),
		gutter: mk(color.FgBlue, color.Bold),
		caret:  mk(color.FgRed, color.Bold),
		note:   mk(color.FgCyan),
	}
}

func (p painter) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}
