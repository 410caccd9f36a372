// Package jsonfmt is the JSON (and JSON with comments) front end: it lexes
// and parses a source file and lays the result out as a doc.Document for the
// printer.
//
// Containers become groups, so an array or object stays on one line when it
// fits and otherwise puts one item per line. Comments are kept: a comment
// that ends a line stays at the end of that line, other comments keep their
// own lines. A blank line between two items survives as one blank line.
package jsonfmt

import (
	"errors"
	"fmt"
	"strings"

	"quill/internal/diag"
	"quill/internal/doc"
	"quill/internal/printer"
	"quill/internal/source"
)

// ErrSyntax is returned when the input does not parse.
var ErrSyntax = errors.New("syntax error")

// TrailingCommas controls the separator after the last item of an expanded
// container.
type TrailingCommas uint8

const (
	TrailingNone TrailingCommas = iota
	TrailingAll
)

func (t TrailingCommas) String() string {
	if t == TrailingAll {
		return "all"
	}
	return "none"
}

// ParseTrailingCommas accepts "all" and "none".
func ParseTrailingCommas(s string) (TrailingCommas, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return TrailingNone, nil
	case "all":
		return TrailingAll, nil
	}
	return TrailingNone, fmt.Errorf("unknown trailing commas %q (want all|none)", s)
}

// Options configures the front end.
type Options struct {
	TrailingCommas TrailingCommas
	MaxDepth       int // 0 means DefaultMaxDepth
}

// Fingerprint identifies the options in cache keys.
func (o Options) Fingerprint() string {
	depth := o.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	return fmt.Sprintf("tc=%s;depth=%d", o.TrailingCommas, depth)
}

// BuildFile parses file and builds its tagged buffer. Parse problems go to r;
// the error wraps ErrSyntax when there were any.
func BuildFile(file *source.File, opts Options, r diag.Reporter) (*doc.Buffer, error) {
	parsed, errs := Parse(file, opts.MaxDepth, r)
	if errs > 0 {
		return nil, fmt.Errorf("%w: %d error(s) in %s", ErrSyntax, errs, file.Path)
	}
	return Build(parsed, opts), nil
}

// Document parses file and returns its assembled document.
func Document(file *source.File, opts Options, r diag.Reporter) (doc.Document, error) {
	buf, err := BuildFile(file, opts, r)
	if err != nil {
		return nil, err
	}
	d, err := buf.Finish()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file.Path, err)
	}
	return d, nil
}

// Format formats file. Formatting its own output yields the same text.
func Format(file *source.File, opts Options, popts printer.Options, r diag.Reporter) (printer.Formatted, error) {
	d, err := Document(file, opts, r)
	if err != nil {
		return printer.Formatted{}, err
	}
	return printer.Print(d, popts), nil
}
