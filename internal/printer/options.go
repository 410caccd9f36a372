package printer

import (
	"fmt"
	"strings"
)

// IndentStyle selects tabs or spaces for indentation.
type IndentStyle uint8

const (
	IndentSpace IndentStyle = iota
	IndentTab
)

func (s IndentStyle) String() string {
	if s == IndentTab {
		return "tab"
	}
	return "space"
}

// ParseIndentStyle converts "tab" or "space" to an IndentStyle.
func ParseIndentStyle(s string) (IndentStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "space", "spaces":
		return IndentSpace, nil
	case "tab", "tabs":
		return IndentTab, nil
	default:
		return IndentSpace, fmt.Errorf("invalid indent style: %q (expected: tab|space)", s)
	}
}

// LineEnding is the newline sequence written to the output.
type LineEnding uint8

const (
	LineEndingLF LineEnding = iota
	LineEndingCRLF
	LineEndingCR
)

func (l LineEnding) String() string {
	switch l {
	case LineEndingCRLF:
		return "crlf"
	case LineEndingCR:
		return "cr"
	default:
		return "lf"
	}
}

// Sequence returns the bytes written for one line break.
func (l LineEnding) Sequence() string {
	switch l {
	case LineEndingCRLF:
		return "\r\n"
	case LineEndingCR:
		return "\r"
	default:
		return "\n"
	}
}

// ParseLineEnding converts "lf", "crlf" or "cr" to a LineEnding.
func ParseLineEnding(s string) (LineEnding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lf", "\n":
		return LineEndingLF, nil
	case "crlf", "\r\n":
		return LineEndingCRLF, nil
	case "cr", "\r":
		return LineEndingCR, nil
	default:
		return LineEndingLF, fmt.Errorf("invalid line ending: %q (expected: lf|crlf|cr)", s)
	}
}

const (
	DefaultIndentWidth = 2
	DefaultTabWidth    = 4
	DefaultPrintWidth  = 80

	MaxPrintWidth  = 320
	MaxIndentWidth = 16
)

// Options is the resolved printer configuration. Zero fields take defaults.
type Options struct {
	IndentStyle IndentStyle
	// IndentWidth is the number of spaces per level for IndentSpace.
	IndentWidth uint8
	// TabWidth is the column width a tab counts for.
	TabWidth   uint8
	PrintWidth uint16
	LineEnding LineEnding
}

// WithDefaults fills zero fields.
func (o Options) WithDefaults() Options {
	if o.IndentWidth == 0 {
		o.IndentWidth = DefaultIndentWidth
	}
	if o.TabWidth == 0 {
		o.TabWidth = DefaultTabWidth
	}
	if o.PrintWidth == 0 {
		o.PrintWidth = DefaultPrintWidth
	}
	return o
}

// Validate checks ranges after defaults are applied.
func (o Options) Validate() error {
	o = o.WithDefaults()
	if o.PrintWidth > MaxPrintWidth {
		return fmt.Errorf("print width %d out of range (1..%d)", o.PrintWidth, MaxPrintWidth)
	}
	if o.IndentWidth > MaxIndentWidth {
		return fmt.Errorf("indent width %d out of range (1..%d)", o.IndentWidth, MaxIndentWidth)
	}
	if o.TabWidth > MaxIndentWidth {
		return fmt.Errorf("tab width %d out of range (1..%d)", o.TabWidth, MaxIndentWidth)
	}
	if o.LineEnding > LineEndingCR {
		return fmt.Errorf("unknown line ending %d", o.LineEnding)
	}
	return nil
}

// IndentUnit is the string written for one indentation level.
func (o Options) IndentUnit() string {
	o = o.WithDefaults()
	if o.IndentStyle == IndentTab {
		return "\t"
	}
	return strings.Repeat(" ", int(o.IndentWidth))
}

// Fingerprint is a stable textual form used for cache keys.
func (o Options) Fingerprint() string {
	o = o.WithDefaults()
	return fmt.Sprintf("indent=%s/%d tab=%d width=%d eol=%s", o.IndentStyle, o.IndentWidth, o.TabWidth, o.PrintWidth, o.LineEnding)
}
