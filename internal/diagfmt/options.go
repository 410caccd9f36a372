// Package diagfmt renders diagnostics for people (Pretty) and for tools
// (Build, the JSON form). diag.FormatShortDiagnostics covers the one-line
// form.
package diagfmt

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	BaseDir   string // paths are shown relative to it when set
	ShowNotes bool
	TabWidth  int // 0 means 4
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	BaseDir          string
	IncludePositions bool // добавить line/col
	IncludeNotes     bool
	Max              int // обрезка вывода, не Bag; 0 = без лимита
}
