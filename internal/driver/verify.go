package driver

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"quill/internal/diag"
	"quill/internal/jsonfmt"
	"quill/internal/source"
)

// ErrNotIdempotent means formatting the output again changed it.
var ErrNotIdempotent = errors.New("formatting is not idempotent")

// CheckIdempotent formats formatted a second time with the same settings
// and reports a FmtNotIdempotent diagnostic at the first differing byte.
// The second input is added to fs under name.
func CheckIdempotent(fs *source.FileSet, name string, formatted []byte, s Settings, r diag.Reporter) error {
	file := fs.Get(fs.AddVirtual(name, formatted))
	second, err := jsonfmt.Format(file, s.JSON, s.Printer, r)
	if err != nil {
		return fmt.Errorf("%w: %s: output does not parse: %w", ErrNotIdempotent, name, err)
	}
	if second.Code == string(formatted) {
		return nil
	}
	off := firstDifference(second.Code, string(formatted))
	pos, convErr := safecast.Conv[uint32](off)
	if convErr != nil {
		pos = 0
	}
	diag.ReportError(r, diag.FmtNotIdempotent, source.At(file.ID, pos),
		"second formatting pass changed the output").Emit()
	return fmt.Errorf("%w: %s", ErrNotIdempotent, name)
}

func firstDifference(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
