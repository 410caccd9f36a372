package fuzztests

import (
	"testing"
	"time"

	"quill/internal/diag"
	"quill/internal/irfmt"
	"quill/internal/jsonfmt"
	"quill/internal/printer"
	"quill/internal/source"
)

// formatTimeout is the maximum time allowed for formatting a single input.
// If formatting takes longer, it indicates a potential infinite loop.
const formatTimeout = 5 * time.Second

func format(input []byte, popts printer.Options) (string, bool) {
	raw, _, err := source.Normalize(input)
	if err != nil {
		return "", false
	}
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("fuzz.json", raw))
	bag := diag.NewBag(128)
	out, err := jsonfmt.Format(file, jsonfmt.Options{}, popts, diag.BagReporter{Bag: bag})
	if err != nil {
		return "", false
	}
	return out.Code, true
}

// FuzzFormatIdempotent checks that formatting formatted output is a no-op.
func FuzzFormatIdempotent(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clip(input)
		for _, width := range []uint16{20, 80} {
			popts := printer.Options{PrintWidth: width}
			first, ok := format(input, popts)
			if !ok {
				return
			}
			second, ok := format([]byte(first), popts)
			if !ok {
				t.Fatalf("formatted output does not parse (width %d):\n%s", width, first)
			}
			if first != second {
				t.Fatalf("not idempotent at width %d:\nfirst:\n%s\nsecond:\n%s", width, first, second)
			}
		}
	})
}

// FuzzFormatNoHang formats with a timeout to catch loops in error recovery
// or in the printer's fits measurement.
func FuzzFormatNoHang(f *testing.F) {
	addCorpusSeeds(f)
	f.Add([]byte("[" + "{\"k\":[" + "]}"))
	f.Add([]byte("{\"a\":{\"b\":{\"c\":{\"d\":[1,2,3,4,5,6,7,8,9,10,11,12,13,14,15]}}}}"))
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clip(input)
		done := make(chan struct{})
		go func() {
			defer close(done)
			format(input, printer.Options{PrintWidth: 1})
		}()
		select {
		case <-done:
		case <-time.After(formatTimeout):
			t.Fatalf("formatting timed out after %v on %d bytes", formatTimeout, len(input))
		}
	})
}

// FuzzDocumentIRRenders checks that every document built from valid input
// renders without a broken tag.
func FuzzDocumentIRRenders(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		raw, _, err := source.Normalize(clip(input))
		if err != nil {
			return
		}
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.json", raw))
		buf, err := jsonfmt.BuildFile(file, jsonfmt.Options{}, nil)
		if err != nil {
			return
		}
		if _, err := buf.Finish(); err != nil {
			t.Fatalf("unbalanced tag stream: %v\n%s", err, irfmt.RenderStream(buf.Stream()))
		}
	})
}
