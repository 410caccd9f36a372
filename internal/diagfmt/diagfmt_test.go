package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"quill/internal/diag"
	"quill/internal/source"
)

func sample(t *testing.T, content string, start, end uint32) (*source.FileSet, []diag.Diagnostic) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("bad.json", []byte(content))
	d := diag.NewError(diag.SynMissingSeparator, source.Span{File: id, Start: start, End: end}, "expected ',' between items").
		WithNote(source.At(id, 0), "list starts here")
	return fs, []diag.Diagnostic{d}
}

func TestPretty(t *testing.T) {
	fs, diags := sample(t, "{\n  \"a\": [1 2]\n}", 11, 12)
	var buf bytes.Buffer
	if err := Pretty(&buf, diags, fs, PrettyOpts{}); err != nil {
		t.Fatal(err)
	}
	want := "error[SYN2009]: expected ',' between items\n" +
		" --> bad.json:2:10\n" +
		"  |\n" +
		"2 |   \"a\": [1 2]\n" +
		"  |          ^\n"
	if got := buf.String(); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrettyNotesAndTabs(t *testing.T) {
	fs, diags := sample(t, "[\t1 2]", 3, 5)
	var buf bytes.Buffer
	if err := Pretty(&buf, diags, fs, PrettyOpts{ShowNotes: true, TabWidth: 2}); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	for _, want := range []string{
		"1 | [  1 2]\n",
		"  |     ^^\n",
		"= note: list starts here\n",
		"  | -\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output does not contain %q:\n%s", want, got)
		}
	}
}

func TestPrettyColor(t *testing.T) {
	fs, diags := sample(t, "[1 2]", 3, 4)
	var buf bytes.Buffer
	if err := Pretty(&buf, diags, fs, PrettyOpts{Color: true}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected ANSI escapes with Color set:\n%q", buf.String())
	}
}

func TestBuild(t *testing.T) {
	fs, diags := sample(t, "[1\n 2]", 4, 5)
	got := Build(diags, fs, JSONOpts{IncludePositions: true, IncludeNotes: true})
	if len(got) != 1 {
		t.Fatalf("got %d diagnostics", len(got))
	}
	d := got[0]
	if d.Severity != "error" || d.Code != "SYN2009" || d.Location.File != "bad.json" {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if d.Location.StartLine != 2 || d.Location.StartCol != 2 || d.Location.EndCol != 3 {
		t.Fatalf("unexpected location %+v", d.Location)
	}
	if len(d.Notes) != 1 || d.Notes[0].Location.StartByte != 0 {
		t.Fatalf("unexpected notes %+v", d.Notes)
	}

	if got := Build(append(diags, diags...), fs, JSONOpts{Max: 1}); len(got) != 1 {
		t.Fatalf("Max not applied: %d", len(got))
	}
	if got := Build(diags, nil, JSONOpts{}); got != nil {
		t.Fatalf("nil FileSet should yield nil, got %+v", got)
	}
}
