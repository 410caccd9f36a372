package printer

import (
	"strings"
	"testing"

	"quill/internal/doc"
)

func quoted(items ...string) []doc.Element {
	out := make([]doc.Element, 0, len(items))
	for _, it := range items {
		out = append(out, doc.Text(`"`+it+`"`))
	}
	return out
}

// arrayDoc mirrors what a JSON front end builds for an array literal.
func arrayDoc(items ...string) doc.Document {
	sep := doc.List(doc.Text(","), doc.SoftLineOrSpace())
	return doc.Document{
		doc.Group(
			doc.Text("["),
			doc.SoftBlockIndent(doc.Join(sep, quoted(items...)), doc.IfBreaks(doc.Text(","))),
			doc.Text("]"),
		),
	}
}

func TestGroupFitsOnOneLine(t *testing.T) {
	got := Print(arrayDoc("a", "b", "c", "d"), Options{PrintWidth: 80}).Code
	want := `["a", "b", "c", "d"]`
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestOverflowExpandsEnclosingGroup(t *testing.T) {
	items := []string{"alpha", "beta", "gamma", "delta", "epsilon-is-long"}
	got := Print(arrayDoc(items...), Options{PrintWidth: 40}).Code
	want := "[\n" +
		"  \"alpha\",\n" +
		"  \"beta\",\n" +
		"  \"gamma\",\n" +
		"  \"delta\",\n" +
		"  \"epsilon-is-long\",\n" +
		"]"
	if got != want {
		t.Fatalf("unexpected output:\nwant:\n%s\n\ngot:\n%s", want, got)
	}
}

func TestTabAccounting(t *testing.T) {
	opts := Options{IndentStyle: IndentTab, TabWidth: 4, PrintWidth: 19}
	got := Print(arrayDoc("a", "b", "c", "d"), opts).Code
	want := "[\n\t\"a\",\n\t\"b\",\n\t\"c\",\n\t\"d\",\n]"
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}

	// One column wider and the flat form fits.
	opts.PrintWidth = 20
	if got := Print(arrayDoc("a", "b", "c", "d"), opts).Code; got != `["a", "b", "c", "d"]` {
		t.Fatalf("expected flat output at width 20, got %q", got)
	}
}

func TestHardLineForcesExpansion(t *testing.T) {
	d := doc.Document{
		doc.Group(
			doc.Text("("),
			doc.SoftBlockIndent(doc.Text("a"), doc.HardLine(), doc.Text("b")),
			doc.Text(")"),
		),
	}
	got := Print(d, Options{PrintWidth: 80}).Code
	want := "(\n  a\n  b\n)"
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestLineEndingSubstitution(t *testing.T) {
	d := doc.Document{
		doc.Text("first"),
		doc.HardLine(),
		doc.Text("multi\nline"),
		doc.EmptyLine(),
		doc.Text("last"),
	}
	tests := []struct {
		ending LineEnding
		want   string
	}{
		{LineEndingLF, "first\nmulti\nline\n\nlast"},
		{LineEndingCRLF, "first\r\nmulti\r\nline\r\n\r\nlast"},
		{LineEndingCR, "first\rmulti\rline\r\rlast"},
	}
	for _, tt := range tests {
		t.Run(tt.ending.String(), func(t *testing.T) {
			if got := Print(d, Options{LineEnding: tt.ending}).Code; got != tt.want {
				t.Fatalf("want %q, got %q", tt.want, got)
			}
		})
	}
}

func TestEmptyLineHasNoTrailingWhitespace(t *testing.T) {
	d := doc.Document{
		doc.Text("{"),
		doc.Indent(doc.HardLine(), doc.Text("a"), doc.Space(), doc.EmptyLine(), doc.EmptyLine(), doc.Text("b")),
		doc.HardLine(),
		doc.Text("}"),
	}
	got := Print(d, Options{}).Code
	want := "{\n  a\n\n  b\n}"
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
	for i, line := range strings.Split(got, "\n") {
		if strings.TrimRight(line, " \t") != line {
			t.Fatalf("line %d has trailing whitespace: %q", i+1, line)
		}
	}
}

func TestEmptyLineAtStartIsDropped(t *testing.T) {
	d := doc.Document{doc.EmptyLine(), doc.Text("a")}
	if got := Print(d, Options{}).Code; got != "a" {
		t.Fatalf("want %q, got %q", "a", got)
	}
}

func TestSpaceHandling(t *testing.T) {
	tests := []struct {
		name string
		d    doc.Document
		want string
	}{
		{"column zero", doc.Document{doc.Space(), doc.Text("a")}, "a"},
		{"before newline", doc.Document{doc.Text("a"), doc.Space(), doc.HardLine(), doc.Text("b")}, "a\nb"},
		{"collapses", doc.Document{doc.Text("a"), doc.Space(), doc.Space(), doc.Text("b")}, "a b"},
		{"trailing", doc.Document{doc.Text("a"), doc.Space()}, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Print(tt.d, Options{}).Code; got != tt.want {
				t.Fatalf("want %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLineSuffixFlushesBeforeNewline(t *testing.T) {
	d := doc.Document{
		doc.Text("a"),
		doc.LineSuffix(doc.Space(), doc.Text("// one")),
		doc.LineSuffix(doc.Space(), doc.Text("// two")),
		doc.Text(","),
		doc.HardLine(),
		doc.Text("b"),
		doc.LineSuffix(doc.Space(), doc.Text("// end")),
	}
	got := Print(d, Options{}).Code
	want := "a, // one // two\nb // end"
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestLineSuffixExpandsGroup(t *testing.T) {
	d := doc.Document{
		doc.Group(
			doc.Text("["),
			doc.SoftBlockIndent(doc.Text("1"), doc.LineSuffix(doc.Space(), doc.Text("// c"))),
			doc.Text("]"),
		),
	}
	got := Print(d, Options{}).Code
	want := "[\n  1 // c\n]"
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestConditionalContent(t *testing.T) {
	flat := doc.Document{
		doc.Group(doc.Text("a"), doc.IfFlat(doc.Text("-flat")), doc.IfBreaks(doc.Text("-broken")), doc.SoftLine()),
	}
	if got := Print(flat, Options{}).Code; got != "a-flat" {
		t.Fatalf("flat: got %q", got)
	}

	broken := doc.Document{
		doc.Group(doc.Text("a"), doc.IfFlat(doc.Text("-flat")), doc.IfBreaks(doc.Text("-broken")), doc.HardLine(), doc.Text("b")),
	}
	if got := Print(broken, Options{}).Code; got != "a-broken\nb" {
		t.Fatalf("broken: got %q", got)
	}

	// Outside of any group the document is expanded.
	root := doc.Document{doc.IfBreaks(doc.Text("x")), doc.IfFlat(doc.Text("y"))}
	if got := Print(root, Options{}).Code; got != "x" {
		t.Fatalf("root: got %q", got)
	}
}

func TestNestedGroupBreaksIndependently(t *testing.T) {
	inner := doc.Group(
		doc.Text("("),
		doc.SoftBlockIndent(doc.Join(doc.List(doc.Text(","), doc.SoftLineOrSpace()), quoted("xxxxxxxx", "yyyyyyyy"))),
		doc.Text(")"),
	)
	outer := doc.Document{doc.Group(doc.Text("call"), inner)}
	got := Print(outer, Options{PrintWidth: 20}).Code
	want := "call(\n  \"xxxxxxxx\",\n  \"yyyyyyyy\"\n)"
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestTextAfterGroupCountsTowardWidth(t *testing.T) {
	sep := doc.List(doc.Text(","), doc.SoftLineOrSpace())
	items := []doc.Element{arrayDoc("a", "b")[0], doc.Text("x")}
	d := doc.Document{doc.Group(doc.Text("["), doc.SoftBlockIndent(doc.Join(sep, items)), doc.Text("]"))}

	// `  ["a", "b"],` needs 13 columns including the separator.
	if got, want := Print(d, Options{PrintWidth: 13}).Code, "[\n  [\"a\", \"b\"],\n  x\n]"; got != want {
		t.Fatalf("width 13: want %q, got %q", want, got)
	}
	res := Print(d, Options{PrintWidth: 12})
	if want := "[\n  [\n    \"a\",\n    \"b\",\n  ],\n  x\n]"; res.Code != want {
		t.Fatalf("width 12: want %q, got %q", want, res.Code)
	}
	for _, line := range strings.Split(res.Code, "\n") {
		if len(line) > 12 {
			t.Fatalf("line %q exceeds the width", line)
		}
	}
}

func TestTailMeasurementLeavesNoTrace(t *testing.T) {
	d := doc.Document{
		doc.Group(doc.SourceText("(", 0), doc.SoftLine(), doc.SourceText("a", 1), doc.SoftLine(), doc.SourceText(")", 2)),
		doc.SourceText("tail", 3),
		doc.HardLine(),
		doc.SourceText("next", 8),
	}
	res := Print(d, Options{PrintWidth: 80})
	if res.Code != "(a)tail\nnext" {
		t.Fatalf("unexpected code %q", res.Code)
	}
	if len(res.Markers) != 5 {
		t.Fatalf("expected 5 markers, got %+v", res.Markers)
	}
}

func TestBestFitting(t *testing.T) {
	variants := func() doc.Element {
		return doc.BestFitting(
			[]doc.Element{doc.Text("a very long variant")},
			[]doc.Element{doc.Text("short")},
			[]doc.Element{doc.Text("x"), doc.HardLine(), doc.Text("y")},
		)
	}
	tests := []struct {
		width uint16
		want  string
	}{
		{80, "a very long variant"},
		{10, "short"},
		{3, "x\ny"},
	}
	for _, tt := range tests {
		got := Print(doc.Document{variants()}, Options{PrintWidth: tt.width}).Code
		if got != tt.want {
			t.Fatalf("width %d: want %q, got %q", tt.width, tt.want, got)
		}
	}
}

func TestBestFittingInsideFlatGroup(t *testing.T) {
	d := doc.Document{
		doc.Group(
			doc.Text("["),
			doc.SoftBlockIndent(doc.BestFitting(
				[]doc.Element{doc.Text("wide-wide-wide")},
				[]doc.Element{doc.Text("w")},
			)),
			doc.Text("]"),
		),
	}
	if got := Print(d, Options{PrintWidth: 5}).Code; got != "[w]" {
		t.Fatalf("want %q, got %q", "[w]", got)
	}
}

func TestInternedContent(t *testing.T) {
	sep := doc.Intern(doc.Text(","), doc.SoftLineOrSpace())
	d := doc.Document{doc.Group(doc.Text("a"), doc.Ref(sep), doc.Text("b"), doc.Ref(sep), doc.Text("c"))}
	if got := Print(d, Options{}).Code; got != "a, b, c" {
		t.Fatalf("got %q", got)
	}

	breaking := doc.Intern(doc.Text(";"), doc.HardLine())
	d = doc.Document{doc.Group(doc.Text("a"), doc.Ref(breaking), doc.Text("b"), doc.Ref(breaking), doc.Text("c"))}
	if got := Print(d, Options{}).Code; got != "a;\nb;\nc" {
		t.Fatalf("got %q", got)
	}
}

func TestFailedAttemptLeavesNoTrace(t *testing.T) {
	items := []doc.Element{
		doc.SourceText(`"first"`, 1),
		doc.SourceText(`"second"`, 10),
		doc.SourceText(`"third"`, 20),
	}
	d := doc.Document{
		doc.Group(
			doc.SourceText("[", 0),
			doc.SoftBlockIndent(doc.Join(doc.List(doc.Text(","), doc.SoftLineOrSpace()), items)),
			doc.SourceText("]", 27),
		),
	}
	res := Print(d, Options{PrintWidth: 10})
	if len(res.Markers) != 5 {
		t.Fatalf("expected 5 markers, got %d: %+v", len(res.Markers), res.Markers)
	}
	texts := map[uint32]string{0: "[", 1: `"first"`, 10: `"second"`, 20: `"third"`, 27: "]"}
	for _, m := range res.Markers {
		if !strings.HasPrefix(res.Code[m.Dest:], texts[m.Source]) {
			t.Fatalf("marker %+v does not point at %q in %q", m, texts[m.Source], res.Code)
		}
	}
	if res.Stats.FlatRollbacks == 0 {
		t.Fatalf("expected at least one rollback, stats=%+v", res.Stats)
	}
}

func TestTranslateOffset(t *testing.T) {
	d := doc.Document{
		doc.SourceText("{", 0),
		doc.Indent(doc.HardLine(), doc.SourceText(`"k"`, 5)),
		doc.HardLine(),
		doc.SourceText("}", 12),
	}
	res := Print(d, Options{})
	if res.Code != "{\n  \"k\"\n}" {
		t.Fatalf("unexpected code %q", res.Code)
	}
	if off, ok := res.TranslateOffset(6); !ok || off != 5 {
		t.Fatalf("TranslateOffset(6) = %d, %v; want 5, true", off, ok)
	}
	if off, ok := res.TranslateOffset(12); !ok || off != 8 {
		t.Fatalf("TranslateOffset(12) = %d, %v; want 8, true", off, ok)
	}

	empty := Formatted{}
	if _, ok := empty.TranslateOffset(3); ok {
		t.Fatalf("expected no translation without markers")
	}
}

func TestTranslateOffsetStaysInsideOutput(t *testing.T) {
	// source "[1,   2]   " with the trailing blanks removed
	d := doc.Document{
		doc.SourceText("[", 0),
		doc.SourceText("1", 1),
		doc.Text(", "),
		doc.SourceText("2", 6),
		doc.SourceText("]", 7),
	}
	res := Print(d, Options{})
	if res.Code != "[1, 2]" {
		t.Fatalf("unexpected code %q", res.Code)
	}
	tests := []struct {
		src  uint32
		want uint32
	}{
		{1, 1},
		{3, 3},
		{5, 4}, // removed blank before "2"
		{7, 5},
		{10, 6},
		{1000, 6},
	}
	for _, tt := range tests {
		got, ok := res.TranslateOffset(tt.src)
		if !ok || got != tt.want {
			t.Errorf("TranslateOffset(%d) = %d, %v; want %d, true", tt.src, got, ok, tt.want)
		}
	}
}

func TestWideCharactersCountDisplayWidth(t *testing.T) {
	// Each CJK rune is two columns wide: six runes need twelve columns.
	d := doc.Document{doc.Group(doc.Text("日本語日本語"), doc.SoftLine(), doc.Text("x"))}
	if got := Print(d, Options{PrintWidth: 12}).Code; got != "日本語日本語\nx" {
		t.Fatalf("got %q", got)
	}
	if got := Print(d, Options{PrintWidth: 13}).Code; got != "日本語日本語x" {
		t.Fatalf("got %q", got)
	}
}

func TestDeepDocumentDoesNotRecurse(t *testing.T) {
	const depth = 50000
	e := doc.Text("x")
	for range depth {
		e = doc.Group(doc.Text("("), doc.SoftLine(), e, doc.SoftLine(), doc.Text(")"))
	}
	res := Print(doc.Document{e}, Options{PrintWidth: 80})
	if got := strings.Count(res.Code, "("); got != depth {
		t.Fatalf("expected %d open parens, got %d", depth, got)
	}
	if res.Stats.Lines < 2 {
		t.Fatalf("expected the outer groups to break, stats=%+v", res.Stats)
	}
}

func TestPrinterReuseIsIndependent(t *testing.T) {
	p := New(Options{PrintWidth: 19, IndentStyle: IndentTab})
	first := p.Print(arrayDoc("a", "b", "c", "d"))
	second := p.Print(arrayDoc("a", "b", "c", "d"))
	if first.Code != second.Code || len(first.Markers) != len(second.Markers) {
		t.Fatalf("outputs differ between runs: %q vs %q", first.Code, second.Code)
	}
}
