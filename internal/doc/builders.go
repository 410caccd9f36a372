package doc

// Empty produces no output.
func Empty() Element { return Element{} }

// Space is a single space, materialized only before real content on the same line.
func Space() Element { return Element{kind: KindSpace} }

// Text is a literal string. An empty string yields Empty.
func Text(s string) Element {
	if s == "" {
		return Empty()
	}
	return Element{kind: KindText, text: s}
}

// SourceText is a literal copied from the given source offset; the printer
// records a source marker for it.
func SourceText(s string, pos uint32) Element {
	if s == "" {
		return Empty()
	}
	return Element{kind: KindText, text: s, srcPos: pos, hasSrc: true}
}

// Line is a candidate line break in the given mode.
func Line(mode LineMode) Element { return Element{kind: KindLine, line: mode} }

// SoftLine renders as nothing when flat.
func SoftLine() Element { return Line(LineSoft) }

// SoftLineOrSpace renders as a space when flat.
func SoftLineOrSpace() Element { return Line(LineSoftOrSpace) }

// HardLine always breaks.
func HardLine() Element { return Line(LineHard) }

// EmptyLine breaks and leaves one blank line.
func EmptyLine() Element { return Line(LineEmpty) }

// Indent increases the indentation of every line break inside content.
func Indent(content ...Element) Element {
	children := flatten(content)
	if len(children) == 0 {
		return Empty()
	}
	return Element{kind: KindIndent, children: children}
}

// Group is printed flat when it fits, expanded otherwise.
func Group(content ...Element) Element {
	children := flatten(content)
	if len(children) == 0 {
		return Empty()
	}
	return Element{kind: KindGroup, children: children}
}

// Conditional renders content only when the enclosing group resolved to mode.
func Conditional(mode PrintMode, content ...Element) Element {
	children := flatten(content)
	if len(children) == 0 {
		return Empty()
	}
	return Element{kind: KindConditional, mode: mode, children: children}
}

// IfBreaks shows content only when the enclosing group is expanded.
func IfBreaks(content ...Element) Element { return Conditional(ModeExpanded, content...) }

// IfFlat shows content only when the enclosing group fits on one line.
func IfFlat(content ...Element) Element { return Conditional(ModeFlat, content...) }

// LineSuffix defers content until right before the next newline.
func LineSuffix(content ...Element) Element {
	children := flatten(content)
	if len(children) == 0 {
		return Empty()
	}
	return Element{kind: KindLineSuffix, children: children}
}

// List concatenates elements. Nested lists are flattened, empty elements
// dropped, and a single remaining element is returned as is.
func List(elems ...Element) Element {
	children := flatten(elems)
	switch len(children) {
	case 0:
		return Empty()
	case 1:
		return children[0]
	default:
		return Element{kind: KindList, children: children}
	}
}

// BestFitting holds alternative renderings of the same content, tried in
// order. The last variant is the fallback.
func BestFitting(variants ...[]Element) Element {
	children := make([]Element, 0, len(variants))
	for _, v := range variants {
		children = append(children, Element{kind: KindList, children: flatten(v)})
	}
	switch len(children) {
	case 0:
		return Empty()
	case 1:
		return children[0]
	default:
		return Element{kind: KindBestFitting, children: children}
	}
}

// Intern wraps content in a shareable handle.
func Intern(content ...Element) *Interned {
	return &Interned{content: flatten(content)}
}

// Ref references a shared sub-document.
func Ref(i *Interned) Element {
	if i == nil {
		return Empty()
	}
	return Element{kind: KindInterned, interned: i}
}

// Join places sep between elements, skipping empty ones.
func Join(sep Element, elems []Element) Element {
	out := make([]Element, 0, len(elems)*2)
	for _, e := range elems {
		if e.IsEmpty() {
			continue
		}
		if len(out) > 0 {
			out = append(out, sep)
		}
		out = append(out, e)
	}
	return List(out...)
}

// SoftBlockIndent puts content on its own indented lines when the enclosing
// group expands and keeps it inline otherwise.
func SoftBlockIndent(content ...Element) Element {
	inner := List(content...)
	if inner.IsEmpty() {
		return Empty()
	}
	return List(Indent(SoftLine(), inner), SoftLine())
}

// SoftSpaceBlockIndent is SoftBlockIndent with spaces inside the delimiters when flat.
func SoftSpaceBlockIndent(content ...Element) Element {
	inner := List(content...)
	if inner.IsEmpty() {
		return Empty()
	}
	return List(Indent(SoftLineOrSpace(), inner), SoftLineOrSpace())
}

// BlockIndent always puts content on its own indented lines.
func BlockIndent(content ...Element) Element {
	inner := List(content...)
	if inner.IsEmpty() {
		return Empty()
	}
	return List(Indent(HardLine(), inner), HardLine())
}

func flatten(elems []Element) []Element {
	out := make([]Element, 0, len(elems))
	for _, e := range elems {
		switch e.kind {
		case KindEmpty:
			continue
		case KindList:
			out = append(out, e.children...)
		default:
			out = append(out, e)
		}
	}
	return out
}
