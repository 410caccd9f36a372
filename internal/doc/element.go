package doc

// Kind identifies the variant of an Element.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindSpace
	KindText
	KindLine
	KindIndent
	KindGroup
	KindConditional
	KindLineSuffix
	KindList
	KindBestFitting
	KindInterned
	// KindTag only appears in Buffer streams; the printer ignores it.
	KindTag
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindSpace:
		return "space"
	case KindText:
		return "text"
	case KindLine:
		return "line"
	case KindIndent:
		return "indent"
	case KindGroup:
		return "group"
	case KindConditional:
		return "conditional"
	case KindLineSuffix:
		return "line_suffix"
	case KindList:
		return "list"
	case KindBestFitting:
		return "best_fitting"
	case KindInterned:
		return "interned"
	case KindTag:
		return "tag"
	default:
		return "unknown"
	}
}

// LineMode selects how a candidate line break renders.
type LineMode uint8

const (
	// LineSoftOrSpace is a space when flat and a newline when expanded.
	LineSoftOrSpace LineMode = iota
	// LineSoft is nothing when flat and a newline when expanded.
	LineSoft
	// LineHard is always a newline and forces the enclosing group to expand.
	LineHard
	// LineEmpty is a newline followed by a blank line.
	LineEmpty
)

func (m LineMode) String() string {
	switch m {
	case LineSoftOrSpace:
		return "soft_or_space"
	case LineSoft:
		return "soft"
	case LineHard:
		return "hard"
	case LineEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// PrintMode is the resolved state of a group.
type PrintMode uint8

const (
	ModeExpanded PrintMode = iota
	ModeFlat
)

func (m PrintMode) String() string {
	if m == ModeFlat {
		return "flat"
	}
	return "expanded"
}

// Element is one layout instruction. The zero value is Empty.
//
// Elements are immutable once built; copying one is cheap because children
// and text are shared.
type Element struct {
	kind     Kind
	line     LineMode
	mode     PrintMode
	hasSrc   bool
	srcPos   uint32
	text     string
	children []Element
	interned *Interned
	tag      Tag
}

// Document is the printer's input. Insertion order is significant.
type Document []Element

// Interned is a shared handle to a sub-document. Two Ref elements pointing
// at the same *Interned denote the same logical node.
type Interned struct {
	content []Element
}

// Content returns the shared elements.
func (i *Interned) Content() []Element {
	if i == nil {
		return nil
	}
	return i.content
}

// Kind returns the element variant.
func (e Element) Kind() Kind { return e.kind }

// Text returns the literal of a Text element.
func (e Element) Text() string { return e.text }

// SourcePos returns the source offset a Text element was copied from.
func (e Element) SourcePos() (uint32, bool) { return e.srcPos, e.hasSrc }

// LineMode returns the mode of a Line element.
func (e Element) LineMode() LineMode { return e.line }

// Mode returns the print mode a conditional element is shown in.
func (e Element) Mode() PrintMode { return e.mode }

// Children returns the content of a container element. For BestFitting the
// children are the variants, each a List.
func (e Element) Children() []Element { return e.children }

// Interned returns the handle of a Ref element.
func (e Element) Interned() *Interned { return e.interned }

// Tag returns the tag of a KindTag element.
func (e Element) Tag() Tag { return e.tag }

// IsEmpty reports whether the element produces no output at all.
func (e Element) IsEmpty() bool {
	switch e.kind {
	case KindEmpty:
		return true
	case KindList:
		return len(e.children) == 0
	}
	return false
}
