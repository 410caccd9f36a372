// Package irfmt renders formatting documents in a readable nested-array
// notation for tests and tooling. The notation is itself laid out with the
// printer, so large documents stay readable.
//
// Structurally broken tag streams are rendered with inline markers instead
// of failing:
//
//	ERROR<expected end of group, found end of indent>
//	<END_SIGNAL_WITHOUT_START<indent>>
//	<START_WITHOUT_END<group>>
package irfmt

import (
	"fmt"
	"strconv"

	"quill/internal/doc"
	"quill/internal/printer"
)

// Options used to lay out the IR text.
var layout = printer.Options{IndentStyle: printer.IndentSpace, IndentWidth: 2, PrintWidth: 80}

// Render renders a well-nested document.
func Render(d doc.Document) string {
	return render(d)
}

// RenderStream renders a tagged Buffer stream, marking unbalanced tags inline.
func RenderStream(stream []doc.Element) string {
	return render(stream)
}

type outFrame struct {
	prefix string
	suffix string
	items  []doc.Element
	isTag  bool
	tag    doc.Tag
}

type srcFrame struct {
	src []doc.Element
	idx int
	out int
}

type renderer struct {
	outs     []outFrame
	srcs     []srcFrame
	interned map[*doc.Interned]int
}

func render(root []doc.Element) string {
	r := &renderer{interned: make(map[*doc.Interned]int)}
	r.outs = append(r.outs, outFrame{prefix: "[", suffix: "]"})
	r.srcs = append(r.srcs, srcFrame{src: root, out: 0})

	var result doc.Element
	for len(r.srcs) > 0 {
		top := &r.srcs[len(r.srcs)-1]
		if top.idx < len(top.src) {
			e := top.src[top.idx]
			top.idx++
			r.visit(e, top.out)
			continue
		}
		own := top.out
		r.srcs = r.srcs[:len(r.srcs)-1]
		r.closeDangling(own)
		closed := r.pop()
		if len(r.outs) == 0 {
			result = closed
			break
		}
		r.appendItem(closed)
	}
	return printer.Print(doc.Document{result}, layout).Code
}

func (r *renderer) visit(e doc.Element, own int) {
	switch e.Kind() {
	case doc.KindTag:
		r.visitTag(e.Tag(), own)
	case doc.KindIndent:
		r.open("indent([", "])", e.Children())
	case doc.KindGroup:
		r.open("group([", "])", e.Children())
	case doc.KindConditional:
		if e.Mode() == doc.ModeFlat {
			r.open("if_group_fits_on_line([", "])", e.Children())
		} else {
			r.open("if_group_breaks([", "])", e.Children())
		}
	case doc.KindLineSuffix:
		r.open("line_suffix([", "])", e.Children())
	case doc.KindList:
		r.open("[", "]", e.Children())
	case doc.KindBestFitting:
		r.open("best_fitting(", ")", e.Children())
	case doc.KindInterned:
		if id, ok := r.interned[e.Interned()]; ok {
			r.appendItem(doc.Text(fmt.Sprintf("<ref interned *%d>", id)))
			return
		}
		id := len(r.interned)
		r.interned[e.Interned()] = id
		r.open(fmt.Sprintf("<interned %d>[", id), "]", e.Interned().Content())
	default:
		r.appendItem(doc.Text(leafName(e)))
	}
}

func (r *renderer) visitTag(t doc.Tag, own int) {
	if t.Start {
		r.outs = append(r.outs, outFrame{prefix: t.Name() + "([", suffix: "])", isTag: true, tag: t})
		return
	}
	if len(r.outs)-1 == own {
		r.appendItem(doc.Text(fmt.Sprintf("<END_SIGNAL_WITHOUT_START<%s>>", t.Kind)))
		return
	}
	top := r.outs[len(r.outs)-1]
	if top.tag.Kind != t.Kind {
		r.appendItem(doc.Text(fmt.Sprintf("ERROR<expected end of %s, found end of %s>", top.tag.Kind, t.Kind)))
		return
	}
	r.appendItem(r.pop())
}

// closeDangling closes tag frames opened inside the source frame that owns
// out frame own and were never ended.
func (r *renderer) closeDangling(own int) {
	for len(r.outs)-1 > own {
		top := &r.outs[len(r.outs)-1]
		top.items = append(top.items, doc.Text(fmt.Sprintf("<START_WITHOUT_END<%s>>", top.tag.Kind)))
		r.appendItem(r.pop())
	}
}

func (r *renderer) open(prefix, suffix string, children []doc.Element) {
	r.outs = append(r.outs, outFrame{prefix: prefix, suffix: suffix})
	r.srcs = append(r.srcs, srcFrame{src: children, out: len(r.outs) - 1})
}

// pop removes the top out frame and lays it out as a group.
func (r *renderer) pop() doc.Element {
	f := r.outs[len(r.outs)-1]
	r.outs = r.outs[:len(r.outs)-1]
	if len(f.items) == 0 {
		return doc.Text(f.prefix + f.suffix)
	}
	sep := doc.List(doc.Text(","), doc.SoftLineOrSpace())
	return doc.Group(
		doc.Text(f.prefix),
		doc.SoftBlockIndent(doc.Join(sep, f.items)),
		doc.Text(f.suffix),
	)
}

func (r *renderer) appendItem(e doc.Element) {
	top := &r.outs[len(r.outs)-1]
	top.items = append(top.items, e)
}

func leafName(e doc.Element) string {
	switch e.Kind() {
	case doc.KindEmpty:
		return "empty"
	case doc.KindSpace:
		return "space"
	case doc.KindText:
		return strconv.Quote(e.Text())
	case doc.KindLine:
		switch e.LineMode() {
		case doc.LineSoft:
			return "soft_line_break"
		case doc.LineSoftOrSpace:
			return "soft_line_break_or_space"
		case doc.LineHard:
			return "hard_line_break"
		case doc.LineEmpty:
			return "empty_line"
		}
	}
	return "<" + e.Kind().String() + ">"
}
