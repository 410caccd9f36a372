package doc

import (
	"errors"
	"fmt"
)

// ErrUnbalanced reports a start tag without its end or an end tag without its start.
var ErrUnbalanced = errors.New("doc: unbalanced tags")

// TagKind names the container a tag opens or closes.
type TagKind uint8

const (
	TagGroup TagKind = iota + 1
	TagIndent
	TagConditional
	TagLineSuffix
)

func (k TagKind) String() string {
	switch k {
	case TagGroup:
		return "group"
	case TagIndent:
		return "indent"
	case TagConditional:
		return "conditional"
	case TagLineSuffix:
		return "line_suffix"
	default:
		return "unknown"
	}
}

// Tag marks the start or end of a container in a Buffer stream.
type Tag struct {
	Kind  TagKind
	Start bool
	Mode  PrintMode // only for TagConditional starts
}

// Name is the IR name of the container the tag belongs to.
func (t Tag) Name() string {
	if t.Kind == TagConditional {
		if t.Mode == ModeFlat {
			return "if_group_fits_on_line"
		}
		return "if_group_breaks"
	}
	return t.Kind.String()
}

// TagElement wraps a tag as an element.
func TagElement(t Tag) Element { return Element{kind: KindTag, tag: t} }

// Buffer is a linear document writer. Containers are opened and closed with
// tags; Finish assembles them.
type Buffer struct {
	stream []Element
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{stream: make([]Element, 0, 64)}
}

// Write appends elements to the stream.
func (b *Buffer) Write(elems ...Element) {
	for _, e := range elems {
		if e.kind == KindEmpty {
			continue
		}
		b.stream = append(b.stream, e)
	}
}

func (b *Buffer) StartGroup()      { b.Write(TagElement(Tag{Kind: TagGroup, Start: true})) }
func (b *Buffer) EndGroup()        { b.Write(TagElement(Tag{Kind: TagGroup})) }
func (b *Buffer) StartIndent()     { b.Write(TagElement(Tag{Kind: TagIndent, Start: true})) }
func (b *Buffer) EndIndent()       { b.Write(TagElement(Tag{Kind: TagIndent})) }
func (b *Buffer) StartLineSuffix() { b.Write(TagElement(Tag{Kind: TagLineSuffix, Start: true})) }
func (b *Buffer) EndLineSuffix()   { b.Write(TagElement(Tag{Kind: TagLineSuffix})) }

// StartConditional opens content shown only in the given mode.
func (b *Buffer) StartConditional(mode PrintMode) {
	b.Write(TagElement(Tag{Kind: TagConditional, Start: true, Mode: mode}))
}

// EndConditional closes the innermost conditional.
func (b *Buffer) EndConditional() { b.Write(TagElement(Tag{Kind: TagConditional})) }

// Len returns the number of stream entries written so far.
func (b *Buffer) Len() int { return len(b.stream) }

// Stream returns the raw tagged stream. Do not modify it.
func (b *Buffer) Stream() []Element { return b.stream }

// Finish assembles the stream into a nested document.
func (b *Buffer) Finish() (Document, error) {
	return Assemble(b.stream)
}

type openFrame struct {
	tag   Tag
	index int
	items []Element
}

// Assemble converts a tagged stream into a nested document. It fails on the
// first structural problem.
func Assemble(stream []Element) (Document, error) {
	root := make([]Element, 0, len(stream))
	var stack []openFrame

	appendItem := func(e Element) {
		if len(stack) == 0 {
			root = append(root, e)
			return
		}
		top := &stack[len(stack)-1]
		top.items = append(top.items, e)
	}

	for i, e := range stream {
		if e.kind != KindTag {
			appendItem(e)
			continue
		}
		if e.tag.Start {
			stack = append(stack, openFrame{tag: e.tag, index: i})
			continue
		}
		if len(stack) == 0 {
			return nil, fmt.Errorf("%w: end of %s at %d without start", ErrUnbalanced, e.tag.Kind, i)
		}
		top := stack[len(stack)-1]
		if top.tag.Kind != e.tag.Kind {
			return nil, fmt.Errorf("%w: expected end of %s (opened at %d), found end of %s at %d",
				ErrUnbalanced, top.tag.Kind, top.index, e.tag.Kind, i)
		}
		stack = stack[:len(stack)-1]
		appendItem(closeFrame(top))
	}

	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return nil, fmt.Errorf("%w: %s opened at %d is never closed", ErrUnbalanced, top.tag.Kind, top.index)
	}
	return Document(root), nil
}

func closeFrame(f openFrame) Element {
	switch f.tag.Kind {
	case TagGroup:
		return Group(f.items...)
	case TagIndent:
		return Indent(f.items...)
	case TagConditional:
		return Conditional(f.tag.Mode, f.items...)
	case TagLineSuffix:
		return LineSuffix(f.items...)
	default:
		return List(f.items...)
	}
}
