package jsonfmt

import (
	"quill/internal/doc"
)

type builder struct {
	buf  *doc.Buffer
	opts Options
	sep  *doc.Interned // "," soft_line_or_space, shared by every container
}

// Build writes the document for f into a tagged buffer. f must come from
// an error-free parse.
func Build(f *File, opts Options) *doc.Buffer {
	b := &builder{
		buf:  doc.NewBuffer(),
		opts: opts,
		sep:  doc.Intern(doc.Text(","), doc.SoftLineOrSpace()),
	}
	wrote := false
	if f.Value != nil {
		b.writeNode(f.Value, false)
		wrote = true
	}
	for j, c := range f.EOF.Leading {
		if wrote {
			b.buf.Write(breakBefore(j == 0 || f.EOF.Leading[j-1].Kind == BlockComment, c.NewlinesBefore))
		}
		b.buf.Write(doc.SourceText(c.Text, c.Span.Start))
		wrote = true
	}
	if wrote {
		b.buf.Write(doc.HardLine())
	}
	return b.buf
}

// breakBefore picks the separator in front of a comment that starts after
// other output. A line comment before it, or any line break in the source,
// forces a new line; two or more keep one blank line.
func breakBefore(prevBlock bool, newlines int) doc.Element {
	switch {
	case newlines >= 2:
		return doc.EmptyLine()
	case newlines >= 1 || !prevBlock:
		return doc.HardLine()
	default:
		return doc.Space()
	}
}

func (b *builder) writeNode(n *Node, inline bool) {
	b.writeLeading(&n.Tok, inline)
	if n.Kind == NodeScalar {
		b.writeText(&n.Tok)
		return
	}

	pad := doc.SoftLine()
	if n.Kind == NodeObject {
		pad = doc.SoftLineOrSpace()
	}
	dangling := n.Close.Leading

	b.buf.StartGroup()
	b.writeText(&n.Tok)
	if len(n.Items) > 0 || len(dangling) > 0 {
		b.buf.StartIndent()
		b.buf.Write(pad)
		for i := range n.Items {
			item := &n.Items[i]
			if i > 0 {
				b.buf.Write(doc.Ref(b.sep))
				if item.First().FirstNewlines() >= 2 {
					b.buf.Write(doc.EmptyLine())
				}
			}
			b.writeItem(item)
		}
		if len(n.Items) > 0 && b.opts.TrailingCommas == TrailingAll {
			b.buf.StartConditional(doc.ModeExpanded)
			b.buf.Write(doc.Text(","))
			b.buf.EndConditional()
		}
		b.writeDangling(dangling, len(n.Items) > 0, n.Close.NewlinesBefore)
		b.buf.EndIndent()
		b.buf.Write(pad)
	}
	b.writeText(&n.Close)
	b.buf.EndGroup()
}

func (b *builder) writeItem(item *Item) {
	if item.Key == nil {
		b.writeNode(item.Value, false)
	} else {
		b.writeLeading(item.Key, false)
		b.writeText(item.Key)
		b.writeLeading(item.Colon, true)
		b.writeText(item.Colon)
		b.buf.Write(doc.Space())
		b.writeNode(item.Value, true)
	}
	if c := item.Comma; c != nil {
		// the separator is printed by the container; only its comments move
		for _, lc := range c.Leading {
			b.writeInlineComment(lc)
		}
		b.writeTrailing(c.Trailing)
	}
}

// writeDangling prints comments between the last item and the closing
// bracket.
func (b *builder) writeDangling(cs []Comment, afterItems bool, closeNewlines int) {
	for j, c := range cs {
		if afterItems || j > 0 {
			b.buf.Write(breakBefore(j == 0 || cs[j-1].Kind == BlockComment, c.NewlinesBefore))
		}
		b.buf.Write(doc.SourceText(c.Text, c.Span.Start))
	}
	if n := len(cs); n > 0 && (cs[n-1].Kind == LineComment || closeNewlines > 0) {
		b.buf.Write(doc.HardLine())
	}
}

// writeLeading prints the comments in front of t. At the start of an item
// they keep their own lines; after a colon they stay on the member's line.
func (b *builder) writeLeading(t *Token, inline bool) {
	if inline {
		for _, c := range t.Leading {
			b.writeInlineComment(c)
		}
		if len(t.Leading) > 0 && t.Leading[len(t.Leading)-1].Kind == BlockComment {
			b.buf.Write(doc.Space())
		}
		return
	}
	for i, c := range t.Leading {
		b.buf.Write(doc.SourceText(c.Text, c.Span.Start))
		next := t.NewlinesBefore
		if i+1 < len(t.Leading) {
			next = t.Leading[i+1].NewlinesBefore
		}
		b.buf.Write(breakBefore(c.Kind == BlockComment, next))
	}
}

// writeInlineComment keeps a block comment in place and moves a line
// comment to the end of the line.
func (b *builder) writeInlineComment(c Comment) {
	if c.Kind == LineComment {
		b.writeTrailing([]Comment{c})
		return
	}
	b.buf.Write(doc.Space(), doc.SourceText(c.Text, c.Span.Start))
}

// writeText prints the token and the comments trailing it.
func (b *builder) writeText(t *Token) {
	b.buf.Write(doc.SourceText(t.Text, t.Span.Start))
	b.writeTrailing(t.Trailing)
}

func (b *builder) writeTrailing(cs []Comment) {
	for _, c := range cs {
		b.buf.StartLineSuffix()
		b.buf.Write(doc.Space(), doc.SourceText(c.Text, c.Span.Start))
		b.buf.EndLineSuffix()
	}
}
