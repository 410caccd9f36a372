package printer

import "quill/internal/doc"

// tryFlat prints content with every soft line collapsed. On success the
// output is committed. On failure the state is restored to the snapshot and
// false is returned; nothing printed during the attempt survives.
//
// The attempt fails on a hard or empty line, on a line suffix, when the line
// grows past the print width, or when any real newline gets written. A
// top-level attempt also fails when the text queued after the group does not
// fit before the next line break.
func (p *Printer) tryFlat(content []doc.Element, a args) bool {
	p.stats.FlatAttempts++
	snap := p.state.snapshot()
	base := len(p.flat)
	p.pushFlat(content, a.withMode(doc.ModeFlat))

	for len(p.flat) > base {
		c := p.flat[len(p.flat)-1]
		p.flat = p.flat[:len(p.flat)-1]

		ok := p.printFlat(c)
		if ok && p.state.lineWidth <= p.width && p.state.generatedLine == snap.line {
			continue
		}
		p.flat = p.flat[:base]
		p.state.restore(snap)
		p.stats.FlatRollbacks++
		return false
	}
	if base == 0 && !p.tailFits() {
		p.state.restore(snap)
		p.stats.FlatRollbacks++
		return false
	}
	return true
}

// tailFits prints the queued elements that follow a flat group until the
// first line break and reports whether the line stayed within the width.
// Everything printed here is discarded.
func (p *Printer) tailFits() bool {
	snap := p.state.snapshot()
	defer func() {
		p.flat = p.flat[:0]
		p.state.restore(snap)
	}()
	for i := len(p.queue) - 1; i >= 0; i-- {
		p.flat = append(p.flat, p.queue[i])
		for len(p.flat) > 0 {
			c := p.flat[len(p.flat)-1]
			p.flat = p.flat[:len(p.flat)-1]
			if p.measureTail(c) {
				return true
			}
			if p.state.lineWidth > p.width {
				return false
			}
			if p.state.generatedLine != snap.line {
				return true
			}
		}
	}
	return true
}

// measureTail handles one element after a flat group and reports whether a
// line break was reached. Queued groups are measured expanded: that is the
// shortest they can get.
func (p *Printer) measureTail(c call) bool {
	e := c.elem
	switch e.Kind() {
	case doc.KindLine:
		return c.args.mode != doc.ModeFlat || !p.printFlatLine(e)

	case doc.KindGroup, doc.KindList:
		p.pushFlat(e.Children(), c.args)

	case doc.KindIndent:
		p.pushFlat(e.Children(), c.args.indented())

	case doc.KindConditional:
		if e.Mode() == c.args.mode {
			p.pushFlat(e.Children(), c.args)
		}

	case doc.KindLineSuffix:
		// printed at the line end, may overflow

	case doc.KindInterned:
		p.pushFlat(e.Interned().Content(), c.args)

	case doc.KindBestFitting:
		variants := e.Children()
		p.pushFlat(variants[len(variants)-1].Children(), c.args.withMode(doc.ModeExpanded))

	default:
		p.printLeaf(e)
	}
	return false
}

func (p *Printer) pushFlat(elems []doc.Element, a args) {
	for i := len(elems) - 1; i >= 0; i-- {
		p.flat = append(p.flat, call{elem: elems[i], args: a})
	}
	if depth := len(p.queue) + len(p.flat); depth > p.stats.MaxQueueDepth {
		p.stats.MaxQueueDepth = depth
	}
}

// printFlat handles one element of a flat attempt and reports whether the
// attempt can go on.
func (p *Printer) printFlat(c call) bool {
	e := c.elem
	switch e.Kind() {
	case doc.KindLine:
		return p.printFlatLine(e)

	case doc.KindGroup, doc.KindList:
		p.pushFlat(e.Children(), c.args)

	case doc.KindIndent:
		p.pushFlat(e.Children(), c.args.indented())

	case doc.KindConditional:
		if e.Mode() == doc.ModeFlat {
			p.pushFlat(e.Children(), c.args)
		}

	case doc.KindLineSuffix:
		return false

	case doc.KindInterned:
		// Shared content is measured once per print call.
		if p.breaks.WillBreak(e) {
			return false
		}
		p.pushFlat(e.Interned().Content(), c.args)

	case doc.KindBestFitting:
		for _, v := range e.Children() {
			if p.tryFlat(v.Children(), c.args) {
				return true
			}
		}
		return false

	default:
		p.printLeaf(e)
	}
	return true
}
