// Package printer turns a doc.Document into text.
//
// Traversal runs on an explicit stack of calls instead of recursion, so
// arbitrarily deep documents cannot exhaust the goroutine stack. A group is
// first printed optimistically in flat mode; if the attempt needs a line
// break or overflows the print width, the printer state is restored from a
// snapshot and the group is printed expanded.
package printer

import (
	"math"

	"quill/internal/doc"
)

// args is everything a queued element needs from its ancestors.
type args struct {
	indent uint16
	mode   doc.PrintMode
}

func (a args) indented() args {
	if a.indent < math.MaxUint16 {
		a.indent++
	}
	return a
}

func (a args) withMode(m doc.PrintMode) args {
	a.mode = m
	return a
}

type call struct {
	elem doc.Element
	args args
}

// Printer holds the per-call state. A Printer may be reused for several
// documents but not concurrently.
type Printer struct {
	opts     Options
	unit     string
	eol      string
	tabWidth uint32
	width    uint32

	state state
	queue []call
	flat  []call

	// breaks memoizes "will break" answers for interned content for the
	// duration of one Print call.
	breaks *doc.BreakChecker
	stats  Stats
}

// New creates a printer for opts.
func New(opts Options) *Printer {
	opts = opts.WithDefaults()
	return &Printer{
		opts:     opts,
		unit:     opts.IndentUnit(),
		eol:      opts.LineEnding.Sequence(),
		tabWidth: uint32(opts.TabWidth),
		width:    uint32(opts.PrintWidth),
	}
}

// Print formats d with opts.
func Print(d doc.Document, opts Options) Formatted {
	return New(opts).Print(d)
}

// Print formats d. Nothing survives between calls.
func (p *Printer) Print(d doc.Document) Formatted {
	p.state.reset(len(d) * 8)
	p.queue = p.queue[:0]
	p.flat = p.flat[:0]
	p.breaks = doc.NewBreakChecker()
	p.stats = Stats{}

	root := args{mode: doc.ModeExpanded}
	p.pushAll(d, root)
	for {
		p.drain()
		if len(p.state.lineSuffixes) == 0 {
			break
		}
		p.flushSuffixes()
	}

	if len(p.state.buf) > 0 {
		p.stats.Lines = int(p.state.generatedLine) + 1
	}
	markers := make([]SourceMarker, len(p.state.markers))
	copy(markers, p.state.markers)
	return Formatted{
		Code:    string(p.state.buf),
		Markers: markers,
		Stats:   p.stats,
	}
}

func (p *Printer) drain() {
	for len(p.queue) > 0 {
		c := p.queue[len(p.queue)-1]
		p.queue = p.queue[:len(p.queue)-1]
		p.printElement(c)
	}
}

// pushAll schedules elems so that elems[0] is processed next.
func (p *Printer) pushAll(elems []doc.Element, a args) {
	for i := len(elems) - 1; i >= 0; i-- {
		p.queue = append(p.queue, call{elem: elems[i], args: a})
	}
	if len(p.queue) > p.stats.MaxQueueDepth {
		p.stats.MaxQueueDepth = len(p.queue)
	}
}

// flushSuffixes moves queued line suffixes to the work queue in source order.
func (p *Printer) flushSuffixes() {
	suffixes := p.state.lineSuffixes
	for i := len(suffixes) - 1; i >= 0; i-- {
		p.queue = append(p.queue, suffixes[i])
	}
	p.state.lineSuffixes = p.state.lineSuffixes[:0]
}

func (p *Printer) printElement(c call) {
	e := c.elem
	switch e.Kind() {
	case doc.KindEmpty, doc.KindTag:
	case doc.KindSpace, doc.KindText:
		p.printLeaf(e)

	case doc.KindLine:
		// Flat content never reaches the queue, so every line here breaks.
		if len(p.state.lineSuffixes) > 0 {
			p.queue = append(p.queue, c)
			p.flushSuffixes()
			return
		}
		p.printNewline(e.LineMode(), c.args.indent)

	case doc.KindIndent:
		p.pushAll(e.Children(), c.args.indented())

	case doc.KindGroup:
		if !p.tryFlat(e.Children(), c.args) {
			p.pushAll(e.Children(), c.args.withMode(doc.ModeExpanded))
		}

	case doc.KindConditional:
		if e.Mode() == c.args.mode {
			p.pushAll(e.Children(), c.args)
		}

	case doc.KindLineSuffix:
		p.state.lineSuffixes = append(p.state.lineSuffixes, call{elem: doc.List(e.Children()...), args: c.args})

	case doc.KindList:
		p.pushAll(e.Children(), c.args)

	case doc.KindInterned:
		p.pushAll(e.Interned().Content(), c.args)

	case doc.KindBestFitting:
		variants := e.Children()
		for _, v := range variants {
			if p.tryFlat(v.Children(), c.args) {
				return
			}
		}
		p.pushAll(variants[len(variants)-1].Children(), c.args.withMode(doc.ModeExpanded))
	}
}

// printFlatLine renders a soft line in flat mode. It returns false for lines
// that must break.
func (p *Printer) printFlatLine(e doc.Element) bool {
	switch e.LineMode() {
	case doc.LineSoftOrSpace:
		if p.state.lineWidth > 0 {
			p.state.pendingSpace = true
		}
		return true
	case doc.LineSoft:
		return true
	default:
		return false
	}
}

// printNewline ends the current line. Pending indentation is applied lazily
// by the next text, so blank lines never carry trailing whitespace.
func (p *Printer) printNewline(mode doc.LineMode, indent uint16) {
	if p.state.lineWidth > 0 {
		p.state.writeString("\n", p.eol, p.tabWidth)
		p.state.blankLine = false
	}
	if mode == doc.LineEmpty && !p.state.blankLine && len(p.state.buf) > 0 {
		p.state.writeString("\n", p.eol, p.tabWidth)
		p.state.blankLine = true
	}
	p.state.pendingSpace = false
	p.state.pendingIndent = indent
}

func (p *Printer) printLeaf(e doc.Element) {
	switch e.Kind() {
	case doc.KindSpace:
		if p.state.lineWidth > 0 {
			p.state.pendingSpace = true
		}
	case doc.KindText:
		p.flushPending()
		if pos, ok := e.SourcePos(); ok {
			p.state.markers = append(p.state.markers, SourceMarker{Source: pos, Dest: p.state.offset()})
		}
		p.state.writeString(e.Text(), p.eol, p.tabWidth)
		p.state.blankLine = false
	}
}

func (p *Printer) flushPending() {
	for range p.state.pendingIndent {
		p.state.writeString(p.unit, p.eol, p.tabWidth)
	}
	p.state.pendingIndent = 0
	if p.state.pendingSpace {
		p.state.writeString(" ", p.eol, p.tabWidth)
		p.state.pendingSpace = false
	}
}
