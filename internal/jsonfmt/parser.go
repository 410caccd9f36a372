package jsonfmt

import (
	"fmt"

	"quill/internal/diag"
	"quill/internal/source"
)

// DefaultMaxDepth bounds array/object nesting.
const DefaultMaxDepth = 512

// NodeKind says which shape a Node has.
type NodeKind uint8

const (
	NodeScalar NodeKind = iota
	NodeArray
	NodeObject
)

// Node is a parsed value. Scalars only use Tok; containers keep their
// brackets so the comments attached to them survive formatting.
type Node struct {
	Kind  NodeKind
	Tok   Token // the scalar, or the opening bracket
	Close Token // closing bracket; its leading comments dangle after the last item
	Items []Item
}

// Item is an array element or an object member.
type Item struct {
	Key   *Token // objects only
	Colon *Token // objects only
	Value *Node
	Comma *Token // separator that followed the item in the source, if any
}

// First returns the first token of the item.
func (it *Item) First() *Token {
	if it.Key != nil {
		return it.Key
	}
	return &it.Value.Tok
}

// File is a parsed input: at most one top-level value plus the comments
// after it.
type File struct {
	Source *source.File
	Value  *Node // nil for input that holds only comments
	EOF    Token
}

type parser struct {
	toks     []Token
	pos      int
	report   diag.Reporter
	maxDepth int
	depth    int
	abort    bool
}

// Parse lexes and parses file. It always returns a File; the error count
// says whether it can be trusted for formatting.
func Parse(file *source.File, maxDepth int, r diag.Reporter) (*File, int) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	counting := &diag.CountingReporter{Next: diag.NewDedupReporter(r)}
	p := &parser{
		toks:     Lex(file, counting),
		report:   counting,
		maxDepth: maxDepth,
	}
	out := &File{Source: file}
	if p.peek().Kind != EOF {
		out.Value = p.parseValue()
	}
	// всё после значения верхнего уровня: ошибка, пропускаем до EOF
	if !p.abort && p.peek().Kind != EOF {
		p.errorf(diag.SynTrailingContent, p.peek().Span, "unexpected %s after top-level value", p.peek().Kind)
	}
	for p.peek().Kind != EOF {
		p.bump()
	}
	out.EOF = *p.bump()
	return out, counting.Errors
}

func (p *parser) peek() *Token {
	return &p.toks[p.pos]
}

// bump consumes the current token. EOF is never consumed past.
func (p *parser) bump() *Token {
	t := &p.toks[p.pos]
	if t.Kind != EOF {
		p.pos++
	}
	return t
}

func (p *parser) parseValue() *Node {
	t := p.peek()
	switch {
	case t.Kind.IsScalar():
		return &Node{Kind: NodeScalar, Tok: *p.bump()}
	case t.Kind == LBracket:
		return p.parseContainer(NodeArray)
	case t.Kind == LBrace:
		return p.parseContainer(NodeObject)
	case t.Kind == Invalid:
		// already reported by the lexer; keep it so nothing is lost
		return &Node{Kind: NodeScalar, Tok: *p.bump()}
	}
	p.errorf(diag.SynExpectValue, t.Span, "expected value, found %s", t.Kind)
	return nil
}

func (p *parser) parseContainer(kind NodeKind) *Node {
	open := p.bump()
	closeKind, unclosed := RBracket, diag.SynUnclosedBracket
	if kind == NodeObject {
		closeKind, unclosed = RBrace, diag.SynUnclosedBrace
	}
	n := &Node{Kind: kind, Tok: *open}

	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.maxDepth {
		p.errorf(diag.SynNestingTooDeep, open.Span, "nesting deeper than %d levels", p.maxDepth)
		p.abort = true
		return n
	}

	for !p.abort {
		t := p.peek()
		if t.Kind == closeKind {
			n.Close = *p.bump()
			return n
		}
		if t.Kind == EOF {
			diag.ReportError(p.report, unclosed, t.Span, fmt.Sprintf("expected %s before end of file", closeKind)).
				WithNote(open.Span, "opened here").
				Emit()
			n.Close = Token{Kind: closeKind, Span: t.Span}
			return n
		}

		start := p.pos
		item, ok := p.parseItem(kind)
		if p.abort {
			break
		}
		if ok {
			n.Items = append(n.Items, item)
		} else {
			p.recover()
		}

		switch next := p.peek(); next.Kind {
		case Comma:
			if ok {
				n.Items[len(n.Items)-1].Comma = p.bump()
			} else {
				p.bump()
			}
		case closeKind, EOF:
		default:
			if ok {
				p.errorf(diag.SynMissingSeparator, next.Span, "expected ',' or %s, found %s", closeKind, next.Kind)
			}
			if p.pos == start {
				// no progress: drop the offending token
				p.bump()
			}
		}
	}
	return n
}

func (p *parser) parseItem(kind NodeKind) (Item, bool) {
	if kind == NodeArray {
		v := p.parseValue()
		return Item{Value: v}, v != nil
	}

	key := p.peek()
	if key.Kind != String {
		p.errorf(diag.SynExpectKey, key.Span, "expected string key, found %s", key.Kind)
		return Item{}, false
	}
	p.bump()
	colon := p.peek()
	if colon.Kind != Colon {
		p.errorf(diag.SynExpectColon, colon.Span, "expected ':' after key, found %s", colon.Kind)
		return Item{}, false
	}
	p.bump()
	v := p.parseValue()
	if v == nil {
		return Item{}, false
	}
	return Item{Key: key, Colon: colon, Value: v}, true
}

// recover skips the rest of a broken item: everything up to the next ','
// or closing bracket of the current container.
func (p *parser) recover() {
	depth := 0
	for {
		switch p.peek().Kind {
		case EOF:
			return
		case LBracket, LBrace:
			depth++
		case RBracket, RBrace:
			if depth == 0 {
				return
			}
			depth--
		case Comma:
			if depth == 0 {
				return
			}
		}
		p.bump()
	}
}

func (p *parser) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.ReportError(p.report, code, sp, fmt.Sprintf(format, args...)).Emit()
}
