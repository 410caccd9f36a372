package doc

import "strings"

// BreakChecker answers whether content can never be printed flat. It keeps a
// memo of Interned results, so one checker should live for one print run
// (or one front-end pass) and must not be shared between goroutines.
type BreakChecker struct {
	memo map[*Interned]bool
	seen map[*Interned]struct{}
	work []Element
}

// NewBreakChecker creates a checker with an empty memo.
func NewBreakChecker() *BreakChecker {
	return &BreakChecker{
		memo: make(map[*Interned]bool),
		seen: make(map[*Interned]struct{}),
	}
}

// WillBreak reports whether any of elems contains a hard or empty line, a
// line suffix or multi-line text outside of IfBreaks content. A BestFitting
// breaks only if every variant breaks.
func (c *BreakChecker) WillBreak(elems ...Element) bool {
	if len(elems) == 1 && elems[0].kind == KindInterned {
		if v, ok := c.memo[elems[0].interned]; ok {
			return v
		}
	}
	clear(c.seen)
	base := len(c.work)
	defer func() { c.work = c.work[:base] }()

	for i := len(elems) - 1; i >= 0; i-- {
		c.work = append(c.work, elems[i])
	}

	for len(c.work) > base {
		e := c.work[len(c.work)-1]
		c.work = c.work[:len(c.work)-1]

		switch e.kind {
		case KindLine:
			if e.line == LineHard || e.line == LineEmpty {
				return c.done(elems, true)
			}
		case KindText:
			if strings.ContainsRune(e.text, '\n') {
				return c.done(elems, true)
			}
		case KindLineSuffix:
			return c.done(elems, true)
		case KindConditional:
			if e.mode == ModeExpanded {
				continue
			}
			c.push(e.children)
		case KindIndent, KindGroup, KindList:
			c.push(e.children)
		case KindBestFitting:
			if c.allVariantsBreak(e.children) {
				return c.done(elems, true)
			}
		case KindInterned:
			if v, ok := c.memo[e.interned]; ok {
				if v {
					return c.done(elems, true)
				}
				continue
			}
			if _, ok := c.seen[e.interned]; ok {
				continue
			}
			c.seen[e.interned] = struct{}{}
			c.push(e.interned.content)
		}
	}
	return c.done(elems, false)
}

func (c *BreakChecker) push(children []Element) {
	for i := len(children) - 1; i >= 0; i-- {
		c.work = append(c.work, children[i])
	}
}

// allVariantsBreak checks variants with a fresh traversal each; nesting of
// best-fitting elements is shallow in practice.
func (c *BreakChecker) allVariantsBreak(variants []Element) bool {
	saved := c.seen
	defer func() { c.seen = saved }()
	for _, v := range variants {
		c.seen = make(map[*Interned]struct{})
		if !c.WillBreak(v) {
			return false
		}
	}
	return true
}

// done records memo entries. A negative answer clears every handle visited
// during the check; a positive one is only known for a top-level handle.
func (c *BreakChecker) done(elems []Element, breaks bool) bool {
	if !breaks {
		for i := range c.seen {
			c.memo[i] = false
		}
	}
	if len(elems) == 1 && elems[0].kind == KindInterned {
		c.memo[elems[0].interned] = breaks
	}
	return breaks
}

// WillBreak is a one-shot check with its own memo.
func WillBreak(elems ...Element) bool {
	return NewBreakChecker().WillBreak(elems...)
}
