package jsonfmt

import (
	"fmt"

	"fortio.org/safecast"

	"quill/internal/source"
)

// cursor is a byte position in a file.
type cursor struct {
	file  *source.File
	off   uint32
	limit uint32
}

func newCursor(f *source.File) cursor {
	limit, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	return cursor{file: f, limit: limit}
}

func (c *cursor) eof() bool {
	return c.off >= c.limit
}

// peek читает текущий байт, на EOF возвращает 0
func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.file.Content[c.off]
}

// peekAt reads the byte n positions ahead, or 0 past the end.
func (c *cursor) peekAt(n uint32) byte {
	if c.off+n >= c.limit {
		return 0
	}
	return c.file.Content[c.off+n]
}

func (c *cursor) bump() byte {
	if c.eof() {
		return 0
	}
	b := c.file.Content[c.off]
	c.off++
	return b
}

func (c *cursor) eat(b byte) bool {
	if !c.eof() && c.file.Content[c.off] == b {
		c.off++
		return true
	}
	return false
}

func (c *cursor) mark() uint32 {
	return c.off
}

func (c *cursor) spanFrom(m uint32) source.Span {
	return source.Between(c.file.ID, m, c.off)
}

func (c *cursor) text(sp source.Span) string {
	return string(c.file.Content[sp.Start:sp.End])
}
