package diag

import (
	"cmp"
	"math"
	"slices"

	"fortio.org/safecast"

	"quill/internal/source"
)

// Bag collects diagnostics up to a limit; everything past it is dropped.
type Bag struct {
	items []Diagnostic
	max   uint16
}

// NewBag creates a bag holding at most limit diagnostics. Limits outside
// 1..65535 are clamped.
func NewBag(limit int) *Bag {
	limit = min(max(limit, 1), math.MaxUint16)
	return &Bag{
		items: make([]Diagnostic, 0, min(limit, 64)),
		max:   safecast.MustConv[uint16](limit),
	}
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если лимит достигнут.
func (b *Bag) Add(d Diagnostic) bool {
	if b.Full() {
		return false
	}
	b.items = append(b.items, d)
	return true
}

// Full reports whether Add would drop the next diagnostic.
func (b *Bag) Full() bool { return len(b.items) >= int(b.max) }

func (b *Bag) Cap() uint16 { return b.max }

func (b *Bag) Len() int { return len(b.items) }

// HasErrors возвращает true, если есть хотя бы одна ошибка.
func (b *Bag) HasErrors() bool {
	return slices.ContainsFunc(b.items, func(d Diagnostic) bool { return d.Severity >= SevError })
}

// Items возвращает внутренний срез; не модифицировать.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Merge appends other's diagnostics, growing the limit when needed.
func (b *Bag) Merge(other *Bag) {
	total := min(len(b.items)+len(other.items), math.MaxUint16)
	b.max = max(b.max, safecast.MustConv[uint16](total))
	room := int(b.max) - len(b.items)
	b.items = append(b.items, other.items[:min(room, len(other.items))]...)
}

// Sort orders by position (file, start, end), then worst severity first,
// then code.
func (b *Bag) Sort() {
	slices.SortStableFunc(b.items, func(x, y Diagnostic) int {
		return cmp.Or(
			cmp.Compare(x.Primary.File, y.Primary.File),
			cmp.Compare(x.Primary.Start, y.Primary.Start),
			cmp.Compare(x.Primary.End, y.Primary.End),
			cmp.Compare(y.Severity, x.Severity),
			cmp.Compare(x.Code, y.Code),
		)
	})
}

// Dedup keeps the first diagnostic for each code and primary span.
func (b *Bag) Dedup() {
	type key struct {
		code Code
		span source.Span
	}
	seen := make(map[key]struct{}, len(b.items))
	b.items = slices.DeleteFunc(b.items, func(d Diagnostic) bool {
		k := key{d.Code, d.Primary}
		if _, dup := seen[k]; dup {
			return true
		}
		seen[k] = struct{}{}
		return false
	})
}
