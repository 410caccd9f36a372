package printer

import (
	"sort"

	"fortio.org/safecast"
)

// SourceMarker maps a source offset to the output offset of the text copied from it.
type SourceMarker struct {
	Source uint32
	Dest   uint32
}

// Stats describes the work done by one print call.
type Stats struct {
	FlatAttempts  int
	FlatRollbacks int
	MaxQueueDepth int
	Lines         int
}

// Formatted is the printer's result.
type Formatted struct {
	Code string
	// Markers are ordered by Dest; front ends emit them in source order so
	// they are usually ordered by Source too.
	Markers []SourceMarker
	Stats   Stats
}

// TranslateOffset maps a source offset to an output offset using the closest
// marker at or before it. It returns false when no marker precedes src.
// Offsets past the marked token stop at the next marker or at the end of Code.
func (f *Formatted) TranslateOffset(src uint32) (uint32, bool) {
	if f == nil || len(f.Markers) == 0 {
		return 0, false
	}
	sorted := f.Markers
	if !sort.SliceIsSorted(sorted, func(i, j int) bool { return sorted[i].Source < sorted[j].Source }) {
		sorted = append([]SourceMarker(nil), f.Markers...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Source < sorted[j].Source })
	}
	idx := sort.Search(len(sorted), func(i int) bool { return sorted[i].Source > src })
	if idx == 0 {
		return 0, false
	}
	m := sorted[idx-1]
	limit := f.nextDest(m.Dest)
	if src-m.Source > limit-m.Dest {
		return limit, true
	}
	return m.Dest + (src - m.Source), true
}

// nextDest returns the first marker destination after dest, or len(Code).
func (f *Formatted) nextDest(dest uint32) uint32 {
	i := sort.Search(len(f.Markers), func(i int) bool { return f.Markers[i].Dest > dest })
	if i < len(f.Markers) {
		return f.Markers[i].Dest
	}
	return max(safecast.MustConv[uint32](len(f.Code)), dest)
}
