package source

import "fmt"

// Span is the byte range [Start, End) of one file.
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

// At returns the empty span at off. Diagnostics that point at a position
// rather than a token use it.
func At(file FileID, off uint32) Span {
	return Span{File: file, Start: off, End: off}
}

// Between returns [start, end) in file; a reversed range is swapped.
func Between(file FileID, start, end uint32) Span {
	if end < start {
		start, end = end, start
	}
	return Span{File: file, Start: start, End: end}
}

// String renders "file#1[4:9)".
func (s Span) String() string {
	return fmt.Sprintf("file#%d[%d:%d)", s.File, s.Start, s.End)
}
