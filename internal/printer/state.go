package printer

import (
	"fmt"
	"unicode/utf8"

	"fortio.org/safecast"
	"github.com/mattn/go-runewidth"
)

// state is the scratch data of one print call. Everything here is rolled
// back when a flat attempt fails.
type state struct {
	buf     []byte
	markers []SourceMarker

	pendingIndent uint16
	pendingSpace  bool
	// blankLine is set right after a blank line was emitted so that two
	// empty lines in a row collapse into one.
	blankLine bool

	generatedLine   uint32
	generatedColumn uint32
	// lineWidth counts display columns since the last newline.
	lineWidth uint32

	lineSuffixes []call
}

// snapshot holds only counters and lengths; restoring truncates.
type snapshot struct {
	bufLen        int
	markersLen    int
	suffixesLen   int
	pendingIndent uint16
	pendingSpace  bool
	blankLine     bool
	line          uint32
	column        uint32
	lineWidth     uint32
}

func (s *state) reset(sizeHint int) {
	s.buf = make([]byte, 0, sizeHint)
	s.markers = s.markers[:0]
	s.pendingIndent = 0
	s.pendingSpace = false
	s.blankLine = false
	s.generatedLine = 0
	s.generatedColumn = 0
	s.lineWidth = 0
	s.lineSuffixes = s.lineSuffixes[:0]
}

func (s *state) snapshot() snapshot {
	return snapshot{
		bufLen:        len(s.buf),
		markersLen:    len(s.markers),
		suffixesLen:   len(s.lineSuffixes),
		pendingIndent: s.pendingIndent,
		pendingSpace:  s.pendingSpace,
		blankLine:     s.blankLine,
		line:          s.generatedLine,
		column:        s.generatedColumn,
		lineWidth:     s.lineWidth,
	}
}

func (s *state) restore(snap snapshot) {
	s.buf = s.buf[:snap.bufLen]
	s.markers = s.markers[:snap.markersLen]
	s.lineSuffixes = s.lineSuffixes[:snap.suffixesLen]
	s.pendingIndent = snap.pendingIndent
	s.pendingSpace = snap.pendingSpace
	s.blankLine = snap.blankLine
	s.generatedLine = snap.line
	s.generatedColumn = snap.column
	s.lineWidth = snap.lineWidth
}

func (s *state) offset() uint32 {
	off, err := safecast.Conv[uint32](len(s.buf))
	if err != nil {
		panic(fmt.Errorf("output offset overflow: %w", err))
	}
	return off
}

// writeString appends s, translating '\n' to eol and advancing the counters.
func (s *state) writeString(text, eol string, tabWidth uint32) {
	for _, r := range text {
		switch r {
		case '\n':
			s.buf = append(s.buf, eol...)
			s.generatedLine++
			s.generatedColumn = 0
			s.lineWidth = 0
		case '\t':
			s.buf = append(s.buf, '\t')
			s.generatedColumn++
			s.lineWidth += tabWidth
		default:
			s.buf = utf8.AppendRune(s.buf, r)
			s.generatedColumn++
			if w := runewidth.RuneWidth(r); w > 0 {
				s.lineWidth += uint32(w)
			}
		}
	}
}
