package source

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"fortio.org/safecast"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrEncoding is returned for input that is neither UTF-8 nor BOM-marked UTF-16.
var ErrEncoding = errors.New("invalid text encoding")

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Normalize converts raw file bytes to BOM-less UTF-8 with LF line breaks.
// CRLF and lone CR both become LF.
func Normalize(raw []byte) ([]byte, FileFlags, error) {
	var flags FileFlags
	content := raw
	if bytes.HasPrefix(raw, bomUTF16LE) || bytes.HasPrefix(raw, bomUTF16BE) {
		// BOMOverride picks the byte order from the mark and strips it.
		dec := unicode.BOMOverride(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
		out, _, err := transform.Bytes(dec, raw)
		if err != nil {
			return raw, 0, fmt.Errorf("%w: %w", ErrEncoding, err)
		}
		content = out
		flags |= FileTranscoded | FileHadBOM
	} else if c, ok := removeBOM(raw); ok {
		content = c
		flags |= FileHadBOM
	}
	if !utf8.Valid(content) {
		return raw, 0, ErrEncoding
	}
	content, hadCR := normalizeLineBreaks(content)
	if hadCR {
		flags |= FileNormalizedCRLF
	}
	return content, flags, nil
}

// normalizeLineBreaks turns \r\n and lone \r into \n.
func normalizeLineBreaks(content []byte) ([]byte, bool) {
	if !slices.Contains(content, '\r') {
		return content, false
	}
	out := make([]byte, 0, len(content))
	for i := 0; i < len(content); i++ {
		c := content[i]
		if c != '\r' {
			out = append(out, c)
			continue
		}
		if i+1 < len(content) && content[i+1] == '\n' {
			i++
		}
		out = append(out, '\n')
	}
	return out, true
}

func removeBOM(content []byte) ([]byte, bool) {
	if bytes.HasPrefix(content, bomUTF8) {
		return content[len(bomUTF8):], true
	}
	return content, false
}

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, bytes.Count(content, []byte{'\n'}))
	for i, b := range content {
		if b == '\n' {
			out = append(out, safecast.MustConv[uint32](i))
		}
	}
	return out
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// бинпоиск: количество переводов строки строго до off
	line, _ := slices.BinarySearch(lineIdx, off)
	var startOff uint32
	if line > 0 {
		startOff = lineIdx[line-1] + 1
	}
	return LineCol{Line: safecast.MustConv[uint32](line + 1), Col: off - startOff + 1}
}

func normalizePath(p string) string {
	if p == "" || p == "-" {
		return p
	}
	return filepath.ToSlash(filepath.Clean(p))
}

// RelativePath returns target relative to baseDir. Targets outside baseDir
// keep their absolute form.
func RelativePath(target, baseDir string) (string, error) {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return normalizePath(absTarget), nil
	}
	return normalizePath(rel), nil
}
