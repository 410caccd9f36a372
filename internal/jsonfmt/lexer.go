package jsonfmt

import (
	"fmt"
	"unicode/utf8"

	"quill/internal/diag"
	"quill/internal/source"
)

type lexer struct {
	file   *source.File
	cursor cursor
	report diag.Reporter

	tokens []Token
	hold   []Comment // leading comments for the next token
	lines  int       // line breaks since the last token or comment
	broke  bool      // a line break was seen since the last token
}

// Lex splits file into significant tokens. The last token is always EOF.
// Problems are reported and turned into Invalid tokens; lexing never stops
// early.
func Lex(file *source.File, r diag.Reporter) []Token {
	lx := &lexer{file: file, cursor: newCursor(file), report: r}
	for {
		lx.collectTrivia()
		tok := lx.next()
		tok.Leading = lx.hold
		tok.NewlinesBefore = lx.lines
		lx.hold, lx.lines, lx.broke = nil, 0, false
		lx.tokens = append(lx.tokens, tok)
		if tok.Kind == EOF {
			return lx.tokens
		}
	}
}

func (lx *lexer) next() Token {
	if lx.cursor.eof() {
		return Token{Kind: EOF, Span: lx.cursor.spanFrom(lx.cursor.mark())}
	}
	switch ch := lx.cursor.peek(); {
	case ch == '"':
		return lx.scanString()
	case ch == '-' || isDigit(ch):
		return lx.scanNumber()
	case isWordByte(ch):
		return lx.scanWord()
	default:
		return lx.scanPunct()
	}
}

func (lx *lexer) scanPunct() Token {
	start := lx.cursor.mark()
	var kind Kind
	switch lx.cursor.peek() {
	case '{':
		kind = LBrace
	case '}':
		kind = RBrace
	case '[':
		kind = LBracket
	case ']':
		kind = RBracket
	case ':':
		kind = Colon
	case ',':
		kind = Comma
	default:
		r, size := utf8.DecodeRune(lx.file.Content[start:])
		lx.cursor.off += uint32(size) // #nosec G115 -- size is at most utf8.UTFMax
		sp := lx.cursor.spanFrom(start)
		lx.errorf(diag.LexUnknownChar, sp, "unexpected character %q", r)
		return Token{Kind: Invalid, Span: sp, Text: lx.cursor.text(sp)}
	}
	lx.cursor.bump()
	sp := lx.cursor.spanFrom(start)
	return Token{Kind: kind, Span: sp, Text: lx.cursor.text(sp)}
}

// scanString reads a double-quoted string. Escapes are validated but the
// text is kept verbatim.
func (lx *lexer) scanString() Token {
	start := lx.cursor.mark()
	lx.cursor.bump() // opening '"'
	for !lx.cursor.eof() {
		b := lx.cursor.peek()
		switch {
		case b == '"':
			lx.cursor.bump()
			sp := lx.cursor.spanFrom(start)
			return Token{Kind: String, Span: sp, Text: lx.cursor.text(sp)}
		case b == '\n':
			// строка не может переносить строку; закрываем на переводе
			sp := lx.cursor.spanFrom(start)
			lx.errorf(diag.LexUnterminatedString, sp, "unterminated string")
			return Token{Kind: Invalid, Span: sp, Text: lx.cursor.text(sp)}
		case b == '\\':
			lx.scanEscape()
		case b < 0x20:
			at := lx.cursor.mark()
			lx.cursor.bump()
			lx.errorf(diag.LexControlInString, lx.cursor.spanFrom(at), "control character %#02x in string", b)
		default:
			lx.cursor.bump()
		}
	}
	sp := lx.cursor.spanFrom(start)
	lx.errorf(diag.LexUnterminatedString, sp, "unterminated string")
	return Token{Kind: Invalid, Span: sp, Text: lx.cursor.text(sp)}
}

func (lx *lexer) scanEscape() {
	at := lx.cursor.mark()
	lx.cursor.bump() // '\'
	switch lx.cursor.peek() {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
		lx.cursor.bump()
		return
	case 'u':
		lx.cursor.bump()
		for range 4 {
			if !isHex(lx.cursor.peek()) {
				lx.errorf(diag.LexBadEscape, lx.cursor.spanFrom(at), "\\u must be followed by four hex digits")
				return
			}
			lx.cursor.bump()
		}
		return
	case '\n', 0:
		lx.errorf(diag.LexBadEscape, lx.cursor.spanFrom(at), "incomplete escape sequence")
		return
	}
	lx.cursor.bump()
	lx.errorf(diag.LexBadEscape, lx.cursor.spanFrom(at), "unknown escape sequence %q", lx.cursor.text(lx.cursor.spanFrom(at)))
}

// scanNumber follows the JSON grammar:
// -?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?
func (lx *lexer) scanNumber() Token {
	start := lx.cursor.mark()
	ok := true
	lx.cursor.eat('-')
	switch {
	case lx.cursor.eat('0'):
	case isDigit(lx.cursor.peek()):
		lx.skipDigits()
	default:
		ok = false
	}
	if lx.cursor.eat('.') {
		ok = lx.skipDigits() && ok
	}
	if b := lx.cursor.peek(); b == 'e' || b == 'E' {
		lx.cursor.bump()
		if b := lx.cursor.peek(); b == '+' || b == '-' {
			lx.cursor.bump()
		}
		ok = lx.skipDigits() && ok
	}
	// "01", "1x", "1.2.3" are all one bad token
	for b := lx.cursor.peek(); isWordByte(b) || isDigit(b) || b == '.'; b = lx.cursor.peek() {
		lx.cursor.bump()
		ok = false
	}
	sp := lx.cursor.spanFrom(start)
	text := lx.cursor.text(sp)
	if !ok {
		lx.errorf(diag.LexBadNumber, sp, "invalid number %q", text)
		return Token{Kind: Invalid, Span: sp, Text: text}
	}
	return Token{Kind: Number, Span: sp, Text: text}
}

func (lx *lexer) skipDigits() bool {
	n := 0
	for isDigit(lx.cursor.peek()) {
		lx.cursor.bump()
		n++
	}
	return n > 0
}

func (lx *lexer) scanWord() Token {
	start := lx.cursor.mark()
	for b := lx.cursor.peek(); isWordByte(b) || isDigit(b); b = lx.cursor.peek() {
		lx.cursor.bump()
	}
	sp := lx.cursor.spanFrom(start)
	text := lx.cursor.text(sp)
	switch text {
	case "true":
		return Token{Kind: True, Span: sp, Text: text}
	case "false":
		return Token{Kind: False, Span: sp, Text: text}
	case "null":
		return Token{Kind: Null, Span: sp, Text: text}
	}
	lx.errorf(diag.LexBadLiteral, sp, "unknown literal %q", text)
	return Token{Kind: Invalid, Span: sp, Text: text}
}

// collectTrivia skips whitespace and comments before the next token.
// Comments that end the previous token's line are attached to it as
// trailing; the rest are held as leading comments of the next token.
func (lx *lexer) collectTrivia() {
	for !lx.cursor.eof() {
		switch b := lx.cursor.peek(); b {
		case ' ', '\t', '\r':
			lx.cursor.bump()
		case '\n':
			lx.cursor.bump()
			lx.lines++
			lx.broke = true
		case '/':
			c, ok := lx.scanComment()
			if !ok {
				return
			}
			lx.attach(c)
		default:
			return
		}
	}
}

func (lx *lexer) attach(c Comment) {
	c.NewlinesBefore = lx.lines
	lx.lines = 0
	if len(lx.tokens) > 0 && !lx.broke && len(lx.hold) == 0 && (c.Kind == LineComment || lx.endsLine()) {
		prev := &lx.tokens[len(lx.tokens)-1]
		if prev.Kind != EOF {
			prev.Trailing = append(prev.Trailing, c)
			return
		}
	}
	lx.hold = append(lx.hold, c)
}

// endsLine reports whether only blanks remain before the next line break.
func (lx *lexer) endsLine() bool {
	for i := lx.cursor.off; i < lx.cursor.limit; i++ {
		switch lx.file.Content[i] {
		case ' ', '\t', '\r':
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}

// scanComment reads // and /* */ comments. A lone '/' is left for the
// token scanner.
func (lx *lexer) scanComment() (Comment, bool) {
	start := lx.cursor.mark()
	switch lx.cursor.peekAt(1) {
	case '/':
		for !lx.cursor.eof() && lx.cursor.peek() != '\n' {
			lx.cursor.bump()
		}
		sp := lx.cursor.spanFrom(start)
		return Comment{Kind: LineComment, Span: sp, Text: trimRight(lx.cursor.text(sp))}, true
	case '*':
		lx.cursor.bump()
		lx.cursor.bump()
		closed := false
		for !lx.cursor.eof() {
			if lx.cursor.peek() == '*' && lx.cursor.peekAt(1) == '/' {
				lx.cursor.bump()
				lx.cursor.bump()
				closed = true
				break
			}
			lx.cursor.bump()
		}
		sp := lx.cursor.spanFrom(start)
		if !closed {
			lx.errorf(diag.LexUnterminatedBlockComment, sp, "unterminated block comment")
		}
		return Comment{Kind: BlockComment, Span: sp, Text: lx.cursor.text(sp)}, true
	}
	return Comment{}, false
}

func (lx *lexer) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	if lx.report == nil {
		return
	}
	diag.ReportError(lx.report, code, sp, fmt.Sprintf(format, args...)).Emit()
}

func trimRight(s string) string {
	end := len(s)
	for end > 0 && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\r') {
		end--
	}
	return s[:end]
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHex(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}
