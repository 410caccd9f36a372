package jsonfmt

import "quill/internal/source"

// Kind classifies a significant token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF
	LBrace
	RBrace
	LBracket
	RBracket
	Colon
	Comma
	String
	Number
	True
	False
	Null
)

var kindNames = [...]string{
	Invalid:  "invalid token",
	EOF:      "end of file",
	LBrace:   "'{'",
	RBrace:   "'}'",
	LBracket: "'['",
	RBracket: "']'",
	Colon:    "':'",
	Comma:    "','",
	String:   "string",
	Number:   "number",
	True:     "'true'",
	False:    "'false'",
	Null:     "'null'",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsScalar reports whether a token of kind k is a complete value.
func (k Kind) IsScalar() bool {
	switch k {
	case String, Number, True, False, Null:
		return true
	}
	return false
}

// CommentKind distinguishes // and /* */ comments.
type CommentKind uint8

const (
	LineComment CommentKind = iota
	BlockComment
)

// Comment is trivia kept for the formatter. NewlinesBefore counts line
// breaks between the previous token or comment and this one.
type Comment struct {
	Kind           CommentKind
	Span           source.Span
	Text           string
	NewlinesBefore int
}

// Token is a significant token with the comments attached to it.
//
// Leading comments sit between the previous token and this one. Trailing
// comments start on the same line right after the token and end the line
// (a line comment, or a block comment followed only by a line break).
type Token struct {
	Kind           Kind
	Span           source.Span
	Text           string
	NewlinesBefore int // since the last leading comment, or the previous token
	Leading        []Comment
	Trailing       []Comment
}

// FirstNewlines is the number of line breaks between the previous token and
// the first thing attached to t.
func (t *Token) FirstNewlines() int {
	if len(t.Leading) > 0 {
		return t.Leading[0].NewlinesBefore
	}
	return t.NewlinesBefore
}
