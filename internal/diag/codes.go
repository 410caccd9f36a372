package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Лексические
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004
	LexBadEscape                Code = 1005
	LexControlInString          Code = 1006
	LexBadLiteral               Code = 1007

	// Синтаксические
	SynInfo             Code = 2000
	SynUnexpectedToken  Code = 2001
	SynUnclosedBracket  Code = 2002
	SynUnclosedBrace    Code = 2003
	SynExpectColon      Code = 2004
	SynExpectKey        Code = 2005
	SynExpectValue      Code = 2006
	SynTrailingContent  Code = 2007
	SynNestingTooDeep   Code = 2008
	SynMissingSeparator Code = 2009
	SynEmptyInput       Code = 2010

	// IO
	IOLoadFileError Code = 4001
	IOWriteError    Code = 4002
	IOEncodingError Code = 4003

	// Проверка результата форматирования
	FmtNotIdempotent Code = 6001
	FmtUnbalanced    Code = 6002
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown error",

	LexInfo:                     "Lexical information",
	LexUnknownChar:              "Unknown character",
	LexUnterminatedString:       "Unterminated string literal",
	LexUnterminatedBlockComment: "Unterminated block comment",
	LexBadNumber:                "Invalid number literal",
	LexBadEscape:                "Invalid escape sequence",
	LexControlInString:          "Control character in string",
	LexBadLiteral:               "Unknown literal",

	SynInfo:             "Syntax information",
	SynUnexpectedToken:  "Unexpected token",
	SynUnclosedBracket:  "Unclosed '['",
	SynUnclosedBrace:    "Unclosed '{'",
	SynExpectColon:      "Expected ':' after object key",
	SynExpectKey:        "Expected string key",
	SynExpectValue:      "Expected value",
	SynTrailingContent:  "Unexpected content after top-level value",
	SynNestingTooDeep:   "Nesting too deep",
	SynMissingSeparator: "Missing ','",
	SynEmptyInput:       "Empty input",

	IOLoadFileError: "I/O load file error",
	IOWriteError:    "I/O write error",
	IOEncodingError: "Unsupported text encoding",

	FmtNotIdempotent: "Formatting is not idempotent",
	FmtUnbalanced:    "Front end produced an unbalanced document",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("FMT%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
