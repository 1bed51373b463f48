package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0
	// Лексические
	LexUnknownChar        Code = 1001
	LexUnterminatedString Code = 1002
	LexBadNumber          Code = 1004
	LexBadIndent          Code = 1006
	LexBadEscape          Code = 1007

	// Парсерные
	SynUnexpectedToken    Code = 2001
	SynUnclosedDelimiter  Code = 2002
	SynExpectIdentifier   Code = 2102
	SynExpectExpression   Code = 2203
	SynExpectColon        Code = 2204
	SynExpectBlock        Code = 2205
	SynBadAssignTarget    Code = 2206
	SynVariadicMustBeLast Code = 2207
	SynDefaultOrder       Code = 2208
	SynOutsideLoop        Code = 2209
	SynOutsideFunction    Code = 2210
)

var codeDescription = map[Code]string{
	UnknownCode:           "Unknown error",
	LexUnknownChar:        "Unknown character",
	LexUnterminatedString: "Unterminated string literal",
	LexBadNumber:          "Malformed number",
	LexBadIndent:          "Inconsistent indentation",
	LexBadEscape:          "Invalid escape sequence",
	SynUnexpectedToken:    "Unexpected token",
	SynUnclosedDelimiter:  "Unclosed delimiter",
	SynExpectIdentifier:   "Expected identifier",
	SynExpectExpression:   "Expected expression",
	SynExpectColon:        "Expected ':'",
	SynExpectBlock:        "Expected an indented block",
	SynBadAssignTarget:    "Cannot assign to expression",
	SynVariadicMustBeLast: "Variadic parameter must be last",
	SynDefaultOrder:       "Non-default parameter follows default parameter",
	SynOutsideLoop:        "'break' or 'continue' outside loop",
	SynOutsideFunction:    "'return' outside function",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
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
