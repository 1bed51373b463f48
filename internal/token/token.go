package token

import (
	"xdtrace/internal/source"
)

// Token represents a single source token with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
	Line int // 1-based line of the first byte
}

// IsLiteral reports whether the token is a numeric or string literal, or
// one of the constant keywords.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, FloatLit, StringLit, KwNone, KwTrue, KwFalse:
		return true
	default:
		return false
	}
}

// IsAssignOp reports whether the token is "=" or an augmented assignment.
func (t Token) IsAssignOp() bool {
	if t.Kind == Assign {
		return true
	}
	_, ok := t.Kind.AugmentedBase()
	return ok
}

// IsKeyword reports whether the token is a language keyword.
func (t Token) IsKeyword() bool {
	return t.Kind >= KwDef && t.Kind <= KwFalse
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }

// EndsLine reports whether the token terminates a logical line.
func (t Token) EndsLine() bool { return t.Kind == Newline || t.Kind == EOF }
