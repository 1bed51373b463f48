package lexer

import (
	"xdtrace/internal/diag"
	"xdtrace/internal/token"
)

// scanString сканирует строку в одинарных или двойных кавычках, включая
// тройные. Token.Text - исходный срез вместе с кавычками; escape-последовательности
// раскрывает Unquote.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	q := lx.cursor.Peek()
	triple := lx.cursor.PeekAt(1) == q && lx.cursor.PeekAt(2) == q
	if triple {
		lx.cursor.Off += 3
	} else {
		lx.cursor.Bump()
	}

	for {
		if lx.cursor.EOF() {
			return lx.unterminated(start)
		}
		b := lx.cursor.Peek()
		switch {
		case b == '\\':
			lx.cursor.Bump()
			if lx.cursor.EOF() {
				return lx.unterminated(start)
			}
			lx.cursor.Bump()
			continue
		case b == '\n' && !triple:
			return lx.unterminated(start)
		case b == q && !triple:
			lx.cursor.Bump()
		case b == q && lx.cursor.PeekAt(1) == q && lx.cursor.PeekAt(2) == q:
			lx.cursor.Off += 3
		default:
			lx.cursor.Bump()
			continue
		}
		break
	}

	sp := lx.cursor.SpanFrom(start)
	text := string(lx.file.Content[sp.Start:sp.End])
	if _, err := Unquote(text); err != nil {
		lx.report(diag.LexBadEscape, sp, err.Error())
	}
	return token.Token{Kind: token.StringLit, Span: sp, Text: text}
}

func (lx *Lexer) unterminated(start Mark) token.Token {
	sp := lx.cursor.SpanFrom(start)
	lx.report(diag.LexUnterminatedString, sp, "unterminated string literal")
	return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
}
