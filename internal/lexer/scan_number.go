package lexer

import (
	"xdtrace/internal/diag"
	"xdtrace/internal/token"
)

// Поддержка: 0, 123, 1_000, 0x1F, 0o17, 0b101, 1.0, .5, 1e-3, 1.0e+10.
// Неверные формы - репорт в opts.Reporter, токен по возможности завершаем.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	kind := token.IntLit

	digits := func(ok func(byte) bool) int {
		n := 0
		for ok(lx.cursor.Peek()) || (n > 0 && lx.cursor.Peek() == '_' && ok(lx.cursor.PeekAt(1))) {
			lx.cursor.Bump()
			n++
		}
		return n
	}
	bad := func(msg string) token.Token {
		sp := lx.cursor.SpanFrom(start)
		lx.report(diag.LexBadNumber, sp, msg)
		return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
	}

	if lx.cursor.Peek() == '0' {
		var ok func(byte) bool
		switch lx.cursor.PeekAt(1) {
		case 'x', 'X':
			ok = isHex
		case 'o', 'O':
			ok = func(b byte) bool { return b >= '0' && b <= '7' }
		case 'b', 'B':
			ok = func(b byte) bool { return b == '0' || b == '1' }
		}
		if ok != nil {
			lx.cursor.Off += 2
			if digits(ok) == 0 {
				return bad("missing digits after base prefix")
			}
			if isIdentContinueByte(lx.cursor.Peek()) {
				return bad("invalid digit in number literal")
			}
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: kind, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
		}
	}

	digits(isDec)
	if lx.cursor.Peek() == '.' && lx.cursor.PeekAt(1) != '.' {
		lx.cursor.Bump()
		kind = token.FloatLit
		digits(isDec)
	}
	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		lx.cursor.Bump()
		if s := lx.cursor.Peek(); s == '+' || s == '-' {
			lx.cursor.Bump()
		}
		if digits(isDec) == 0 {
			return bad("missing exponent digits")
		}
		kind = token.FloatLit
	}
	if isIdentContinueByte(lx.cursor.Peek()) {
		for isIdentContinueByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		return bad("invalid number literal")
	}

	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
}
