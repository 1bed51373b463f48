package lexer

import (
	"sort"

	"xdtrace/internal/diag"
	"xdtrace/internal/source"
	"xdtrace/internal/token"
)

// Lexer turns one source file into tokens, synthesizing Newline, Indent and
// Dedent from line structure. Inside (), [] and {} line breaks are ignored.
type Lexer struct {
	file    *source.File
	cursor  Cursor
	opts    Options
	look    *token.Token  // 1 элементный буфер для токена
	pending []token.Token // synthetic tokens waiting to be returned

	indents     []int // indentation stack, always starts with 0
	depth       int   // bracket nesting
	atLineStart bool
	emitted     bool // a token of the current logical line was returned
	done        bool
}

func New(file *source.File, opts Options) *Lexer {
	if opts.TabWidth <= 0 {
		opts.TabWidth = 8
	}
	return &Lexer{
		file:        file,
		cursor:      NewCursor(file),
		opts:        opts,
		indents:     []int{0},
		atLineStart: true,
	}
}

// Next возвращает следующий токен. После EOF всегда возвращает EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}
	for {
		if len(lx.pending) > 0 {
			tok := lx.pending[0]
			lx.pending = lx.pending[1:]
			return tok
		}
		if lx.done {
			return lx.synthetic(token.EOF)
		}
		if lx.atLineStart && lx.depth == 0 {
			lx.indentation()
			continue
		}
		lx.skipBlanks()
		if lx.cursor.EOF() {
			lx.finish()
			continue
		}

		ch := lx.cursor.Peek()
		if ch == '\n' {
			lx.cursor.Bump()
			if lx.depth > 0 {
				continue
			}
			lx.atLineStart = true
			if lx.emitted {
				lx.emitted = false
				return lx.syntheticAt(token.Newline, lx.cursor.Off-1)
			}
			continue
		}

		var tok token.Token
		switch {
		case isIdentStartByte(ch) || ch >= utf8RuneSelf:
			tok = lx.scanIdentOrKeyword()
		case isDec(ch) || (ch == '.' && isDec(lx.cursor.PeekAt(1))):
			tok = lx.scanNumber()
		case ch == '"' || ch == '\'':
			tok = lx.scanString()
		default:
			tok = lx.scanOperatorOrPunct()
		}
		tok.Line = lx.lineAt(tok.Span.Start)
		lx.emitted = true
		return tok
	}
}

// Peek возвращает следующий токен, не потребляя его.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// All lexes the rest of the file.
func (lx *Lexer) All() []token.Token {
	var out []token.Token
	for {
		t := lx.Next()
		out = append(out, t)
		if t.Kind == token.EOF {
			return out
		}
	}
}

// indentation measures the first non-blank line ahead and queues Indent or
// Dedent tokens for it.
func (lx *Lexer) indentation() {
	for {
		start := lx.cursor.Mark()
		col := 0
	measure:
		for {
			switch lx.cursor.Peek() {
			case ' ':
				col++
			case '\t':
				col += lx.opts.TabWidth - col%lx.opts.TabWidth
			case '\f':
				col = 0
			default:
				break measure
			}
			lx.cursor.Bump()
		}
		switch lx.cursor.Peek() {
		case '\n':
			lx.cursor.Bump()
			continue
		case '#':
			lx.skipComment()
			continue
		case '\\':
			if lx.cursor.PeekAt(1) == '\n' {
				lx.cursor.Bump()
				lx.cursor.Bump()
				continue
			}
		}
		lx.atLineStart = false
		if lx.cursor.EOF() {
			return
		}

		top := lx.indents[len(lx.indents)-1]
		switch {
		case col > top:
			lx.indents = append(lx.indents, col)
			lx.pending = append(lx.pending, lx.syntheticAt(token.Indent, lx.cursor.Off))
		case col < top:
			for len(lx.indents) > 1 && col < lx.indents[len(lx.indents)-1] {
				lx.indents = lx.indents[:len(lx.indents)-1]
				lx.pending = append(lx.pending, lx.syntheticAt(token.Dedent, lx.cursor.Off))
			}
			if col != lx.indents[len(lx.indents)-1] {
				lx.report(diag.LexBadIndent, lx.cursor.SpanFrom(start), "unindent does not match any outer indentation level")
			}
		}
		return
	}
}

// finish closes the last logical line and every open block.
func (lx *Lexer) finish() {
	if lx.emitted {
		lx.emitted = false
		lx.pending = append(lx.pending, lx.synthetic(token.Newline))
	}
	for len(lx.indents) > 1 {
		lx.indents = lx.indents[:len(lx.indents)-1]
		lx.pending = append(lx.pending, lx.synthetic(token.Dedent))
	}
	lx.pending = append(lx.pending, lx.synthetic(token.EOF))
	lx.done = true
}

// skipBlanks skips spaces, comments and explicit line continuations.
func (lx *Lexer) skipBlanks() {
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case ' ', '\t', '\f', '\r':
			lx.cursor.Bump()
		case '#':
			lx.skipComment()
		case '\\':
			if lx.cursor.PeekAt(1) != '\n' {
				return
			}
			lx.cursor.Bump()
			lx.cursor.Bump()
		default:
			return
		}
	}
}

func (lx *Lexer) skipComment() {
	for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
		lx.cursor.Bump()
	}
}

func (lx *Lexer) synthetic(k token.Kind) token.Token {
	return lx.syntheticAt(k, lx.cursor.Off)
}

func (lx *Lexer) syntheticAt(k token.Kind, off uint32) token.Token {
	return token.Token{
		Kind: k,
		Span: source.Span{File: lx.file.ID, Start: off, End: off},
		Line: lx.lineAt(off),
	}
}

// lineAt returns the 1-based line containing off.
func (lx *Lexer) lineAt(off uint32) int {
	idx := lx.file.LineIdx
	return sort.Search(len(idx), func(i int) bool { return idx[i] >= off }) + 1
}
