// Package parser builds the syntax tree of one source file.
package parser

import (
	"slices"

	"xdtrace/internal/ast"
	"xdtrace/internal/diag"
	"xdtrace/internal/lexer"
	"xdtrace/internal/source"
	"xdtrace/internal/token"
)

type Options struct {
	MaxErrors int // 0 = no limit
	Reporter  diag.Reporter
}

// Parser - состояние парсера на один файл
type Parser struct {
	lx       *lexer.Lexer
	file     *source.File
	opts     Options
	lastSpan source.Span // span последнего съеденного токена для лучшей диагностики
	errors   int

	funcDepth int
	loopDepth int
}

// bailout aborts the current statement; parseStmts resynchronizes.
type bailout struct{}

// ParseFile - входная точка для разбора одного файла.
func ParseFile(file *source.File, opts Options) *ast.Module {
	p := &Parser{
		file: file,
		opts: opts,
	}
	p.lx = lexer.New(file, lexer.Options{Reporter: p.countingReporter()})
	mod := &ast.Module{Path: file.Path}
	mod.Body = p.parseStmts(token.EOF)
	return mod
}

// Parse lexes and parses the file id of fs and returns a *diag.SyntaxError
// when the text is not a valid module.
func Parse(fs *source.FileSet, id source.FileID) (*ast.Module, error) {
	f := fs.Get(id)
	bag := diag.NewBag(32)
	mod := ParseFile(f, Options{MaxErrors: 32, Reporter: diag.BagReporter{Bag: bag}})
	if se := diag.NewSyntaxError(fs, f.Path, bag); se != nil {
		return nil, se
	}
	return mod, nil
}

type counting struct{ p *Parser }

func (c counting) Report(code diag.Code, sev diag.Severity, sp source.Span, msg string) {
	c.p.report(code, sev, sp, msg)
}

func (p *Parser) countingReporter() diag.Reporter { return counting{p} }

func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) {
	if sev >= diag.SevError {
		p.errors++
	}
	if p.opts.Reporter != nil {
		p.opts.Reporter.Report(code, sev, sp, msg)
	}
}

// enough - проверить, достигли ли мы максимального количества ошибок
func (p *Parser) enough() bool {
	return p.opts.MaxErrors > 0 && p.errors >= p.opts.MaxErrors
}

func (p *Parser) peek() token.Token { return p.lx.Peek() }

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.lx.Peek().Kind)
}

// advance - съедает следующий токен и обновляет lastSpan
func (p *Parser) advance() token.Token {
	tok := p.lx.Next()
	if tok.Kind != token.EOF {
		p.lastSpan = tok.Span
	}
	return tok
}

// accept consumes the next token when it has kind k.
func (p *Parser) accept(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

// expect - ожидаем конкретный токен. Если нет - репортим и прерываем оператор.
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) token.Token {
	if p.at(k) {
		return p.advance()
	}
	p.fail(code, msg)
	return token.Token{}
}

// fail reports at the current token and aborts the statement.
func (p *Parser) fail(code diag.Code, msg string) {
	p.failAt(p.diagnosticSpan(), code, msg)
}

func (p *Parser) failAt(sp source.Span, code diag.Code, msg string) {
	p.report(code, diag.SevError, sp, msg)
	panic(bailout{})
}

// diagnosticSpan - лучший span для диагностики: на синтетических токенах
// указываем сразу после последнего съеденного.
func (p *Parser) diagnosticSpan() source.Span {
	peek := p.lx.Peek()
	if peek.Span.Empty() && p.lastSpan.End > 0 {
		return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
	}
	return peek.Span
}

// resync - прокручиваем до конца логической строки.
func (p *Parser) resync() {
	for {
		switch p.peek().Kind {
		case token.EOF:
			return
		case token.Newline:
			p.advance()
			return
		default:
			p.advance()
		}
	}
}

func loc(t token.Token) ast.Loc {
	return ast.Loc{Span: t.Span, Line: t.Line}
}

func span(from ast.Loc, to source.Span) ast.Loc {
	from.Span = from.Span.Cover(to)
	return from
}
