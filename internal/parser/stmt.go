package parser

import (
	"fmt"

	"xdtrace/internal/ast"
	"xdtrace/internal/diag"
	"xdtrace/internal/token"
)

// parseStmts reads statements until end (EOF or Dedent), which is consumed.
func (p *Parser) parseStmts(end token.Kind) []ast.Stmt {
	var out []ast.Stmt
	for !p.at(end) && !p.at(token.EOF) {
		if p.enough() {
			for !p.at(token.EOF) {
				p.advance()
			}
			break
		}
		out = append(out, p.parseStmtRecover()...)
	}
	p.accept(end)
	return out
}

func (p *Parser) parseStmtRecover() (stmts []ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			p.resync()
			stmts = nil
		}
	}()
	return p.parseStmt()
}

func (p *Parser) parseStmt() []ast.Stmt {
	switch p.peek().Kind {
	case token.KwIf:
		return []ast.Stmt{p.parseIf()}
	case token.KwWhile:
		return []ast.Stmt{p.parseWhile()}
	case token.KwFor:
		return []ast.Stmt{p.parseFor()}
	case token.KwTry:
		return []ast.Stmt{p.parseTry()}
	case token.KwDef:
		return []ast.Stmt{p.parseDef()}
	case token.KwClass:
		return []ast.Stmt{p.parseClass()}
	case token.Indent, token.Dedent:
		tok := p.advance()
		p.report(diag.SynUnexpectedToken, diag.SevError, tok.Span, "unexpected "+tok.Kind.String())
		return nil
	}
	return p.parseSimpleStmts()
}

// parseSimpleStmts: small (';' small)* [';'] NEWLINE
func (p *Parser) parseSimpleStmts() []ast.Stmt {
	out := []ast.Stmt{p.parseSmallStmt()}
	for p.accept(token.Semicolon) {
		if p.at(token.Newline) || p.at(token.EOF) {
			break
		}
		out = append(out, p.parseSmallStmt())
	}
	if !p.accept(token.Newline) && !p.at(token.EOF) {
		p.fail(diag.SynUnexpectedToken, fmt.Sprintf("unexpected %s", describe(p.peek())))
	}
	return out
}

func (p *Parser) parseSmallStmt() ast.Stmt {
	tok := p.peek()
	switch tok.Kind {
	case token.KwPass:
		p.advance()
		return &ast.Pass{Loc: loc(tok)}
	case token.KwBreak, token.KwContinue:
		p.advance()
		if p.loopDepth == 0 {
			p.failAt(tok.Span, diag.SynOutsideLoop, fmt.Sprintf("'%s' outside loop", tok.Text))
		}
		if tok.Kind == token.KwBreak {
			return &ast.Break{Loc: loc(tok)}
		}
		return &ast.Continue{Loc: loc(tok)}
	case token.KwReturn:
		p.advance()
		if p.funcDepth == 0 {
			p.failAt(tok.Span, diag.SynOutsideFunction, "'return' outside function")
		}
		st := &ast.Return{Loc: loc(tok)}
		if !p.atEndOfSmall() {
			st.Value = p.parseTestList()
		}
		return st
	case token.KwRaise:
		p.advance()
		st := &ast.Raise{Loc: loc(tok)}
		if !p.atEndOfSmall() {
			st.Exc = p.parseTest()
		}
		return st
	case token.KwGlobal:
		p.advance()
		st := &ast.Global{Loc: loc(tok)}
		for {
			st.Names = append(st.Names, p.expect(token.Ident, diag.SynExpectIdentifier, "expected name after 'global'").Text)
			if !p.accept(token.Comma) {
				break
			}
		}
		return st
	case token.KwImport:
		return p.parseImport()
	case token.KwFrom:
		return p.parseFromImport()
	}
	return p.parseExprStmt()
}

func (p *Parser) atEndOfSmall() bool {
	return p.atOr(token.Newline, token.Semicolon, token.EOF)
}

// parseExprStmt: testlist (('=' testlist)+ | augop testlist)?
func (p *Parser) parseExprStmt() ast.Stmt {
	start := p.peek()
	first := p.parseTestList()
	if op := p.peek(); op.IsAssignOp() && op.Kind != token.Assign {
		p.advance()
		p.checkTarget(first, false)
		base, _ := op.Kind.AugmentedBase()
		return &ast.AugAssign{Loc: loc(start), Target: first, Op: base, Value: p.parseTestList()}
	}
	if !p.at(token.Assign) {
		return &ast.ExprStmt{Loc: loc(start), X: first}
	}
	exprs := []ast.Expr{first}
	for p.accept(token.Assign) {
		exprs = append(exprs, p.parseTestList())
	}
	targets := exprs[:len(exprs)-1]
	for _, t := range targets {
		p.checkTarget(t, true)
	}
	return &ast.Assign{Loc: loc(start), Targets: targets, Value: exprs[len(exprs)-1]}
}

// checkTarget rejects expressions that cannot be assigned to.
func (p *Parser) checkTarget(x ast.Expr, unpack bool) {
	switch x := x.(type) {
	case *ast.Name, *ast.Attribute, *ast.Subscript:
		return
	case *ast.Tuple:
		if unpack {
			for _, e := range x.Elts {
				p.checkTarget(e, true)
			}
			return
		}
	case *ast.List:
		if unpack {
			for _, e := range x.Elts {
				p.checkTarget(e, true)
			}
			return
		}
	}
	p.failAt(x.Pos().Span, diag.SynBadAssignTarget, "cannot assign to expression")
}

// parseBlock: ':' (simple_stmts | NEWLINE INDENT stmt+ DEDENT)
func (p *Parser) parseBlock() []ast.Stmt {
	p.expect(token.Colon, diag.SynExpectColon, "expected ':'")
	if !p.accept(token.Newline) {
		return p.parseSimpleStmts()
	}
	p.expect(token.Indent, diag.SynExpectBlock, "expected an indented block")
	return p.parseStmts(token.Dedent)
}

func (p *Parser) parseIf() ast.Stmt {
	tok := p.advance() // if / elif
	st := &ast.If{Loc: loc(tok), Cond: p.parseTest()}
	st.Body = p.parseBlock()
	switch p.peek().Kind {
	case token.KwElif:
		st.Else = []ast.Stmt{p.parseIf()}
	case token.KwElse:
		p.advance()
		st.Else = p.parseBlock()
	}
	return st
}

func (p *Parser) parseWhile() ast.Stmt {
	tok := p.advance()
	st := &ast.While{Loc: loc(tok), Cond: p.parseTest()}
	p.loopDepth++
	st.Body = p.parseBlock()
	p.loopDepth--
	return st
}

func (p *Parser) parseFor() ast.Stmt {
	tok := p.advance()
	st := &ast.For{Loc: loc(tok), Target: p.parseTargetList()}
	p.checkTarget(st.Target, true)
	p.expect(token.KwIn, diag.SynUnexpectedToken, "expected 'in'")
	st.Iter = p.parseTestList()
	p.loopDepth++
	st.Body = p.parseBlock()
	p.loopDepth--
	return st
}

// parseTargetList parses for-loop targets, which stop before 'in'.
func (p *Parser) parseTargetList() ast.Expr {
	first := p.parsePostfix()
	if !p.at(token.Comma) {
		return first
	}
	tup := &ast.Tuple{Loc: first.Pos(), Elts: []ast.Expr{first}}
	for p.accept(token.Comma) {
		if p.at(token.KwIn) {
			break
		}
		tup.Elts = append(tup.Elts, p.parsePostfix())
	}
	return tup
}

func (p *Parser) parseTry() ast.Stmt {
	tok := p.advance()
	st := &ast.Try{Loc: loc(tok), Body: p.parseBlock()}
	for p.at(token.KwExcept) {
		et := p.advance()
		h := ast.Handler{Loc: loc(et)}
		if !p.at(token.Colon) {
			h.Type = p.parseTest()
			if p.accept(token.KwAs) {
				h.Name = p.expect(token.Ident, diag.SynExpectIdentifier, "expected name after 'as'").Text
			}
		}
		h.Body = p.parseBlock()
		st.Handlers = append(st.Handlers, h)
	}
	if len(st.Handlers) > 0 && p.accept(token.KwElse) {
		st.Else = p.parseBlock()
	}
	hasFinally := p.accept(token.KwFinally)
	if hasFinally {
		st.Finally = p.parseBlock()
	}
	if len(st.Handlers) == 0 && !hasFinally {
		p.fail(diag.SynUnexpectedToken, "expected 'except' or 'finally' block")
	}
	return st
}

func (p *Parser) parseDef() ast.Stmt {
	tok := p.advance()
	name := p.expect(token.Ident, diag.SynExpectIdentifier, "expected function name")
	st := &ast.FuncDef{Loc: loc(tok), Name: name.Text}
	p.expect(token.LParen, diag.SynUnexpectedToken, "expected '('")
	p.parseParams(st)
	p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')'")

	loops := p.loopDepth
	p.funcDepth++
	p.loopDepth = 0
	st.Body = p.parseBlock()
	p.funcDepth--
	p.loopDepth = loops
	return st
}

func (p *Parser) parseParams(fn *ast.FuncDef) {
	seenDefault := false
	for !p.at(token.RParen) {
		if fn.KwArgs != "" {
			p.fail(diag.SynVariadicMustBeLast, "'**' parameter must be last")
		}
		switch {
		case p.accept(token.StarStar):
			fn.KwArgs = p.expect(token.Ident, diag.SynExpectIdentifier, "expected parameter name").Text
		case p.accept(token.Star):
			if fn.VarArgs != "" {
				p.fail(diag.SynVariadicMustBeLast, "duplicate '*' parameter")
			}
			fn.VarArgs = p.expect(token.Ident, diag.SynExpectIdentifier, "expected parameter name").Text
		default:
			if fn.VarArgs != "" {
				p.fail(diag.SynVariadicMustBeLast, "parameters after '*' are not supported")
			}
			name := p.expect(token.Ident, diag.SynExpectIdentifier, "expected parameter name")
			param := ast.Param{Name: name.Text}
			if p.accept(token.Assign) {
				param.Default = p.parseTest()
				seenDefault = true
			} else if seenDefault {
				p.failAt(name.Span, diag.SynDefaultOrder, "non-default parameter follows default parameter")
			}
			fn.Params = append(fn.Params, param)
		}
		if !p.accept(token.Comma) {
			break
		}
	}
}

func (p *Parser) parseClass() ast.Stmt {
	tok := p.advance()
	name := p.expect(token.Ident, diag.SynExpectIdentifier, "expected class name")
	st := &ast.ClassDef{Loc: loc(tok), Name: name.Text}
	if p.accept(token.LParen) {
		for !p.at(token.RParen) {
			st.Bases = append(st.Bases, p.parseTest())
			if !p.accept(token.Comma) {
				break
			}
		}
		p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')'")
	}
	funcs, loops := p.funcDepth, p.loopDepth
	p.funcDepth, p.loopDepth = 0, 0
	st.Body = p.parseBlock()
	p.funcDepth, p.loopDepth = funcs, loops
	return st
}

func (p *Parser) parseDottedName() string {
	name := p.expect(token.Ident, diag.SynExpectIdentifier, "expected module name").Text
	for p.accept(token.Dot) {
		name += "." + p.expect(token.Ident, diag.SynExpectIdentifier, "expected module name").Text
	}
	return name
}

// parseImport: 'import' dotted ['as' NAME] (',' dotted ['as' NAME])*
func (p *Parser) parseImport() ast.Stmt {
	tok := p.advance()
	st := &ast.Import{Loc: loc(tok)}
	for {
		a := ast.Alias{Name: p.parseDottedName()}
		if p.accept(token.KwAs) {
			a.AsName = p.expect(token.Ident, diag.SynExpectIdentifier, "expected name after 'as'").Text
		}
		st.Names = append(st.Names, a)
		if !p.accept(token.Comma) {
			return st
		}
	}
}

// parseFromImport: 'from' dotted 'import' (NAME ['as' NAME])+ | '(' ... ')'
func (p *Parser) parseFromImport() ast.Stmt {
	tok := p.advance()
	st := &ast.ImportFrom{Loc: loc(tok), Module: p.parseDottedName()}
	p.expect(token.KwImport, diag.SynUnexpectedToken, "expected 'import'")
	paren := p.accept(token.LParen)
	for {
		a := ast.Alias{Name: p.expect(token.Ident, diag.SynExpectIdentifier, "expected name to import").Text}
		if p.accept(token.KwAs) {
			a.AsName = p.expect(token.Ident, diag.SynExpectIdentifier, "expected name after 'as'").Text
		}
		st.Names = append(st.Names, a)
		if !p.accept(token.Comma) || (paren && p.at(token.RParen)) {
			break
		}
	}
	if paren {
		p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')'")
	}
	return st
}

func describe(t token.Token) string {
	switch t.Kind {
	case token.Ident, token.IntLit, token.FloatLit, token.StringLit:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	default:
		return fmt.Sprintf("'%s'", t.Kind)
	}
}
