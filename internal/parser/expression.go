package parser

import (
	"fmt"
	"strconv"
	"strings"

	"xdtrace/internal/ast"
	"xdtrace/internal/diag"
	"xdtrace/internal/lexer"
	"xdtrace/internal/token"
)

// parseTestList: test (',' test)* [','] - несколько выражений дают Tuple.
func (p *Parser) parseTestList() ast.Expr {
	first := p.parseTest()
	if !p.at(token.Comma) {
		return first
	}
	tup := &ast.Tuple{Loc: first.Pos(), Elts: []ast.Expr{first}}
	for p.accept(token.Comma) {
		if !p.startsExpr() {
			break
		}
		tup.Elts = append(tup.Elts, p.parseTest())
	}
	tup.Span = tup.Span.Cover(p.lastSpan)
	return tup
}

// startsExpr reports whether the next token can begin an expression.
func (p *Parser) startsExpr() bool {
	switch p.peek().Kind {
	case token.Ident, token.IntLit, token.FloatLit, token.StringLit,
		token.KwNone, token.KwTrue, token.KwFalse, token.KwNot,
		token.LParen, token.LBracket, token.LBrace, token.Minus, token.Plus:
		return true
	}
	return false
}

// parseTest: or_test ['if' or_test 'else' test]
func (p *Parser) parseTest() ast.Expr {
	x := p.parseOr()
	if !p.at(token.KwIf) {
		return x
	}
	p.advance()
	cond := p.parseOr()
	p.expect(token.KwElse, diag.SynExpectExpression, "expected 'else' in conditional expression")
	alt := p.parseTest()
	return &ast.IfExpr{Loc: span(x.Pos(), p.lastSpan), Cond: cond, Then: x, Else: alt}
}

func (p *Parser) parseOr() ast.Expr {
	x := p.parseAnd()
	for p.accept(token.KwOr) {
		r := p.parseAnd()
		x = &ast.BoolOp{Loc: span(x.Pos(), p.lastSpan), Op: token.KwOr, L: x, R: r}
	}
	return x
}

func (p *Parser) parseAnd() ast.Expr {
	x := p.parseNot()
	for p.accept(token.KwAnd) {
		r := p.parseNot()
		x = &ast.BoolOp{Loc: span(x.Pos(), p.lastSpan), Op: token.KwAnd, L: x, R: r}
	}
	return x
}

func (p *Parser) parseNot() ast.Expr {
	if p.at(token.KwNot) {
		tok := p.advance()
		x := p.parseNot()
		return &ast.UnaryOp{Loc: span(loc(tok), p.lastSpan), Op: token.KwNot, X: x}
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() ast.Expr {
	x := p.parseArith()
	var cmp *ast.Compare
	for {
		op, ok := p.compareOp()
		if !ok {
			break
		}
		if cmp == nil {
			cmp = &ast.Compare{Loc: x.Pos(), L: x}
		}
		cmp.Ops = append(cmp.Ops, op)
		cmp.Rs = append(cmp.Rs, p.parseArith())
	}
	if cmp == nil {
		return x
	}
	cmp.Span = cmp.Span.Cover(p.lastSpan)
	return cmp
}

// compareOp consumes a comparison operator, including 'not in' and 'is not'.
func (p *Parser) compareOp() (ast.CmpOp, bool) {
	switch p.peek().Kind {
	case token.EqEq:
		p.advance()
		return ast.CmpEq, true
	case token.BangEq:
		p.advance()
		return ast.CmpNotEq, true
	case token.Lt:
		p.advance()
		return ast.CmpLt, true
	case token.LtEq:
		p.advance()
		return ast.CmpLtE, true
	case token.Gt:
		p.advance()
		return ast.CmpGt, true
	case token.GtEq:
		p.advance()
		return ast.CmpGtE, true
	case token.KwIn:
		p.advance()
		return ast.CmpIn, true
	case token.KwIs:
		p.advance()
		if p.accept(token.KwNot) {
			return ast.CmpIsNot, true
		}
		return ast.CmpIs, true
	case token.KwNot:
		p.advance()
		p.expect(token.KwIn, diag.SynUnexpectedToken, "expected 'in' after 'not'")
		return ast.CmpNotIn, true
	}
	return 0, false
}

func (p *Parser) parseArith() ast.Expr {
	x := p.parseTerm()
	for p.atOr(token.Plus, token.Minus) {
		op := p.advance().Kind
		r := p.parseTerm()
		x = &ast.BinOp{Loc: span(x.Pos(), p.lastSpan), Op: op, L: x, R: r}
	}
	return x
}

func (p *Parser) parseTerm() ast.Expr {
	x := p.parseFactor()
	for p.atOr(token.Star, token.Slash, token.SlashSlash, token.Percent) {
		op := p.advance().Kind
		r := p.parseFactor()
		x = &ast.BinOp{Loc: span(x.Pos(), p.lastSpan), Op: op, L: x, R: r}
	}
	return x
}

func (p *Parser) parseFactor() ast.Expr {
	if p.atOr(token.Plus, token.Minus) {
		tok := p.advance()
		x := p.parseFactor()
		return &ast.UnaryOp{Loc: span(loc(tok), p.lastSpan), Op: tok.Kind, X: x}
	}
	return p.parsePower()
}

// parsePower: postfix ['**' factor] - правоассоциативно.
func (p *Parser) parsePower() ast.Expr {
	x := p.parsePostfix()
	if p.accept(token.StarStar) {
		r := p.parseFactor()
		return &ast.BinOp{Loc: span(x.Pos(), p.lastSpan), Op: token.StarStar, L: x, R: r}
	}
	return x
}

// parsePostfix: atom ( '(' args ')' | '[' index ']' | '.' NAME )*
func (p *Parser) parsePostfix() ast.Expr {
	x := p.parseAtom()
	for {
		switch p.peek().Kind {
		case token.LParen:
			p.advance()
			call := &ast.Call{Loc: x.Pos(), Fn: x}
			p.parseArgs(call)
			p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')'")
			call.Span = call.Span.Cover(p.lastSpan)
			x = call
		case token.LBracket:
			p.advance()
			idx := p.parseTestList()
			p.expect(token.RBracket, diag.SynUnclosedDelimiter, "expected ']'")
			x = &ast.Subscript{Loc: span(x.Pos(), p.lastSpan), X: x, Index: idx}
		case token.Dot:
			p.advance()
			name := p.expect(token.Ident, diag.SynExpectIdentifier, "expected attribute name")
			x = &ast.Attribute{Loc: span(x.Pos(), name.Span), X: x, Name: name.Text}
		default:
			return x
		}
	}
}

// parseArgs: positional, name=value, *seq and **map arguments.
func (p *Parser) parseArgs(call *ast.Call) {
	for !p.at(token.RParen) {
		switch {
		case p.accept(token.StarStar):
			call.DStar = p.parseTest()
		case p.accept(token.Star):
			call.Star = p.parseTest()
		default:
			x := p.parseTest()
			if name, ok := x.(*ast.Name); ok && p.accept(token.Assign) {
				call.Keywords = append(call.Keywords, ast.Keyword{Name: name.ID, Value: p.parseTest()})
				break
			}
			if len(call.Keywords) > 0 || call.Star != nil || call.DStar != nil {
				p.failAt(x.Pos().Span, diag.SynUnexpectedToken, "positional argument follows keyword argument")
			}
			call.Args = append(call.Args, x)
		}
		if !p.accept(token.Comma) {
			return
		}
	}
}

func (p *Parser) parseAtom() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case token.Ident:
		p.advance()
		return &ast.Name{Loc: loc(tok), ID: tok.Text}
	case token.KwNone:
		p.advance()
		return &ast.Const{Loc: loc(tok), Value: nil}
	case token.KwTrue, token.KwFalse:
		p.advance()
		return &ast.Const{Loc: loc(tok), Value: tok.Kind == token.KwTrue}
	case token.IntLit:
		p.advance()
		return &ast.Const{Loc: loc(tok), Value: p.intValue(tok)}
	case token.FloatLit:
		p.advance()
		return &ast.Const{Loc: loc(tok), Value: p.floatValue(tok)}
	case token.StringLit:
		return p.parseStrings()
	case token.LParen:
		p.advance()
		if p.accept(token.RParen) {
			return &ast.Tuple{Loc: span(loc(tok), p.lastSpan)}
		}
		x := p.parseTestList()
		p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')'")
		return x
	case token.LBracket:
		p.advance()
		list := &ast.List{Loc: loc(tok)}
		for !p.at(token.RBracket) {
			list.Elts = append(list.Elts, p.parseTest())
			if !p.accept(token.Comma) {
				break
			}
		}
		p.expect(token.RBracket, diag.SynUnclosedDelimiter, "expected ']'")
		list.Span = list.Span.Cover(p.lastSpan)
		return list
	case token.LBrace:
		p.advance()
		dict := &ast.Dict{Loc: loc(tok)}
		for !p.at(token.RBrace) {
			dict.Keys = append(dict.Keys, p.parseTest())
			p.expect(token.Colon, diag.SynExpectColon, "expected ':' in dict literal")
			dict.Values = append(dict.Values, p.parseTest())
			if !p.accept(token.Comma) {
				break
			}
		}
		p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected '}'")
		dict.Span = dict.Span.Cover(p.lastSpan)
		return dict
	}
	p.fail(diag.SynExpectExpression, fmt.Sprintf("expected expression, got %s", describe(tok)))
	return nil
}

// parseStrings concatenates adjacent string literals.
func (p *Parser) parseStrings() ast.Expr {
	first := p.peek()
	var sb strings.Builder
	for p.at(token.StringLit) {
		tok := p.advance()
		s, err := lexer.Unquote(tok.Text)
		if err != nil {
			p.failAt(tok.Span, diag.LexBadEscape, err.Error())
		}
		sb.WriteString(s)
	}
	return &ast.Const{Loc: span(loc(first), p.lastSpan), Value: sb.String()}
}

func (p *Parser) intValue(tok token.Token) int64 {
	v, err := strconv.ParseInt(tok.Text, 0, 64)
	if err != nil {
		p.failAt(tok.Span, diag.LexBadNumber, "integer literal out of range")
	}
	return v
}

func (p *Parser) floatValue(tok token.Token) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(tok.Text, "_", ""), 64)
	if err != nil {
		p.failAt(tok.Span, diag.LexBadNumber, "invalid float literal")
	}
	return v
}
