package token_test

import (
	"testing"

	"xdtrace/internal/token"
)

func TestIsLiteral(t *testing.T) {
	lits := []token.Kind{token.IntLit, token.FloatLit, token.StringLit, token.KwNone, token.KwTrue, token.KwFalse}
	for _, k := range lits {
		if !(token.Token{Kind: k}).IsLiteral() {
			t.Fatalf("%v should be literal", k)
		}
	}
	non := []token.Kind{token.Ident, token.KwDef, token.Plus, token.LParen}
	for _, k := range non {
		if (token.Token{Kind: k}).IsLiteral() {
			t.Fatalf("%v must NOT be literal", k)
		}
	}
}

func TestIsAssignOp(t *testing.T) {
	ops := []token.Kind{token.Assign, token.PlusAssign, token.MinusAssign, token.StarAssign,
		token.SlashAssign, token.SlashSlashAssign, token.PercentAssign}
	for _, k := range ops {
		if !(token.Token{Kind: k}).IsAssignOp() {
			t.Errorf("%v should be an assignment operator", k)
		}
	}
	if (token.Token{Kind: token.EqEq}).IsAssignOp() {
		t.Errorf("== is not an assignment operator")
	}
	if base, _ := token.SlashSlashAssign.AugmentedBase(); base != token.SlashSlash {
		t.Errorf("AugmentedBase(//=) = %v", base)
	}
}

func TestKeywords(t *testing.T) {
	for _, kw := range []string{"def", "class", "None", "True", "elif", "global"} {
		k, ok := token.LookupKeyword(kw)
		if !ok || !(token.Token{Kind: k}).IsKeyword() {
			t.Errorf("%q should be a keyword", kw)
		}
		if k.String() != kw {
			t.Errorf("%v.String() = %q, want %q", k, k.String(), kw)
		}
	}
	if _, ok := token.LookupKeyword("none"); ok {
		t.Errorf("keywords are case sensitive")
	}
	if _, ok := token.LookupKeyword("print"); ok {
		t.Errorf("builtins are identifiers")
	}
}

func TestKindStringCoversAll(t *testing.T) {
	for k := token.Invalid; k <= token.RBrace; k++ {
		if k.String() == "unknown" {
			t.Errorf("kind %d has no name", k)
		}
	}
}
