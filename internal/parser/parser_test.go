package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"xdtrace/internal/ast"
	"xdtrace/internal/diag"
	"xdtrace/internal/source"
	"xdtrace/internal/token"
)

var ignoreLoc = cmpopts.IgnoreTypes(ast.Loc{})

func parse(t *testing.T, src string) *ast.Module {
	t.Helper()
	fs := source.NewFileSet()
	mod, err := Parse(fs, fs.AddVirtual("t.py", []byte(src)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return mod
}

func parseErr(t *testing.T, src string) *diag.SyntaxError {
	t.Helper()
	fs := source.NewFileSet()
	_, err := Parse(fs, fs.AddVirtual("t.py", []byte(src)))
	var se *diag.SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("want *diag.SyntaxError, got %v", err)
	}
	return se
}

func name(id string) *ast.Name           { return &ast.Name{ID: id} }
func num(v int64) *ast.Const             { return &ast.Const{Value: v} }
func str(v string) *ast.Const            { return &ast.Const{Value: v} }
func attr(x ast.Expr, n string) ast.Expr { return &ast.Attribute{X: x, Name: n} }

func TestAssignments(t *testing.T) {
	mod := parse(t, "a = b = 1\nx.y += 2\nfirst, = items\na, b = b, a\n")
	want := []ast.Stmt{
		&ast.Assign{Targets: []ast.Expr{name("a"), name("b")}, Value: num(1)},
		&ast.AugAssign{Target: attr(name("x"), "y"), Op: token.Plus, Value: num(2)},
		&ast.Assign{Targets: []ast.Expr{&ast.Tuple{Elts: []ast.Expr{name("first")}}}, Value: name("items")},
		&ast.Assign{
			Targets: []ast.Expr{&ast.Tuple{Elts: []ast.Expr{name("a"), name("b")}}},
			Value:   &ast.Tuple{Elts: []ast.Expr{name("b"), name("a")}},
		},
	}
	if diff := cmp.Diff(want, mod.Body, ignoreLoc); diff != "" {
		t.Errorf("body (-want +got):\n%s", diff)
	}
}

func TestPrecedence(t *testing.T) {
	mod := parse(t, "r = -a ** 2 + b * c if not d else e or f\n")
	got := mod.Body[0].(*ast.Assign).Value
	want := &ast.IfExpr{
		Cond: &ast.UnaryOp{Op: token.KwNot, X: name("d")},
		Then: &ast.BinOp{
			Op: token.Plus,
			L:  &ast.UnaryOp{Op: token.Minus, X: &ast.BinOp{Op: token.StarStar, L: name("a"), R: num(2)}},
			R:  &ast.BinOp{Op: token.Star, L: name("b"), R: name("c")},
		},
		Else: &ast.BoolOp{Op: token.KwOr, L: name("e"), R: name("f")},
	}
	if diff := cmp.Diff(ast.Expr(want), got, ignoreLoc); diff != "" {
		t.Errorf("expr (-want +got):\n%s", diff)
	}
}

func TestComparisonChain(t *testing.T) {
	mod := parse(t, "ok = 0 < x <= 10 and k not in d and v is not None\n")
	and := mod.Body[0].(*ast.Assign).Value.(*ast.BoolOp)
	inner := and.L.(*ast.BoolOp)
	chain := inner.L.(*ast.Compare)
	if diff := cmp.Diff([]ast.CmpOp{ast.CmpLt, ast.CmpLtE}, chain.Ops); diff != "" {
		t.Errorf("chain ops (-want +got):\n%s", diff)
	}
	if op := inner.R.(*ast.Compare).Ops[0]; op != ast.CmpNotIn {
		t.Errorf("op = %s, want not in", op)
	}
	if op := and.R.(*ast.Compare).Ops[0]; op != ast.CmpIsNot {
		t.Errorf("op = %s, want is not", op)
	}
}

func TestDefAndCall(t *testing.T) {
	src := "def f(a, b=2, *rest, **opts):\n" +
		"    return g(a, *rest, key='v', **opts)\n"
	mod := parse(t, src)
	want := &ast.FuncDef{
		Name:    "f",
		Params:  []ast.Param{{Name: "a"}, {Name: "b", Default: num(2)}},
		VarArgs: "rest",
		KwArgs:  "opts",
		Body: []ast.Stmt{&ast.Return{Value: &ast.Call{
			Fn:       name("g"),
			Args:     []ast.Expr{name("a")},
			Star:     name("rest"),
			Keywords: []ast.Keyword{{Name: "key", Value: str("v")}},
			DStar:    name("opts"),
		}}},
	}
	if diff := cmp.Diff(ast.Stmt(want), mod.Body[0], ignoreLoc); diff != "" {
		t.Errorf("def (-want +got):\n%s", diff)
	}
}

func TestCompoundStatements(t *testing.T) {
	src := `class Fib(Base):
    def calc(self, n):
        if n < 2:
            return n
        elif n == 2:
            return 1
        else:
            return self.calc(n - 1) + self.calc(n - 2)

for i, v in pairs:
    while v:
        v -= 1
        if v == 3: break
try:
    import sys, os.path as p
    from m import (a, b as c,)
except ValueError as e:
    raise
except:
    pass
else:
    global_value = 1
finally:
    done = True
`
	mod := parse(t, src)
	if len(mod.Body) != 3 {
		t.Fatalf("statements = %d, want 3", len(mod.Body))
	}
	cls := mod.Body[0].(*ast.ClassDef)
	if cls.Name != "Fib" || len(cls.Bases) != 1 {
		t.Errorf("class = %+v", cls)
	}
	fn := cls.Body[0].(*ast.FuncDef)
	ifst := fn.Body[0].(*ast.If)
	elif := ifst.Else[0].(*ast.If)
	if len(elif.Else) != 1 {
		t.Errorf("elif chain lost else branch")
	}
	if got := fn.Pos().Line; got != 2 {
		t.Errorf("def line = %d, want 2", got)
	}
	loop := mod.Body[1].(*ast.For)
	if _, ok := loop.Target.(*ast.Tuple); !ok {
		t.Errorf("for target = %T, want tuple", loop.Target)
	}
	try := mod.Body[2].(*ast.Try)
	if len(try.Handlers) != 2 || try.Handlers[0].Name != "e" || try.Handlers[1].Type != nil {
		t.Errorf("handlers = %+v", try.Handlers)
	}
	imp := try.Body[0].(*ast.Import)
	if diff := cmp.Diff([]ast.Alias{{Name: "sys"}, {Name: "os.path", AsName: "p"}}, imp.Names); diff != "" {
		t.Errorf("import (-want +got):\n%s", diff)
	}
	from := try.Body[1].(*ast.ImportFrom)
	if diff := cmp.Diff([]ast.Alias{{Name: "a"}, {Name: "b", AsName: "c"}}, from.Names); diff != "" {
		t.Errorf("from import (-want +got):\n%s", diff)
	}
	if len(try.Else) != 1 || len(try.Finally) != 1 {
		t.Errorf("else/finally = %d/%d", len(try.Else), len(try.Finally))
	}
}

func TestLiterals(t *testing.T) {
	mod := parse(t, "x = [0x1F, 1_000, 2.5, 'a' \"b\", None, True, {'k': (1,)}, ()]\n")
	got := mod.Body[0].(*ast.Assign).Value
	want := &ast.List{Elts: []ast.Expr{
		num(31), num(1000), &ast.Const{Value: 2.5}, str("ab"),
		&ast.Const{Value: nil}, &ast.Const{Value: true},
		&ast.Dict{Keys: []ast.Expr{str("k")}, Values: []ast.Expr{&ast.Tuple{Elts: []ast.Expr{num(1)}}}},
		&ast.Tuple{},
	}}
	if diff := cmp.Diff(ast.Expr(want), got, ignoreLoc); diff != "" {
		t.Errorf("literal (-want +got):\n%s", diff)
	}
}

func TestSemicolonsAndLines(t *testing.T) {
	mod := parse(t, "a = 1; b = 2\n\n# note\nc = (a +\n     b)\n")
	var lines []int
	for _, st := range mod.Body {
		lines = append(lines, st.Pos().Line)
	}
	if diff := cmp.Diff([]int{1, 1, 4}, lines); diff != "" {
		t.Errorf("lines (-want +got):\n%s", diff)
	}
}

func TestSyntaxErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		code diag.Code
		line int
	}{
		{"return outside function", "x = 1\nreturn x\n", diag.SynOutsideFunction, 2},
		{"break outside loop", "def f():\n    break\n", diag.SynOutsideLoop, 2},
		{"bad target", "f() = 1\n", diag.SynBadAssignTarget, 1},
		{"augmented tuple", "a, b += 1\n", diag.SynBadAssignTarget, 1},
		{"default order", "def f(a=1, b):\n    pass\n", diag.SynDefaultOrder, 1},
		{"kwargs not last", "def f(**kw, a):\n    pass\n", diag.SynVariadicMustBeLast, 1},
		{"missing colon", "if x\n    pass\n", diag.SynExpectColon, 1},
		{"missing expression", "x = \n", diag.SynExpectExpression, 1},
		{"missing block", "while x:\npass\n", diag.SynExpectBlock, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			se := parseErr(t, tc.src)
			if got := se.Items[0].Code; got != tc.code {
				t.Errorf("code = %s, want %s", got, tc.code)
			}
			if got := se.Line(); got != tc.line {
				t.Errorf("line = %d, want %d", got, tc.line)
			}
			if !strings.HasPrefix(se.Error(), "t.py:") {
				t.Errorf("error = %q", se.Error())
			}
		})
	}
}

func TestRecoversAfterError(t *testing.T) {
	se := parseErr(t, "a = )\nb = 2\nc = (\n")
	if len(se.Items) < 2 {
		t.Fatalf("want errors on both broken lines, got %d", len(se.Items))
	}
}
