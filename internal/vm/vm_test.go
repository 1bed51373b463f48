package vm

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"xdtrace/internal/diag"
)

func exec(t *testing.T, src string) (*Scope, string, error) {
	t.Helper()
	var out bytes.Buffer
	vm := New(Options{Stdout: &out})
	ns := NewScope()
	err := vm.Exec(nil, "<test>", []byte(src), ns)
	return ns, out.String(), err
}

func mustExec(t *testing.T, src string) (*Scope, string) {
	t.Helper()
	ns, out, err := exec(t, src)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	return ns, out
}

func reprOf(t *testing.T, ns *Scope, name string) string {
	t.Helper()
	v, ok := ns.Lookup(name)
	if !ok {
		t.Fatalf("%s is not bound", name)
	}
	return reprValue(v)
}

func TestExpressions(t *testing.T) {
	cases := []struct {
		expr string
		want string
	}{
		{"1 + 2 * 3", "7"},
		{"7 // 2, -7 // 2, 7 % -3, -7 % 3", "(3, -4, -2, 2)"},
		{"7 / 2", "3.5"},
		{"2 ** 10, 2 ** -1", "(1024, 0.5)"},
		{"1 < 2 <= 2 != 3", "True"},
		{"'ab' * 2 + 'c'", "'ababc'"},
		{"[1, 2] + [3]", "[1, 2, 3]"},
		{"(1,) * 2", "(1, 1)"},
		{"None or 0 or 'x'", "'x'"},
		{"1 and 0", "0"},
		{"not []", "True"},
		{"'b' in 'abc', 3 not in [1, 2], 'k' in {'k': 1}", "(True, True, True)"},
		{"x if False else 'other'", "'other'"},
		{"{'a': 1, 'b': [2, 3]}", "{'a': 1, 'b': [2, 3]}"},
		{"'%s=%d (%.2f) %r' % ('n', 3, 2.5, 'q')", "\"n=3 (2.50) 'q'\""},
		{"'{}-{name}-{0}'.format(1, name='z')", "'1-z-1'"},
		{"', '.join(['a', 'b'])", "'a, b'"},
		{"'  a b  '.split()", "['a', 'b']"},
		{"len('héllo'), 'héllo'[1]", "(5, 'é')"},
		{"range(1, 10, 3)[-1]", "7"},
		{"sorted([3, 1, 2], reverse=True)", "[3, 2, 1]"},
		{"min(4, 2, 8), max([1, 9, 3]), sum(range(5)), abs(-3)", "(2, 9, 10, 3)"},
		{"int('42') + int(2.9), float('1.5'), str(12)", "(44, 1.5, '12')"},
		{"list(enumerate('ab')), list(zip([1, 2], 'xy'))", "([(0, 'a'), (1, 'b')], [(1, 'x'), (2, 'y')])"},
		{"isinstance(True, int), isinstance(1.0, (str, float))", "(True, True)"},
		{"type(1) is int, type('') is str", "(True, True)"},
		{"1 == 1.0, [1, (2,)] == [1, (2,)], {'a': 1} == {'a': 1}", "(True, True, True)"},
		{"0.1 + 0.2", "0.30000000000000004"},
		{"1e20, 1.0 / 3", "(1e+20, 0.3333333333333333)"},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			ns, _ := mustExec(t, "x = 1\nr = "+tc.expr+"\n")
			if got := reprOf(t, ns, "r"); got != tc.want {
				t.Errorf("%s = %s, want %s", tc.expr, got, tc.want)
			}
		})
	}
}

func TestAssignmentForms(t *testing.T) {
	ns, _ := mustExec(t, `a = b = 1
c, (d, e) = 2, [3, 4]
first, = [5]
items = [0, 0]
items[1] = 9
counts = {}
counts['k'] = 1
counts['k'] += 2
total = 10
total -= 4
acc = [1]
alias = acc
acc += [2]
`)
	got := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "first", "items", "counts", "total", "alias"} {
		got[name] = reprOf(t, ns, name)
	}
	want := map[string]string{
		"a": "1", "b": "1", "c": "2", "d": "3", "e": "4", "first": "5",
		"items": "[0, 9]", "counts": "{'k': 3}", "total": "6", "alias": "[1, 2]",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bindings (-want +got):\n%s", diff)
	}
}

func TestRecursiveContainersRepr(t *testing.T) {
	ns, out := mustExec(t, `a = [1]
a.append(a)
d = {}
d['k'] = d
t = ([],)
t[0].append(t)
e = ValueError(a)
print(a, d)
`)
	got := map[string]string{}
	for _, name := range []string{"a", "d", "t", "e"} {
		got[name] = reprOf(t, ns, name)
	}
	want := map[string]string{
		"a": "[1, [...]]",
		"d": "{'k': {...}}",
		"t": "([(...)],)",
		"e": "ValueError([1, [...]])",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("repr (-want +got):\n%s", diff)
	}
	if out != "[1, [...]] {'k': {...}}\n" {
		t.Errorf("print output = %q", out)
	}
}

func TestControlFlow(t *testing.T) {
	_, out := mustExec(t, `for i in range(6):
    if i == 1:
        continue
    elif i == 4:
        break
    print(i)
n = 3
while n:
    n -= 1
    print('w', n, sep=':')
`)
	want := "0\n2\n3\nw:2\nw:1\nw:0\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestFunctions(t *testing.T) {
	ns, _ := mustExec(t, `def f(a, b=2, *rest, **opts):
    return a, b, rest, opts

r1 = f(1)
r2 = f(1, 3, 4, 5, k='v')
r3 = f(b=7, a=6)
args = [1, 2, 3]
r4 = f(*args, **{'z': 0})

def counter():
    count = [0]
    def bump(step=1):
        count[0] += step
        return count[0]
    return bump

bump = counter()
bump()
r5 = bump(5)

g = 1
def set_global():
    global g
    g = 2
set_global()
`)
	want := map[string]string{
		"r1": "(1, 2, (), {})",
		"r2": "(1, 3, (4, 5), {'k': 'v'})",
		"r3": "(6, 7, (), {})",
		"r4": "(1, 2, (3,), {'z': 0})",
		"r5": "6",
		"g":  "2",
	}
	got := map[string]string{}
	for name := range want {
		got[name] = reprOf(t, ns, name)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bindings (-want +got):\n%s", diff)
	}
}

func TestArgumentErrors(t *testing.T) {
	cases := []struct {
		call string
		want string
	}{
		{"f()", "TypeError: f() missing required argument: 'a'"},
		{"f(1, 2)", "TypeError: f() takes 1 positional arguments but 2 were given"},
		{"f(1, a=2)", "TypeError: f() got multiple values for argument 'a'"},
		{"f(1, b=2)", "TypeError: f() got an unexpected keyword argument 'b'"},
	}
	for _, tc := range cases {
		t.Run(tc.call, func(t *testing.T) {
			_, _, err := exec(t, "def f(a):\n    return a\n"+tc.call+"\n")
			if err == nil || err.Error() != tc.want {
				t.Errorf("err = %v, want %s", err, tc.want)
			}
		})
	}
}

func TestClasses(t *testing.T) {
	ns, out := mustExec(t, `class Base:
    kind = 'base'
    def __init__(self, n):
        self.n = n
    def describe(self):
        return self.kind + ':' + str(self.n)

class Child(Base):
    kind = 'child'
    def __str__(self):
        return 'Child(' + str(self.n) + ')'

c = Child(3)
d = c.describe()
print(c)
is_base = isinstance(c, Base)
cls_name = Child.__name__
`)
	if got := reprOf(t, ns, "d"); got != "'child:3'" {
		t.Errorf("d = %s", got)
	}
	if got := reprOf(t, ns, "is_base"); got != "True" {
		t.Errorf("is_base = %s", got)
	}
	if out != "Child(3)\n" {
		t.Errorf("print = %q", out)
	}
	v, _ := ns.Lookup("c")
	inst := v.(*Instance)
	if got := inst.Class().ClassName(); got != "__main__.Child" {
		t.Errorf("ClassName = %q", got)
	}
	if !inst.cls.HasRoutine("describe") || inst.cls.HasRoutine("kind") {
		t.Errorf("HasRoutine must see inherited methods only")
	}
	if got := inst.Repr(); got != "<__main__.Child object>" {
		t.Errorf("Repr = %q", got)
	}
}

func TestExceptions(t *testing.T) {
	ns, out := mustExec(t, `class AppError(ValueError):
    pass

log = []
try:
    try:
        raise AppError('boom')
    except KeyError:
        log.append('wrong')
    finally:
        log.append('finally')
except ValueError as e:
    log.append(str(e))
    caught = e
else:
    log.append('else')

try:
    {}['missing']
except LookupError as e:
    log.append(repr(e))

def reraise():
    try:
        1 / 0
    except ZeroDivisionError:
        raise
try:
    reraise()
except Exception as e:
    log.append(type(e).__name__)
print(log)
`)
	want := "['finally', 'boom', \"KeyError('missing')\", 'ZeroDivisionError']\n"
	if out != want {
		t.Errorf("log = %q, want %q", out, want)
	}
	if _, ok := ns.Lookup("e"); ok {
		t.Errorf("handler name must be unbound after the handler")
	}
	if got := reprOf(t, ns, "caught"); got != "AppError('boom')" {
		t.Errorf("caught = %s", got)
	}
}

func TestUncaughtTraceback(t *testing.T) {
	var out bytes.Buffer
	vm := New(Options{Stdout: &out})
	src := "def inner():\n    raise ValueError('bad')\ndef outer():\n    inner()\nouter()\n"
	err := vm.Exec(nil, "<tb>", []byte(src), nil)
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("err = %v, want *Error", err)
	}
	want := []TraceFrame{
		{File: "<tb>", Line: 2, Name: "inner"},
		{File: "<tb>", Line: 4, Name: "outer"},
		{File: "<tb>", Line: 5, Name: "<module>"},
	}
	if diff := cmp.Diff(want, e.Traceback); diff != "" {
		t.Errorf("traceback (-want +got):\n%s", diff)
	}
	text := e.Format(vm.Lines())
	for _, frag := range []string{
		"Traceback (most recent call last):",
		"File \"<tb>\", line 5, in <module>",
		"    raise ValueError('bad')",
		"ValueError: bad\n",
	} {
		if !strings.Contains(text, frag) {
			t.Errorf("traceback missing %q:\n%s", frag, text)
		}
	}
}

func TestRuntimeErrors(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"x = undefined", "NameError: name 'undefined' is not defined"},
		{"x = 1 + 'a'", "TypeError: unsupported operand type(s) for +: 'int' and 'str'"},
		{"x = [1][3]", "IndexError: list index out of range"},
		{"x = 1 // 0", "ZeroDivisionError: integer division or modulo by zero"},
		{"x = 9223372036854775807 + 1", "OverflowError: integer overflow"},
		{"a, b = [1]", "ValueError: not enough values to unpack (expected 2, got 1)"},
		{"x = (1).missing", "AttributeError: 'int' object has no attribute 'missing'"},
		{"x = 3()", "TypeError: 'int' object is not callable"},
		{"raise 5", "TypeError: exceptions must derive from BaseException"},
		{"def f():\n    return f()\nf()", "RecursionError: maximum recursion depth exceeded"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			_, _, err := exec(t, tc.src+"\n")
			if err == nil || err.Error() != tc.want {
				t.Errorf("err = %v, want %s", err, tc.want)
			}
		})
	}
}

func TestSyntaxErrorIsReturned(t *testing.T) {
	_, _, err := exec(t, "def f(:\n    pass\n")
	var se *diag.SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *diag.SyntaxError", err)
	}
}

func TestSystemExit(t *testing.T) {
	_, _, err := exec(t, "import sys\nsys.exit(3)\n")
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("err = %v", err)
	}
	if code, ok := e.ExitCode(); !ok || code != 3 {
		t.Errorf("ExitCode = %d, %v", code, ok)
	}
}
