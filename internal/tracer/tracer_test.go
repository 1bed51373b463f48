package tracer

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"xdtrace/internal/host"
	"xdtrace/internal/record"
	"xdtrace/internal/trace"
	"xdtrace/internal/vm"
)

type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func testOptions(mod func(*Options)) Options {
	opts := Options{Clock: &stepClock{t: time.Unix(1700000000, 0).UTC()}}
	if mod != nil {
		mod(&opts)
	}
	return opts
}

// load runs src untraced and returns the namespace it populated.
func load(t *testing.T, src string) (*vm.VM, *vm.Scope) {
	t.Helper()
	rt := vm.New(vm.Options{Stdout: io.Discard})
	ns := vm.NewScope()
	ns.Store("__name__", "__main__")
	if err := rt.Exec(nil, "<test>", []byte(src), ns); err != nil {
		t.Fatalf("load: %v", err)
	}
	return rt, ns
}

func lookup(t *testing.T, ns *vm.Scope, name string) host.Value {
	t.Helper()
	v, ok := ns.Lookup(name)
	if !ok {
		t.Fatalf("%s is not defined", name)
	}
	return v
}

func only[T record.Record](recs []record.Record) []T {
	var out []T
	for _, r := range recs {
		if x, ok := r.(T); ok {
			out = append(out, x)
		}
	}
	return out
}

const fibSource = `class Fib:
    def __init__(self):
        pass

    def calc(self, n):
        if n < 3:
            return 1
        return self.calc(n - 1) + self.calc(n - 2)

fib = Fib()
`

func TestFibonacciCallDepths(t *testing.T) {
	rt, ns := load(t, fibSource)
	fib := lookup(t, ns, "fib").(host.Object)
	calc, _ := fib.Attr("calc")

	tr := New(rt, testOptions(nil))
	got, err := tr.RunFunction(calc, []host.Value{int64(6)}, nil)
	if err != nil {
		t.Fatalf("RunFunction: %v", err)
	}
	if got != int64(8) {
		t.Errorf("result = %v, want 8", got)
	}

	calls := only[record.Call](tr.Records())
	var depths []int
	for _, c := range calls {
		depths = append(depths, c.Depth)
		if c.Name != "__main__.Fib.calc" {
			t.Errorf("call name = %q", c.Name)
		}
	}
	want := []int{0, 1, 2, 3, 4, 4, 3, 2, 3, 3, 1, 2, 3, 3, 2}
	if diff := cmp.Diff(want, depths); diff != "" {
		t.Errorf("depths (-want +got):\n%s", diff)
	}

	recs := tr.Records()
	fin, ok := recs[len(recs)-1].(record.Finish)
	if !ok {
		t.Fatalf("last record is %T, want record.Finish", recs[len(recs)-1])
	}
	if fin.Depth != 0 {
		t.Errorf("finish depth = %d", fin.Depth)
	}
}

func TestRepeatedImportsAreEachRecorded(t *testing.T) {
	rt, ns := load(t, "def f():\n    import sys\n    import sys\n    import sys\n")
	tr := New(rt, testOptions(func(o *Options) { o.CollectImports = true }))
	if _, err := tr.RunFunction(lookup(t, ns, "f"), nil, nil); err != nil {
		t.Fatal(err)
	}
	imports := only[record.Import](tr.Records())
	if len(imports) != 3 {
		t.Fatalf("got %d import records, want 3", len(imports))
	}
	for i, imp := range imports {
		if imp.Module != "sys" || imp.Depth != 1 {
			t.Errorf("import %d = %s at depth %d", i, imp.Module, imp.Depth)
		}
		if imp.CallerFile != "<test>" || imp.CallerLine != i+2 {
			t.Errorf("import %d caller = %s:%d", i, imp.CallerFile, imp.CallerLine)
		}
	}
}

func TestImportReturnsFollowCollectReturn(t *testing.T) {
	rt, ns := load(t, "def f():\n    import math\n")
	tr := New(rt, testOptions(func(o *Options) {
		o.CollectImports = true
		o.CollectReturn = true
	}))
	if _, err := tr.RunFunction(lookup(t, ns, "f"), nil, nil); err != nil {
		t.Fatal(err)
	}
	var kinds []string
	for _, r := range tr.Records() {
		kinds = append(kinds, r.Kind().String())
	}
	want := []string{"call", "import", "return", "return", "finish"}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("kinds (-want +got):\n%s", diff)
	}
}

func TestReturnValueIsRecorded(t *testing.T) {
	rt, ns := load(t, "def f():\n    return 123\n")
	tr := New(rt, testOptions(func(o *Options) { o.CollectReturn = true }))
	if _, err := tr.RunFunction(lookup(t, ns, "f"), nil, nil); err != nil {
		t.Fatal(err)
	}
	rets := only[record.Return](tr.Records())
	if len(rets) != 1 {
		t.Fatalf("got %d return records, want 1", len(rets))
	}
	if rets[0].Value != int64(123) || rets[0].Depth != 0 {
		t.Errorf("return = %v at depth %d", rets[0].Value, rets[0].Depth)
	}
}

func TestAssignmentsSeeExecutedValues(t *testing.T) {
	rt, ns := load(t, "def func():\n    a = 123\n    b = 456\n    c = a + b\n")
	tr := New(rt, testOptions(func(o *Options) { o.CollectAssignments = true }))
	if _, err := tr.RunFunction(lookup(t, ns, "func"), nil, nil); err != nil {
		t.Fatal(err)
	}
	type binding struct {
		Var   string
		Value host.Value
		Line  int
		Depth int
	}
	var got []binding
	for _, a := range only[record.Assignment](tr.Records()) {
		got = append(got, binding{a.Var, a.Value, a.Line, a.Depth})
	}
	want := []binding{
		{"a", int64(123), 2, 1},
		{"b", int64(456), 3, 1},
		{"c", int64(579), 4, 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("assignments (-want +got):\n%s", diff)
	}
}

func TestCallerLocationIsTheCallSite(t *testing.T) {
	rt, ns := load(t, "def g():\n    return 1\ndef f():\n    x = 0\n    return g()\n")
	tr := New(rt, testOptions(nil))
	if _, err := tr.RunFunction(lookup(t, ns, "f"), nil, nil); err != nil {
		t.Fatal(err)
	}
	calls := only[record.Call](tr.Records())
	if len(calls) != 2 {
		t.Fatalf("got %d calls", len(calls))
	}
	if calls[0].Name != "f" || calls[0].CallerFile != OriginFile() {
		t.Errorf("outer call = %s from %s", calls[0].Name, calls[0].CallerFile)
	}
	if calls[1].Name != "g" || calls[1].CallerFile != "<test>" || calls[1].CallerLine != 5 {
		t.Errorf("inner call = %s from %s:%d", calls[1].Name, calls[1].CallerFile, calls[1].CallerLine)
	}
}

func TestRunStatement(t *testing.T) {
	rt := vm.New(vm.Options{Stdout: io.Discard})
	tr := New(rt, testOptions(nil))
	ns := vm.NewScope()
	if err := tr.RunStatement("a = 123", ns); err != nil {
		t.Fatal(err)
	}
	if v, _ := ns.Lookup("a"); v != int64(123) {
		t.Errorf("a = %v, want 123", v)
	}
	// The statement's own module frame is the run's entry point.
	if n := len(only[record.Call](tr.Records())); n != 0 {
		t.Errorf("got %d call records, want 0", n)
	}
}

func TestScriptErrorPropagatesAfterTeardown(t *testing.T) {
	rt, ns := load(t, "def f():\n    import sys\n    raise ValueError('boom')\n")
	tr := New(rt, testOptions(func(o *Options) {
		o.CollectImports = true
		o.CollectReturn = true
	}))
	_, err := tr.RunFunction(lookup(t, ns, "f"), nil, nil)
	var e *vm.Error
	if !errors.As(err, &e) || e.Error() != "ValueError: boom" {
		t.Fatalf("err = %v", err)
	}
	if prev := rt.SetHook(nil); prev != nil {
		t.Errorf("hook left installed after a failing run")
	}
	recs := tr.Records()
	if _, ok := recs[len(recs)-1].(record.Finish); !ok {
		t.Errorf("last record is %T, want record.Finish", recs[len(recs)-1])
	}
	rets := only[record.Return](recs)
	if len(rets) != 2 || rets[1].Value != nil {
		t.Errorf("returns = %+v, want import return then unwinding nil", rets)
	}
	if _, err := tr.Result(); err != nil {
		t.Errorf("Result after failed run: %v", err)
	}
}

func TestReportIsIdempotent(t *testing.T) {
	rt, ns := load(t, fibSource)
	tr := New(rt, testOptions(func(o *Options) { o.CollectReturn = true }))
	if _, err := tr.Result(); !errors.Is(err, ErrNotRun) {
		t.Fatalf("Result before run: %v, want ErrNotRun", err)
	}
	calc, _ := lookup(t, ns, "fib").(host.Object).Attr("calc")
	if _, err := tr.RunFunction(calc, []host.Value{int64(4)}, nil); err != nil {
		t.Fatal(err)
	}
	first, err := tr.Result()
	if err != nil {
		t.Fatal(err)
	}
	second, _ := tr.Result()
	if first != second {
		t.Errorf("report changed between calls:\n%s\n---\n%s", first, second)
	}
	if tr.SessionID() == "" {
		t.Errorf("SessionID is empty after a run")
	}
}

func TestRecordsAreStreamedToSink(t *testing.T) {
	rt, ns := load(t, "def f():\n    return 1\n")
	ring := trace.NewRingSink(16)
	tr := New(rt, testOptions(func(o *Options) {
		o.CollectReturn = true
		o.Sink = ring
	}))
	if _, err := tr.RunFunction(lookup(t, ns, "f"), nil, nil); err != nil {
		t.Fatal(err)
	}
	if got, want := len(ring.Snapshot()), len(tr.Records()); got != want {
		t.Errorf("sink saw %d records, session has %d", got, want)
	}
}

func TestRecordedValuesDoNotChangeAfterwards(t *testing.T) {
	rt, ns := load(t, "def f():\n    a = [1]\n    a.append(2)\n    return a\n")
	var stream bytes.Buffer
	tr := New(rt, testOptions(func(o *Options) {
		o.CollectReturn = true
		o.CollectAssignments = true
		o.Sink = trace.NewStreamSink(&stream, trace.FormatText)
	}))
	out, err := tr.RunFunction(lookup(t, ns, "f"), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	first, err := tr.Result()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"=> a = [1] <test>:2", ">=> [1, 2]"} {
		if !strings.Contains(first, want) {
			t.Errorf("report missing %q:\n%s", want, first)
		}
	}
	if !strings.Contains(first, stream.String()) {
		t.Errorf("streamed records differ from the report:\n%s\n---\n%s", stream.String(), first)
	}

	out.(*vm.List).Append(int64(99))
	second, _ := tr.Result()
	if second != first {
		t.Errorf("report changed after the value was mutated:\n%s\n---\n%s", first, second)
	}
}

func TestSelfReferentialReturnValue(t *testing.T) {
	rt, ns := load(t, "def f():\n    a = []\n    a.append(a)\n    return a\n")
	tr := New(rt, testOptions(func(o *Options) { o.CollectReturn = true }))
	if _, err := tr.RunFunction(lookup(t, ns, "f"), nil, nil); err != nil {
		t.Fatal(err)
	}
	report, err := tr.Result()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(report, ">=> [[...]]") {
		t.Errorf("report:\n%s", report)
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	got := [4]bool{opts.CollectImports, opts.CollectParams, opts.CollectReturn, opts.CollectAssignments}
	if got != [4]bool{true, false, false, false} {
		t.Errorf("collect flags = %v", got)
	}
}

func TestNotCallable(t *testing.T) {
	rt, ns := load(t, "def f():\n    return 1\n")
	tr := New(rt, testOptions(nil))
	if _, err := tr.RunFunction(lookup(t, ns, "f"), nil, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.RunFunction(int64(1), nil, nil); !errors.Is(err, ErrNotCallable) {
		t.Errorf("err = %v, want ErrNotCallable", err)
	}
	if _, err := tr.Result(); !errors.Is(err, ErrNotRun) {
		t.Errorf("Result after a rejected target: %v, want ErrNotRun", err)
	}
	if tr.SessionID() != "" {
		t.Errorf("SessionID = %q after a rejected target", tr.SessionID())
	}
}

// reentrant is a runtime whose Call starts a nested run on the same tracer.
type reentrant struct {
	*vm.VM
	tr     *Tracer
	nested error
}

func (r *reentrant) Call(origin *host.Frame, fn host.Value, args []host.Value, kwargs []host.Kwarg) (host.Value, error) {
	r.nested = r.tr.RunStatement("pass", nil)
	return nil, errors.New("host failure")
}

func TestSessionIsExclusiveAndRestored(t *testing.T) {
	rt := &reentrant{VM: vm.New(vm.Options{Stdout: io.Discard})}
	rt.tr = New(rt, testOptions(func(o *Options) { o.CollectImports = true }))
	_, ns := load(t, "def f():\n    pass\n")

	_, err := rt.tr.RunFunction(lookup(t, ns, "f"), nil, nil)
	if err == nil || err.Error() != "host failure" {
		t.Fatalf("err = %v", err)
	}
	if !errors.Is(rt.nested, ErrSessionActive) {
		t.Errorf("nested run: %v, want ErrSessionActive", rt.nested)
	}
	if err := rt.tr.SetOptions(DefaultOptions()); err != nil {
		t.Errorf("SetOptions after run: %v", err)
	}
	if prev := rt.SetHook(nil); prev != nil {
		t.Errorf("hook was not restored")
	}
	// The interceptor must have handed the built-in loader back.
	if err := rt.Exec(nil, "<after>", []byte("import math\n"), nil); err != nil {
		t.Errorf("import after run: %v", err)
	}
	if n := len(only[record.Import](rt.tr.Records())); n != 0 {
		t.Errorf("import recorded outside a run")
	}
}

// scripted reports a single line event from Call and never returns through
// the hook, so the line's action is still pending at teardown. log records
// hook changes, loader changes and line lookups in order.
type scripted struct {
	*vm.VM
	hook host.Hook
	log  []string
}

func (r *scripted) SetHook(h host.Hook) host.Hook {
	if h == nil {
		r.log = append(r.log, "unhook")
	} else {
		r.log = append(r.log, "hook")
	}
	prev := r.hook
	r.hook = h
	return prev
}

func (r *scripted) SetImportFunc(f host.ImportFunc) host.ImportFunc {
	r.log = append(r.log, "import loader")
	return r.VM.SetImportFunc(f)
}

func (r *scripted) Lines() host.LineSource { return r }

func (r *scripted) Line(string, int) string {
	r.log = append(r.log, "line")
	return "x = 1"
}

func (r *scripted) Call(*host.Frame, host.Value, []host.Value, []host.Kwarg) (host.Value, error) {
	fr := &host.Frame{File: "s.py", Line: 1, Locals: host.EmptyBindings, Code: &host.Code{Name: "f", File: "s.py"}}
	r.hook(fr, host.EventLine, nil)
	return nil, nil
}

func TestTeardownFlushesBeforeUnhooking(t *testing.T) {
	vmrt, ns := load(t, "def f():\n    pass\n")
	rt := &scripted{VM: vmrt}
	tr := New(rt, testOptions(func(o *Options) {
		o.CollectImports = true
		o.CollectAssignments = true
	}))
	if _, err := tr.RunFunction(lookup(t, ns, "f"), nil, nil); err != nil {
		t.Fatal(err)
	}
	want := []string{"import loader", "hook", "line", "unhook", "import loader"}
	if diff := cmp.Diff(want, rt.log); diff != "" {
		t.Errorf("teardown order (-want +got):\n%s", diff)
	}
	if n := len(only[record.Assignment](tr.Records())); n != 1 {
		t.Errorf("got %d assignment records, want 1", n)
	}
}
