package vm

import (
	"fmt"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	"xdtrace/internal/host"
)

type recorder struct {
	events []string
	frames []*host.Frame
}

func (r *recorder) hook(fr *host.Frame, ev host.Event, arg host.Value) {
	s := fmt.Sprintf("%s %s:%d", ev, fr.Code.Name, fr.Line)
	if ev == host.EventReturn || ev == host.EventNativeReturn {
		s += " =" + reprValue(arg)
	}
	r.events = append(r.events, s)
	r.frames = append(r.frames, fr)
}

func runTraced(t *testing.T, opts Options, src string) *recorder {
	t.Helper()
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	vm := New(opts)
	rec := &recorder{}
	vm.SetHook(rec.hook)
	if err := vm.Exec(nil, "<events>", []byte(src), nil); err != nil {
		t.Fatalf("exec: %v", err)
	}
	return rec
}

func TestEventSequence(t *testing.T) {
	rec := runTraced(t, Options{}, "def f(a):\n    b = a + 1\n    return b\nx = f(1)\n")
	want := []string{
		"call <module>:1",
		"line <module>:1",
		"line <module>:4",
		"call f:1",
		"line f:2",
		"line f:3",
		"return f:3 =2",
		"return <module>:4 =None",
	}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}

	call := rec.frames[3]
	if call.Caller == nil || call.Caller.Line != 4 || call.Caller.Code.Name != "<module>" {
		t.Fatalf("caller of f = %+v, want <module> at line 4", call.Caller)
	}
	if call.File != "<events>" {
		t.Errorf("File = %q", call.File)
	}
}

func TestLocalsAreLive(t *testing.T) {
	rec := runTraced(t, Options{}, "def f():\n    a = 1\n    a = 2\n    return a\nf()\n")
	// The snapshot taken on the first line of f sees the final store.
	var first *host.Frame
	for i, ev := range rec.events {
		if ev == "line f:2" {
			first = rec.frames[i]
		}
	}
	if first == nil {
		t.Fatalf("no line event in f: %v", rec.events)
	}
	v, ok := first.Locals.Lookup("a")
	if !ok || v != int64(2) {
		t.Errorf("a = %v, %v; want 2", v, ok)
	}
}

func TestLoopLineEvents(t *testing.T) {
	rec := runTraced(t, Options{}, "for i in range(2):\n    pass\nn = 1\nwhile n:\n    n -= 1\n")
	want := []string{
		"call <module>:1",
		"line <module>:1",
		"line <module>:2",
		"line <module>:1",
		"line <module>:2",
		"line <module>:1",
		"line <module>:3",
		"line <module>:4",
		"line <module>:5",
		"line <module>:4",
		"return <module>:4 =None",
	}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestClassBodyIsAFrame(t *testing.T) {
	rec := runTraced(t, Options{}, "class A:\n    x = 1\n")
	want := []string{
		"call <module>:1",
		"line <module>:1",
		"call A:1",
		"line A:2",
		"return A:2 =None",
		"return <module>:1 =None",
	}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestUnwindingReturnCarriesNil(t *testing.T) {
	rec := runTraced(t, Options{}, "def f():\n    raise ValueError()\ntry:\n    f()\nexcept ValueError:\n    pass\n")
	found := false
	for _, ev := range rec.events {
		if ev == "return f:2 =None" {
			found = true
		}
	}
	if !found {
		t.Errorf("no unwinding return for f: %v", rec.events)
	}
}

func TestNativeEvents(t *testing.T) {
	src := "n = len('abc')\n"
	plain := runTraced(t, Options{}, src)
	for _, ev := range plain.events {
		if ev == "native_call len:1" {
			t.Fatalf("native events emitted without Native")
		}
	}

	rec := runTraced(t, Options{Native: true}, src)
	want := []string{
		"call <module>:1",
		"line <module>:1",
		"native_call len:1",
		"native_return len:1 =3",
		"return <module>:1 =None",
	}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
	if fr := rec.frames[2]; fr.File != "<builtin>" || fr.Caller == nil || fr.Caller.Code.Name != "<module>" {
		t.Errorf("native frame = %+v", fr)
	}
}

func TestHookReentryIsDropped(t *testing.T) {
	vm := New(Options{Stdout: io.Discard})
	fnSrc := "def g():\n    return 1\n"
	if err := vm.Exec(nil, "<defs>", []byte(fnSrc), nil); err != nil {
		t.Fatal(err)
	}
	m, _ := vm.Module("__main__")
	g, _ := m.Namespace().Lookup("g")

	calls := 0
	vm.SetHook(func(fr *host.Frame, ev host.Event, arg host.Value) {
		calls++
		if ev == host.EventCall && fr.Code.Name == "<module>" {
			if _, err := vm.Call(fr, g, nil, nil); err != nil {
				t.Errorf("call from hook: %v", err)
			}
		}
	})
	if err := vm.Exec(nil, "<main>", []byte("pass\n"), nil); err != nil {
		t.Fatal(err)
	}
	// call, line, return of the module; g's own events are suppressed.
	if calls != 3 {
		t.Errorf("hook ran %d times, want 3", calls)
	}
}

func TestSetHookReturnsPrevious(t *testing.T) {
	vm := New(Options{})
	if prev := vm.SetHook(func(*host.Frame, host.Event, host.Value) {}); prev != nil {
		t.Fatalf("initial hook = %p, want nil", prev)
	}
	if prev := vm.SetHook(nil); prev == nil {
		t.Fatalf("SetHook(nil) lost the installed hook")
	}
}
