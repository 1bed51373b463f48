package vm

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"xdtrace/internal/host"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func runFile(t *testing.T, vm *VM, path string) *Module {
	t.Helper()
	if err := vm.ExecFile(nil, path, nil); err != nil {
		t.Fatalf("ExecFile: %v", err)
	}
	m, ok := vm.Module("__main__")
	if !ok {
		t.Fatal("__main__ is not registered")
	}
	return m
}

func TestImportForms(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"helper.py":       "value = 41\ndef inc(x):\n    return x + 1\n",
		"pkg/__init__.py": "name = 'pkg'\n",
		"pkg/sub.py":      "VALUE = 'sub'\n",
		"main.py": `import helper
import pkg.sub
from pkg import sub as s2
from helper import inc
import helper as h
r1 = inc(helper.value)
r2 = pkg.sub.VALUE
r3 = s2 is pkg.sub
r4 = pkg.name
r5 = h is helper
import math
r6 = math.pi > 3
try:
    import missing_mod
except ImportError as e:
    r7 = str(e)
try:
    from helper import nothing
except ImportError as e:
    r8 = str(e)
`,
	})
	vm := New(Options{Stdout: io.Discard})
	m := runFile(t, vm, filepath.Join(dir, "main.py"))

	want := map[string]string{
		"r1": "42",
		"r2": "'sub'",
		"r3": "True",
		"r4": "'pkg'",
		"r5": "True",
		"r6": "True",
		"r7": "\"No module named 'missing_mod'\"",
		"r8": "\"cannot import name 'nothing' from 'helper'\"",
	}
	got := map[string]string{}
	for name := range want {
		v, ok := m.Namespace().Lookup(name)
		if !ok {
			t.Fatalf("%s is not bound", name)
		}
		got[name] = reprValue(v)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bindings (-want +got):\n%s", diff)
	}
	if _, ok := vm.Module("missing_mod"); ok {
		t.Errorf("failed import left a module behind")
	}
}

func TestModuleFramesAreCalledFromImporter(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"dep.py":  "x = 1\n",
		"main.py": "y = 0\nimport dep\n",
	})
	vm := New(Options{Stdout: io.Discard})
	var calls []*host.Frame
	vm.SetHook(func(fr *host.Frame, ev host.Event, _ host.Value) {
		if ev == host.EventCall {
			calls = append(calls, fr)
		}
	})
	runFile(t, vm, filepath.Join(dir, "main.py"))
	if len(calls) != 2 {
		t.Fatalf("got %d call events, want 2", len(calls))
	}
	dep := calls[1]
	if dep.Code.Name != "<module>" || filepath.Base(dep.File) != "dep.py" {
		t.Errorf("second call = %s in %s", dep.Code.Name, dep.File)
	}
	if dep.Caller == nil || dep.Caller.Line != 2 || filepath.Base(dep.Caller.File) != "main.py" {
		t.Errorf("dep caller = %+v, want main.py:2", dep.Caller)
	}
}

func TestReloadReexecutes(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"conf.py": "level = 1\n",
		"main.py": "import conf\nfirst = conf.level\n",
	})
	vm := New(Options{Stdout: io.Discard})
	m := runFile(t, vm, filepath.Join(dir, "main.py"))

	if err := os.WriteFile(filepath.Join(dir, "conf.py"), []byte("level = 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	src := "conf2 = reload(conf)\nsecond = conf.level\nsame = conf2 is conf\n"
	if err := vm.Exec(nil, "<reload>", []byte(src), m.Namespace()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	for name, want := range map[string]string{"first": "1", "second": "2", "same": "True"} {
		v, _ := m.Namespace().Lookup(name)
		if got := reprValue(v); got != want {
			t.Errorf("%s = %s, want %s", name, got, want)
		}
	}
}

func TestImportFuncInterception(t *testing.T) {
	vm := New(Options{Stdout: io.Discard})
	var seen []string
	var prev host.ImportFunc
	prev = vm.SetImportFunc(func(fr *host.Frame, name string, fromList []string) (host.Value, error) {
		seen = append(seen, name)
		if fr == nil || fr.Code.Name != "<module>" {
			t.Errorf("import of %s from frame %+v", name, fr)
		}
		return prev(fr, name, fromList)
	})
	if prev == nil {
		t.Fatal("SetImportFunc must report the built-in loader")
	}
	src := "import sys\nimport math\nfrom math import sqrt\nr = sqrt(16.0)\n"
	ns := NewScope()
	if err := vm.Exec(nil, "<imports>", []byte(src), ns); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"sys", "math", "math"}, seen); diff != "" {
		t.Errorf("imports (-want +got):\n%s", diff)
	}
	if v, _ := ns.Lookup("r"); v != 4.0 {
		t.Errorf("r = %v", v)
	}

	vm.SetImportFunc(nil)
	if err := vm.Exec(nil, "<again>", []byte("import math\n"), ns); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 3 {
		t.Errorf("interceptor still installed after SetImportFunc(nil)")
	}
}

func TestSysModule(t *testing.T) {
	vm := New(Options{Stdout: io.Discard, Argv: []string{"prog.py", "-v"}})
	ns := NewScope()
	src := "import sys\nargs = sys.argv\nlimit = sys.getrecursionlimit()\n"
	if err := vm.Exec(nil, "<sys>", []byte(src), ns); err != nil {
		t.Fatal(err)
	}
	args, _ := ns.Lookup("args")
	if got := reprValue(args); got != "['prog.py', '-v']" {
		t.Errorf("argv = %s", got)
	}
	if v, _ := ns.Lookup("limit"); v != int64(DefaultRecursionLimit) {
		t.Errorf("limit = %v", v)
	}
	vm.SetArgv([]string{"other"})
	if got := reprValue(args); got != "['other']" {
		t.Errorf("argv after SetArgv = %s", got)
	}
}
