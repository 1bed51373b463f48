// Package vm is a tree-walking interpreter for a small Python-flavoured
// scripting language. It is the host runtime the tracer instruments: it
// implements host.Runtime, emits call/line/return events with frame
// snapshots and routes every import through a replaceable loader.
//
// A VM is not safe for concurrent use.
package vm

import (
	"io"
	"os"
	"path/filepath"

	"xdtrace/internal/ast"
	"xdtrace/internal/host"
	"xdtrace/internal/parser"
	"xdtrace/internal/source"
)

// DefaultRecursionLimit bounds the interpreted call depth.
const DefaultRecursionLimit = 1000

// Options configures a VM.
type Options struct {
	Path           []string  // module search path; a script's directory is prepended
	Argv           []string  // sys.argv
	Stdout         io.Writer // print() target, os.Stdout when nil
	Native         bool      // emit native_call/native_return around built-in routines
	RecursionLimit int       // 0 = DefaultRecursionLimit
}

// VM executes scripts. The zero value is not usable; call New.
type VM struct {
	opts  Options
	files *source.FileSet
	lines *source.LineCache

	hook     host.Hook
	inHook   bool
	importFn host.ImportFunc
	reloadFn host.ReloadFunc

	modules  map[string]*Module
	builtins *Scope
	sys      *Module
	path     *List
	argv     *List

	depth   int
	limit   int
	stdout  io.Writer
	globals map[*ast.FuncDef]map[string]bool
}

var _ host.Runtime = (*VM)(nil)

// New returns a VM with the built-in modules registered.
func New(opts Options) *VM {
	vm := &VM{
		opts:    opts,
		files:   source.NewFileSet(),
		modules: make(map[string]*Module),
		limit:   opts.RecursionLimit,
		stdout:  opts.Stdout,
		globals: make(map[*ast.FuncDef]map[string]bool),
	}
	if vm.limit <= 0 {
		vm.limit = DefaultRecursionLimit
	}
	if vm.stdout == nil {
		vm.stdout = os.Stdout
	}
	vm.lines = source.NewLineCache(vm.files)
	vm.path = NewList()
	for _, p := range opts.Path {
		vm.path.Append(p)
	}
	vm.argv = NewList()
	for _, a := range opts.Argv {
		vm.argv.Append(a)
	}
	vm.builtins = newBuiltins()
	vm.sys = vm.newSysModule()
	vm.modules["sys"] = vm.sys
	return vm
}

// Files returns the source files loaded so far.
func (vm *VM) Files() *source.FileSet { return vm.files }

// Lines implements host.Runtime.
func (vm *VM) Lines() host.LineSource { return vm.lines }

// SetHook implements host.Instrumentation.
func (vm *VM) SetHook(h host.Hook) host.Hook {
	prev := vm.hook
	vm.hook = h
	return prev
}

// SetImportFunc implements host.Importer. The built-in loader is reported
// as the previous function when none was installed; nil restores it.
func (vm *VM) SetImportFunc(f host.ImportFunc) host.ImportFunc {
	prev := vm.importFn
	if prev == nil {
		prev = vm.defaultImport
	}
	vm.importFn = f
	return prev
}

// SetReloadFunc implements host.Importer.
func (vm *VM) SetReloadFunc(f host.ReloadFunc) host.ReloadFunc {
	prev := vm.reloadFn
	if prev == nil {
		prev = vm.defaultReload
	}
	vm.reloadFn = f
	return prev
}

// SetArgv replaces sys.argv.
func (vm *VM) SetArgv(args []string) {
	vm.argv.elems = vm.argv.elems[:0]
	for _, a := range args {
		vm.argv.Append(a)
	}
}

// Module returns a loaded module by name.
func (vm *VM) Module(name string) (*Module, bool) {
	m, ok := vm.modules[name]
	return m, ok
}

// Depth returns the number of interpreted frames currently running.
func (vm *VM) Depth() int { return vm.depth }

// Call implements host.Executor.
func (vm *VM) Call(origin *host.Frame, fn host.Value, args []host.Value, kwargs []host.Kwarg) (host.Value, error) {
	return vm.call(origin, fn, args, kwargs)
}

// Exec implements host.Executor. The text is registered under name so its
// lines can be served back to the tracer.
func (vm *VM) Exec(origin *host.Frame, name string, src []byte, ns host.Namespace) error {
	id := vm.files.AddVirtual(name, src)
	tree, err := parser.Parse(vm.files, id)
	if err != nil {
		return err
	}
	m := vm.mainModule(ns, vm.files.Get(id).Path)
	_, err = vm.runModule(origin, m, tree)
	return err
}

// ExecFile implements host.Executor. The script's directory becomes the
// first entry of the module search path.
func (vm *VM) ExecFile(origin *host.Frame, path string, ns host.Namespace) error {
	id, err := vm.files.Load(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if vm.path.Len() == 0 || vm.path.elems[0] != dir {
		vm.path.elems = append([]Value{dir}, vm.path.elems...)
	}
	file := vm.files.Get(id).Path
	tree, err := parser.Parse(vm.files, id)
	if err != nil {
		return err
	}
	m := vm.mainModule(ns, file)
	if ns == nil {
		m.ns.Store("__file__", file)
	}
	_, err = vm.runModule(origin, m, tree)
	return err
}

// mainModule wraps ns as the __main__ module; nil gets a fresh namespace.
func (vm *VM) mainModule(ns host.Namespace, file string) *Module {
	name := "__main__"
	if ns == nil {
		scope := NewScope()
		scope.Store("__name__", name)
		ns = scope
	} else if v, ok := ns.Lookup("__name__"); ok {
		if s, ok := v.(string); ok {
			name = s
		}
	}
	m := &Module{Name: name, File: file, ns: ns}
	vm.modules[name] = m
	return m
}

func (vm *VM) runModule(caller *host.Frame, m *Module, tree *ast.Module) (Value, error) {
	f := &frame{
		vm:      vm,
		kind:    kindModule,
		code:    &host.Code{Name: "<module>", File: m.File, Line: 1},
		line:    1,
		locals:  m.ns,
		globals: m.ns,
		module:  m.Name,
		caller:  caller,
	}
	return vm.runFrame(f, tree.Body)
}

// fire delivers ev for f to the installed hook. Events raised while the
// hook runs are dropped.
func (vm *VM) fire(f *frame, ev host.Event, arg Value) {
	if vm.hook == nil || vm.inHook {
		return
	}
	vm.emit(f.snapshot(), ev, arg)
}

func (vm *VM) emit(fr *host.Frame, ev host.Event, arg Value) {
	if vm.hook == nil || vm.inHook {
		return
	}
	h := vm.hook
	vm.inHook = true
	defer func() { vm.inHook = false }()
	h(fr, ev, arg)
}
