package vm

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"xdtrace/internal/ast"
	"xdtrace/internal/diag"
	"xdtrace/internal/host"
	"xdtrace/internal/parser"
)

// builtinModules are created on first import instead of loaded from disk.
var builtinModules = map[string]func(vm *VM) *Module{
	"math": newMathModule,
}

// importModule goes through the installed loader, so an interceptor sees
// every import statement.
func (vm *VM) importModule(caller *host.Frame, name string, fromList []string) (Value, error) {
	load := vm.importFn
	if load == nil {
		load = vm.defaultImport
	}
	mod, err := load(caller, name, fromList)
	if err != nil {
		return nil, asException(err)
	}
	return mod, nil
}

func (vm *VM) reload(caller *host.Frame, module Value) (Value, error) {
	load := vm.reloadFn
	if load == nil {
		load = vm.defaultReload
	}
	mod, err := load(caller, module)
	if err != nil {
		return nil, asException(err)
	}
	return mod, nil
}

// asException keeps script exceptions and wraps everything else so that
// try/except in the script can observe loader failures.
func asException(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	var se *diag.SyntaxError
	if errors.As(err, &se) {
		return wrapError(SyntaxError, err)
	}
	return wrapError(ImportError, err)
}

// defaultImport resolves a dotted name package by package. It returns the
// top-level package when fromList is empty and the named module otherwise.
func (vm *VM) defaultImport(caller *host.Frame, name string, fromList []string) (host.Value, error) {
	parts := strings.Split(name, ".")
	var top, cur *Module
	for i, part := range parts {
		m, err := vm.loadModule(caller, strings.Join(parts[:i+1], "."), cur)
		if err != nil {
			return nil, err
		}
		if cur != nil {
			cur.ns.Store(part, m)
		}
		if top == nil {
			top = m
		}
		cur = m
	}
	if len(fromList) == 0 {
		return top, nil
	}
	if cur.dir != "" {
		for _, sub := range fromList {
			if _, ok := cur.Attr(sub); ok {
				continue
			}
			m, err := vm.loadModule(caller, name+"."+sub, cur)
			var e *Error
			if errors.As(err, &e) && e.IsA(ModuleNotFoundError) {
				continue
			}
			if err != nil {
				return nil, err
			}
			cur.ns.Store(sub, m)
		}
	}
	return cur, nil
}

// defaultReload re-executes a file module in its existing namespace.
func (vm *VM) defaultReload(caller *host.Frame, module host.Value) (host.Value, error) {
	m, ok := module.(*Module)
	if !ok {
		return nil, throw(TypeError, "reload() argument must be a module")
	}
	if m.builtin || m.File == "" {
		return m, nil
	}
	if err := vm.execModuleFile(caller, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (vm *VM) loadModule(caller *host.Frame, name string, parent *Module) (*Module, error) {
	if m, ok := vm.modules[name]; ok {
		return m, nil
	}
	if mk, ok := builtinModules[name]; ok {
		m := mk(vm)
		vm.modules[name] = m
		return m, nil
	}
	m, err := vm.findModule(name, parent)
	if err != nil {
		return nil, err
	}
	vm.modules[name] = m
	if m.File == "" {
		return m, nil
	}
	if err := vm.execModuleFile(caller, m); err != nil {
		delete(vm.modules, name)
		return nil, err
	}
	return m, nil
}

// findModule looks for name.py, name/__init__.py or a bare directory in
// the parent package or on the search path.
func (vm *VM) findModule(name string, parent *Module) (*Module, error) {
	leaf := name[strings.LastIndexByte(name, '.')+1:]
	var dirs []string
	if parent != nil {
		if parent.dir == "" {
			return nil, throw(ModuleNotFoundError, "No module named '%s'; '%s' is not a package", name, parent.Name)
		}
		dirs = []string{parent.dir}
	} else {
		for _, p := range vm.path.elems {
			if s, ok := p.(string); ok {
				dirs = append(dirs, s)
			}
		}
	}
	for _, dir := range dirs {
		if dir == "" {
			dir = "."
		}
		file := filepath.Join(dir, leaf+".py")
		if isFile(file) {
			return vm.newFileModule(name, file, ""), nil
		}
		pkg := filepath.Join(dir, leaf)
		if st, err := os.Stat(pkg); err == nil && st.IsDir() {
			initFile := filepath.Join(pkg, "__init__.py")
			if isFile(initFile) {
				return vm.newFileModule(name, initFile, pkg), nil
			}
			return vm.newFileModule(name, "", pkg), nil
		}
	}
	return nil, throw(ModuleNotFoundError, "No module named '%s'", name)
}

func isFile(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

func (vm *VM) newFileModule(name, file, dir string) *Module {
	ns := NewScope()
	ns.Store("__name__", name)
	if file != "" {
		file = filepath.ToSlash(filepath.Clean(file))
		ns.Store("__file__", file)
	}
	return &Module{Name: name, File: file, ns: ns, dir: dir}
}

// execModuleFile reads the module source and runs it in the module
// namespace. caller is the frame executing the import.
func (vm *VM) execModuleFile(caller *host.Frame, m *Module) error {
	id, err := vm.files.Load(m.File)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return throw(ModuleNotFoundError, "No module named '%s'", m.Name)
		}
		return wrapError(ImportError, err)
	}
	tree, err := parser.Parse(vm.files, id)
	if err != nil {
		return err
	}
	_, err = vm.runModule(caller, m, tree)
	return err
}

func (f *frame) execImport(s *ast.Import) error {
	for _, alias := range s.Names {
		mod, err := f.vm.importModule(f.snapshot(), alias.Name, nil)
		if err != nil {
			return err
		}
		if alias.AsName == "" {
			f.store(strings.SplitN(alias.Name, ".", 2)[0], mod)
			continue
		}
		for _, part := range strings.Split(alias.Name, ".")[1:] {
			if mod, err = getAttr(mod, part); err != nil {
				return err
			}
		}
		f.store(alias.AsName, mod)
	}
	return nil
}

func (f *frame) execImportFrom(s *ast.ImportFrom) error {
	names := make([]string, len(s.Names))
	for i, alias := range s.Names {
		names[i] = alias.Name
	}
	mod, err := f.vm.importModule(f.snapshot(), s.Module, names)
	if err != nil {
		return err
	}
	for _, alias := range s.Names {
		v, err := getAttr(mod, alias.Name)
		if err != nil {
			return throw(ImportError, "cannot import name '%s' from '%s'", alias.Name, s.Module)
		}
		bind := alias.AsName
		if bind == "" {
			bind = alias.Name
		}
		f.store(bind, v)
	}
	return nil
}

func (vm *VM) newSysModule() *Module {
	ns := NewScope()
	ns.Store("__name__", "sys")
	ns.Store("argv", vm.argv)
	ns.Store("path", vm.path)
	ns.Store("platform", runtime.GOOS)
	ns.Store("version", "xdtrace")
	ns.Store("maxsize", int64(math.MaxInt64))
	ns.Store("exit", &Builtin{Name: "exit", fn: func(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
		if err := want("exit", args, 0, 1); err != nil {
			return nil, err
		}
		return nil, &Error{Exc: newException(SystemExit, args...)}
	}})
	ns.Store("getrecursionlimit", &Builtin{Name: "getrecursionlimit", fn: func(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
		return int64(c.vm.limit), want("getrecursionlimit", args, 0, 0)
	}})
	ns.Store("setrecursionlimit", &Builtin{Name: "setrecursionlimit", fn: func(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
		if err := want("setrecursionlimit", args, 1, 1); err != nil {
			return nil, err
		}
		n, ok := args[0].(int64)
		if !ok || n < 1 {
			return nil, throw(ValueError, "recursion limit must be a positive integer")
		}
		c.vm.limit = int(n)
		return nil, nil
	}})
	return &Module{Name: "sys", ns: ns, builtin: true}
}

func newMathModule(vm *VM) *Module {
	ns := NewScope()
	ns.Store("__name__", "math")
	ns.Store("pi", math.Pi)
	ns.Store("e", math.E)
	ns.Store("inf", math.Inf(1))
	unary := func(name string, fn func(float64) float64, toInt bool) {
		ns.Store(name, &Builtin{Name: name, fn: func(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
			if err := want(name, args, 1, 1); err != nil {
				return nil, err
			}
			_, x, _, ok := number(args[0])
			if !ok {
				return nil, throw(TypeError, "must be real number, not %s", typeOf(args[0]).Name)
			}
			r := fn(x)
			if toInt {
				return int64(r), nil
			}
			if math.IsNaN(r) && !math.IsNaN(x) {
				return nil, throw(ValueError, "math domain error")
			}
			return r, nil
		}})
	}
	unary("sqrt", math.Sqrt, false)
	unary("floor", math.Floor, true)
	unary("ceil", math.Ceil, true)
	unary("fabs", math.Abs, false)
	unary("log", math.Log, false)
	return &Module{Name: "math", ns: ns, builtin: true}
}
