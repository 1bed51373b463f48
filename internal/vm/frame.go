package vm

import (
	"xdtrace/internal/ast"
	"xdtrace/internal/host"
)

type frameKind uint8

const (
	kindModule frameKind = iota
	kindClass
	kindFunction
)

// frame is one activation. Snapshots handed to the hook share locals, so
// they observe later stores.
type frame struct {
	vm   *VM
	kind frameKind
	code *host.Code
	line int

	locals      host.Namespace
	globals     host.Namespace
	closure     *env
	module      string
	globalNames map[string]bool

	caller   *host.Frame // snapshot of the calling frame at the call line
	handling []*Error    // exceptions being handled, innermost last
	ret      Value
}

func (f *frame) snapshot() *host.Frame {
	return &host.Frame{
		File:   f.code.File,
		Line:   f.line,
		Locals: f.locals,
		Caller: f.caller,
		Code:   f.code,
	}
}

// mark moves f to line and reports a line event.
func (f *frame) mark(line int) {
	f.line = line
	f.vm.fire(f, host.EventLine, nil)
}

// runFrame executes body as the activation f: call event, statements,
// then a return event carrying the result (nil when unwinding).
func (vm *VM) runFrame(f *frame, body []ast.Stmt) (Value, error) {
	if vm.depth >= vm.limit {
		return nil, throw(RecursionError, "maximum recursion depth exceeded")
	}
	vm.depth++
	defer func() { vm.depth-- }()

	vm.fire(f, host.EventCall, nil)
	fl, err := f.execBlock(body)
	if err != nil {
		if e, ok := err.(*Error); ok {
			e.unwound(f)
		}
		vm.fire(f, host.EventReturn, nil)
		return nil, err
	}
	var ret Value
	if fl == flowReturn {
		ret = f.ret
	}
	vm.fire(f, host.EventReturn, ret)
	return ret, nil
}

func (f *frame) lookup(name string) (Value, error) {
	if !f.globalNames[name] {
		if v, ok := f.locals.Lookup(name); ok {
			return v, nil
		}
	}
	for e := f.closure; e != nil; e = e.parent {
		if v, ok := e.vars.Lookup(name); ok {
			return v, nil
		}
	}
	if v, ok := f.globals.Lookup(name); ok {
		return v, nil
	}
	if v, ok := f.vm.builtins.Lookup(name); ok {
		return v, nil
	}
	return nil, throw(NameError, "name '%s' is not defined", name)
}

func (f *frame) store(name string, v Value) {
	if f.globalNames[name] {
		f.globals.Store(name, v)
		return
	}
	f.locals.Store(name, v)
}

func (f *frame) unbind(name string) {
	if s, ok := f.locals.(*Scope); ok {
		s.Delete(name)
	}
}

// enclosing returns the scope chain a function defined in f closes over.
func (f *frame) enclosing() *env {
	switch f.kind {
	case kindFunction:
		if s, ok := f.locals.(*Scope); ok {
			return &env{vars: s, parent: f.closure}
		}
	case kindClass:
		return f.closure
	}
	return nil
}
