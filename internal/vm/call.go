package vm

import (
	"xdtrace/internal/host"
)

// call invokes any callable value. caller is the snapshot of the invoking
// frame; it becomes the Caller of the callee's frame.
func (vm *VM) call(caller *host.Frame, fn Value, args []Value, kwargs []host.Kwarg) (Value, error) {
	switch c := fn.(type) {
	case *Function:
		return vm.callFunction(caller, c, args, kwargs)
	case *BoundMethod:
		full := make([]Value, 0, len(args)+1)
		full = append(full, c.Self)
		return vm.callFunction(caller, c.Fn, append(full, args...), kwargs)
	case *Builtin:
		return vm.callBuiltin(caller, c, args, kwargs)
	case *Class:
		return vm.instantiate(caller, c, args, kwargs)
	}
	return nil, throw(TypeError, "'%s' object is not callable", typeOf(fn).Name)
}

func (vm *VM) callFunction(caller *host.Frame, fn *Function, args []Value, kwargs []host.Kwarg) (Value, error) {
	locals := NewScope()
	if err := fn.bind(locals, args, kwargs); err != nil {
		return nil, err
	}
	f := &frame{
		vm:          vm,
		kind:        kindFunction,
		code:        fn.code,
		line:        fn.code.Line,
		locals:      locals,
		globals:     fn.globals,
		closure:     fn.closure,
		module:      fn.module,
		globalNames: fn.globalNames,
		caller:      caller,
	}
	return vm.runFrame(f, fn.def.Body)
}

// bind stores the arguments into locals: named parameters in declaration
// order, then the variadic positional and keyword bindings.
func (fn *Function) bind(locals *Scope, args []Value, kwargs []host.Kwarg) error {
	params := fn.code.Params
	slots := make([]Value, len(params))
	filled := make([]bool, len(params))

	n := min(len(args), len(params))
	for i := 0; i < n; i++ {
		slots[i], filled[i] = args[i], true
	}
	var rest []Value
	if len(args) > len(params) {
		if fn.code.VarArgs == "" {
			return throw(TypeError, "%s() takes %d positional arguments but %d were given", fn.Name, len(params), len(args))
		}
		rest = append(rest, args[len(params):]...)
	}

	var extra *Dict
	if fn.code.KwArgs != "" {
		extra = NewDict()
	}
	for _, kw := range kwargs {
		i := indexOf(params, kw.Name)
		switch {
		case i >= 0 && filled[i]:
			return throw(TypeError, "%s() got multiple values for argument '%s'", fn.Name, kw.Name)
		case i >= 0:
			slots[i], filled[i] = kw.Value, true
		case extra != nil:
			if _, dup := extra.Lookup(kw.Name); dup {
				return throw(TypeError, "%s() got multiple values for keyword argument '%s'", fn.Name, kw.Name)
			}
			_ = extra.Set(kw.Name, kw.Value)
		default:
			return throw(TypeError, "%s() got an unexpected keyword argument '%s'", fn.Name, kw.Name)
		}
	}

	for i, name := range params {
		if !filled[i] {
			if !fn.hasDefault[i] {
				return throw(TypeError, "%s() missing required argument: '%s'", fn.Name, name)
			}
			slots[i] = fn.defaults[i]
		}
		locals.Store(name, slots[i])
	}
	if fn.code.VarArgs != "" {
		locals.Store(fn.code.VarArgs, NewTuple(rest...))
	}
	if extra != nil {
		locals.Store(fn.code.KwArgs, extra)
	}
	return nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// callBuiltin runs a host routine, surrounded by native events when the VM
// was configured to emit them.
func (vm *VM) callBuiltin(caller *host.Frame, b *Builtin, args []Value, kwargs []host.Kwarg) (Value, error) {
	if b.bind {
		args = append([]Value{b.self}, args...)
	}
	c := &callCtx{vm: vm, caller: caller}
	if !vm.opts.Native || vm.hook == nil {
		return b.fn(c, args, kwargs)
	}
	fr := &host.Frame{
		Locals: host.EmptyBindings,
		Caller: caller,
		Code:   &host.Code{Name: b.Name, File: "<builtin>"},
		File:   "<builtin>",
	}
	if caller != nil {
		fr.Line = caller.Line
	}
	vm.emit(fr, host.EventNativeCall, nil)
	v, err := b.fn(c, args, kwargs)
	if err != nil {
		vm.emit(fr, host.EventNativeReturn, nil)
		return nil, err
	}
	vm.emit(fr, host.EventNativeReturn, v)
	return v, nil
}

// instantiate creates an instance of cls and runs __init__.
func (vm *VM) instantiate(caller *host.Frame, cls *Class, args []Value, kwargs []host.Kwarg) (Value, error) {
	if cls.ctor != nil {
		return cls.ctor(&callCtx{vm: vm, caller: caller}, cls, args, kwargs)
	}
	for _, base := range cls.mro {
		if base.ctor != nil && base != ObjectType && !base.IsSubclass(BaseException) {
			return nil, throw(TypeError, "cannot subclass built-in type '%s'", base.Name)
		}
	}
	inst := newInstance(cls)
	isExc := cls.IsSubclass(BaseException)
	if isExc {
		inst.attrs.Store("args", NewTuple(args...))
	}
	init, _, ok := cls.lookup("__init__")
	if !ok {
		if !isExc && (len(args) > 0 || len(kwargs) > 0) {
			return nil, throw(TypeError, "%s() takes no arguments", cls.Name)
		}
		return inst, nil
	}
	fn, ok := init.(*Function)
	if !ok {
		return nil, throw(TypeError, "__init__ of %s is not a function", cls.Name)
	}
	ret, err := vm.callFunction(caller, fn, append([]Value{inst}, args...), kwargs)
	if err != nil {
		return nil, err
	}
	if ret != nil {
		return nil, throw(TypeError, "__init__() should return None, not '%s'", typeOf(ret).Name)
	}
	return inst, nil
}
