package vm

import (
	"xdtrace/internal/ast"
	"xdtrace/internal/host"
)

// flow is how a statement left its block.
type flow uint8

const (
	flowNext flow = iota
	flowReturn
	flowBreak
	flowContinue
)

func (f *frame) execBlock(body []ast.Stmt) (flow, error) {
	for _, st := range body {
		fl, err := f.exec(st)
		if err != nil || fl != flowNext {
			return fl, err
		}
	}
	return flowNext, nil
}

func (f *frame) exec(st ast.Stmt) (flow, error) {
	f.mark(st.Pos().Line)
	switch s := st.(type) {
	case *ast.ExprStmt:
		_, err := f.eval(s.X)
		return flowNext, err
	case *ast.Assign:
		v, err := f.eval(s.Value)
		if err != nil {
			return flowNext, err
		}
		for _, t := range s.Targets {
			if err := f.assign(t, v); err != nil {
				return flowNext, err
			}
		}
		return flowNext, nil
	case *ast.AugAssign:
		return flowNext, f.augAssign(s)
	case *ast.Pass, *ast.Global:
		return flowNext, nil
	case *ast.Break:
		return flowBreak, nil
	case *ast.Continue:
		return flowContinue, nil
	case *ast.Return:
		f.ret = nil
		if s.Value != nil {
			v, err := f.eval(s.Value)
			if err != nil {
				return flowNext, err
			}
			f.ret = v
		}
		return flowReturn, nil
	case *ast.If:
		cond, err := f.eval(s.Cond)
		if err != nil {
			return flowNext, err
		}
		if truthy(cond) {
			return f.execBlock(s.Body)
		}
		return f.execBlock(s.Else)
	case *ast.While:
		return f.execWhile(s)
	case *ast.For:
		return f.execFor(s)
	case *ast.Try:
		return f.execTry(s)
	case *ast.Raise:
		return flowNext, f.raise(s)
	case *ast.FuncDef:
		fn, err := f.makeFunction(s)
		if err != nil {
			return flowNext, err
		}
		f.store(s.Name, fn)
		return flowNext, nil
	case *ast.ClassDef:
		return flowNext, f.defineClass(s)
	case *ast.Import:
		return flowNext, f.execImport(s)
	case *ast.ImportFrom:
		return flowNext, f.execImportFrom(s)
	}
	return flowNext, throw(RuntimeError, "unsupported statement %T", st)
}

func (f *frame) execWhile(s *ast.While) (flow, error) {
	for first := true; ; first = false {
		if !first {
			f.mark(s.Line)
		}
		cond, err := f.eval(s.Cond)
		if err != nil {
			return flowNext, err
		}
		if !truthy(cond) {
			return flowNext, nil
		}
		fl, err := f.execBlock(s.Body)
		if err != nil {
			return flowNext, err
		}
		switch fl {
		case flowBreak:
			return flowNext, nil
		case flowReturn:
			return fl, nil
		}
	}
}

func (f *frame) execFor(s *ast.For) (flow, error) {
	seq, err := f.eval(s.Iter)
	if err != nil {
		return flowNext, err
	}
	items, err := iterate(seq)
	if err != nil {
		return flowNext, err
	}
	for i, item := range items {
		if i > 0 {
			f.mark(s.Line)
		}
		if err := f.assign(s.Target, item); err != nil {
			return flowNext, err
		}
		fl, err := f.execBlock(s.Body)
		if err != nil {
			return flowNext, err
		}
		switch fl {
		case flowBreak:
			return flowNext, nil
		case flowReturn:
			return fl, nil
		}
	}
	if len(items) > 0 {
		f.mark(s.Line)
	}
	return flowNext, nil
}

func (f *frame) execTry(s *ast.Try) (flow, error) {
	fl, err := f.execBlock(s.Body)
	if exc, ok := err.(*Error); ok {
		if handled, hfl, herr := f.handle(s.Handlers, exc); handled {
			fl, err = hfl, herr
		}
	} else if err == nil && fl == flowNext && len(s.Else) > 0 {
		fl, err = f.execBlock(s.Else)
	}
	if len(s.Finally) > 0 {
		ffl, ferr := f.execBlock(s.Finally)
		if ferr != nil || ffl != flowNext {
			return ffl, ferr
		}
	}
	return fl, err
}

// handle runs the first except clause matching exc.
func (f *frame) handle(handlers []ast.Handler, exc *Error) (bool, flow, error) {
	for _, h := range handlers {
		f.mark(h.Line)
		if h.Type != nil {
			typ, err := f.eval(h.Type)
			if err != nil {
				return true, flowNext, err
			}
			ok, err := isInstance(exc.Exc, typ)
			if err != nil {
				return true, flowNext, err
			}
			if !ok {
				continue
			}
		}
		if h.Name != "" {
			f.store(h.Name, exc.Exc)
		}
		f.handling = append(f.handling, exc)
		fl, err := f.execBlock(h.Body)
		f.handling = f.handling[:len(f.handling)-1]
		if h.Name != "" {
			f.unbind(h.Name)
		}
		return true, fl, err
	}
	return false, flowNext, nil
}

func (f *frame) raise(s *ast.Raise) error {
	if s.Exc == nil {
		if n := len(f.handling); n > 0 {
			return f.handling[n-1]
		}
		return throw(RuntimeError, "No active exception to reraise")
	}
	v, err := f.eval(s.Exc)
	if err != nil {
		return err
	}
	inst, err := f.vm.toException(f.snapshot(), v)
	if err != nil {
		return err
	}
	return &Error{Exc: inst}
}

// toException accepts an exception instance or class.
func (vm *VM) toException(caller *host.Frame, v Value) (*Instance, error) {
	switch x := v.(type) {
	case *Class:
		if x.IsSubclass(BaseException) {
			inst, err := vm.call(caller, x, nil, nil)
			if err != nil {
				return nil, err
			}
			return inst.(*Instance), nil
		}
	case *Instance:
		if x.cls.IsSubclass(BaseException) {
			return x, nil
		}
	}
	return nil, throw(TypeError, "exceptions must derive from BaseException")
}

// assign binds v to a target expression, unpacking tuples and lists.
func (f *frame) assign(target ast.Expr, v Value) error {
	switch t := target.(type) {
	case *ast.Name:
		f.store(t.ID, v)
		return nil
	case *ast.Attribute:
		obj, err := f.eval(t.X)
		if err != nil {
			return err
		}
		return setAttr(obj, t.Name, v)
	case *ast.Subscript:
		obj, err := f.eval(t.X)
		if err != nil {
			return err
		}
		idx, err := f.eval(t.Index)
		if err != nil {
			return err
		}
		return setItem(obj, idx, v)
	case *ast.Tuple:
		return f.unpack(t.Elts, v)
	case *ast.List:
		return f.unpack(t.Elts, v)
	}
	return throw(SyntaxError, "cannot assign to expression")
}

func (f *frame) unpack(targets []ast.Expr, v Value) error {
	items, err := iterate(v)
	if err != nil {
		return throw(TypeError, "cannot unpack non-iterable %s object", typeOf(v).Name)
	}
	switch {
	case len(items) > len(targets):
		return throw(ValueError, "too many values to unpack (expected %d)", len(targets))
	case len(items) < len(targets):
		return throw(ValueError, "not enough values to unpack (expected %d, got %d)", len(targets), len(items))
	}
	for i, t := range targets {
		if err := f.assign(t, items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *frame) augAssign(s *ast.AugAssign) error {
	rhs, err := f.eval(s.Value)
	if err != nil {
		return err
	}
	switch t := s.Target.(type) {
	case *ast.Name:
		cur, err := f.lookup(t.ID)
		if err != nil {
			return err
		}
		v, err := inplaceOp(s.Op, cur, rhs)
		if err != nil {
			return err
		}
		f.store(t.ID, v)
		return nil
	case *ast.Attribute:
		obj, err := f.eval(t.X)
		if err != nil {
			return err
		}
		cur, err := getAttr(obj, t.Name)
		if err != nil {
			return err
		}
		v, err := inplaceOp(s.Op, cur, rhs)
		if err != nil {
			return err
		}
		return setAttr(obj, t.Name, v)
	case *ast.Subscript:
		obj, err := f.eval(t.X)
		if err != nil {
			return err
		}
		idx, err := f.eval(t.Index)
		if err != nil {
			return err
		}
		cur, err := getItem(obj, idx)
		if err != nil {
			return err
		}
		v, err := inplaceOp(s.Op, cur, rhs)
		if err != nil {
			return err
		}
		return setItem(obj, idx, v)
	}
	return throw(SyntaxError, "illegal expression for augmented assignment")
}

func (f *frame) makeFunction(s *ast.FuncDef) (*Function, error) {
	code := &host.Code{
		Name:    s.Name,
		File:    f.code.File,
		Line:    s.Line,
		Params:  make([]string, len(s.Params)),
		VarArgs: s.VarArgs,
		KwArgs:  s.KwArgs,
	}
	fn := &Function{
		Name:        s.Name,
		code:        code,
		def:         s,
		defaults:    make([]Value, len(s.Params)),
		hasDefault:  make([]bool, len(s.Params)),
		globals:     f.globals,
		closure:     f.enclosing(),
		module:      f.module,
		globalNames: f.vm.globalNames(s),
	}
	for i, p := range s.Params {
		code.Params[i] = p.Name
		if p.Default == nil {
			continue
		}
		v, err := f.eval(p.Default)
		if err != nil {
			return nil, err
		}
		fn.defaults[i], fn.hasDefault[i] = v, true
	}
	return fn, nil
}

// globalNames collects the names declared global in a function body,
// skipping nested definitions.
func (vm *VM) globalNames(def *ast.FuncDef) map[string]bool {
	if names, ok := vm.globals[def]; ok {
		return names
	}
	var names map[string]bool
	for _, st := range def.Body {
		ast.Inspect(st, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.FuncDef, *ast.ClassDef:
				return false
			case *ast.Global:
				if names == nil {
					names = make(map[string]bool)
				}
				for _, name := range n.Names {
					names[name] = true
				}
			}
			return true
		})
	}
	vm.globals[def] = names
	return names
}

// defineClass runs the class body in its own frame and binds the class.
func (f *frame) defineClass(s *ast.ClassDef) error {
	bases := make([]*Class, 0, len(s.Bases))
	for _, b := range s.Bases {
		v, err := f.eval(b)
		if err != nil {
			return err
		}
		cls, ok := v.(*Class)
		if !ok {
			return throw(TypeError, "bases must be classes, not %s", typeOf(v).Name)
		}
		bases = append(bases, cls)
	}
	if len(bases) == 0 {
		bases = append(bases, ObjectType)
	}
	dict := NewScope()
	dict.Store("__module__", f.module)
	body := &frame{
		vm:      f.vm,
		kind:    kindClass,
		code:    &host.Code{Name: s.Name, File: f.code.File, Line: s.Line},
		line:    s.Line,
		locals:  dict,
		globals: f.globals,
		closure: f.enclosing(),
		module:  f.module,
		caller:  f.snapshot(),
	}
	if _, err := f.vm.runFrame(body, s.Body); err != nil {
		return err
	}
	f.store(s.Name, newClass(s.Name, f.module, dict, bases...))
	return nil
}
