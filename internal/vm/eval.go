package vm

import (
	"xdtrace/internal/ast"
	"xdtrace/internal/host"
	"xdtrace/internal/token"
)

func (f *frame) eval(x ast.Expr) (Value, error) {
	switch e := x.(type) {
	case *ast.Name:
		return f.lookup(e.ID)
	case *ast.Const:
		return e.Value, nil
	case *ast.Attribute:
		obj, err := f.eval(e.X)
		if err != nil {
			return nil, err
		}
		return getAttr(obj, e.Name)
	case *ast.Subscript:
		obj, err := f.eval(e.X)
		if err != nil {
			return nil, err
		}
		idx, err := f.eval(e.Index)
		if err != nil {
			return nil, err
		}
		return getItem(obj, idx)
	case *ast.Call:
		return f.evalCall(e)
	case *ast.BinOp:
		l, err := f.eval(e.L)
		if err != nil {
			return nil, err
		}
		r, err := f.eval(e.R)
		if err != nil {
			return nil, err
		}
		return binaryOp(e.Op, l, r)
	case *ast.UnaryOp:
		v, err := f.eval(e.X)
		if err != nil {
			return nil, err
		}
		return unaryOp(e.Op, v)
	case *ast.BoolOp:
		l, err := f.eval(e.L)
		if err != nil {
			return nil, err
		}
		if truthy(l) == (e.Op == token.KwOr) {
			return l, nil
		}
		return f.eval(e.R)
	case *ast.Compare:
		return f.evalCompare(e)
	case *ast.IfExpr:
		cond, err := f.eval(e.Cond)
		if err != nil {
			return nil, err
		}
		if truthy(cond) {
			return f.eval(e.Then)
		}
		return f.eval(e.Else)
	case *ast.List:
		elems, err := f.evalAll(e.Elts)
		if err != nil {
			return nil, err
		}
		return NewList(elems...), nil
	case *ast.Tuple:
		elems, err := f.evalAll(e.Elts)
		if err != nil {
			return nil, err
		}
		return NewTuple(elems...), nil
	case *ast.Dict:
		d := NewDict()
		for i := range e.Keys {
			k, err := f.eval(e.Keys[i])
			if err != nil {
				return nil, err
			}
			v, err := f.eval(e.Values[i])
			if err != nil {
				return nil, err
			}
			if err := d.Set(k, v); err != nil {
				return nil, err
			}
		}
		return d, nil
	}
	return nil, throw(RuntimeError, "unsupported expression %T", x)
}

func (f *frame) evalAll(xs []ast.Expr) ([]Value, error) {
	out := make([]Value, len(xs))
	for i, x := range xs {
		v, err := f.eval(x)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *frame) evalCompare(e *ast.Compare) (Value, error) {
	l, err := f.eval(e.L)
	if err != nil {
		return nil, err
	}
	for i, op := range e.Ops {
		r, err := f.eval(e.Rs[i])
		if err != nil {
			return nil, err
		}
		ok, err := compare(op, l, r)
		if err != nil {
			return nil, err
		}
		if !ok {
			return false, nil
		}
		l = r
	}
	return true, nil
}

// evalCall evaluates the callee and arguments, then calls with f positioned
// on the call line so the callee's caller snapshot points at it.
func (f *frame) evalCall(e *ast.Call) (Value, error) {
	fn, err := f.eval(e.Fn)
	if err != nil {
		return nil, err
	}
	args, err := f.evalAll(e.Args)
	if err != nil {
		return nil, err
	}
	if e.Star != nil {
		v, err := f.eval(e.Star)
		if err != nil {
			return nil, err
		}
		extra, err := iterate(v)
		if err != nil {
			return nil, throw(TypeError, "argument after * must be an iterable, not %s", typeOf(v).Name)
		}
		args = append(args, extra...)
	}
	var kwargs []host.Kwarg
	for _, kw := range e.Keywords {
		v, err := f.eval(kw.Value)
		if err != nil {
			return nil, err
		}
		kwargs = append(kwargs, host.Kwarg{Name: kw.Name, Value: v})
	}
	if e.DStar != nil {
		v, err := f.eval(e.DStar)
		if err != nil {
			return nil, err
		}
		d, ok := v.(*Dict)
		if !ok {
			return nil, throw(TypeError, "argument after ** must be a mapping, not %s", typeOf(v).Name)
		}
		for i, k := range d.keys {
			name, ok := k.(string)
			if !ok {
				return nil, throw(TypeError, "keywords must be strings")
			}
			kwargs = append(kwargs, host.Kwarg{Name: name, Value: d.vals[i]})
		}
	}
	f.line = e.Line
	return f.vm.call(f.snapshot(), fn, args, kwargs)
}
