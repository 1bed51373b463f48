package vm

import (
	"unicode/utf8"

	"xdtrace/internal/host"
)

func getAttr(obj Value, name string) (Value, error) {
	if o, ok := obj.(host.Object); ok {
		if v, ok := o.Attr(name); ok {
			return v, nil
		}
	}
	if m, ok := methodOf(obj, name); ok {
		return m, nil
	}
	switch x := obj.(type) {
	case *Module:
		return nil, throw(AttributeError, "module '%s' has no attribute '%s'", x.Name, name)
	case *Class:
		return nil, throw(AttributeError, "type object '%s' has no attribute '%s'", x.Name, name)
	}
	return nil, throw(AttributeError, "'%s' object has no attribute '%s'", typeOf(obj).Name, name)
}

func hasAttr(obj Value, name string) bool {
	_, err := getAttr(obj, name)
	return err == nil
}

func setAttr(obj Value, name string, v Value) error {
	switch x := obj.(type) {
	case *Instance:
		x.attrs.Store(name, v)
		return nil
	case *Class:
		if x.builtin {
			return throw(TypeError, "cannot set '%s' attribute of immutable type '%s'", name, x.Name)
		}
		x.Dict.Store(name, v)
		return nil
	case *Module:
		x.ns.Store(name, v)
		return nil
	case *Function:
		if x.attrs == nil {
			x.attrs = NewScope()
		}
		x.attrs.Store(name, v)
		return nil
	}
	return throw(AttributeError, "'%s' object has no attribute '%s'", typeOf(obj).Name, name)
}

// seqIndex resolves a possibly negative index against n elements.
func seqIndex(idx Value, n int, what string) (int, error) {
	i, _, isFloat, ok := number(idx)
	if !ok || isFloat {
		return 0, throw(TypeError, "%s indices must be integers, not %s", what, typeOf(idx).Name)
	}
	if i < 0 {
		i += int64(n)
	}
	if i < 0 || i >= int64(n) {
		return 0, throw(IndexError, "%s index out of range", what)
	}
	return int(i), nil
}

func getItem(obj, idx Value) (Value, error) {
	switch x := obj.(type) {
	case *List:
		i, err := seqIndex(idx, len(x.elems), "list")
		if err != nil {
			return nil, err
		}
		return x.elems[i], nil
	case *Tuple:
		i, err := seqIndex(idx, len(x.elems), "tuple")
		if err != nil {
			return nil, err
		}
		return x.elems[i], nil
	case *Range:
		i, err := seqIndex(idx, x.Len(), "range object")
		if err != nil {
			return nil, err
		}
		return x.At(i), nil
	case string:
		if utf8.RuneCountInString(x) == len(x) {
			i, err := seqIndex(idx, len(x), "string")
			if err != nil {
				return nil, err
			}
			return x[i : i+1], nil
		}
		runes := []rune(x)
		i, err := seqIndex(idx, len(runes), "string")
		if err != nil {
			return nil, err
		}
		return string(runes[i]), nil
	case *Dict:
		v, ok, err := x.Get(idx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &Error{Exc: newException(KeyError, idx)}
		}
		return v, nil
	}
	return nil, throw(TypeError, "'%s' object is not subscriptable", typeOf(obj).Name)
}

func setItem(obj, idx, v Value) error {
	switch x := obj.(type) {
	case *List:
		i, err := seqIndex(idx, len(x.elems), "list assignment")
		if err != nil {
			return err
		}
		x.elems[i] = v
		return nil
	case *Dict:
		return x.Set(idx, v)
	}
	return throw(TypeError, "'%s' object does not support item assignment", typeOf(obj).Name)
}
