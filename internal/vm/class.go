package vm

import (
	"xdtrace/internal/host"
)

// ctorFunc constructs an instance of a built-in class.
type ctorFunc func(c *callCtx, cls *Class, args []Value, kwargs []host.Kwarg) (Value, error)

// Class is a runtime class: built-in types, exceptions and user classes.
type Class struct {
	Name   string
	Module string
	Bases  []*Class
	Dict   *Scope

	builtin bool
	ctor    ctorFunc
	mro     []*Class
}

func newClass(name, module string, dict *Scope, bases ...*Class) *Class {
	if dict == nil {
		dict = NewScope()
	}
	cls := &Class{Name: name, Module: module, Bases: bases, Dict: dict}
	cls.mro = linearize(cls)
	return cls
}

func newBuiltinClass(name string, bases ...*Class) *Class {
	cls := newClass(name, "builtins", nil, bases...)
	cls.builtin = true
	return cls
}

// linearize orders cls and its bases depth-first, left to right, keeping
// the last occurrence of shared bases so they come after every subclass.
func linearize(cls *Class) []*Class {
	var order []*Class
	var walk func(c *Class)
	walk = func(c *Class) {
		order = append(order, c)
		for _, b := range c.Bases {
			walk(b)
		}
	}
	walk(cls)
	out := make([]*Class, 0, len(order))
	for i, c := range order {
		dup := false
		for _, later := range order[i+1:] {
			if later == c {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

// ClassName implements host.Class.
func (c *Class) ClassName() string {
	if c.builtin || c.Module == "" {
		return c.Name
	}
	return c.Module + "." + c.Name
}

// Builtin implements host.Class.
func (c *Class) Builtin() bool { return c.builtin }

// HasRoutine implements host.Class.
func (c *Class) HasRoutine(name string) bool {
	v, _, ok := c.lookup(name)
	if !ok {
		return false
	}
	switch v.(type) {
	case *Function, *Builtin:
		return true
	}
	return false
}

// CallableName implements host.Callable.
func (c *Class) CallableName() string { return c.Name }

// Attr implements host.Object.
func (c *Class) Attr(name string) (Value, bool) {
	switch name {
	case "__name__":
		return c.Name, true
	case "__module__":
		return c.Module, true
	}
	v, _, ok := c.lookup(name)
	return v, ok
}

// Repr implements host.Repr.
func (c *Class) Repr() string { return "<class " + host.QuoteString(c.ClassName()) + ">" }

func (c *Class) lookup(name string) (Value, *Class, bool) {
	for _, k := range c.mro {
		if v, ok := k.Dict.Lookup(name); ok {
			return v, k, true
		}
	}
	return nil, nil, false
}

// IsSubclass reports whether c is other or derives from it.
func (c *Class) IsSubclass(other *Class) bool {
	for _, k := range c.mro {
		if k == other {
			return true
		}
	}
	return false
}

// Instance is an object of a user class or an exception.
type Instance struct {
	cls   *Class
	attrs *Scope
}

func newInstance(cls *Class) *Instance {
	return &Instance{cls: cls, attrs: NewScope()}
}

// Class implements host.Instance.
func (o *Instance) Class() host.Class { return o.cls }

// Attr implements host.Object. Methods are returned bound to o.
func (o *Instance) Attr(name string) (Value, bool) {
	if name == "__class__" {
		return o.cls, true
	}
	if v, ok := o.attrs.Lookup(name); ok {
		return v, true
	}
	v, _, ok := o.cls.lookup(name)
	if !ok {
		return nil, false
	}
	if fn, ok := v.(*Function); ok {
		return &BoundMethod{Self: o, Fn: fn}, true
	}
	return v, true
}

// Repr implements host.Repr.
func (o *Instance) Repr() string { return reprValue(o) }

// Built-in types. Each scalar and container maps to one class so that
// isinstance and type() work uniformly.
var (
	ObjectType   = newBuiltinClass("object")
	TypeType     = newBuiltinClass("type", ObjectType)
	NoneType     = newBuiltinClass("NoneType", ObjectType)
	IntType      = newBuiltinClass("int", ObjectType)
	BoolType     = newBuiltinClass("bool", IntType)
	FloatType    = newBuiltinClass("float", ObjectType)
	StrType      = newBuiltinClass("str", ObjectType)
	ListType     = newBuiltinClass("list", ObjectType)
	TupleType    = newBuiltinClass("tuple", ObjectType)
	DictType     = newBuiltinClass("dict", ObjectType)
	RangeType    = newBuiltinClass("range", ObjectType)
	FunctionType = newBuiltinClass("function", ObjectType)
	MethodType   = newBuiltinClass("method", ObjectType)
	BuiltinType  = newBuiltinClass("builtin_function_or_method", ObjectType)
	ModuleType   = newBuiltinClass("module", ObjectType)
)

func init() {
	IntType.ctor = ctorInt
	BoolType.ctor = ctorBool
	FloatType.ctor = ctorFloat
	StrType.ctor = ctorStr
	ListType.ctor = ctorList
	TupleType.ctor = ctorTuple
	DictType.ctor = ctorDict
	RangeType.ctor = ctorRange
	ObjectType.ctor = ctorObject
	TypeType.ctor = ctorType
}

// typeOf returns the class of any runtime value.
func typeOf(v Value) *Class {
	switch x := v.(type) {
	case nil:
		return NoneType
	case bool:
		return BoolType
	case int64:
		return IntType
	case float64:
		return FloatType
	case string:
		return StrType
	case *List:
		return ListType
	case *Tuple:
		return TupleType
	case *Dict:
		return DictType
	case *Range:
		return RangeType
	case *Function:
		return FunctionType
	case *BoundMethod:
		return MethodType
	case *Builtin:
		return BuiltinType
	case *Module:
		return ModuleType
	case *Class:
		return TypeType
	case *Instance:
		return x.cls
	}
	return ObjectType
}

// isInstance reports whether v is an instance of cls, or of one of the
// classes when cls is a tuple.
func isInstance(v, cls Value) (bool, error) {
	switch c := cls.(type) {
	case *Class:
		return typeOf(v).IsSubclass(c), nil
	case *Tuple:
		for _, e := range c.elems {
			ok, err := isInstance(v, e)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}
	return false, throw(TypeError, "isinstance() arg 2 must be a type or tuple of types")
}
