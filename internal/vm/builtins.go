package vm

import (
	"io"
	"math"
	"strconv"
	"strings"

	"xdtrace/internal/ast"
	"xdtrace/internal/host"
	"xdtrace/internal/token"
)

func init() {
	for _, cls := range exceptionClasses {
		cls.ctor = ctorException
	}
}

func newBuiltins() *Scope {
	s := NewScope()
	for _, cls := range []*Class{
		ObjectType, TypeType, IntType, BoolType, FloatType, StrType,
		ListType, TupleType, DictType, RangeType,
	} {
		s.Store(cls.Name, cls)
	}
	for _, cls := range exceptionClasses {
		s.Store(cls.Name, cls)
	}
	for name, fn := range map[string]builtinFunc{
		"print":      builtinPrint,
		"len":        builtinLen,
		"repr":       builtinRepr,
		"isinstance": builtinIsInstance,
		"issubclass": builtinIsSubclass,
		"abs":        builtinAbs,
		"min":        builtinMinMax(-1),
		"max":        builtinMinMax(1),
		"sum":        builtinSum,
		"sorted":     builtinSorted,
		"enumerate":  builtinEnumerate,
		"zip":        builtinZip,
		"getattr":    builtinGetAttr,
		"setattr":    builtinSetAttr,
		"hasattr":    builtinHasAttr,
		"callable":   builtinCallable,
		"reload":     builtinReload,
		"__import__": builtinImport,
	} {
		s.Store(name, &Builtin{Name: name, fn: fn})
	}
	return s
}

// want checks the positional argument count of a free builtin.
func want(name string, args []Value, minArgs, maxArgs int) error {
	return arity(name, append([]Value{nil}, args...), minArgs, maxArgs)
}

func noKeywords(name string, kwargs []host.Kwarg) error {
	if len(kwargs) > 0 {
		return throw(TypeError, "%s() takes no keyword arguments", name)
	}
	return nil
}

// str converts v for print() and str(), honouring a user __str__.
func (vm *VM) str(caller *host.Frame, v Value) (string, error) {
	inst, ok := v.(*Instance)
	if !ok || inst.cls.IsSubclass(BaseException) {
		return strValue(v), nil
	}
	m, _, ok := inst.cls.lookup("__str__")
	if !ok {
		return strValue(v), nil
	}
	fn, ok := m.(*Function)
	if !ok {
		return strValue(v), nil
	}
	out, err := vm.callFunction(caller, fn, []Value{inst}, nil)
	if err != nil {
		return "", err
	}
	s, ok := out.(string)
	if !ok {
		return "", throw(TypeError, "__str__ returned non-string (type %s)", typeOf(out).Name)
	}
	return s, nil
}

func builtinPrint(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	sep, end := " ", "\n"
	for _, kw := range kwargs {
		switch kw.Name {
		case "sep", "end":
			s, ok := kw.Value.(string)
			if !ok && kw.Value != nil {
				return nil, throw(TypeError, "%s must be None or a string, not %s", kw.Name, typeOf(kw.Value).Name)
			}
			if ok && kw.Name == "sep" {
				sep = s
			} else if ok {
				end = s
			}
		default:
			return nil, throw(TypeError, "'%s' is an invalid keyword argument for print()", kw.Name)
		}
	}
	parts := make([]string, len(args))
	for i, a := range args {
		s, err := c.vm.str(c.caller, a)
		if err != nil {
			return nil, err
		}
		parts[i] = s
	}
	if _, err := io.WriteString(c.vm.stdout, strings.Join(parts, sep)+end); err != nil {
		return nil, wrapError(RuntimeError, err)
	}
	return nil, nil
}

func builtinLen(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("len", args, 1, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case string:
		return int64(len([]rune(x))), nil
	case *List:
		return int64(x.Len()), nil
	case *Tuple:
		return int64(x.Len()), nil
	case *Dict:
		return int64(x.Len()), nil
	case *Range:
		return int64(x.Len()), nil
	}
	return nil, throw(TypeError, "object of type '%s' has no len()", typeOf(args[0]).Name)
}

func builtinRepr(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("repr", args, 1, 1); err != nil {
		return nil, err
	}
	return reprValue(args[0]), nil
}

func builtinIsInstance(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("isinstance", args, 2, 2); err != nil {
		return nil, err
	}
	return isInstance(args[0], args[1])
}

func builtinIsSubclass(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("issubclass", args, 2, 2); err != nil {
		return nil, err
	}
	cls, ok := args[0].(*Class)
	if !ok {
		return nil, throw(TypeError, "issubclass() arg 1 must be a class")
	}
	return isInstance(&Instance{cls: cls}, args[1])
}

func builtinAbs(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("abs", args, 1, 1); err != nil {
		return nil, err
	}
	i, f, isFloat, ok := number(args[0])
	switch {
	case !ok:
		return nil, throw(TypeError, "bad operand type for abs(): '%s'", typeOf(args[0]).Name)
	case isFloat:
		return math.Abs(f), nil
	case i == math.MinInt64:
		return nil, overflow()
	case i < 0:
		return -i, nil
	}
	return i, nil
}

// builtinMinMax returns min (sign -1) or max (sign 1).
func builtinMinMax(sign int) builtinFunc {
	name := "max"
	if sign < 0 {
		name = "min"
	}
	return func(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
		if err := noKeywords(name, kwargs); err != nil {
			return nil, err
		}
		items := args
		if len(args) == 1 {
			var err error
			if items, err = iterate(args[0]); err != nil {
				return nil, err
			}
		}
		if len(items) == 0 {
			return nil, throw(ValueError, "%s() arg is an empty sequence", name)
		}
		best := items[0]
		for _, v := range items[1:] {
			d, err := order(v, best, ast.CmpLt)
			if err != nil {
				return nil, err
			}
			if d*sign > 0 {
				best = v
			}
		}
		return best, nil
	}
}

func builtinSum(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("sum", args, 1, 2); err != nil {
		return nil, err
	}
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	var total Value = int64(0)
	if len(args) == 2 {
		total = args[1]
	}
	for _, v := range items {
		if total, err = binaryOp(token.Plus, total, v); err != nil {
			return nil, err
		}
	}
	return total, nil
}

func builtinSorted(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("sorted", args, 1, 1); err != nil {
		return nil, err
	}
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	out := append([]Value(nil), items...)
	if err := sortValues(out, kwargs); err != nil {
		return nil, err
	}
	return NewList(out...), nil
}

func builtinEnumerate(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("enumerate", args, 1, 2); err != nil {
		return nil, err
	}
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	var start int64
	if len(args) == 2 {
		n, ok := args[1].(int64)
		if !ok {
			return nil, throw(TypeError, "enumerate() start must be an integer")
		}
		start = n
	}
	out := make([]Value, len(items))
	for i, v := range items {
		out[i] = NewTuple(start+int64(i), v)
	}
	return NewList(out...), nil
}

func builtinZip(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	seqs := make([][]Value, len(args))
	n := -1
	for i, a := range args {
		items, err := iterate(a)
		if err != nil {
			return nil, err
		}
		seqs[i] = items
		if n < 0 || len(items) < n {
			n = len(items)
		}
	}
	out := make([]Value, max(n, 0))
	for i := range out {
		row := make([]Value, len(seqs))
		for j := range seqs {
			row[j] = seqs[j][i]
		}
		out[i] = NewTuple(row...)
	}
	return NewList(out...), nil
}

func builtinGetAttr(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("getattr", args, 2, 3); err != nil {
		return nil, err
	}
	name, err := strArg("getattr", args[1])
	if err != nil {
		return nil, err
	}
	v, err := getAttr(args[0], name)
	if err != nil && len(args) == 3 {
		return args[2], nil
	}
	return v, err
}

func builtinSetAttr(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("setattr", args, 3, 3); err != nil {
		return nil, err
	}
	name, err := strArg("setattr", args[1])
	if err != nil {
		return nil, err
	}
	return nil, setAttr(args[0], name, args[2])
}

func builtinHasAttr(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("hasattr", args, 2, 2); err != nil {
		return nil, err
	}
	name, err := strArg("hasattr", args[1])
	if err != nil {
		return nil, err
	}
	return hasAttr(args[0], name), nil
}

func builtinCallable(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("callable", args, 1, 1); err != nil {
		return nil, err
	}
	_, ok := args[0].(host.Callable)
	return ok, nil
}

func builtinReload(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("reload", args, 1, 1); err != nil {
		return nil, err
	}
	return c.vm.reload(c.caller, args[0])
}

func builtinImport(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("__import__", args, 1, 2); err != nil {
		return nil, err
	}
	name, err := strArg("__import__", args[0])
	if err != nil {
		return nil, err
	}
	var fromList []string
	if len(args) == 2 && args[1] != nil {
		items, err := iterate(args[1])
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			s, err := strArg("__import__", it)
			if err != nil {
				return nil, err
			}
			fromList = append(fromList, s)
		}
	}
	return c.vm.importModule(c.caller, name, fromList)
}

func ctorObject(c *callCtx, cls *Class, args []Value, kwargs []host.Kwarg) (Value, error) {
	if len(args) > 0 || len(kwargs) > 0 {
		return nil, throw(TypeError, "object() takes no arguments")
	}
	return newInstance(cls), nil
}

func ctorType(c *callCtx, cls *Class, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("type", args, 1, 1); err != nil {
		return nil, err
	}
	return typeOf(args[0]), nil
}

func ctorException(c *callCtx, cls *Class, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := noKeywords(cls.Name, kwargs); err != nil {
		return nil, err
	}
	return newException(cls, args...), nil
}

func ctorInt(c *callCtx, cls *Class, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("int", args, 0, 2); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return int64(0), nil
	}
	if s, ok := args[0].(string); ok {
		base := 10
		if len(args) == 2 {
			b, ok := args[1].(int64)
			if !ok {
				return nil, throw(TypeError, "int() base must be an integer")
			}
			base = int(b)
		}
		text := strings.ReplaceAll(strings.TrimSpace(s), "_", "")
		n, err := strconv.ParseInt(text, base, 64)
		if err != nil {
			return nil, throw(ValueError, "invalid literal for int() with base %d: %s", base, reprValue(s))
		}
		return n, nil
	}
	i, f, isFloat, ok := number(args[0])
	switch {
	case !ok:
		return nil, throw(TypeError, "int() argument must be a string or a number, not '%s'", typeOf(args[0]).Name)
	case isFloat && (math.IsNaN(f) || math.IsInf(f, 0)):
		return nil, throw(ValueError, "cannot convert float %s to integer", host.FormatFloat(f))
	case isFloat:
		if f >= math.MaxInt64 || f < math.MinInt64 {
			return nil, overflow()
		}
		return int64(f), nil
	}
	return i, nil
}

func ctorBool(c *callCtx, cls *Class, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("bool", args, 0, 1); err != nil {
		return nil, err
	}
	return len(args) == 1 && truthy(args[0]), nil
}

func ctorFloat(c *callCtx, cls *Class, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("float", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return 0.0, nil
	}
	if s, ok := args[0].(string); ok {
		text := strings.ToLower(strings.TrimSpace(s))
		switch text {
		case "inf", "+inf", "infinity":
			return math.Inf(1), nil
		case "-inf", "-infinity":
			return math.Inf(-1), nil
		case "nan":
			return math.NaN(), nil
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
		if err != nil {
			return nil, throw(ValueError, "could not convert string to float: %s", reprValue(s))
		}
		return f, nil
	}
	_, f, _, ok := number(args[0])
	if !ok {
		return nil, throw(TypeError, "float() argument must be a string or a number, not '%s'", typeOf(args[0]).Name)
	}
	return f, nil
}

func ctorStr(c *callCtx, cls *Class, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("str", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return "", nil
	}
	return c.vm.str(c.caller, args[0])
}

func ctorList(c *callCtx, cls *Class, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("list", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return NewList(), nil
	}
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	return NewList(append([]Value(nil), items...)...), nil
}

func ctorTuple(c *callCtx, cls *Class, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("tuple", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return NewTuple(), nil
	}
	if t, ok := args[0].(*Tuple); ok {
		return t, nil
	}
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	return NewTuple(append([]Value(nil), items...)...), nil
}

func ctorDict(c *callCtx, cls *Class, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("dict", args, 0, 1); err != nil {
		return nil, err
	}
	d := NewDict()
	if len(args) == 1 {
		if err := fillDict(d, args[0]); err != nil {
			return nil, err
		}
	}
	for _, kw := range kwargs {
		_ = d.Set(kw.Name, kw.Value)
	}
	return d, nil
}

func ctorRange(c *callCtx, cls *Class, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := want("range", args, 1, 3); err != nil {
		return nil, err
	}
	ints := make([]int64, len(args))
	for i, a := range args {
		n, _, isFloat, ok := number(a)
		if !ok || isFloat {
			return nil, throw(TypeError, "'%s' object cannot be interpreted as an integer", typeOf(a).Name)
		}
		ints[i] = n
	}
	r := &Range{step: 1}
	switch len(ints) {
	case 1:
		r.stop = ints[0]
	case 2:
		r.start, r.stop = ints[0], ints[1]
	default:
		r.start, r.stop, r.step = ints[0], ints[1], ints[2]
	}
	if r.step == 0 {
		return nil, throw(ValueError, "range() arg 3 must not be zero")
	}
	return r, nil
}
