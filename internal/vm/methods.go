package vm

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"xdtrace/internal/ast"
	"xdtrace/internal/host"
)

type methodTable map[string]builtinFunc

var (
	strMethods   methodTable
	listMethods  methodTable
	dictMethods  methodTable
	tupleMethods methodTable
)

func init() {
	strMethods = methodTable{
		"join":       strJoin,
		"upper":      strMap(strings.ToUpper),
		"lower":      strMap(strings.ToLower),
		"strip":      strTrim(strings.Trim, strings.TrimSpace),
		"lstrip":     strTrim(strings.TrimLeft, func(s string) string { return strings.TrimLeftFunc(s, unicode.IsSpace) }),
		"rstrip":     strTrim(strings.TrimRight, func(s string) string { return strings.TrimRightFunc(s, unicode.IsSpace) }),
		"split":      strSplit,
		"startswith": strTest(strings.HasPrefix),
		"endswith":   strTest(strings.HasSuffix),
		"replace":    strReplace,
		"find":       strFind,
		"count":      strCount,
		"format":     strFormat,
		"isdigit": func(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
			s := args[0].(string)
			return s != "" && strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) < 0, nil
		},
	}
	listMethods = methodTable{
		"append":  listAppend,
		"extend":  listExtend,
		"pop":     listPop,
		"insert":  listInsert,
		"remove":  listRemove,
		"index":   seqIndexOf,
		"count":   seqCount,
		"reverse": listReverse,
		"sort":    listSort,
		"copy": func(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
			return NewList(append([]Value(nil), args[0].(*List).elems...)...), nil
		},
	}
	tupleMethods = methodTable{
		"index": seqIndexOf,
		"count": seqCount,
	}
	dictMethods = methodTable{
		"get":        dictGet,
		"keys":       dictView(func(k, _ Value) Value { return k }),
		"values":     dictView(func(_, v Value) Value { return v }),
		"items":      dictView(func(k, v Value) Value { return NewTuple(k, v) }),
		"pop":        dictPop,
		"update":     dictUpdate,
		"setdefault": dictSetDefault,
		"copy": func(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
			src := args[0].(*Dict)
			d := NewDict()
			for i, k := range src.keys {
				_ = d.Set(k, src.vals[i])
			}
			return d, nil
		},
	}
}

// methodOf binds a method of a built-in type to obj.
func methodOf(obj Value, name string) (*Builtin, bool) {
	var table methodTable
	switch obj.(type) {
	case string:
		table = strMethods
	case *List:
		table = listMethods
	case *Tuple:
		table = tupleMethods
	case *Dict:
		table = dictMethods
	default:
		return nil, false
	}
	fn, ok := table[name]
	if !ok {
		return nil, false
	}
	return &Builtin{Name: name, fn: fn, self: obj, bind: true}, true
}

// arity checks the argument count of a bound method, self excluded.
func arity(name string, args []Value, minArgs, maxArgs int) error {
	n := len(args) - 1
	switch {
	case n < minArgs && minArgs == maxArgs:
		return throw(TypeError, "%s() takes exactly %d argument(s) (%d given)", name, minArgs, n)
	case n < minArgs:
		return throw(TypeError, "%s() takes at least %d argument(s) (%d given)", name, minArgs, n)
	case maxArgs >= 0 && n > maxArgs:
		return throw(TypeError, "%s() takes at most %d argument(s) (%d given)", name, maxArgs, n)
	}
	return nil
}

func strArg(name string, v Value) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", throw(TypeError, "%s() argument must be str, not %s", name, typeOf(v).Name)
	}
	return s, nil
}

func strJoin(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := arity("join", args, 1, 1); err != nil {
		return nil, err
	}
	items, err := iterate(args[1])
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(items))
	for i, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, throw(TypeError, "sequence item %d: expected str instance, %s found", i, typeOf(it).Name)
		}
		parts[i] = s
	}
	return strings.Join(parts, args[0].(string)), nil
}

func strMap(fn func(string) string) builtinFunc {
	return func(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
		if err := arity("str method", args, 0, 0); err != nil {
			return nil, err
		}
		return fn(args[0].(string)), nil
	}
}

func strTrim(cut func(string, string) string, space func(string) string) builtinFunc {
	return func(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
		if err := arity("strip", args, 0, 1); err != nil {
			return nil, err
		}
		s := args[0].(string)
		if len(args) == 1 || args[1] == nil {
			return space(s), nil
		}
		chars, err := strArg("strip", args[1])
		if err != nil {
			return nil, err
		}
		return cut(s, chars), nil
	}
}

func strSplit(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := arity("split", args, 0, 2); err != nil {
		return nil, err
	}
	s := args[0].(string)
	limit := -1
	if len(args) == 3 {
		n, ok := args[2].(int64)
		if !ok {
			return nil, throw(TypeError, "split() maxsplit must be an integer")
		}
		limit = int(n)
	}
	var parts []string
	switch {
	case len(args) == 1 || args[1] == nil:
		parts = splitFields(s, limit)
	default:
		sep, err := strArg("split", args[1])
		if err != nil {
			return nil, err
		}
		if sep == "" {
			return nil, throw(ValueError, "empty separator")
		}
		if limit >= 0 {
			parts = strings.SplitN(s, sep, limit+1)
		} else {
			parts = strings.Split(s, sep)
		}
	}
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return NewList(out...), nil
}

// splitFields splits on runs of whitespace; after limit splits the rest
// is kept as the last field.
func splitFields(s string, limit int) []string {
	var out []string
	rest := strings.TrimLeftFunc(s, unicode.IsSpace)
	for rest != "" {
		if limit >= 0 && len(out) == limit {
			return append(out, rest)
		}
		i := strings.IndexFunc(rest, unicode.IsSpace)
		if i < 0 {
			return append(out, rest)
		}
		out = append(out, rest[:i])
		rest = strings.TrimLeftFunc(rest[i:], unicode.IsSpace)
	}
	return out
}

func strTest(test func(string, string) bool) builtinFunc {
	return func(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
		if err := arity("startswith", args, 1, 1); err != nil {
			return nil, err
		}
		s := args[0].(string)
		if t, ok := args[1].(*Tuple); ok {
			for _, e := range t.elems {
				p, err := strArg("startswith", e)
				if err != nil {
					return nil, err
				}
				if test(s, p) {
					return true, nil
				}
			}
			return false, nil
		}
		p, err := strArg("startswith", args[1])
		if err != nil {
			return nil, err
		}
		return test(s, p), nil
	}
}

func strReplace(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := arity("replace", args, 2, 2); err != nil {
		return nil, err
	}
	old, err := strArg("replace", args[1])
	if err != nil {
		return nil, err
	}
	repl, err := strArg("replace", args[2])
	if err != nil {
		return nil, err
	}
	return strings.ReplaceAll(args[0].(string), old, repl), nil
}

func strFind(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := arity("find", args, 1, 1); err != nil {
		return nil, err
	}
	sub, err := strArg("find", args[1])
	if err != nil {
		return nil, err
	}
	s := args[0].(string)
	i := strings.Index(s, sub)
	if i < 0 {
		return int64(-1), nil
	}
	return int64(len([]rune(s[:i]))), nil
}

func strCount(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := arity("count", args, 1, 1); err != nil {
		return nil, err
	}
	sub, err := strArg("count", args[1])
	if err != nil {
		return nil, err
	}
	return int64(strings.Count(args[0].(string), sub)), nil
}

// strFormat substitutes {}, {0} and {name} fields.
func strFormat(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	format := args[0].(string)
	pos := args[1:]
	var sb strings.Builder
	next := 0
	for i := 0; i < len(format); i++ {
		ch := format[i]
		if ch == '}' && i+1 < len(format) && format[i+1] == '}' {
			sb.WriteByte('}')
			i++
			continue
		}
		if ch != '{' {
			sb.WriteByte(ch)
			continue
		}
		if i+1 < len(format) && format[i+1] == '{' {
			sb.WriteByte('{')
			i++
			continue
		}
		end := strings.IndexByte(format[i:], '}')
		if end < 0 {
			return nil, throw(ValueError, "Single '{' encountered in format string")
		}
		field := format[i+1 : i+end]
		i += end
		var v Value
		switch n, err := strconv.Atoi(field); {
		case field == "":
			if next >= len(pos) {
				return nil, throw(IndexError, "Replacement index %d out of range for positional args tuple", next)
			}
			v = pos[next]
			next++
		case err == nil:
			if n < 0 || n >= len(pos) {
				return nil, throw(IndexError, "Replacement index %d out of range for positional args tuple", n)
			}
			v = pos[n]
		default:
			found := false
			for _, kw := range kwargs {
				if kw.Name == field {
					v, found = kw.Value, true
				}
			}
			if !found {
				return nil, &Error{Exc: newException(KeyError, field)}
			}
		}
		s, err := c.vm.str(c.caller, v)
		if err != nil {
			return nil, err
		}
		sb.WriteString(s)
	}
	return sb.String(), nil
}

func listAppend(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := arity("append", args, 1, 1); err != nil {
		return nil, err
	}
	args[0].(*List).Append(args[1])
	return nil, nil
}

func listExtend(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := arity("extend", args, 1, 1); err != nil {
		return nil, err
	}
	items, err := iterate(args[1])
	if err != nil {
		return nil, err
	}
	l := args[0].(*List)
	l.elems = append(l.elems, items...)
	return nil, nil
}

func listPop(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := arity("pop", args, 0, 1); err != nil {
		return nil, err
	}
	l := args[0].(*List)
	if len(l.elems) == 0 {
		return nil, throw(IndexError, "pop from empty list")
	}
	i := len(l.elems) - 1
	if len(args) == 2 {
		var err error
		if i, err = seqIndex(args[1], len(l.elems), "pop"); err != nil {
			return nil, err
		}
	}
	v := l.elems[i]
	l.elems = append(l.elems[:i], l.elems[i+1:]...)
	return v, nil
}

func listInsert(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := arity("insert", args, 2, 2); err != nil {
		return nil, err
	}
	l := args[0].(*List)
	n, ok := args[1].(int64)
	if !ok {
		return nil, throw(TypeError, "insert() index must be an integer")
	}
	size := int64(len(l.elems))
	if n < 0 {
		n = max(n+size, 0)
	}
	n = min(n, size)
	l.elems = append(l.elems, nil)
	copy(l.elems[n+1:], l.elems[n:])
	l.elems[n] = args[2]
	return nil, nil
}

func listRemove(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := arity("remove", args, 1, 1); err != nil {
		return nil, err
	}
	l := args[0].(*List)
	for i, e := range l.elems {
		if equal(e, args[1]) {
			l.elems = append(l.elems[:i], l.elems[i+1:]...)
			return nil, nil
		}
	}
	return nil, throw(ValueError, "list.remove(x): x not in list")
}

func listReverse(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := arity("reverse", args, 0, 0); err != nil {
		return nil, err
	}
	e := args[0].(*List).elems
	for i, j := 0, len(e)-1; i < j; i, j = i+1, j-1 {
		e[i], e[j] = e[j], e[i]
	}
	return nil, nil
}

func listSort(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := arity("sort", args, 0, 0); err != nil {
		return nil, err
	}
	l := args[0].(*List)
	return nil, sortValues(l.elems, kwargs)
}

// sortValues sorts in place; the only keyword understood is reverse.
func sortValues(elems []Value, kwargs []host.Kwarg) error {
	reverse := false
	for _, kw := range kwargs {
		if kw.Name != "reverse" {
			return throw(TypeError, "'%s' is an invalid keyword argument for sort()", kw.Name)
		}
		reverse = truthy(kw.Value)
	}
	var failed error
	sort.SliceStable(elems, func(i, j int) bool {
		if failed != nil {
			return false
		}
		a, b := elems[i], elems[j]
		if reverse {
			a, b = b, a
		}
		c, err := order(a, b, ast.CmpLt)
		if err != nil {
			failed = err
			return false
		}
		return c < 0
	})
	return failed
}

func seqIndexOf(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := arity("index", args, 1, 1); err != nil {
		return nil, err
	}
	for i, e := range args[0].(host.Sequence).Elems() {
		if equal(e, args[1]) {
			return int64(i), nil
		}
	}
	return nil, throw(ValueError, "%s is not in %s", reprValue(args[1]), typeOf(args[0]).Name)
}

func seqCount(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := arity("count", args, 1, 1); err != nil {
		return nil, err
	}
	var n int64
	for _, e := range args[0].(host.Sequence).Elems() {
		if equal(e, args[1]) {
			n++
		}
	}
	return n, nil
}

func dictGet(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := arity("get", args, 1, 2); err != nil {
		return nil, err
	}
	v, ok, err := args[0].(*Dict).Get(args[1])
	if err != nil {
		return nil, err
	}
	if !ok && len(args) == 3 {
		return args[2], nil
	}
	return v, nil
}

func dictView(pick func(k, v Value) Value) builtinFunc {
	return func(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
		if err := arity("keys", args, 0, 0); err != nil {
			return nil, err
		}
		d := args[0].(*Dict)
		out := make([]Value, len(d.keys))
		for i := range d.keys {
			out[i] = pick(d.keys[i], d.vals[i])
		}
		return NewList(out...), nil
	}
}

func dictPop(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := arity("pop", args, 1, 2); err != nil {
		return nil, err
	}
	d := args[0].(*Dict)
	v, ok, err := d.Get(args[1])
	if err != nil {
		return nil, err
	}
	if !ok {
		if len(args) == 3 {
			return args[2], nil
		}
		return nil, &Error{Exc: newException(KeyError, args[1])}
	}
	_, _ = d.Delete(args[1])
	return v, nil
}

func dictUpdate(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := arity("update", args, 0, 1); err != nil {
		return nil, err
	}
	d := args[0].(*Dict)
	if len(args) == 2 {
		if err := fillDict(d, args[1]); err != nil {
			return nil, err
		}
	}
	for _, kw := range kwargs {
		_ = d.Set(kw.Name, kw.Value)
	}
	return nil, nil
}

func dictSetDefault(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error) {
	if err := arity("setdefault", args, 1, 2); err != nil {
		return nil, err
	}
	d := args[0].(*Dict)
	v, ok, err := d.Get(args[1])
	if err != nil || ok {
		return v, err
	}
	var def Value
	if len(args) == 3 {
		def = args[2]
	}
	return def, d.Set(args[1], def)
}

// fillDict copies a dict or a sequence of pairs into d.
func fillDict(d *Dict, src Value) error {
	if other, ok := src.(*Dict); ok {
		for i, k := range other.keys {
			if err := d.Set(k, other.vals[i]); err != nil {
				return err
			}
		}
		return nil
	}
	items, err := iterate(src)
	if err != nil {
		return err
	}
	for i, it := range items {
		pair, err := iterate(it)
		if err != nil || len(pair) != 2 {
			return throw(ValueError, "dictionary update sequence element #%d has wrong length", i)
		}
		if err := d.Set(pair[0], pair[1]); err != nil {
			return err
		}
	}
	return nil
}
