package vm

import (
	"fmt"
	"strconv"
	"strings"

	"xdtrace/internal/host"
)

// reprValue renders v the way repr() does for built-in types. User
// __repr__ methods are not consulted, so the text is a pure function of v.
func reprValue(v Value) string {
	var p printer
	return p.repr(v)
}

// printer tracks the containers it is inside of. A container reached from
// itself prints as "[...]", "(...)" or "{...}".
type printer struct {
	active map[Value]struct{}
}

func (p *printer) enter(v Value) bool {
	if _, ok := p.active[v]; ok {
		return false
	}
	if p.active == nil {
		p.active = make(map[Value]struct{})
	}
	p.active[v] = struct{}{}
	return true
}

func (p *printer) leave(v Value) { delete(p.active, v) }

func (p *printer) repr(v Value) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return host.FormatFloat(x)
	case string:
		return host.QuoteString(x)
	case *List:
		return p.seq(x, "[", "]", x.elems, false)
	case *Tuple:
		return p.seq(x, "(", ")", x.elems, true)
	case *Dict:
		return p.dict(x)
	case *Instance:
		if !x.cls.IsSubclass(BaseException) {
			return "<" + x.cls.ClassName() + " object>"
		}
		if !p.enter(x) {
			return x.cls.Name + "(...)"
		}
		defer p.leave(x)
		args := exceptionArgs(x)
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = p.repr(a)
		}
		return x.cls.Name + "(" + strings.Join(parts, ", ") + ")"
	case *BoundMethod:
		return "<bound method " + typeOf(x.Self).Name + "." + x.Fn.Name + " of " + p.repr(x.Self) + ">"
	case host.Repr:
		return x.Repr()
	default:
		return fmt.Sprint(x)
	}
}

func (p *printer) seq(owner Value, open, closing string, elems []Value, tuple bool) string {
	if !p.enter(owner) {
		return open + "..." + closing
	}
	defer p.leave(owner)
	var sb strings.Builder
	sb.WriteString(open)
	for i, e := range elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.repr(e))
	}
	if tuple && len(elems) == 1 {
		sb.WriteByte(',')
	}
	sb.WriteString(closing)
	return sb.String()
}

func (p *printer) dict(d *Dict) string {
	if !p.enter(d) {
		return "{...}"
	}
	defer p.leave(d)
	var sb strings.Builder
	sb.WriteByte('{')
	for i := range d.keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.repr(d.keys[i]))
		sb.WriteString(": ")
		sb.WriteString(p.repr(d.vals[i]))
	}
	sb.WriteByte('}')
	return sb.String()
}

// strValue renders v the way str() does for built-in types.
func strValue(v Value) string {
	switch x := v.(type) {
	case string:
		return x
	case *Instance:
		if x.cls.IsSubclass(BaseException) {
			return exceptionMessage(x)
		}
	}
	return reprValue(v)
}
