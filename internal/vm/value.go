package vm

import (
	"xdtrace/internal/ast"
	"xdtrace/internal/host"
)

// Value is any runtime value. Scalars are plain Go values: nil (None),
// bool, int64, float64 and string. Everything else is a pointer type of
// this package.
type Value = host.Value

// List is a mutable sequence.
type List struct {
	elems []Value
}

// NewList returns a list holding elems.
func NewList(elems ...Value) *List { return &List{elems: elems} }

// Elems implements host.Sequence. The slice is the live backing store.
func (l *List) Elems() []Value { return l.elems }

// Len returns the number of elements.
func (l *List) Len() int { return len(l.elems) }

// Append adds v at the end.
func (l *List) Append(v Value) { l.elems = append(l.elems, v) }

// Repr implements host.Repr.
func (l *List) Repr() string { return reprValue(l) }

// Tuple is an immutable sequence.
type Tuple struct {
	elems []Value
}

// NewTuple returns a tuple holding elems.
func NewTuple(elems ...Value) *Tuple { return &Tuple{elems: elems} }

// Elems implements host.Sequence.
func (t *Tuple) Elems() []Value { return t.elems }

// Len returns the number of elements.
func (t *Tuple) Len() int { return len(t.elems) }

// Repr implements host.Repr.
func (t *Tuple) Repr() string { return reprValue(t) }

// Range is the lazy integer progression produced by range().
type Range struct {
	start, stop, step int64
}

// Len returns the number of values in the progression.
func (r *Range) Len() int {
	switch {
	case r.step > 0 && r.start < r.stop:
		return int((r.stop - r.start + r.step - 1) / r.step)
	case r.step < 0 && r.start > r.stop:
		return int((r.start - r.stop - r.step - 1) / -r.step)
	default:
		return 0
	}
}

// At returns the i-th value; i must be in range.
func (r *Range) At(i int) int64 { return r.start + int64(i)*r.step }

// Elems implements host.Sequence.
func (r *Range) Elems() []Value {
	out := make([]Value, r.Len())
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}

// Repr implements host.Repr.
func (r *Range) Repr() string {
	if r.step == 1 {
		return "range(" + reprValue(r.start) + ", " + reprValue(r.stop) + ")"
	}
	return "range(" + reprValue(r.start) + ", " + reprValue(r.stop) + ", " + reprValue(r.step) + ")"
}

// env is one enclosing function scope visible to nested functions.
type env struct {
	vars   *Scope
	parent *env
}

// Function is a routine defined by a def statement.
type Function struct {
	Name string

	code        *host.Code
	def         *ast.FuncDef
	defaults    []Value // parallel to code.Params
	hasDefault  []bool
	globals     host.Namespace
	closure     *env
	module      string
	globalNames map[string]bool
	attrs       *Scope
}

// CallableName implements host.Callable.
func (fn *Function) CallableName() string { return fn.Name }

// Code returns the routine identity shared by every frame of fn.
func (fn *Function) Code() *host.Code { return fn.code }

// Attr implements host.Object.
func (fn *Function) Attr(name string) (Value, bool) {
	switch name {
	case "__name__":
		return fn.Name, true
	case "__module__":
		return fn.module, true
	}
	return fn.attrs.Lookup(name)
}

// Repr implements host.Repr.
func (fn *Function) Repr() string { return "<function " + fn.Name + ">" }

// BoundMethod is a Function bound to its receiver.
type BoundMethod struct {
	Self Value
	Fn   *Function
}

// CallableName implements host.Callable.
func (m *BoundMethod) CallableName() string { return m.Fn.Name }

// Repr implements host.Repr.
func (m *BoundMethod) Repr() string { return reprValue(m) }

// callCtx is what a host-implemented routine sees of its invocation.
type callCtx struct {
	vm     *VM
	caller *host.Frame
}

type builtinFunc func(c *callCtx, args []Value, kwargs []host.Kwarg) (Value, error)

// Builtin is a host-implemented routine; bound builtins carry self.
type Builtin struct {
	Name string
	fn   builtinFunc
	self Value
	bind bool
}

// CallableName implements host.Callable.
func (b *Builtin) CallableName() string { return b.Name }

// Repr implements host.Repr.
func (b *Builtin) Repr() string {
	if b.bind {
		return "<built-in method " + b.Name + " of " + typeOf(b.self).Name + " object>"
	}
	return "<built-in function " + b.Name + ">"
}

// Module is a loaded module: a named namespace.
type Module struct {
	Name string
	File string

	ns      host.Namespace
	dir     string // package directory, "" for plain modules
	builtin bool
}

// Attr implements host.Object.
func (m *Module) Attr(name string) (Value, bool) { return m.ns.Lookup(name) }

// Namespace returns the module globals.
func (m *Module) Namespace() host.Namespace { return m.ns }

// Repr implements host.Repr.
func (m *Module) Repr() string {
	if m.builtin || m.File == "" {
		return "<module " + host.QuoteString(m.Name) + " (built-in)>"
	}
	return "<module " + host.QuoteString(m.Name) + " from " + host.QuoteString(m.File) + ">"
}
