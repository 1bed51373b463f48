package host

// Code is the identity of a routine: its name, where it was defined and the
// shape of its parameter list.
type Code struct {
	Name    string   // routine name, "<module>" for module bodies
	File    string   // defining file
	Line    int      // first line of the definition
	Params  []string // positional parameter names, in order
	VarArgs string   // name of the variadic positional binding, "" if none
	KwArgs  string   // name of the variadic keyword binding, "" if none
}

// Bindings is a read-only view over the local variables of a frame.
//
// A host may back it by the live frame, in which case a lookup made after
// the statement finished observes the statement's effects.
type Bindings interface {
	Lookup(name string) (Value, bool)
}

// Frame is an execution context snapshot: one stack position at the moment
// an event was produced. The struct is never mutated after creation.
type Frame struct {
	File   string
	Line   int
	Locals Bindings
	Caller *Frame // nil for the outermost frame; lookup only
	Code   *Code
}

// Name returns the routine name of the frame, or "" when unknown.
func (fr *Frame) Name() string {
	if fr == nil || fr.Code == nil {
		return ""
	}
	return fr.Code.Name
}

// Lookup reads a local binding, tolerating frames without locals.
func (fr *Frame) Lookup(name string) (Value, bool) {
	if fr == nil || fr.Locals == nil {
		return nil, false
	}
	return fr.Locals.Lookup(name)
}

// EmptyBindings is a Bindings with no entries.
var EmptyBindings Bindings = emptyBindings{}

type emptyBindings struct{}

func (emptyBindings) Lookup(string) (Value, bool) { return nil, false }

// MapBindings adapts a plain map. Useful for hosts with eager snapshots and
// in tests.
type MapBindings map[string]Value

// Lookup implements Bindings.
func (m MapBindings) Lookup(name string) (Value, bool) {
	v, ok := m[name]
	return v, ok
}
