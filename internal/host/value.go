package host

// Callable is implemented by values that can be invoked.
type Callable interface {
	// CallableName is the declared name of the routine.
	CallableName() string
}

// Class is a runtime class.
type Class interface {
	// ClassName is the module-qualified class name, e.g. "__main__.Fib".
	ClassName() string
	// Builtin reports whether the class is a primitive/built-in type.
	Builtin() bool
	// HasRoutine reports whether the class (or a base) defines a routine
	// with the given name.
	HasRoutine(name string) bool
}

// Instance is a value with a runtime class.
type Instance interface {
	Class() Class
}

// Object is a value with readable attributes.
type Object interface {
	Attr(name string) (Value, bool)
}

// Sequence is an ordered collection (the variadic positional binding).
type Sequence interface {
	Elems() []Value
}

// Keywords is an ordered keyword mapping (the variadic keyword binding).
type Keywords interface {
	Keys() []string
	Lookup(key string) (Value, bool)
}

// Repr is implemented by values that render their own structural text.
// The text must be a pure function of the value's contents.
type Repr interface {
	Repr() string
}
