package vm

import (
	"fmt"
	"strings"

	"xdtrace/internal/host"
)

// Built-in exception hierarchy.
var (
	BaseException       = newBuiltinClass("BaseException", ObjectType)
	SystemExit          = newBuiltinClass("SystemExit", BaseException)
	Exception           = newBuiltinClass("Exception", BaseException)
	ArithmeticError     = newBuiltinClass("ArithmeticError", Exception)
	ZeroDivisionError   = newBuiltinClass("ZeroDivisionError", ArithmeticError)
	OverflowError       = newBuiltinClass("OverflowError", ArithmeticError)
	AssertionError      = newBuiltinClass("AssertionError", Exception)
	AttributeError      = newBuiltinClass("AttributeError", Exception)
	ImportError         = newBuiltinClass("ImportError", Exception)
	ModuleNotFoundError = newBuiltinClass("ModuleNotFoundError", ImportError)
	LookupError         = newBuiltinClass("LookupError", Exception)
	IndexError          = newBuiltinClass("IndexError", LookupError)
	KeyError            = newBuiltinClass("KeyError", LookupError)
	NameError           = newBuiltinClass("NameError", Exception)
	RuntimeError        = newBuiltinClass("RuntimeError", Exception)
	RecursionError      = newBuiltinClass("RecursionError", RuntimeError)
	NotImplementedError = newBuiltinClass("NotImplementedError", RuntimeError)
	SyntaxError         = newBuiltinClass("SyntaxError", Exception)
	TypeError           = newBuiltinClass("TypeError", Exception)
	ValueError          = newBuiltinClass("ValueError", Exception)
)

var exceptionClasses = []*Class{
	BaseException, SystemExit, Exception, ArithmeticError, ZeroDivisionError,
	OverflowError, AssertionError, AttributeError, ImportError, ModuleNotFoundError,
	LookupError, IndexError, KeyError, NameError, RuntimeError, RecursionError,
	NotImplementedError, SyntaxError, TypeError, ValueError,
}

// TraceFrame is one traceback entry.
type TraceFrame struct {
	File string
	Line int
	Name string
}

// Error is a script exception propagating through Go code.
type Error struct {
	Exc *Instance
	// Traceback lists the frames the exception unwound, innermost first.
	Traceback []TraceFrame
	cause     error
}

// throw builds an exception of cls with a formatted message.
func throw(cls *Class, format string, args ...any) *Error {
	return &Error{Exc: newException(cls, fmt.Sprintf(format, args...))}
}

// wrapError turns a host error into an exception of cls, keeping it reachable
// through errors.Unwrap.
func wrapError(cls *Class, err error) *Error {
	e := throw(cls, "%s", err.Error())
	e.cause = err
	return e
}

func newException(cls *Class, args ...Value) *Instance {
	inst := newInstance(cls)
	inst.attrs.Store("args", NewTuple(args...))
	return inst
}

func exceptionArgs(o *Instance) []Value {
	if t, ok := o.attrs.vals["args"].(*Tuple); ok {
		return t.elems
	}
	return nil
}

// exceptionMessage renders the text following "Name: " in a traceback.
func exceptionMessage(o *Instance) string {
	args := exceptionArgs(o)
	switch len(args) {
	case 0:
		return ""
	case 1:
		if o.cls.IsSubclass(KeyError) {
			return reprValue(args[0])
		}
		return strValue(args[0])
	default:
		return reprValue(NewTuple(args...))
	}
}

// Error implements error.
func (e *Error) Error() string {
	if msg := exceptionMessage(e.Exc); msg != "" {
		return e.Exc.cls.Name + ": " + msg
	}
	return e.Exc.cls.Name
}

// Unwrap returns the host error this exception was made from, if any.
func (e *Error) Unwrap() error { return e.cause }

// Class returns the exception class.
func (e *Error) Class() *Class { return e.Exc.cls }

// IsA reports whether the exception is an instance of cls.
func (e *Error) IsA(cls *Class) bool { return e.Exc.cls.IsSubclass(cls) }

// ExitCode returns the process status requested by SystemExit.
func (e *Error) ExitCode() (int, bool) {
	if !e.IsA(SystemExit) {
		return 0, false
	}
	args := exceptionArgs(e.Exc)
	if len(args) == 0 || args[0] == nil {
		return 0, true
	}
	if n, ok := args[0].(int64); ok {
		return int(n), true
	}
	return 1, true
}

func (e *Error) unwound(f *frame) {
	e.Traceback = append(e.Traceback, TraceFrame{File: f.code.File, Line: f.line, Name: f.code.Name})
}

// Format renders the traceback, outermost call first, quoting source lines
// when lines is not nil.
func (e *Error) Format(lines host.LineSource) string {
	var sb strings.Builder
	if len(e.Traceback) > 0 {
		sb.WriteString("Traceback (most recent call last):\n")
		for i := len(e.Traceback) - 1; i >= 0; i-- {
			tf := e.Traceback[i]
			fmt.Fprintf(&sb, "  File %q, line %d, in %s\n", tf.File, tf.Line, tf.Name)
			if lines == nil {
				continue
			}
			if text := strings.TrimSpace(lines.Line(tf.File, tf.Line)); text != "" {
				sb.WriteString("    ")
				sb.WriteString(text)
				sb.WriteByte('\n')
			}
		}
	}
	sb.WriteString(e.Error())
	sb.WriteByte('\n')
	return sb.String()
}
