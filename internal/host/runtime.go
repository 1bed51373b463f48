package host

import "time"

// Value is any value produced by the host runtime.
type Value = any

// Kwarg is one keyword argument of an invocation.
type Kwarg struct {
	Name  string
	Value Value
}

// Namespace is a caller-supplied binding environment for executed source.
type Namespace interface {
	Bindings
	Store(name string, v Value)
}

// Instrumentation is the process-wide event subscription point.
type Instrumentation interface {
	// SetHook installs h (nil uninstalls) and returns the previous hook.
	SetHook(h Hook) (prev Hook)
}

// ImportFunc loads a module. fr is the frame executing the import.
type ImportFunc func(fr *Frame, name string, fromList []string) (Value, error)

// ReloadFunc re-executes an already loaded module. fr is the calling frame.
type ReloadFunc func(fr *Frame, module Value) (Value, error)

// Importer exposes the interceptable module-load entry points.
type Importer interface {
	SetImportFunc(f ImportFunc) (prev ImportFunc)
	SetReloadFunc(f ReloadFunc) (prev ReloadFunc)
}

// Executor runs code on behalf of the tracer. origin is the tracer's own
// frame; it becomes the Caller of the outermost frame the host creates.
type Executor interface {
	Call(origin *Frame, fn Value, args []Value, kwargs []Kwarg) (Value, error)
	Exec(origin *Frame, name string, src []byte, ns Namespace) error
	ExecFile(origin *Frame, path string, ns Namespace) error
}

// LineSource returns one line of source text by file and 1-based number.
// Unknown files and out-of-range lines yield "".
type LineSource interface {
	Line(file string, n int) string
}

// Runtime is everything the tracer needs from a host.
type Runtime interface {
	Instrumentation
	Importer
	Executor
	Lines() LineSource
}

// Clock is a wall clock with monotonic readings.
type Clock interface {
	Now() time.Time
}

// MemoryCounter reports a platform memory counter (minor page faults).
type MemoryCounter interface {
	// Faults returns the counter and whether it is available on this platform.
	Faults() (int64, bool)
}

// SystemClock is the Clock backed by time.Now.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }
