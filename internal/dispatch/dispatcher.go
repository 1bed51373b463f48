// Package dispatch turns host instrumentation events into trace records.
package dispatch

import (
	"xdtrace/internal/assign"
	"xdtrace/internal/host"
	"xdtrace/internal/qualname"
	"xdtrace/internal/record"
)

// Options select what the dispatcher records and which frames it skips.
type Options struct {
	CollectParams      bool
	CollectReturn      bool
	CollectAssignments bool

	// OriginFile is the file of the frame the run was started from. Frames
	// called directly from it are not traced, unless their routine is
	// CallFuncName.
	OriginFile   string
	CallFuncName string

	// Lines supplies source text for assignment detection.
	Lines host.LineSource
}

// Dispatcher is the instrumentation hook of a session.
type Dispatcher struct {
	s    *Session
	opts Options
}

// New returns a dispatcher writing into s.
func New(s *Session, opts Options) *Dispatcher {
	return &Dispatcher{s: s, opts: opts}
}

// Hook handles one event. It is a host.Hook.
func (d *Dispatcher) Hook(fr *host.Frame, ev host.Event, arg host.Value) {
	if fr == nil || !d.s.Tracing() || d.ignored(fr) {
		return
	}
	switch ev.Normalize() {
	case host.EventCall:
		d.call(fr)
	case host.EventReturn:
		d.ret(arg)
	case host.EventLine:
		d.line(fr)
	}
}

// ignored applies the origin rule: the run's own entry frames are not part
// of the trace.
func (d *Dispatcher) ignored(fr *host.Frame) bool {
	if fr.Caller == nil || fr.Caller.File != d.opts.OriginFile {
		return false
	}
	return d.opts.CallFuncName == "" || fr.Name() != d.opts.CallFuncName
}

func (d *Dispatcher) call(fr *host.Frame) {
	rec := record.Call{
		Header: d.s.Header(d.s.Stack.Depth()),
		Entry:  d.s.Entry(fr.Caller),
		Name:   qualname.Resolve(fr),
	}
	if d.opts.CollectParams {
		rec.Params = Params(fr)
	}
	d.s.Append(rec)
	d.s.Stack.Push()
}

func (d *Dispatcher) ret(arg host.Value) {
	depth := d.s.Stack.Pop()
	if d.opts.CollectReturn {
		d.s.Append(record.Return{Header: d.s.Header(depth), Value: arg})
	}
}

// line defers detection until the frame's next event so the statement has
// run by the time its targets are read.
func (d *Dispatcher) line(fr *host.Frame) {
	if !d.opts.CollectAssignments {
		return
	}
	depth := d.s.Stack.Depth()
	file, n, locals := fr.File, fr.Line, fr.Locals
	d.s.Stack.Defer(func() {
		text := ""
		if d.opts.Lines != nil {
			text = d.opts.Lines.Line(file, n)
		}
		for _, b := range assign.Detect(text, locals) {
			d.s.Append(record.Assignment{
				Header: d.s.Header(depth),
				Var:    b.Name,
				Value:  b.Value,
				File:   file,
				Line:   n,
			})
		}
	})
}
