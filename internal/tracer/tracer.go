// Package tracer runs code under instrumentation and produces the trace
// report.
package tracer

import (
	"runtime"
	"time"

	"github.com/oklog/ulid/v2"

	"xdtrace/internal/dispatch"
	"xdtrace/internal/host"
	"xdtrace/internal/importhook"
	"xdtrace/internal/record"
)

// originFile identifies frames started by the tracer itself.
var originFile = func() string {
	_, file, _, _ := runtime.Caller(0)
	return file
}()

// OriginFile is the file name reported as the caller of routines invoked
// directly by a Tracer.
func OriginFile() string { return originFile }

// Tracer is the controller of trace sessions over one host runtime. One
// session runs at a time; a Tracer is not safe for concurrent use.
type Tracer struct {
	rt      host.Runtime
	opts    Options
	session *dispatch.Session
	id      ulid.ULID
	active  bool
}

// New returns a tracer for rt.
func New(rt host.Runtime, opts Options) *Tracer {
	opts = opts.withDefaults()
	return &Tracer{
		rt:      rt,
		opts:    opts,
		session: dispatch.NewSession(opts.Clock, opts.Memory),
	}
}

// Options returns the current options.
func (t *Tracer) Options() Options { return t.opts }

// SetOptions replaces the options used by the next run.
func (t *Tracer) SetOptions(opts Options) error {
	if t.active {
		return ErrSessionActive
	}
	t.opts = opts.withDefaults()
	t.reset()
	return nil
}

// SessionID identifies the last started run; empty before the first run.
func (t *Tracer) SessionID() string {
	if t.id == (ulid.ULID{}) {
		return ""
	}
	return t.id.String()
}

// RunFunction invokes fn with the given arguments and traces the callee's
// subtree. The callee's return value and error are passed through.
func (t *Tracer) RunFunction(fn host.Value, args []host.Value, kwargs []host.Kwarg) (host.Value, error) {
	c, ok := fn.(host.Callable)
	if !ok {
		if t.active {
			return nil, ErrSessionActive
		}
		// a rejected target still starts a new session
		t.reset()
		return nil, ErrNotCallable
	}
	var out host.Value
	err := t.run(c.CallableName(), func(origin *host.Frame) error {
		v, err := t.rt.Call(origin, fn, args, kwargs)
		out = v
		return err
	})
	return out, err
}

// RunStatement executes src against ns. A nil ns runs in a fresh main
// module namespace.
func (t *Tracer) RunStatement(src string, ns host.Namespace) error {
	return t.run("", func(origin *host.Frame) error {
		return t.rt.Exec(origin, "<string>", []byte(src), ns)
	})
}

// RunFile executes the script at path against ns. A nil ns runs in a fresh
// main module namespace.
func (t *Tracer) RunFile(path string, ns host.Namespace) error {
	return t.run("", func(origin *host.Frame) error {
		return t.rt.ExecFile(origin, path, ns)
	})
}

func (t *Tracer) reset() {
	t.session = dispatch.NewSession(t.opts.Clock, t.opts.Memory)
	t.id = ulid.ULID{}
}

// Result renders the report of the last finished run.
func (t *Tracer) Result() (string, error) {
	if t.active || !t.session.Finished() {
		return "", ErrNotRun
	}
	return record.Report(t.session.Start(), t.session.End(), t.session.Records()), nil
}

// Records returns the records of the last run.
func (t *Tracer) Records() []record.Record { return t.session.Records() }

// Bounds returns when the last run started and ended.
func (t *Tracer) Bounds() (start, end time.Time) {
	return t.session.Start(), t.session.End()
}

// run holds the hook and the import interceptor for the duration of invoke
// and restores both on every exit path.
func (t *Tracer) run(callName string, invoke func(origin *host.Frame) error) (err error) {
	if t.active {
		return ErrSessionActive
	}
	t.active = true
	defer func() { t.active = false }()

	_, file, line, _ := runtime.Caller(0)
	origin := &host.Frame{File: file, Line: line, Locals: host.EmptyBindings, Code: &host.Code{Name: "run", File: file}}

	s := t.session
	sink := t.opts.Sink
	s.Observer = sink.Emit
	t.id = ulid.Make()
	log := t.opts.Logger.With().Str("session", t.id.String()).Logger()

	d := dispatch.New(s, dispatch.Options{
		CollectParams:      t.opts.CollectParams,
		CollectReturn:      t.opts.CollectReturn,
		CollectAssignments: t.opts.CollectAssignments,
		OriginFile:         originFile,
		CallFuncName:       callName,
		Lines:              t.rt.Lines(),
	})
	var ic *importhook.Interceptor
	if t.opts.CollectImports {
		ic = importhook.New(s, t.rt, t.opts.CollectReturn)
		ic.Install()
	}
	prev := t.rt.SetHook(d.Hook)
	s.Begin()
	log.Debug().Str("target", callName).Msg("trace started")

	defer func() {
		s.Drain()
		t.rt.SetHook(prev)
		if ic != nil {
			ic.Uninstall()
		}
		s.Finish()
		if ferr := sink.Flush(); ferr != nil {
			log.Warn().Err(ferr).Msg("record stream failed")
		}
		ev := log.Debug().Int("records", s.Len()).Dur("elapsed", s.End().Sub(s.Start()))
		if err != nil {
			ev = ev.Err(err)
		}
		ev.Msg("trace finished")
	}()

	return invoke(origin)
}
