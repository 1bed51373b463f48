package dispatch

import (
	"time"

	"xdtrace/internal/callstack"
	"xdtrace/internal/host"
	"xdtrace/internal/record"
)

// State is the lifecycle state of a Session.
type State uint8

const (
	// StateIdle: no run in progress, events are ignored.
	StateIdle State = iota
	// StateTracing: a run is in progress, events produce records.
	StateTracing
)

// String returns the string representation of State.
func (s State) String() string {
	if s == StateTracing {
		return "tracing"
	}
	return "idle"
}

// Session is the mutable state of one trace run: the depth tracker, the
// clock readings and the append-only record list.
type Session struct {
	Stack  callstack.Tracker
	Clock  host.Clock
	Memory host.MemoryCounter
	// Observer, when set, sees every record as it is appended.
	Observer func(record.Record)

	state   State
	start   time.Time
	end     time.Time
	records []record.Record
}

// NewSession returns an idle session reading time from clock. mem may be nil.
func NewSession(clock host.Clock, mem host.MemoryCounter) *Session {
	if clock == nil {
		clock = host.SystemClock{}
	}
	return &Session{Clock: clock, Memory: mem}
}

// Begin clears all state of a previous run and starts tracing.
func (s *Session) Begin() {
	s.Stack.Reset()
	s.records = nil
	s.end = time.Time{}
	s.start = s.Clock.Now()
	s.state = StateTracing
}

// Drain runs every pending deferred action.
func (s *Session) Drain() { s.Stack.FlushAll() }

// Finish drains what is still pending, stops tracing and appends the
// closing record.
func (s *Session) Finish() {
	s.Drain()
	s.state = StateIdle
	s.end = s.Clock.Now()
	s.Append(record.Finish{
		Header: record.Header{Elapsed: s.end.Sub(s.start)},
		Memory: s.MemoryReading(),
	})
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Tracing reports whether events should be recorded.
func (s *Session) Tracing() bool { return s.state == StateTracing }

// Start is the wall-clock time tracing began; zero before the first run.
func (s *Session) Start() time.Time { return s.start }

// End is the wall-clock time tracing ended; zero while running or before the
// first run.
func (s *Session) End() time.Time { return s.end }

// Finished reports whether a run has completed since the last Begin.
func (s *Session) Finished() bool { return !s.end.IsZero() }

// Header stamps a record header at the given depth.
func (s *Session) Header(depth int) record.Header {
	if depth < 0 {
		depth = 0
	}
	return record.Header{Depth: depth, Elapsed: s.Clock.Now().Sub(s.start)}
}

// Entry builds the call-site part of an entry record from the frame that
// performed the call. at may be nil.
func (s *Session) Entry(at *host.Frame) record.Entry {
	e := record.Entry{Memory: s.MemoryReading()}
	if at != nil {
		e.CallerFile = at.File
		e.CallerLine = at.Line
	}
	return e
}

// MemoryReading samples the memory counter.
func (s *Session) MemoryReading() record.Memory {
	if s.Memory == nil {
		return record.Memory{}
	}
	n, ok := s.Memory.Faults()
	return record.Memory{Faults: n, Known: ok}
}

// Append adds r to the session. Values are rendered now, so the record
// reads the same whatever the program does with them afterwards.
func (s *Session) Append(r record.Record) {
	r = record.Freeze(r)
	s.records = append(s.records, r)
	if s.Observer != nil {
		s.Observer(r)
	}
}

// Records returns a copy of the records collected so far.
func (s *Session) Records() []record.Record {
	out := make([]record.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records collected so far.
func (s *Session) Len() int { return len(s.records) }
