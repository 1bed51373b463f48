package tracer

import "errors"

var (
	// ErrNotCallable is returned by RunFunction for values that cannot be
	// invoked.
	ErrNotCallable = errors.New("tracer: func is not callable")
	// ErrNotRun is returned by Result before any run has finished.
	ErrNotRun = errors.New("tracer: has not run yet")
	// ErrSessionActive is returned when a run is started on a tracer whose
	// previous run has not returned.
	ErrSessionActive = errors.New("tracer: a session is already active")
)
