// Package callstack tracks call depth and the deferred line actions pending
// at each depth.
package callstack

// Tracker keeps the current call depth and at most one pending action per
// depth. An action is owned by the frame running at that depth: it runs when
// that frame produces its next event (Defer or Pop) or at teardown
// (FlushAll). Calls into deeper frames leave it untouched.
//
// The zero value is ready to use. A Tracker is not safe for concurrent use.
type Tracker struct {
	depth   int
	pending []func()
}

// Depth returns the current call depth. It is never negative.
func (t *Tracker) Depth() int { return t.depth }

// Reset drops every pending action without running it and returns to depth 0.
func (t *Tracker) Reset() {
	t.depth = 0
	clear(t.pending)
	t.pending = t.pending[:0]
}

// Push enters a new frame and returns the depth the frame was entered from.
// The new depth starts with an empty slot.
func (t *Tracker) Push() int {
	from := t.depth
	t.depth++
	t.slot(t.depth)
	t.pending[t.depth] = nil
	return from
}

// Pop runs the action pending at the current depth, leaves the frame and
// returns the new depth. Pop at depth 0 stays at 0.
func (t *Tracker) Pop() int {
	t.Flush()
	if t.depth > 0 {
		t.depth--
	}
	return t.depth
}

// Defer runs the action pending at the current depth, if any, and stores fn
// in its place.
func (t *Tracker) Defer(fn func()) {
	t.Flush()
	t.slot(t.depth)
	t.pending[t.depth] = fn
}

// Pending reports whether an action waits at the current depth.
func (t *Tracker) Pending() bool {
	return t.depth < len(t.pending) && t.pending[t.depth] != nil
}

// Flush runs and clears the action pending at the current depth.
func (t *Tracker) Flush() {
	t.run(t.depth)
}

// FlushAll runs every pending action, deepest first, and clears them.
func (t *Tracker) FlushAll() {
	for d := len(t.pending) - 1; d >= 0; d-- {
		t.run(d)
	}
}

func (t *Tracker) slot(d int) {
	for len(t.pending) <= d {
		t.pending = append(t.pending, nil)
	}
}

// run clears the slot before invoking it so every action fires at most once,
// even if it panics.
func (t *Tracker) run(d int) {
	if d >= len(t.pending) {
		return
	}
	fn := t.pending[d]
	if fn == nil {
		return
	}
	t.pending[d] = nil
	defer func() { _ = recover() }()
	fn()
}
