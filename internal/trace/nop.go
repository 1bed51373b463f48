package trace

import "xdtrace/internal/record"

// nopSink is a no-op implementation for zero overhead when streaming is off.
type nopSink struct{}

// Emit does nothing.
func (nopSink) Emit(record.Record) {}

// Flush does nothing.
func (nopSink) Flush() error { return nil }

// Close does nothing.
func (nopSink) Close() error { return nil }

// Enabled always returns false.
func (nopSink) Enabled() bool { return false }

// Nop is the package-level singleton nop sink.
var Nop Sink = nopSink{}
