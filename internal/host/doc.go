// Package host describes the execution environment the tracer runs inside.
//
// The tracer never reaches into a live interpreter. Everything it knows about
// the running program arrives through the interfaces declared here:
//
//   - Instrumentation delivers call/return/line events together with an
//     immutable Frame snapshot of the stack position that produced them.
//   - Importer exposes the module-load and module-reload entry points so they
//     can be wrapped for the duration of a session.
//   - Executor runs a callable, a piece of source text or a whole file on
//     behalf of the tracer.
//   - LineSource, Clock and MemoryCounter are the small services the record
//     model needs (source text, timestamps, page-fault counters).
//
// Values flowing through the interfaces are opaque (Value is any). A host
// opts into richer treatment by implementing the value protocol: Callable,
// Class, Instance, Object, Sequence, Keywords and Repr.
package host
