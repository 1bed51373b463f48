package tracer

import (
	"github.com/rs/zerolog"

	"xdtrace/internal/host"
	"xdtrace/internal/trace"
)

// Options control what a Tracer records.
type Options struct {
	CollectImports     bool
	CollectParams      bool
	CollectReturn      bool
	CollectAssignments bool

	// Clock defaults to the system clock.
	Clock host.Clock
	// Memory defaults to the process page fault counter.
	Memory host.MemoryCounter
	// Sink, when set, receives every record as it is produced.
	Sink trace.Sink
	// Logger receives diagnostics about the tracer itself.
	Logger zerolog.Logger
}

// DefaultOptions collects imports only.
func DefaultOptions() Options {
	return Options{
		CollectImports: true,
		Clock:          host.SystemClock{},
		Memory:         ProcessMemory(),
		Logger:         zerolog.Nop(),
	}
}

// ProcessMemory returns the memory counter of the running process.
func ProcessMemory() host.MemoryCounter { return processFaults{} }

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = host.SystemClock{}
	}
	if o.Sink == nil {
		o.Sink = trace.Nop
	}
	return o
}
