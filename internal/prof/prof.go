// Package prof profiles the tracer process itself. It is for measuring the
// overhead of tracing, not the traced script.
package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	rtrace "runtime/trace"
)

// Options name the output files; an empty path disables that profile.
type Options struct {
	CPU   string
	Mem   string
	Trace string
}

// Enabled reports whether any profile was requested.
func (o Options) Enabled() bool { return o.CPU != "" || o.Mem != "" || o.Trace != "" }

// Profiler owns the profiles started by Start.
type Profiler struct {
	opts    Options
	cpu     *os.File
	trace   *os.File
	stopped bool
}

// Start begins the CPU profile and the runtime trace. The heap profile is
// written by Stop.
func Start(opts Options) (*Profiler, error) {
	p := &Profiler{opts: opts}
	if opts.CPU != "" {
		f, err := os.Create(opts.CPU)
		if err != nil {
			return nil, fmt.Errorf("failed to start cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to start cpu profile: %w", err)
		}
		p.cpu = f
	}
	if opts.Trace != "" {
		f, err := os.Create(opts.Trace)
		if err == nil {
			if err = rtrace.Start(f); err != nil {
				_ = f.Close()
			}
		}
		if err != nil {
			// cpu profile must not outlive a failed Start
			p.stopCPU()
			return nil, fmt.Errorf("failed to start runtime trace: %w", err)
		}
		p.trace = f
	}
	return p, nil
}

// Stop ends every profile and writes the heap profile. Calling it again is
// a no-op.
func (p *Profiler) Stop() error {
	if p == nil || p.stopped {
		return nil
	}
	p.stopped = true
	var errs []error
	if p.trace != nil {
		rtrace.Stop()
		errs = append(errs, p.trace.Close())
	}
	errs = append(errs, p.stopCPU())
	if p.opts.Mem != "" {
		if err := writeHeap(p.opts.Mem); err != nil {
			errs = append(errs, fmt.Errorf("failed to write heap profile: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (p *Profiler) stopCPU() error {
	if p.cpu == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := p.cpu.Close()
	p.cpu = nil
	return err
}

func writeHeap(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}
