package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"xdtrace/internal/archive"
	"xdtrace/internal/diag"
	"xdtrace/internal/host"
	"xdtrace/internal/logger"
	"xdtrace/internal/observ"
	"xdtrace/internal/prof"
	"xdtrace/internal/trace"
	"xdtrace/internal/tracer"
	"xdtrace/internal/vm"
)

func runTrace(cmd *cobra.Command, args []string) error {
	timer := observ.NewTimer()
	stderr := cmd.ErrOrStderr()

	var st settings
	if err := timer.Track("config", func() (err error) {
		st, err = loadSettings(cmd)
		return err
	}); err != nil {
		return err
	}
	if st.timings {
		defer func() { fmt.Fprint(stderr, timer.Summary()) }()
	}

	lg, err := logger.New(logger.Config{Level: st.Log.Level, File: st.Log.File, Pretty: st.Log.Pretty})
	if err != nil {
		return err
	}
	defer lg.Close()
	if st.configPath != "" {
		lg.Debug().Str("path", st.configPath).Msg("configuration loaded")
	}

	if st.prof.Enabled() {
		p, err := prof.Start(st.prof)
		if err != nil {
			return err
		}
		defer func() {
			if err := p.Stop(); err != nil {
				lg.Warn().Err(err).Msg("profiling failed")
			}
		}()
	}

	if st.replay != "" {
		return timer.Track("replay", func() error { return replay(cmd, st, lg.Logger) })
	}

	if len(args) == 0 {
		return usageError(errors.New("missing script path"))
	}
	script := args[0]
	if isSelf(script) {
		return usageError(fmt.Errorf("%s is xdtrace itself", script))
	}
	if _, err := os.Stat(script); err != nil {
		return err
	}
	return traceScript(cmd, st, lg.Logger, timer, script, args[1:])
}

// isSelf reports whether path is the running executable.
func isSelf(path string) bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	a, err := os.Stat(exe)
	if err != nil {
		return false
	}
	b, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(a, b)
}

func traceScript(cmd *cobra.Command, st settings, log zerolog.Logger, timer *observ.Timer, script string, scriptArgs []string) error {
	stderr := cmd.ErrOrStderr()

	sink, ring, err := openSink(st)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to close record stream")
		}
	}()

	rt := vm.New(vm.Options{
		Argv:   append([]string{script}, scriptArgs...),
		Stdout: cmd.OutOrStdout(),
		Native: st.Collect.Native,
	})
	tr := tracer.New(rt, tracer.Options{
		CollectImports:     st.Collect.Imports,
		CollectParams:      st.Collect.Params,
		CollectReturn:      st.Collect.Return,
		CollectAssignments: st.Collect.Assignments,
		Clock:              host.SystemClock{},
		Memory:             tracer.ProcessMemory(),
		Sink:               sink,
		Logger:             log,
	})
	log.Debug().Str("script", script).Str("output", st.Output.File).Msg("tracing script")

	runErr := timer.Track("run", func() error { return tr.RunFile(script, nil) })

	if err := timer.Track("render", func() error {
		report, err := tr.Result()
		if err != nil {
			return err
		}
		return writeReport(cmd, st.Output.File, report)
	}); err != nil {
		return err
	}
	if st.save != "" {
		start, end := tr.Bounds()
		s := archive.New(tr.SessionID(), script, start, end, tr.Records())
		if err := archive.Save(st.save, s); err != nil {
			return err
		}
		log.Debug().Str("archive", st.save).Str("session", s.ID).Msg("session saved")
	}

	if runErr == nil {
		return nil
	}
	return scriptFailure(stderr, rt, ring, runErr)
}

// scriptFailure reports an error of the traced script and picks the exit
// status. SystemExit keeps the status the script asked for.
func scriptFailure(stderr io.Writer, rt *vm.VM, ring *trace.RingSink, runErr error) error {
	var exc *vm.Error
	if errors.As(runErr, &exc) {
		if code, ok := exc.ExitCode(); ok {
			if code == 0 {
				return nil
			}
			return &exitError{code: code}
		}
	}
	if ring != nil {
		fmt.Fprintln(stderr, "last records:")
		if err := ring.Dump(stderr, trace.FormatText); err != nil {
			return err
		}
	}
	var syn *diag.SyntaxError
	switch {
	case exc != nil:
		fmt.Fprint(stderr, exc.Format(rt.Lines()))
	case errors.As(runErr, &syn):
		fmt.Fprint(stderr, syn.Pretty(!color.NoColor))
	default:
		return runErr
	}
	return &exitError{code: exitFailure}
}

func replay(cmd *cobra.Command, st settings, log zerolog.Logger) error {
	s, err := archive.Load(st.replay)
	if err != nil {
		return err
	}
	if at, ok := s.Time(); ok {
		log.Debug().Str("session", s.ID).Time("recorded", at).Msg("replaying archive")
	}
	report, err := s.Report()
	if err != nil {
		return fmt.Errorf("%s: %w", st.replay, err)
	}
	return writeReport(cmd, st.Output.File, report)
}

// openSink builds the live record sinks: an NDJSON stream, a tail ring for
// failure dumps, both or neither.
func openSink(st settings) (trace.Sink, *trace.RingSink, error) {
	cfg := trace.Config{
		Format:     trace.FormatNDJSON,
		OutputPath: st.Output.NDJSON,
		RingSize:   st.Output.Tail,
	}
	switch {
	case st.Output.NDJSON != "" && st.Output.Tail > 0:
		cfg.Mode = trace.ModeBoth
	case st.Output.NDJSON != "":
		cfg.Mode = trace.ModeStream
	case st.Output.Tail > 0:
		cfg.Mode = trace.ModeRing
	default:
		cfg.Mode = trace.ModeOff
	}
	return trace.New(cfg)
}

// writeReport writes to stdout, stderr or appends to a file.
func writeReport(cmd *cobra.Command, dest, report string) error {
	switch strings.ToLower(dest) {
	case "", "stdout":
		_, err := io.WriteString(cmd.OutOrStdout(), report)
		return err
	case "stderr":
		_, err := io.WriteString(cmd.ErrOrStderr(), report)
		return err
	}
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open report file: %w", err)
	}
	if _, err := io.WriteString(f, report); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}
