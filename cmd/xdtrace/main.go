// Command xdtrace runs a script under the tracer and prints the trace report.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"xdtrace/internal/version"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

// exitError carries the process status out of RunE. A nil err means the
// status is reported without a message.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error { return &exitError{code: exitUsage, err: err} }

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xdtrace [flags] <script> [args...]",
		Short: "Trace calls, returns, imports and assignments of a script",
		Long: `xdtrace runs a script in its interpreter with the tracer attached and
writes a chronological, depth-indented trace report of the run.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Colored(),
		RunE:          runTrace,
	}
	cmd.SetVersionTemplate("xdtrace {{.Version}}\n")
	// Everything after the script path belongs to the script.
	cmd.Flags().SetInterspersed(false)
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return usageError(err)
	})

	f := cmd.Flags()
	f.StringP("output", "o", "stdout", "report destination (stdout|stderr|file, files are appended)")
	f.IntP("imports", "i", 1, "collect imports (0|1)")
	f.IntP("params", "p", 0, "collect call parameters (0|1)")
	f.IntP("return", "r", 0, "collect return values (0|1)")
	f.IntP("assignments", "a", 0, "collect assignments (0|1)")
	f.Bool("native", false, "trace calls into built-in routines")
	f.String("config", "", "configuration file (default: nearest "+configFileHint+")")
	f.String("save", "", "write the finished session to an archive")
	f.String("replay", "", "print the report stored in an archive instead of running a script")
	f.String("ndjson", "", "stream records as JSON lines to a file while running")
	f.Int("tail", 0, "keep the last N records and dump them to stderr if the script fails")
	f.String("log-level", "", "diagnostic log level (trace|debug|info|warn|error|disabled)")
	f.String("color", "auto", "colorize diagnostics (auto|on|off)")
	f.Bool("timings", false, "print phase timings to stderr")
	f.String("cpu-profile", "", "write a CPU profile of xdtrace to the file")
	f.String("mem-profile", "", "write a heap profile of xdtrace to the file")
	f.String("runtime-trace", "", "write a Go runtime trace of xdtrace to the file")
	return cmd
}

// run executes the command line and returns the process status.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			printError(stderr, ee.err)
		}
		if ee.code == exitUsage {
			fmt.Fprint(stderr, cmd.UsageString())
		}
		return ee.code
	}
	printError(stderr, err)
	return exitFailure
}

func printError(w io.Writer, err error) {
	prefix := color.New(color.FgRed, color.Bold).Sprint("error:")
	fmt.Fprintln(w, prefix, err)
}

// main executes the root command and exits with its status.
func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
