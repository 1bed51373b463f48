package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"xdtrace/internal/config"
	"xdtrace/internal/prof"
)

const configFileHint = config.FileName

// settings is the configuration of one invocation after flags were applied.
type settings struct {
	config.Config
	configPath string // empty when defaults were used

	save    string
	replay  string
	timings bool
	prof    prof.Options
}

// loadSettings merges defaults, the configuration file and the flags the
// user actually set, in that order.
func loadSettings(cmd *cobra.Command) (settings, error) {
	f := cmd.Flags()
	explicit, err := f.GetString("config")
	if err != nil {
		return settings{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return settings{}, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, path, err := config.Load(explicit, wd)
	if err != nil {
		return settings{}, err
	}
	st := settings{Config: cfg, configPath: path}

	toggles := []struct {
		name string
		dst  *bool
	}{
		{"imports", &st.Collect.Imports},
		{"params", &st.Collect.Params},
		{"return", &st.Collect.Return},
		{"assignments", &st.Collect.Assignments},
	}
	for _, tg := range toggles {
		if !f.Changed(tg.name) {
			continue
		}
		n, err := f.GetInt(tg.name)
		if err != nil {
			return settings{}, usageError(err)
		}
		if n != 0 && n != 1 {
			return settings{}, usageError(fmt.Errorf("--%s must be 0 or 1, got %d", tg.name, n))
		}
		*tg.dst = n == 1
	}

	strs := []struct {
		name string
		dst  *string
	}{
		{"output", &st.Output.File},
		{"ndjson", &st.Output.NDJSON},
		{"save", &st.Output.Archive},
		{"log-level", &st.Log.Level},
	}
	for _, s := range strs {
		if !f.Changed(s.name) {
			continue
		}
		v, err := f.GetString(s.name)
		if err != nil {
			return settings{}, usageError(err)
		}
		*s.dst = v
	}
	if f.Changed("native") {
		st.Collect.Native, _ = f.GetBool("native")
	}
	if f.Changed("tail") {
		n, _ := f.GetInt("tail")
		if n < 0 {
			return settings{}, usageError(fmt.Errorf("--tail must not be negative, got %d", n))
		}
		st.Output.Tail = n
	}
	st.save = st.Output.Archive
	st.replay, _ = f.GetString("replay")
	st.timings, _ = f.GetBool("timings")
	st.prof.CPU, _ = f.GetString("cpu-profile")
	st.prof.Mem, _ = f.GetString("mem-profile")
	st.prof.Trace, _ = f.GetString("runtime-trace")

	mode, _ := f.GetString("color")
	if err := applyColor(mode); err != nil {
		return settings{}, usageError(err)
	}
	return st, nil
}

// applyColor sets the process-wide color mode.
func applyColor(mode string) error {
	switch mode {
	case "auto", "":
		color.NoColor = !isTerminal(os.Stderr)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}
