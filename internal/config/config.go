// Package config loads the tool configuration from .xdtrace.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up from the working directory
// towards the filesystem root.
const FileName = ".xdtrace.toml"

// Config is the merged configuration of one invocation.
type Config struct {
	Collect Collect `toml:"collect"`
	Output  Output  `toml:"output"`
	Log     Log     `toml:"log"`
}

// Collect selects the recorded event kinds.
type Collect struct {
	Imports     bool `toml:"imports"`
	Params      bool `toml:"params"`
	Return      bool `toml:"return"`
	Assignments bool `toml:"assignments"`
	Native      bool `toml:"native"`
}

// Output selects where results go.
type Output struct {
	File    string `toml:"file"`    // stdout | stderr | path opened for append
	Archive string `toml:"archive"` // msgpack session archive, empty = none
	NDJSON  string `toml:"ndjson"`  // live record stream, empty = none
	Tail    int    `toml:"tail"`    // records kept for failure dumps, 0 = off
}

// Log configures diagnostics.
type Log struct {
	Level  string `toml:"level"`
	File   string `toml:"file"`
	Pretty bool   `toml:"pretty"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Collect: Collect{Imports: true},
		Output:  Output{File: "stdout"},
		Log:     Log{Level: "warn", Pretty: true},
	}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadFile decodes path over the defaults. Keys the file does not set keep
// their default values; unknown keys are rejected.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Output.Tail < 0 {
		return Config{}, fmt.Errorf("%s: [output].tail must not be negative", path)
	}
	if strings.TrimSpace(cfg.Output.File) == "" {
		cfg.Output.File = "stdout"
	}
	return cfg, nil
}

// Load returns the configuration at explicit, or the one discovered from
// startDir when explicit is empty. path is empty when the defaults were used.
func Load(explicit, startDir string) (cfg Config, path string, err error) {
	if explicit != "" {
		cfg, err = LoadFile(explicit)
		return cfg, explicit, err
	}
	found, ok, err := Find(startDir)
	if err != nil {
		return Config{}, "", err
	}
	if !ok {
		return Default(), "", nil
	}
	cfg, err = LoadFile(found)
	return cfg, found, err
}
