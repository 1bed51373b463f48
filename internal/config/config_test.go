package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	want := Config{
		Collect: Collect{Imports: true},
		Output:  Output{File: "stdout"},
		Log:     Log{Level: "warn", Pretty: true},
	}
	if diff := cmp.Diff(want, Default()); diff != "" {
		t.Errorf("Default() (-want +got):\n%s", diff)
	}
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[collect]
return = true
assignments = true

[output]
archive = "run.xdt"

[log]
level = "debug"
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.Collect.Return = true
	want.Collect.Assignments = true
	want.Output.Archive = "run.xdt"
	want.Log.Level = "debug"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("LoadFile (-want +got):\n%s", diff)
	}
}

func TestLoadFileErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "[collect\n", "failed to parse TOML"},
		{"unknown key", "[collect]\nlines = true\n", "unknown keys: collect.lines"},
		{"wrong type", "[collect]\nimports = 1\n", "failed to parse TOML"},
		{"negative tail", "[output]\ntail = -1\n", "must not be negative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tc.body)
			_, err := LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want it to mention %q", err, tc.want)
			}
		})
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeConfig(t, root, "")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	got, ok, err := Find(nested)
	if err != nil || !ok {
		t.Fatalf("Find = %q, %v, %v", got, ok, err)
	}
	if got != want {
		t.Errorf("Find = %q, want %q", got, want)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	// TempDir lives outside any project, so discovery only succeeds if a
	// stray config sits above it; skip rather than fail in that case.
	dir := t.TempDir()
	if _, ok, _ := Find(dir); ok {
		t.Skip("a configuration file exists above the temp dir")
	}
	cfg, path, err := Load("", dir)
	if err != nil {
		t.Fatal(err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load (-want +got):\n%s", diff)
	}
}

func TestLoadExplicit(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[output]\nfile = \"stderr\"\n")
	cfg, got, err := Load(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if got != path || cfg.Output.File != "stderr" {
		t.Errorf("Load = %+v from %q", cfg.Output, got)
	}
}
