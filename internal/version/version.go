// Package version holds the build fingerprint of the xdtrace CLI.
package version

import (
	"strings"

	"github.com/fatih/color"
)

// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)
)

// Colored renders Version with its major, minor and patch components
// colored. Colors follow color.NoColor, so piped output stays plain.
func Colored() string {
	v := strings.TrimSpace(Version)
	if v == "" {
		v = "dev"
	}
	core, suffix, _ := strings.Cut(v, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return v
	}
	out := versionMajorColor.Sprint(parts[0]) + "." + versionMinorColor.Sprint(parts[1]) + "." + versionPatchColor.Sprint(parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

// String returns the one-line version banner.
func String() string {
	var sb strings.Builder
	sb.WriteString("xdtrace ")
	sb.WriteString(Colored())
	if c := strings.TrimSpace(GitCommit); c != "" {
		sb.WriteString(" (" + c + ")")
	}
	if d := strings.TrimSpace(BuildDate); d != "" {
		sb.WriteString(" built " + d)
	}
	return sb.String()
}
