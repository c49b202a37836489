package version

import (
	"strings"

	"github.com/fatih/color"
)

// Version information for the ocahooks CLI.
// These variables can be overridden at build time via -ldflags.

var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var partColors = []*color.Color{
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgGreen, color.Bold),
	color.New(color.FgBlue, color.Bold),
}

// Colored renders v with major, minor and patch in their own colour; the
// pre-release suffix stays plain. Colour follows the fatih/color globals.
func Colored(v string) string {
	core, suffix, found := strings.Cut(v, "-")
	parts := strings.SplitN(core, ".", len(partColors))
	for i, p := range parts {
		parts[i] = partColors[i].Sprint(p)
	}
	out := strings.Join(parts, ".")
	if found {
		out += "-" + suffix
	}
	return out
}
