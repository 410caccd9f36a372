package version

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Version information for the quill CLI.
// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI. It is part of every cache
	// key, so it must stay free of terminal escapes.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Colored renders Version with each numeric part in its own color. Colors
// follow color.NoColor, so the result is plain text when output is not a
// terminal.
func Colored() string {
	core, suffix := Version, ""
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core, suffix = core[:i], core[i:]
	}
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	return majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2]) + suffix
}

// Info is the machine-readable build description.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
}

// Current returns the build description.
func Current() Info {
	return Info{Version: Version, GitCommit: GitCommit, GitMessage: GitMessage, BuildDate: BuildDate}
}

// Fingerprint is a one-line summary: "0.1.0-dev (abc1234, 2024-01-15)".
func Fingerprint() string {
	var extra []string
	if GitCommit != "" {
		c := GitCommit
		if len(c) > 7 {
			c = c[:7]
		}
		extra = append(extra, c)
	}
	if BuildDate != "" {
		extra = append(extra, BuildDate)
	}
	if len(extra) == 0 {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, strings.Join(extra, ", "))
}
