// Package version holds build information for dbalint.
package version

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0"

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

// Colored returns Version with its major, minor and patch parts colored.
// Color is dropped when color.NoColor is set.
func Colored() string {
	parts := strings.SplitN(Version, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	return versionMajorColor.Sprint(parts[0]) + "." +
		versionMinorColor.Sprint(parts[1]) + "." +
		versionPatchColor.Sprint(parts[2])
}

// Write prints the version block shown by `dbalint version`.
func Write(w io.Writer) {
	_, _ = fmt.Fprintf(w, "dbalint v%s\n", Colored())
	if GitCommit != "" {
		_, _ = fmt.Fprintf(w, "commit: %s\n", GitCommit)
	}
	if BuildDate != "" {
		_, _ = fmt.Fprintf(w, "built:  %s\n", BuildDate)
	}
}
