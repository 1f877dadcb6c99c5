// Package version holds build information of the dftemplate CLI.
// The variables can be overridden at build time via -ldflags.
package version

import (
	"strings"

	"github.com/fatih/color"
)

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

// Colored renders Version with major, minor and patch in distinct colors.
// Pre-release suffixes stay uncolored.
func Colored(enabled bool) string {
	core, suffix, _ := strings.Cut(Version, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 || !enabled {
		return Version
	}
	for _, c := range []*color.Color{versionMajorColor, versionMinorColor, versionPatchColor} {
		c.EnableColor()
	}
	out := versionMajorColor.Sprint(parts[0]) + "." +
		versionMinorColor.Sprint(parts[1]) + "." +
		versionPatchColor.Sprint(parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

// Describe returns "dftemplate <version>" followed by the optional commit
// and build date.
func Describe(enabled bool) string {
	var sb strings.Builder
	sb.WriteString("dftemplate ")
	sb.WriteString(Colored(enabled))
	var extra []string
	if GitCommit != "" {
		extra = append(extra, "commit "+GitCommit)
	}
	if BuildDate != "" {
		extra = append(extra, "built "+BuildDate)
	}
	if len(extra) > 0 {
		sb.WriteString(" (" + strings.Join(extra, ", ") + ")")
	}
	return sb.String()
}
