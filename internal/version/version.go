// Package version holds build metadata for the portlint CLI.
// The variables can be overridden at build time via -ldflags.
package version

import "github.com/fatih/color"

var (
	// Version is the semantic version of the CLI.
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

// Colored renders v with each numeric component in its own colour.
// Versions that are not major.minor.patch[-suffix] come back unchanged.
func Colored(v string, enabled bool) string {
	core, suffix := v, ""
	for i := 0; i < len(v); i++ {
		if v[i] == '-' || v[i] == '+' {
			core, suffix = v[:i], v[i:]
			break
		}
	}
	parts := splitDots(core)
	if len(parts) != 3 {
		return v
	}
	paint := func(c *color.Color, s string) string {
		if !enabled {
			return s
		}
		c.EnableColor()
		return c.Sprint(s)
	}
	return paint(majorColor, parts[0]) + "." + paint(minorColor, parts[1]) + "." + paint(patchColor, parts[2]) + suffix
}

func splitDots(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '.' {
			if i == start {
				return nil
			}
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}
