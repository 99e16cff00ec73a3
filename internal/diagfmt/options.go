package diagfmt

import (
	"fmt"
	"strings"

	"portlint/internal/diag"
	"portlint/internal/source"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto chooses relative or absolute path automatically.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

func (m PathMode) String() string {
	switch m {
	case PathModeAbsolute:
		return "absolute"
	case PathModeRelative:
		return "relative"
	case PathModeBasename:
		return "basename"
	}
	return "auto"
}

// ParsePathMode accepts auto|absolute|relative|basename.
func ParsePathMode(s string) (PathMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return PathModeAuto, nil
	case "absolute", "abs":
		return PathModeAbsolute, nil
	case "relative", "rel":
		return PathModeRelative, nil
	case "basename", "base":
		return PathModeBasename, nil
	}
	return PathModeAuto, fmt.Errorf("unknown path mode %q (want auto|absolute|relative|basename)", s)
}

// Format selects a renderer.
type Format uint8

const (
	FormatText Format = iota
	FormatShort
	FormatPretty
	FormatJSON
	FormatSARIF
)

// FormatNames lists accepted --format values.
const FormatNames = "text|short|pretty|json|sarif"

func (f Format) String() string {
	switch f {
	case FormatShort:
		return "short"
	case FormatPretty:
		return "pretty"
	case FormatJSON:
		return "json"
	case FormatSARIF:
		return "sarif"
	}
	return "text"
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "short":
		return FormatShort, nil
	case "pretty":
		return FormatPretty, nil
	case "json":
		return FormatJSON, nil
	case "sarif":
		return FormatSARIF, nil
	}
	return FormatText, fmt.Errorf("unknown format %q (want %s)", s, FormatNames)
}

// File is one analyzed file as seen by the renderers.
type File struct {
	Path string
	ID   source.FileID
	Bag  *diag.Bag
}

// TextOpts configures the fixed line format.
type TextOpts struct {
	// Headers prints "<path>:" before each file's block. Set for multi-file runs.
	Headers  bool
	PathMode PathMode
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color       bool
	Context     int8
	PathMode    PathMode
	Width       uint8 // max rendered source width, 0 = unlimited
	ShowNotes   bool
	ShowFixes   bool
	ShowPreview bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode        PathMode
	Max             int // truncates output per file, not the Bag
	IncludeNotes    bool
	IncludeFixes    bool
	IncludePreviews bool
}

// RuleMeta describes one rule for SARIF tool metadata.
type RuleMeta struct {
	ID    string
	Name  string
	Short string
	Help  string
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InformationURI string
	InvocationArgs []string
	Rules          []RuleMeta
	// RunGUID overrides the generated automationDetails.guid.
	RunGUID string
}
