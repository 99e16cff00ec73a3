package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// configFileName is looked up from the input upward.
const configFileName = "portlint.toml"

// projectConfig is the decoded portlint.toml. Relative paths are resolved
// against the directory holding the file.
type projectConfig struct {
	Catalog  catalogSection  `toml:"catalog"`
	Output   outputSection   `toml:"output"`
	External externalSection `toml:"external"`
	Cache    cacheSection    `toml:"cache"`

	path string
	meta toml.MetaData
}

type catalogSection struct {
	Overlays []string `toml:"overlays"`
}

type outputSection struct {
	Format         string `toml:"format"`
	Sort           bool   `toml:"sort"`
	PathMode       string `toml:"path_mode"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
}

type externalSection struct {
	Enabled       bool     `toml:"enabled"`
	Command       string   `toml:"command"`
	Args          []string `toml:"args"`
	Bootstrap     []string `toml:"bootstrap"`
	Timeout       string   `toml:"timeout"`
	Toolchain     string   `toml:"toolchain"`
	Project       string   `toml:"project"`
	SetupExitCode int      `toml:"setup_exit_code"`
}

type cacheSection struct {
	Enabled bool `toml:"enabled"`
}

// findConfig walks from startDir to the filesystem root looking for
// portlint.toml.
func findConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
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

func loadConfig(path string) (*projectConfig, error) {
	cfg := &projectConfig{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("external", "timeout") {
		if _, err := time.ParseDuration(cfg.External.Timeout); err != nil {
			return nil, fmt.Errorf("%s: external.timeout: %w", path, err)
		}
	}
	if meta.IsDefined("output", "max_diagnostics") && cfg.Output.MaxDiagnostics < 0 {
		return nil, fmt.Errorf("%s: output.max_diagnostics must be >= 0", path)
	}
	cfg.path = path
	cfg.meta = meta
	return cfg, nil
}

// resolveConfig loads the explicit --config file, or the nearest
// portlint.toml above input. A nil config means none was found.
func resolveConfig(explicit, input string) (*projectConfig, error) {
	if explicit != "" {
		return loadConfig(explicit)
	}
	start := input
	if info, err := os.Stat(input); err == nil && !info.IsDir() {
		start = filepath.Dir(input)
	}
	path, ok, err := findConfig(start)
	if err != nil || !ok {
		return nil, err
	}
	return loadConfig(path)
}

// Dir returns the directory holding the config file.
func (c *projectConfig) Dir() string {
	if c == nil {
		return ""
	}
	return filepath.Dir(c.path)
}

func (c *projectConfig) isSet(key ...string) bool {
	return c != nil && c.meta.IsDefined(key...)
}

func (c *projectConfig) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c == nil {
		return p
	}
	return filepath.Join(c.Dir(), p)
}

// overlayPaths returns the catalog overlays named in the file.
func (c *projectConfig) overlayPaths() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.Catalog.Overlays))
	for _, p := range c.Catalog.Overlays {
		out = append(out, c.resolve(p))
	}
	return out
}

// externalTimeout returns the configured timeout or 0.
func (c *projectConfig) externalTimeout() time.Duration {
	if !c.isSet("external", "timeout") {
		return 0
	}
	d, _ := time.ParseDuration(c.External.Timeout)
	return d
}

// resolveCommand resolves a relative command path like ./tools/validate;
// bare names are left for PATH lookup.
func (c *projectConfig) resolveCommand(name string) string {
	if !strings.ContainsRune(filepath.ToSlash(name), '/') {
		return name
	}
	return c.resolve(name)
}
