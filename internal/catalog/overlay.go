package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Overlay is the on-disk shape of a catalog file. The embedded catalog uses
// the same shape; overlays only name what they add, change or remove.
type Overlay struct {
	ComparisonAccessor string              `toml:"comparison_accessor,omitempty" yaml:"comparison_accessor,omitempty"`
	ResultAccessor     string              `toml:"result_accessor,omitempty" yaml:"result_accessor,omitempty"`
	InvocationKinds    []string            `toml:"invocation_kinds,omitempty" yaml:"invocation_kinds,omitempty"`
	MemberRefKinds     []string            `toml:"member_ref_kinds,omitempty" yaml:"member_ref_kinds,omitempty"`
	RemoveMultiInput   []string            `toml:"remove_multi_input,omitempty" yaml:"remove_multi_input,omitempty"`
	Comparison         map[string]string   `toml:"comparison,omitempty" yaml:"comparison,omitempty"`
	MultiInput         MultiInputTable     `toml:"multi_input" yaml:"multi_input,omitempty"`
	Void               map[string][]string `toml:"void,omitempty" yaml:"void,omitempty"`
	RemoveVoid         map[string][]string `toml:"remove_void,omitempty" yaml:"remove_void,omitempty"`

	// Source is the file the overlay came from.
	Source string `toml:"-" yaml:"-"`
}

type MultiInputTable struct {
	Accessor string   `toml:"accessor,omitempty" yaml:"accessor,omitempty"`
	Slots    []string `toml:"slots,omitempty" yaml:"slots,omitempty"`
	Kinds    []string `toml:"kinds,omitempty" yaml:"kinds,omitempty"`
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrInvalidOverlay marks overlays that decode but describe impossible tables.
var ErrInvalidOverlay = errors.New("invalid catalog overlay")

// Validate checks that every name in the overlay is a plain identifier.
func (ov *Overlay) Validate() error {
	check := func(where, name string) error {
		if !identRe.MatchString(name) {
			return fmt.Errorf("%w: %s: %q is not an identifier", ErrInvalidOverlay, where, name)
		}
		return nil
	}
	var errs []error
	for _, pair := range []struct{ where, v string }{
		{"comparison_accessor", ov.ComparisonAccessor},
		{"result_accessor", ov.ResultAccessor},
		{"multi_input.accessor", ov.MultiInput.Accessor},
	} {
		if pair.v != "" {
			errs = append(errs, check(pair.where, pair.v))
		}
	}
	for kind, legacy := range ov.Comparison {
		errs = append(errs, check("comparison", kind))
		if legacy != "" {
			errs = append(errs, check("comparison."+kind, legacy))
		}
	}
	for _, s := range ov.MultiInput.Slots {
		errs = append(errs, check("multi_input.slots", s))
	}
	for _, k := range ov.MultiInput.Kinds {
		errs = append(errs, check("multi_input.kinds", k))
	}
	for _, k := range ov.InvocationKinds {
		errs = append(errs, check("invocation_kinds", k))
	}
	for _, k := range ov.MemberRefKinds {
		errs = append(errs, check("member_ref_kinds", k))
	}
	for owner, members := range ov.Void {
		for _, seg := range strings.Split(owner, ".") {
			errs = append(errs, check("void", seg))
		}
		for _, m := range members {
			errs = append(errs, check("void."+owner, m))
		}
	}
	return errors.Join(errs...)
}

// Load reads an overlay file. The format follows the extension:
// .yaml and .yml are YAML, everything else is TOML. Unknown keys are errors.
func Load(path string) (*Overlay, error) {
	// #nosec G304 -- path comes from configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ov *Overlay
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		ov, err = decodeYAML(data)
	default:
		ov, err = decodeTOML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	if err := ov.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ov.Source = path
	return ov, nil
}

func decodeTOML(data []byte) (*Overlay, error) {
	var ov Overlay
	md, err := toml.Decode(string(data), &ov)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	return &ov, nil
}

func decodeYAML(data []byte) (*Overlay, error) {
	var ov Overlay
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&ov); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &ov, nil
}

// systemPaths lists the machine and user catalog locations, lowest priority first.
var systemPaths = func() []string {
	paths := []string{"/usr/share/portlint/catalog.toml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "portlint", "catalog.toml"))
	}
	return paths
}

// ProjectCatalogPath is the optional project overlay location relative to the project root.
const ProjectCatalogPath = ".portlint/catalog.toml"

// LoadFull builds the effective catalog: the embedded tables, then the system
// and user catalogs, then the project catalog under projectRoot, then extra.
// Missing system, user and project files are skipped. Every file in extra
// must exist and parse.
func LoadFull(projectRoot string, extra []string) (*Catalog, error) {
	var overlays []*Overlay
	optional := systemPaths()
	if projectRoot != "" {
		optional = append(optional, filepath.Join(projectRoot, filepath.FromSlash(ProjectCatalogPath)))
	}
	for _, path := range optional {
		ov, err := Load(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		overlays = append(overlays, ov)
	}
	for _, path := range extra {
		ov, err := Load(path)
		if err != nil {
			return nil, err
		}
		overlays = append(overlays, ov)
	}
	return Build(Default(), overlays...), nil
}

// WriteTOML writes the catalog in the overlay format.
func (c *Catalog) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c.Snapshot())
}
