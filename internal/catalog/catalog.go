// Package catalog holds the port contract tables the rules check against.
//
// A Catalog is immutable once built. The built-in tables are embedded and
// parsed once; overlays from disk produce new catalogs through Build.
package catalog

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

//go:embed catalog.toml
var defaultCatalogTOML []byte

// Catalog is the read-only registry of port contract tables.
type Catalog struct {
	void               map[string]map[string]struct{}
	comparison         map[string]string
	comparisonAccessor string
	multiInput         map[string]struct{}
	slots              []string
	multiInputAccessor string
	invocationKinds    []string
	memberRefKinds     []string
	resultAccessor     string
	sources            []string
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog. The result is shared and must not be modified.
func Default() *Catalog {
	defaultOnce.Do(func() {
		var ov Overlay
		md, err := toml.Decode(string(defaultCatalogTOML), &ov)
		if err != nil {
			panic(fmt.Sprintf("failed to parse embedded catalog: %v", err))
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			panic(fmt.Sprintf("embedded catalog has unknown key %q", undecoded[0].String()))
		}
		ov.Source = "builtin"
		defaultCatalog = Build(nil, &ov)
	})
	return defaultCatalog
}

func empty() *Catalog {
	return &Catalog{
		void:       make(map[string]map[string]struct{}),
		comparison: make(map[string]string),
		multiInput: make(map[string]struct{}),
	}
}

func (c *Catalog) clone() *Catalog {
	out := empty()
	for owner, members := range c.void {
		set := make(map[string]struct{}, len(members))
		for m := range members {
			set[m] = struct{}{}
		}
		out.void[owner] = set
	}
	for k, v := range c.comparison {
		out.comparison[k] = v
	}
	for k := range c.multiInput {
		out.multiInput[k] = struct{}{}
	}
	out.comparisonAccessor = c.comparisonAccessor
	out.slots = slices.Clone(c.slots)
	out.multiInputAccessor = c.multiInputAccessor
	out.invocationKinds = slices.Clone(c.invocationKinds)
	out.memberRefKinds = slices.Clone(c.memberRefKinds)
	out.resultAccessor = c.resultAccessor
	out.sources = slices.Clone(c.sources)
	return out
}

// Build returns a new catalog made of base with the overlays applied in order.
// base is never modified; a nil base starts from empty tables.
func Build(base *Catalog, overlays ...*Overlay) *Catalog {
	var c *Catalog
	if base == nil {
		c = empty()
	} else {
		c = base.clone()
	}
	for _, ov := range overlays {
		if ov != nil {
			c.apply(ov)
		}
	}
	return c
}

func (c *Catalog) apply(ov *Overlay) {
	for owner, members := range ov.Void {
		set, ok := c.void[owner]
		if !ok {
			set = make(map[string]struct{}, len(members))
			c.void[owner] = set
		}
		for _, m := range members {
			set[m] = struct{}{}
		}
	}
	for owner, members := range ov.RemoveVoid {
		set := c.void[owner]
		if len(members) == 0 {
			delete(c.void, owner)
			continue
		}
		for _, m := range members {
			delete(set, m)
		}
		if len(set) == 0 {
			delete(c.void, owner)
		}
	}
	for kind, legacy := range ov.Comparison {
		if legacy == "" {
			delete(c.comparison, kind)
			continue
		}
		c.comparison[kind] = legacy
	}
	if ov.ComparisonAccessor != "" {
		c.comparisonAccessor = ov.ComparisonAccessor
	}
	for _, k := range ov.MultiInput.Kinds {
		c.multiInput[k] = struct{}{}
	}
	for _, k := range ov.RemoveMultiInput {
		delete(c.multiInput, k)
	}
	if len(ov.MultiInput.Slots) > 0 {
		c.slots = slices.Clone(ov.MultiInput.Slots)
	}
	if ov.MultiInput.Accessor != "" {
		c.multiInputAccessor = ov.MultiInput.Accessor
	}
	c.invocationKinds = appendUnique(c.invocationKinds, ov.InvocationKinds...)
	c.memberRefKinds = appendUnique(c.memberRefKinds, ov.MemberRefKinds...)
	if ov.ResultAccessor != "" {
		c.resultAccessor = ov.ResultAccessor
	}
	if ov.Source != "" {
		c.sources = append(c.sources, ov.Source)
	}
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if v != "" && !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}

// IsVoid reports whether owner.member is known to return no value.
// Qualified owners (UnityEngine.Transform) also match by their last segment.
// Unknown owners and members are never void.
func (c *Catalog) IsVoid(owner, member string) bool {
	if members, ok := c.void[owner]; ok {
		if _, hit := members[member]; hit {
			return true
		}
	}
	if i := strings.LastIndexByte(owner, '.'); i >= 0 {
		if members, ok := c.void[owner[i+1:]]; ok {
			_, hit := members[member]
			return hit
		}
	}
	return false
}

// ComparisonKind returns the legacy accessor for a comparison kind.
func (c *Catalog) ComparisonKind(kind string) (string, bool) {
	legacy, ok := c.comparison[kind]
	return legacy, ok
}

// ComparisonKinds returns the comparison kind names, sorted.
func (c *Catalog) ComparisonKinds() []string {
	return sortedKeys(c.comparison)
}

// LegacyAccessors returns the distinct legacy comparison accessors, sorted.
func (c *Catalog) LegacyAccessors() []string {
	out := make([]string, 0, len(c.comparison))
	for _, v := range c.comparison {
		out = appendUnique(out, v)
	}
	slices.Sort(out)
	return out
}

func (c *Catalog) ComparisonAccessor() string { return c.comparisonAccessor }

func (c *Catalog) IsMultiInput(kind string) bool {
	_, ok := c.multiInput[kind]
	return ok
}

// MultiInputKinds returns the multi-input kind names, sorted.
func (c *Catalog) MultiInputKinds() []string {
	return sortedKeys(c.multiInput)
}

// SlotIndex maps a fixed slot accessor (a, b) to its position in the input list.
func (c *Catalog) SlotIndex(accessor string) (int, bool) {
	i := slices.Index(c.slots, accessor)
	return i, i >= 0
}

// SlotNames returns the fixed slot accessors in positional order.
func (c *Catalog) SlotNames() []string { return slices.Clone(c.slots) }

func (c *Catalog) MultiInputAccessor() string { return c.multiInputAccessor }

func (c *Catalog) InvocationKinds() []string { return slices.Clone(c.invocationKinds) }

func (c *Catalog) MemberRefKinds() []string { return slices.Clone(c.memberRefKinds) }

func (c *Catalog) ResultAccessor() string { return c.resultAccessor }

// Sources lists the overlays that contributed to the catalog, oldest first.
func (c *Catalog) Sources() []string { return slices.Clone(c.sources) }

// Snapshot returns the catalog contents as a canonical overlay:
// every list sorted, removal tables empty.
func (c *Catalog) Snapshot() *Overlay {
	ov := &Overlay{
		Comparison:         make(map[string]string, len(c.comparison)),
		ComparisonAccessor: c.comparisonAccessor,
		Void:               make(map[string][]string, len(c.void)),
		MultiInput: MultiInputTable{
			Accessor: c.multiInputAccessor,
			Slots:    slices.Clone(c.slots),
			Kinds:    c.MultiInputKinds(),
		},
		InvocationKinds: c.InvocationKinds(),
		MemberRefKinds:  c.MemberRefKinds(),
		ResultAccessor:  c.resultAccessor,
	}
	for k, v := range c.comparison {
		ov.Comparison[k] = v
	}
	for owner, members := range c.void {
		ov.Void[owner] = sortedKeys(members)
	}
	slices.Sort(ov.InvocationKinds)
	slices.Sort(ov.MemberRefKinds)
	return ov
}

// Digest is a stable hash of the catalog contents.
func (c *Catalog) Digest() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c.Snapshot()); err != nil {
		// encoding plain maps and slices of strings cannot fail
		panic(err)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Family names a catalog table.
type Family string

const (
	FamilyComparison Family = "comparison"
	FamilyVoid       Family = "void"
	FamilyMultiInput Family = "multi-input"
)

// Entry is one row of the catalog listing.
type Entry struct {
	Family Family
	Key    string
	Values []string
}

// Entries lists the catalog grouped by family, each group sorted by key.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.comparison)+len(c.void)+len(c.multiInput))
	for _, kind := range c.ComparisonKinds() {
		out = append(out, Entry{
			Family: FamilyComparison,
			Key:    kind,
			Values: []string{c.comparison[kind], c.comparisonAccessor},
		})
	}
	for _, owner := range sortedKeys(c.void) {
		out = append(out, Entry{Family: FamilyVoid, Key: owner, Values: sortedKeys(c.void[owner])})
	}
	for _, kind := range c.MultiInputKinds() {
		out = append(out, Entry{Family: FamilyMultiInput, Key: kind, Values: slices.Clone(c.slots)})
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
