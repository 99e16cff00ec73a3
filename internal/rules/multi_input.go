package rules

import (
	"fmt"

	"portlint/internal/bind"
	"portlint/internal/catalog"
	"portlint/internal/diag"
	"portlint/internal/scan"
)

// MultiInputSlot flags fixed slot accessors (a, b) on kinds backed by an
// ordered input list.
type MultiInputSlot struct {
	extractor bind.Extractor
	catalog   *catalog.Catalog
	slots     []string
	list      string
}

func NewMultiInputSlot(cat *catalog.Catalog) *MultiInputSlot {
	return &MultiInputSlot{
		extractor: bind.NewConstructExtractor(cat.MultiInputKinds()),
		catalog:   cat,
		slots:     cat.SlotNames(),
		list:      cat.MultiInputAccessor(),
	}
}

func (r *MultiInputSlot) Name() string    { return "multi-input-slot" }
func (r *MultiInputSlot) Code() diag.Code { return diag.PortMultiInputSlot }
func (r *MultiInputSlot) Doc() string {
	return "Multi-input nodes take an ordered list of inputs; the fixed a/b slots do not exist on them."
}

func (r *MultiInputSlot) Check(pass *Pass) {
	if r.list == "" {
		return
	}
	table := r.extractor.Extract(pass.File.ID, pass.Text)
	if len(table) == 0 {
		return
	}
	for _, site := range scan.Accessors(pass.Text, r.slots) {
		b, ok := table.Lookup(site.Ident)
		if !ok {
			continue
		}
		idx, ok := r.catalog.SlotIndex(site.Accessor)
		if !ok {
			continue
		}
		indexed := fmt.Sprintf("%s[%d]", r.list, idx)
		msg := fmt.Sprintf("'%s.%s' is wrong. %s is a multi-input node and uses '.%s' (C#) or '\"%d\"' (JSON key), not '.%s'. Use '%s.%s' instead.",
			site.Ident, site.Accessor, b.Kind, indexed, idx, site.Accessor, site.Ident, indexed)
		diag.ReportError(pass.Reporter, r.Code(), siteSpan(pass.File.ID, site), msg).
			WithFix(fmt.Sprintf("replace '.%s' with '.%s'", site.Accessor, indexed),
				accessorSpan(pass.File.ID, site), site.Accessor, indexed).
			Emit()
	}
}
