package rules

import (
	"fmt"

	"portlint/internal/bind"
	"portlint/internal/catalog"
	"portlint/internal/diag"
	"portlint/internal/scan"
)

// ComparisonAccessor flags the legacy accessor on comparison kinds.
// Equal and NotEqual expose their output as `comparison`; `eq.equal` compiles
// but is not a port.
type ComparisonAccessor struct {
	extractor bind.Extractor
	legacy    []string
	correct   string
}

func NewComparisonAccessor(cat *catalog.Catalog) *ComparisonAccessor {
	return &ComparisonAccessor{
		extractor: bind.NewConstructExtractor(cat.ComparisonKinds()),
		legacy:    cat.LegacyAccessors(),
		correct:   cat.ComparisonAccessor(),
	}
}

func (r *ComparisonAccessor) Name() string    { return "comparison-accessor" }
func (r *ComparisonAccessor) Code() diag.Code { return diag.PortComparisonAccessor }
func (r *ComparisonAccessor) Doc() string {
	return "Comparison nodes expose their result as the shared comparison accessor, not the legacy accessor named after the node."
}

func (r *ComparisonAccessor) Check(pass *Pass) {
	if r.correct == "" {
		return
	}
	table := r.extractor.Extract(pass.File.ID, pass.Text)
	if len(table) == 0 {
		return
	}
	for _, site := range scan.Accessors(pass.Text, r.legacy) {
		b, ok := table.Lookup(site.Ident)
		if !ok {
			continue
		}
		msg := fmt.Sprintf("'%s.%s' is wrong. %s exposes its output as '.%s'. Use '%s.%s' instead.",
			site.Ident, site.Accessor, b.Kind, r.correct, site.Ident, r.correct)
		diag.ReportError(pass.Reporter, r.Code(), siteSpan(pass.File.ID, site), msg).
			WithFix(fmt.Sprintf("replace '.%s' with '.%s'", site.Accessor, r.correct),
				accessorSpan(pass.File.ID, site), site.Accessor, r.correct).
			Emit()
	}
}
