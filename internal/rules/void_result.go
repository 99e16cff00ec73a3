package rules

import (
	"fmt"

	"portlint/internal/bind"
	"portlint/internal/catalog"
	"portlint/internal/diag"
	"portlint/internal/scan"
)

// VoidResult flags the result port on an invocation of a member that
// returns nothing. Members the catalog does not know are left alone.
type VoidResult struct {
	extractor bind.Extractor
	catalog   *catalog.Catalog
	accessor  string
}

func NewVoidResult(cat *catalog.Catalog) *VoidResult {
	return &VoidResult{
		extractor: bind.NewInvocationExtractor(cat.InvocationKinds(), cat.MemberRefKinds()),
		catalog:   cat,
		accessor:  cat.ResultAccessor(),
	}
}

func (r *VoidResult) Name() string    { return "void-result" }
func (r *VoidResult) Code() diag.Code { return diag.PortVoidResult }
func (r *VoidResult) Doc() string {
	return "Invocation nodes wrapping a void member have no result port; connecting it fails at graph load."
}

func (r *VoidResult) Check(pass *Pass) {
	if r.accessor == "" {
		return
	}
	table := r.extractor.Extract(pass.File.ID, pass.Text)
	if len(table) == 0 {
		return
	}
	for _, site := range scan.Accessors(pass.Text, []string{r.accessor}) {
		b, ok := table.Lookup(site.Ident)
		if !ok || !r.catalog.IsVoid(b.Owner, b.Member) {
			continue
		}
		msg := fmt.Sprintf("'%s.%s' is invalid: %s.%s() is void and has no result port. Remove this connection.",
			site.Ident, site.Accessor, b.Owner, b.Member)
		diag.ReportError(pass.Reporter, r.Code(), siteSpan(pass.File.ID, site), msg).
			WithNote(b.Span, fmt.Sprintf("'%s' invokes %s.%s", b.Ident, b.Owner, b.Member)).
			Emit()
	}
}
