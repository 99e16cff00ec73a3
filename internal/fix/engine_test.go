package fix

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"portlint/internal/diag"
	"portlint/internal/source"
)

const graph = "var eq = new Equal();\nvar sum = new ScalarSum();\nConnect(eq.equal, sum.a);\n"

func loadTemp(t *testing.T, content string) (*source.FileSet, source.FileID, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.cs")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return fs, id, path
}

func replaceFix(fs *source.FileSet, id source.FileID, code diag.Code, needle, newText string, app diag.FixApplicability) diag.Diagnostic {
	content := string(fs.Get(id).Content)
	i := strings.Index(content, needle)
	sp := source.Span{File: id, Start: uint32(i), End: uint32(i + len(needle))}
	d := diag.NewError(code, sp, "replace "+needle)
	return d.WithFix(diag.Fix{
		Title:         "replace " + needle,
		Applicability: app,
		IsPreferred:   true,
		Edits:         []diag.TextEdit{{Span: sp, OldText: needle, NewText: newText}},
	})
}

func read(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestApplyAllRewritesFile(t *testing.T) {
	fs, id, path := loadTemp(t, graph)
	diags := []diag.Diagnostic{
		replaceFix(fs, id, diag.PortComparisonAccessor, "equal,", "comparison,", diag.FixApplicabilityAlwaysSafe),
		replaceFix(fs, id, diag.PortMultiInputSlot, "sum.a", "sum.multiInputs[0]", diag.FixApplicabilityAlwaysSafe),
	}

	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Applied) != 2 {
		t.Fatalf("applied %d fixes, want 2 (skipped: %+v)", len(res.Applied), res.Skipped)
	}
	want := "var eq = new Equal();\nvar sum = new ScalarSum();\nConnect(eq.comparison, sum.multiInputs[0]);\n"
	if got := read(t, path); got != want {
		t.Fatalf("file content:\n%s\nwant:\n%s", got, want)
	}
	if len(res.FileChanges) != 1 || res.FileChanges[0].Path != "graph.cs" || res.FileChanges[0].EditCount != 2 {
		t.Fatalf("unexpected file changes: %+v", res.FileChanges)
	}
}

func TestApplyDryRunLeavesFile(t *testing.T) {
	fs, id, path := loadTemp(t, graph)
	diags := []diag.Diagnostic{
		replaceFix(fs, id, diag.PortComparisonAccessor, "equal,", "comparison,", diag.FixApplicabilityAlwaysSafe),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := read(t, path); got != graph {
		t.Fatalf("dry run modified file:\n%s", got)
	}
	if !strings.Contains(string(res.FileChanges[0].Content), "eq.comparison") {
		t.Fatalf("dry run content missing rewrite: %s", res.FileChanges[0].Content)
	}
}

func TestApplyOncePicksFirstSafe(t *testing.T) {
	fs, id, path := loadTemp(t, graph)
	diags := []diag.Diagnostic{
		replaceFix(fs, id, diag.PortComparisonAccessor, "eq.equal", "eq.comparison", diag.FixApplicabilityManualReview),
		replaceFix(fs, id, diag.PortMultiInputSlot, "sum.a", "sum.multiInputs[0]", diag.FixApplicabilityAlwaysSafe),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeOnce})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Applied) != 1 || res.Applied[0].Code != diag.PortMultiInputSlot {
		t.Fatalf("unexpected applied: %+v", res.Applied)
	}
	if got := read(t, path); !strings.Contains(got, "eq.equal") || !strings.Contains(got, "multiInputs[0]") {
		t.Fatalf("unexpected content: %s", got)
	}
}

func TestApplyAllSkipsManualReview(t *testing.T) {
	fs, id, _ := loadTemp(t, graph)
	diags := []diag.Diagnostic{
		replaceFix(fs, id, diag.PortComparisonAccessor, "eq.equal", "eq.comparison", diag.FixApplicabilityManualReview),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "applicability is manual-review" {
		t.Fatalf("unexpected skipped: %+v", res.Skipped)
	}
}

func TestApplyByID(t *testing.T) {
	fs, id, path := loadTemp(t, graph)
	diags := []diag.Diagnostic{
		replaceFix(fs, id, diag.PortComparisonAccessor, "equal,", "comparison,", diag.FixApplicabilityAlwaysSafe),
		replaceFix(fs, id, diag.PortMultiInputSlot, "sum.a", "sum.multiInputs[0]", diag.FixApplicabilityAlwaysSafe),
	}
	cands, _ := Candidates(fs, diags)
	if len(cands) != 2 {
		t.Fatalf("candidates = %d, want 2", len(cands))
	}
	if want := "VS-PORT-003@graph.cs:3:19#0"; cands[1].ID != want {
		t.Fatalf("candidate id = %q, want %q", cands[1].ID, want)
	}

	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: cands[1].ID})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Applied) != 1 {
		t.Fatalf("applied = %d", len(res.Applied))
	}
	if got := read(t, path); !strings.Contains(got, "eq.equal") {
		t.Fatalf("unrelated fix applied: %s", got)
	}

	_, err = Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: "nope"})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes for unknown id, got %v", err)
	}
}

func TestApplyGuardsAndConflicts(t *testing.T) {
	fs, id, path := loadTemp(t, graph)
	first := replaceFix(fs, id, diag.PortComparisonAccessor, "eq.equal", "eq.comparison", diag.FixApplicabilityAlwaysSafe)
	overlap := replaceFix(fs, id, diag.PortComparisonAccessor, "equal, sum", "x", diag.FixApplicabilityAlwaysSafe)
	stale := replaceFix(fs, id, diag.PortMultiInputSlot, "sum.a", "sum.multiInputs[0]", diag.FixApplicabilityAlwaysSafe)
	stale.Fixes[0].Edits[0].OldText = "sum.b"

	res, err := Apply(fs, []diag.Diagnostic{first, overlap, stale}, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Applied) != 1 {
		t.Fatalf("applied = %d, want 1", len(res.Applied))
	}
	reasons := map[string]bool{}
	for _, s := range res.Skipped {
		reasons[s.Reason] = true
	}
	if !reasons["existing text does not match expected content"] {
		t.Fatalf("missing guard skip: %+v", res.Skipped)
	}
	conflict := false
	for r := range reasons {
		if strings.HasPrefix(r, "conflicts with previously applied edits") {
			conflict = true
		}
	}
	if !conflict {
		t.Fatalf("missing conflict skip: %+v", res.Skipped)
	}
	if got := read(t, path); !strings.Contains(got, "eq.comparison, sum.a") {
		t.Fatalf("unexpected content: %s", got)
	}
}

func TestApplyNeverWritesVirtualFiles(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("mem.cs", []byte(graph))
	diags := []diag.Diagnostic{
		replaceFix(fs, id, diag.PortComparisonAccessor, "eq.equal", "eq.comparison", diag.FixApplicabilityAlwaysSafe),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "target file is virtual" {
		t.Fatalf("unexpected skipped: %+v", res.Skipped)
	}
}

func TestApplyPreservesCRLFAndBOM(t *testing.T) {
	raw := "\xEF\xBB\xBFvar eq = new Equal();\r\nConnect(eq.equal);\r\n"
	fs, id, path := loadTemp(t, raw)
	diags := []diag.Diagnostic{
		replaceFix(fs, id, diag.PortComparisonAccessor, "eq.equal", "eq.comparison", diag.FixApplicabilityAlwaysSafe),
	}
	if _, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := "\xEF\xBB\xBFvar eq = new Equal();\r\nConnect(eq.comparison);\r\n"
	if got := read(t, path); got != want {
		t.Fatalf("content = %q, want %q", got, want)
	}
}

func TestCandidatesSkipsDuplicateIDs(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.cs", []byte("x.a"))
	sp := source.Span{File: fileID, Start: 2, End: 3}
	d := diag.NewError(diag.PortMultiInputSlot, sp, "slot")
	d.Fixes = []diag.Fix{
		{ID: "dup", Title: "first", Edits: []diag.TextEdit{{Span: sp, NewText: "multiInputs[0]"}}},
		{ID: "dup", Title: "second", Edits: []diag.TextEdit{{Span: sp, NewText: "multiInputs[0]"}}},
		{ID: "empty", Title: "no edits"},
	}

	cands, skips := Candidates(fs, []diag.Diagnostic{d})
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	if len(skips) != 2 || skips[0].Reason != "duplicate fix id" || skips[1].Reason != "fix has no edits" {
		t.Fatalf("unexpected skips: %+v", skips)
	}
}

func TestSpansConflict(t *testing.T) {
	edit := func(s, e uint32) diag.TextEdit { return diag.TextEdit{Span: source.Span{Start: s, End: e}} }
	cases := []struct {
		a, b diag.TextEdit
		want bool
	}{
		{edit(0, 4), edit(4, 8), false},
		{edit(0, 5), edit(4, 8), true},
		{edit(3, 3), edit(3, 3), false},
		{edit(3, 3), edit(0, 5), true},
		{edit(5, 5), edit(0, 5), false},
	}
	for _, c := range cases {
		if got := spansConflict(c.a, c.b); got != c.want {
			t.Errorf("spansConflict(%v, %v) = %v, want %v", c.a.Span, c.b.Span, got, c.want)
		}
	}
}
