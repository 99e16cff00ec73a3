package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portlint/internal/catalog"
	"portlint/internal/diag"
	"portlint/internal/scan"
	"portlint/internal/source"
)

func run(t *testing.T, r Rule, src string) (*source.File, []diag.Diagnostic) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("graph.cs", []byte(src)))
	var out []diag.Diagnostic
	r.Check(&Pass{File: file, Text: scan.Mask(file.Content), Reporter: diag.SliceReporter{Items: &out}})
	return file, out
}

func TestDefaultRegistrationOrder(t *testing.T) {
	infos := Describe(Default(catalog.Default()))
	require.Len(t, infos, 3)
	assert.Equal(t, diag.PortComparisonAccessor, infos[0].Code)
	assert.Equal(t, diag.PortVoidResult, infos[1].Code)
	assert.Equal(t, diag.PortMultiInputSlot, infos[2].Code)
	for _, info := range infos {
		assert.NotEmpty(t, info.Name)
		assert.NotEmpty(t, info.Doc)
	}
}

func TestComparisonAccessorMessageAndFix(t *testing.T) {
	src := "var ne = new NotEqual();\nne .notEqual;"
	file, diags := run(t, NewComparisonAccessor(catalog.Default()), src)
	require.Len(t, diags, 1)

	d := diags[0]
	assert.Equal(t, "'ne.notEqual' is wrong. NotEqual exposes its output as '.comparison'. Use 'ne.comparison' instead.", d.Message)
	assert.Equal(t, "ne .notEqual", string(file.Content[d.Primary.Start:d.Primary.End]))

	edit := d.Fixes[0].Edits[0]
	assert.Equal(t, "notEqual", string(file.Content[edit.Span.Start:edit.Span.End]))
	assert.Equal(t, diag.FixApplicabilityAlwaysSafe, d.Fixes[0].Applicability)
}

func TestComparisonAccessorIgnoresUnboundIdentifiers(t *testing.T) {
	_, diags := run(t, NewComparisonAccessor(catalog.Default()), "var eq = new Equal();\nother.equal;\n")
	assert.Empty(t, diags)
}

func TestVoidResultRequiresCatalogedMember(t *testing.T) {
	src := `var a = new InvokeMember(new Member(typeof(Debug), nameof(Debug.Log)));
var b = new InvokeMember(new Member(typeof(Debug), nameof(Debug.isDebugBuild)));
a.result; b.result;`
	_, diags := run(t, NewVoidResult(catalog.Default()), src)
	require.Len(t, diags, 1)
	assert.Equal(t, "'a.result' is invalid: Debug.Log() is void and has no result port. Remove this connection.", diags[0].Message)
	assert.Empty(t, diags[0].Fixes)
}

func TestMultiInputSlotMessage(t *testing.T) {
	_, diags := run(t, NewMultiInputSlot(catalog.Default()), "var s = new GenericSum();\ns.b;")
	require.Len(t, diags, 1)
	assert.Equal(t,
		`'s.b' is wrong. GenericSum is a multi-input node and uses '.multiInputs[1]' (C#) or '"1"' (JSON key), not '.b'. Use 's.multiInputs[1]' instead.`,
		diags[0].Message)
	assert.Equal(t, "multiInputs[1]", diags[0].Fixes[0].Edits[0].NewText)
}

func TestCommentedDeclarationsAreInvisible(t *testing.T) {
	_, diags := run(t, NewMultiInputSlot(catalog.Default()), "// var s = new ScalarSum();\ns.a;")
	assert.Empty(t, diags)
}

func TestRulesWithEmptyCatalog(t *testing.T) {
	empty := catalog.Build(nil)
	for _, r := range Default(empty) {
		_, diags := run(t, r, "var eq = new Equal(); eq.equal; var s = new ScalarSum(); s.a;")
		assert.Empty(t, diags, r.Name())
	}
}
