package bind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portlint/internal/source"
)

func TestConstructExtractor(t *testing.T) {
	text := []byte(`
Equal eq = new Equal();
var ne=new NotEqual ( );
Unity.VisualScripting.Equal q = new Equal();
var sum = new ScalarSum();
var other = new Equality();
eq2 = new Equal();
`)
	table := NewConstructExtractor([]string{"Equal", "NotEqual"}).Extract(3, text)

	require.Len(t, table, 3)
	b, ok := table.Lookup("eq")
	require.True(t, ok)
	assert.Equal(t, "Equal", b.Kind)
	assert.Equal(t, source.FileID(3), b.Span.File)
	assert.Equal(t, "eq = new Equal", string(text[b.Span.Start:b.Span.End]))

	assert.Equal(t, "NotEqual", table["ne"].Kind)
	assert.Equal(t, "Equal", table["q"].Kind)
	_, ok = table.Lookup("other")
	assert.False(t, ok, "kind names must match whole words")
	_, ok = table.Lookup("eq2")
	assert.False(t, ok, "plain assignment is not a declaration")
}

func TestConstructExtractorLastWriteWins(t *testing.T) {
	text := []byte("var x = new ScalarSum();\nvar x = new GenericSum();\n")
	table := NewConstructExtractor([]string{"ScalarSum", "GenericSum"}).Extract(0, text)
	assert.Equal(t, "GenericSum", table["x"].Kind)
}

func TestConstructExtractorMultiline(t *testing.T) {
	text := []byte("var sum =\n    new\n    ScalarSum\n    (\n    );")
	table := NewConstructExtractor([]string{"ScalarSum"}).Extract(0, text)
	assert.Equal(t, "ScalarSum", table["sum"].Kind)
}

func TestConstructExtractorNoKinds(t *testing.T) {
	table := NewConstructExtractor(nil).Extract(0, []byte("var x = new Equal();"))
	assert.Empty(t, table)
}

func TestInvocationExtractor(t *testing.T) {
	text := []byte(`
var inv = new InvokeMember(new Member(typeof(Transform), nameof(Transform.Rotate)));
InvokeMember log = new InvokeMember(
    new Member( typeof ( UnityEngine.Debug ) , "Log" ), true);
var bare = new InvokeMember(new Member(typeof(GameObject), nameof(SetActive)));
var weird = new InvokeMember(member);
`)
	table := NewInvocationExtractor([]string{"InvokeMember"}, []string{"Member"}).Extract(0, text)

	require.Len(t, table, 3)
	assert.Equal(t, Binding{
		Ident:  "inv",
		Kind:   "InvokeMember",
		Owner:  "Transform",
		Member: "Rotate",
		Span:   table["inv"].Span,
	}, table["inv"])
	assert.Equal(t, "UnityEngine.Debug", table["log"].Owner)
	assert.Equal(t, "Log", table["log"].Member)
	assert.Equal(t, "GameObject", table["bare"].Owner)
	assert.Equal(t, "SetActive", table["bare"].Member)
}

func TestExtractorsNeverPanic(t *testing.T) {
	inputs := []string{
		"",
		"var",
		"var x = new",
		"var x = new InvokeMember(new Member(typeof(",
		"var x = new InvokeMember(new Member(typeof(T), nameof(",
		"\x00\xff\xfe var x = new Equal(",
	}
	extractors := []Extractor{
		NewConstructExtractor([]string{"Equal"}),
		NewInvocationExtractor([]string{"InvokeMember"}, []string{"Member"}),
	}
	for _, in := range inputs {
		for _, ex := range extractors {
			assert.NotPanics(t, func() { ex.Extract(0, []byte(in)) })
		}
	}
}
