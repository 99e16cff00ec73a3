package scan

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlternation(t *testing.T) {
	assert.Equal(t, "notEqual|equal", Alternation([]string{"equal", "notEqual"}))
	assert.Equal(t, `a\.b|a|b`, Alternation([]string{"b", "a", "a.b", "a", ""}))
	assert.Equal(t, "", Alternation(nil))

	re := regexp.MustCompile(`^(` + Alternation([]string{"Sum", "ScalarSum"}) + `)$`)
	assert.True(t, re.MatchString("ScalarSum"))
}

func TestAccessors(t *testing.T) {
	text := []byte("eq.equal\nne . notEqual;\nx.equalTo(1);\neq.equal_x\n  foo.eq.equal")
	sites := Accessors(text, []string{"equal", "notEqual"})

	require.Len(t, sites, 3)
	assert.Equal(t, Site{Ident: "eq", Accessor: "equal", Offset: 0, AccessorOffset: 3}, sites[0])
	assert.Equal(t, Site{Ident: "ne", Accessor: "notEqual", Offset: 9, AccessorOffset: 14}, sites[1])
	assert.Equal(t, "eq", sites[2].Ident)
	assert.Equal(t, "equal", string(text[sites[2].AccessorOffset:sites[2].AccessorOffset+5]))
}

func TestAccessorsNoFilter(t *testing.T) {
	assert.Nil(t, Accessors([]byte("a.b"), nil))
	assert.Nil(t, Accessors([]byte("nothing here"), []string{"a"}))
}

func TestAccessorsSlotNames(t *testing.T) {
	text := []byte("sum.a.ConnectTo(x); sum.b; sum.ab; sum.multiInputs[0];")
	sites := Accessors(text, []string{"a", "b"})
	require.Len(t, sites, 2)
	assert.Equal(t, "a", sites[0].Accessor)
	assert.Equal(t, "b", sites[1].Accessor)
}
