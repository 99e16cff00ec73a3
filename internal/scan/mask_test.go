package scan

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskComments(t *testing.T) {
	src := "a.equal; // eq.equal\n/* b.a\n c.b */ d.result"
	got := Mask([]byte(src))

	assert.Len(t, got, len(src))
	assert.Equal(t, bytes.Count([]byte(src), []byte("\n")), bytes.Count(got, []byte("\n")))
	assert.Equal(t, "a.equal; "+strings.Repeat(" ", 11)+"\n"+strings.Repeat(" ", 6)+"\n"+strings.Repeat(" ", 8)+"d.result", string(got))
}

func TestMaskKeepsStrings(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"regular", `var s = "// not a comment"; x.a`},
		{"escaped quote", `var s = "say \"/*\" ok"; x.a`},
		{"verbatim", `var s = @"C:\dir\// still string"; x.a`},
		{"verbatim doubled quote", `var s = @"a ""//"" b"; x.a`},
		{"interpolated verbatim", `var s = $@"{v}//x"; x.a`},
		{"raw", `var s = """ /* raw */ """; x.a`},
		{"char", `var c = '/'; var d = '"'; x.a`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.src, string(Mask([]byte(tt.src))))
		})
	}
}

func TestMaskUnterminated(t *testing.T) {
	assert.NotPanics(t, func() {
		for _, src := range []string{"/* open", "\"open", "'", "@\"open\n//", "\"\"\"raw", "\"\\"} {
			got := Mask([]byte(src))
			assert.Len(t, got, len(src))
		}
	})
	assert.Equal(t, "x.a     ", string(Mask([]byte("x.a /* z"))))
}

func TestMaskRegularStringEndsAtNewline(t *testing.T) {
	src := "var s = \"broken\n// comment"
	assert.Equal(t, "var s = \"broken\n          ", string(Mask([]byte(src))))
}
