package bind

import (
	"regexp"

	"portlint/internal/scan"
	"portlint/internal/source"
)

// InvocationExtractor binds
//
//	<decl> x = new InvokeMember(new Member(typeof(Owner), <name>)
//
// where <name> is nameof(Owner.M), nameof(M) or "M".
type InvocationExtractor struct {
	re *regexp.Regexp
}

const qualifiedIdent = scan.Ident + `(?:\s*\.\s*` + scan.Ident + `)*`

func NewInvocationExtractor(invocationKinds, memberRefKinds []string) *InvocationExtractor {
	inv := scan.Alternation(invocationKinds)
	ref := scan.Alternation(memberRefKinds)
	if inv == "" || ref == "" {
		return &InvocationExtractor{}
	}
	pattern := `\b` + declPrefix +
		`(` + inv + `)\s*\(\s*` +
		`new\s+(?:` + ref + `)\s*\(\s*` +
		`typeof\s*\(\s*(` + qualifiedIdent + `)\s*\)\s*,\s*` +
		`(?:nameof\s*\(\s*(?:` + qualifiedIdent + `\s*\.\s*)?(` + scan.Ident + `)\s*\)|"(` + scan.Ident + `)")`
	return &InvocationExtractor{re: regexp.MustCompile(pattern)}
}

func (e *InvocationExtractor) Extract(file source.FileID, text []byte) Table {
	table := make(Table)
	if e.re == nil {
		return table
	}
	for _, m := range e.re.FindAllSubmatchIndex(text, -1) {
		ident := string(text[m[2]:m[3]])
		member := ""
		switch {
		case m[8] >= 0:
			member = string(text[m[8]:m[9]])
		case m[10] >= 0:
			member = string(text[m[10]:m[11]])
		}
		table[ident] = Binding{
			Ident:  ident,
			Kind:   string(text[m[4]:m[5]]),
			Owner:  compactQualified(text[m[6]:m[7]]),
			Member: member,
			Span:   source.SpanOf(file, m[2], m[5]),
		}
	}
	return table
}

// compactQualified drops whitespace inside a dotted name.
func compactQualified(b []byte) string {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		out = append(out, c)
	}
	return string(out)
}
