package bind

import (
	"regexp"

	"portlint/internal/scan"
	"portlint/internal/source"
)

// declPrefix matches `var` or a type name, possibly qualified or generic,
// followed by the declared identifier.
const declPrefix = `(?:var|` + scan.Ident + `(?:\s*\.\s*` + scan.Ident + `)*(?:\s*<[^<>;=]*>)?)\s+(` + scan.Ident + `)\s*=\s*new\s+`

// ConstructExtractor binds `<decl> x = new Kind(` for a fixed set of kinds.
type ConstructExtractor struct {
	re *regexp.Regexp
}

// NewConstructExtractor returns an extractor for the given kinds.
// With no kinds it binds nothing.
func NewConstructExtractor(kinds []string) *ConstructExtractor {
	alt := scan.Alternation(kinds)
	if alt == "" {
		return &ConstructExtractor{}
	}
	return &ConstructExtractor{
		re: regexp.MustCompile(`\b` + declPrefix + `(` + alt + `)\s*\(`),
	}
}

func (e *ConstructExtractor) Extract(file source.FileID, text []byte) Table {
	table := make(Table)
	if e.re == nil {
		return table
	}
	for _, m := range e.re.FindAllSubmatchIndex(text, -1) {
		ident := string(text[m[2]:m[3]])
		table[ident] = Binding{
			Ident: ident,
			Kind:  string(text[m[4]:m[5]]),
			Span:  source.SpanOf(file, m[2], m[5]),
		}
	}
	return table
}
