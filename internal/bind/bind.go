// Package bind recovers which node kind each local identifier was
// constructed from. It works on text patterns, not a syntax tree: a
// declaration that does not fit a known idiom is simply not bound.
package bind

import "portlint/internal/source"

// Binding associates an identifier with the node kind it was built from.
// Owner and Member are set for invocation kinds only.
type Binding struct {
	Ident  string
	Kind   string
	Owner  string
	Member string
	// Span covers the declaration from the identifier to the kind name.
	Span source.Span
}

// Table maps identifiers to bindings. A later declaration of the same
// identifier replaces the earlier one.
type Table map[string]Binding

func (t Table) Lookup(ident string) (Binding, bool) {
	b, ok := t[ident]
	return b, ok
}

// Extractor recognizes one declaration idiom.
type Extractor interface {
	Extract(file source.FileID, text []byte) Table
}
