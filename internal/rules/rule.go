// Package rules holds the port contract checks. Each rule pairs a binding
// extractor with an accessor filter and reports through a diag.Reporter.
package rules

import (
	"fortio.org/safecast"

	"portlint/internal/catalog"
	"portlint/internal/diag"
	"portlint/internal/scan"
	"portlint/internal/source"
)

// Pass is the input shared by every rule run on one file.
type Pass struct {
	File *source.File
	// Text is the comment-masked file content.
	Text     []byte
	Reporter diag.Reporter
}

// Rule checks one port contract.
type Rule interface {
	Name() string
	Code() diag.Code
	Doc() string
	Check(pass *Pass)
}

// Default returns the built-in rules bound to cat, in registration order.
// Diagnostics are reported in this order, then in discovery order.
func Default(cat *catalog.Catalog) []Rule {
	return []Rule{
		NewComparisonAccessor(cat),
		NewVoidResult(cat),
		NewMultiInputSlot(cat),
	}
}

// Info describes a rule for listings and SARIF metadata.
type Info struct {
	Name string
	Code diag.Code
	Doc  string
}

func Describe(rs []Rule) []Info {
	out := make([]Info, 0, len(rs))
	for _, r := range rs {
		out = append(out, Info{Name: r.Name(), Code: r.Code(), Doc: r.Doc()})
	}
	return out
}

// siteSpan covers `ident.accessor`.
func siteSpan(file source.FileID, s scan.Site) source.Span {
	end := s.AccessorOffset + accessorLen(s)
	return source.Span{File: file, Start: s.Offset, End: end}
}

// accessorSpan covers only the accessor name.
func accessorSpan(file source.FileID, s scan.Site) source.Span {
	return source.Span{File: file, Start: s.AccessorOffset, End: s.AccessorOffset + accessorLen(s)}
}

func accessorLen(s scan.Site) uint32 {
	n, err := safecast.Conv[uint32](len(s.Accessor))
	if err != nil {
		return 0
	}
	return n
}
