package dcache

import (
	"portlint/internal/diag"
	"portlint/internal/source"
)

// Payload is the cached result of analyzing one file. Spans are stored as
// offsets; the file ID is reattached on load.
type Payload struct {
	Schema      uint16
	Path        string
	Diagnostics []Entry
}

type Entry struct {
	Severity uint8
	Code     uint16
	Start    uint32
	End      uint32
	Message  string
	Notes    []NoteEntry
	Fixes    []FixEntry
}

type NoteEntry struct {
	Start uint32
	End   uint32
	Msg   string
}

type FixEntry struct {
	ID            string
	Title         string
	Applicability uint8
	IsPreferred   bool
	Edits         []EditEntry
}

type EditEntry struct {
	Start   uint32
	End     uint32
	NewText string
	OldText string
}

// FromDiagnostics converts diagnostics of a single file into a payload.
func FromDiagnostics(path string, diags []diag.Diagnostic) *Payload {
	p := &Payload{Path: path, Diagnostics: make([]Entry, 0, len(diags))}
	for _, d := range diags {
		e := Entry{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Start:    d.Primary.Start,
			End:      d.Primary.End,
			Message:  d.Message,
		}
		for _, n := range d.Notes {
			e.Notes = append(e.Notes, NoteEntry{Start: n.Span.Start, End: n.Span.End, Msg: n.Msg})
		}
		for _, f := range d.Fixes {
			fe := FixEntry{
				ID:            f.ID,
				Title:         f.Title,
				Applicability: uint8(f.Applicability),
				IsPreferred:   f.IsPreferred,
			}
			for _, ed := range f.Edits {
				fe.Edits = append(fe.Edits, EditEntry{
					Start:   ed.Span.Start,
					End:     ed.Span.End,
					NewText: ed.NewText,
					OldText: ed.OldText,
				})
			}
			e.Fixes = append(e.Fixes, fe)
		}
		p.Diagnostics = append(p.Diagnostics, e)
	}
	return p
}

// Restore rebuilds the diagnostics against file.
func (p *Payload) Restore(file source.FileID) []diag.Diagnostic {
	out := make([]diag.Diagnostic, 0, len(p.Diagnostics))
	for _, e := range p.Diagnostics {
		d := diag.Diagnostic{
			Severity: diag.Severity(e.Severity),
			Code:     diag.Code(e.Code),
			Message:  e.Message,
			Primary:  source.Span{File: file, Start: e.Start, End: e.End},
		}
		for _, n := range e.Notes {
			d.Notes = append(d.Notes, diag.Note{
				Span: source.Span{File: file, Start: n.Start, End: n.End},
				Msg:  n.Msg,
			})
		}
		for _, fe := range e.Fixes {
			fix := diag.Fix{
				ID:            fe.ID,
				Title:         fe.Title,
				Applicability: diag.FixApplicability(fe.Applicability),
				IsPreferred:   fe.IsPreferred,
			}
			for _, ed := range fe.Edits {
				fix.Edits = append(fix.Edits, diag.TextEdit{
					Span:    source.Span{File: file, Start: ed.Start, End: ed.End},
					NewText: ed.NewText,
					OldText: ed.OldText,
				})
			}
			d.Fixes = append(d.Fixes, fix)
		}
		out = append(out, d)
	}
	return out
}
