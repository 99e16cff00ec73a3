package diagfmt

import (
	"encoding/json"
	"io"
	"sort"

	"portlint/internal/diag"
	"portlint/internal/source"
)

// LocationJSON is a resolved position in a file.
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line"`
	StartCol  uint32 `json:"start_col"`
	EndLine   uint32 `json:"end_line"`
	EndCol    uint32 `json:"end_col"`
}

type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

type FixEditJSON struct {
	Location    LocationJSON `json:"location"`
	NewText     string       `json:"new_text"`
	OldText     string       `json:"old_text,omitempty"`
	BeforeLines []string     `json:"before_lines,omitempty"`
	AfterLines  []string     `json:"after_lines,omitempty"`
}

type FixJSON struct {
	ID            string        `json:"id,omitempty"`
	Title         string        `json:"title"`
	Applicability string        `json:"applicability"`
	IsPreferred   bool          `json:"is_preferred,omitempty"`
	Edits         []FixEditJSON `json:"edits,omitempty"`
}

// DiagnosticJSON carries the {severity, code, line, message} record shape
// shared with the external validator, plus the full location.
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Line     uint32       `json:"line"`
	Column   uint32       `json:"column"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
	Fixes    []FixJSON    `json:"fixes,omitempty"`
}

type FileJSON struct {
	File        string           `json:"file"`
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Dropped     int              `json:"dropped,omitempty"`
}

// DiagnosticsOutput is the root of the JSON report.
type DiagnosticsOutput struct {
	Files    []FileJSON `json:"files"`
	Errors   int        `json:"errors"`
	Warnings int        `json:"warnings"`
}

func makeLocation(span source.Span, fs *source.FileSet, pathMode PathMode) LocationJSON {
	loc := LocationJSON{StartByte: span.Start, EndByte: span.End}
	f := fs.Get(span.File)
	if f == nil {
		return loc
	}
	loc.File = formatFilePath(fs, f, pathMode)
	startPos, endPos := fs.Resolve(span)
	loc.StartLine = startPos.Line
	loc.StartCol = startPos.Col
	loc.EndLine = endPos.Line
	loc.EndCol = endPos.Col
	return loc
}

// BuildDiagnosticsOutput builds the JSON report structure without encoding it.
func BuildDiagnosticsOutput(files []File, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	out := DiagnosticsOutput{Files: make([]FileJSON, 0, len(files))}
	for _, f := range files {
		fj := FileJSON{File: filePath(fs, f, opts.PathMode), Diagnostics: []DiagnosticJSON{}}
		if f.Bag != nil {
			out.Errors += f.Bag.Total(diag.SevError)
			out.Warnings += f.Bag.Total(diag.SevWarning)
			fj.Dropped = f.Bag.Dropped()
			items := f.Bag.Items()
			if opts.Max > 0 && opts.Max < len(items) {
				items = items[:opts.Max]
			}
			for i := range items {
				fj.Diagnostics = append(fj.Diagnostics, diagnosticJSON(&items[i], fs, opts))
			}
		}
		fj.Count = len(fj.Diagnostics)
		out.Files = append(out.Files, fj)
	}
	return out
}

func diagnosticJSON(d *diag.Diagnostic, fs *source.FileSet, opts JSONOpts) DiagnosticJSON {
	loc := makeLocation(d.Primary, fs, opts.PathMode)
	dj := DiagnosticJSON{
		Severity: d.Severity.String(),
		Code:     d.Code.ID(),
		Line:     loc.StartLine,
		Column:   loc.StartCol,
		Message:  d.Message,
		Location: loc,
	}

	if opts.IncludeNotes {
		for _, note := range d.Notes {
			dj.Notes = append(dj.Notes, NoteJSON{
				Message:  note.Msg,
				Location: makeLocation(note.Span, fs, opts.PathMode),
			})
		}
	}

	if opts.IncludeFixes && len(d.Fixes) > 0 {
		fixes := append([]diag.Fix(nil), d.Fixes...)
		sort.SliceStable(fixes, func(i, j int) bool {
			fi, fj := fixes[i], fixes[j]
			if fi.IsPreferred != fj.IsPreferred {
				return fi.IsPreferred
			}
			if fi.Applicability != fj.Applicability {
				return fi.Applicability < fj.Applicability
			}
			if fi.Title != fj.Title {
				return fi.Title < fj.Title
			}
			return fi.ID < fj.ID
		})
		for _, fix := range fixes {
			fixJSON := FixJSON{
				ID:            fix.ID,
				Title:         fix.Title,
				Applicability: fix.Applicability.String(),
				IsPreferred:   fix.IsPreferred,
			}
			for _, edit := range fix.Edits {
				editJSON := FixEditJSON{
					Location: makeLocation(edit.Span, fs, opts.PathMode),
					NewText:  edit.NewText,
					OldText:  edit.OldText,
				}
				if opts.IncludePreviews {
					if preview, err := buildFixEditPreview(fs, edit); err == nil {
						editJSON.BeforeLines = preview.before
						editJSON.AfterLines = preview.after
					}
				}
				fixJSON.Edits = append(fixJSON.Edits, editJSON)
			}
			dj.Fixes = append(dj.Fixes, fixJSON)
		}
	}
	return dj
}

// JSON writes the report as indented JSON.
func JSON(w io.Writer, files []File, fs *source.FileSet, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(files, fs, opts))
}
