package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"portlint/internal/diag"
	"portlint/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, note, fix, code, gutter, caret, removed, added *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		note:    color.New(color.FgCyan, color.Bold),
		fix:     color.New(color.FgGreen, color.Bold),
		code:    color.New(color.Bold),
		gutter:  color.New(color.FgBlue),
		caret:   color.New(color.FgRed, color.Bold),
		removed: color.New(color.FgRed),
		added:   color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.note, p.fix, p.code, p.gutter, p.caret, p.removed, p.added} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	if sev == diag.SevWarning {
		return p.warn
	}
	return p.err
}

// Pretty prints each diagnostic as
//
//	<path>:<line>:<col>: ERROR VS-PORT-001: <message>
//
// followed by the source line with a ^~~~ underline under the span, then the
// notes and fixes the options ask for. Bag order is kept.
func Pretty(w io.Writer, files []File, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	var b strings.Builder
	errs, warns := 0, 0
	for _, f := range files {
		if f.Bag == nil {
			continue
		}
		errs += f.Bag.Total(diag.SevError)
		warns += f.Bag.Total(diag.SevWarning)
		for _, d := range f.Bag.Items() {
			prettyDiagnostic(&b, fs, d, opts, p)
		}
		if n := f.Bag.Dropped(); n > 0 {
			fmt.Fprintf(&b, "%s: %d more diagnostic(s) suppressed\n", filePath(fs, f, opts.PathMode), n)
		}
	}
	if errs+warns == 0 {
		b.WriteString(NoIssuesMessage + "\n")
	} else {
		fmt.Fprintf(&b, "%s %s\n",
			p.err.Sprintf("%d error(s)", errs),
			p.warn.Sprintf("%d warning(s)", warns))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func prettyDiagnostic(b *strings.Builder, fs *source.FileSet, d diag.Diagnostic, opts PrettyOpts, p palette) {
	file := fs.Get(d.Primary.File)
	if file == nil {
		fmt.Fprintf(b, "%s %s: %s\n", p.severity(d.Severity).Sprint(d.Severity), p.code.Sprint(d.Code.ID()), d.Message)
		return
	}
	start, _ := fs.Resolve(d.Primary)
	fmt.Fprintf(b, "%s:%d:%d: %s %s: %s\n",
		formatFilePath(fs, file, opts.PathMode), start.Line, start.Col,
		p.severity(d.Severity).Sprint(d.Severity), p.code.Sprint(d.Code.ID()), d.Message)
	writeSnippet(b, fs, file, d.Primary, opts, p)

	if opts.ShowNotes {
		for _, n := range d.Notes {
			nf := fs.Get(n.Span.File)
			if nf == nil {
				fmt.Fprintf(b, "  %s %s\n", p.note.Sprint("note:"), n.Msg)
				continue
			}
			pos, _ := fs.Resolve(n.Span)
			fmt.Fprintf(b, "  %s %s:%d:%d: %s\n", p.note.Sprint("note:"),
				formatFilePath(fs, nf, opts.PathMode), pos.Line, pos.Col, n.Msg)
		}
	}
	if opts.ShowFixes {
		for _, fix := range d.Fixes {
			fmt.Fprintf(b, "  %s %s (%s)\n", p.fix.Sprint("fix:"), fix.Title, fix.Applicability)
			if !opts.ShowPreview {
				continue
			}
			for _, edit := range fix.Edits {
				preview, err := buildFixEditPreview(fs, edit)
				if err != nil {
					continue
				}
				for _, line := range preview.before {
					fmt.Fprintf(b, "    %s\n", p.removed.Sprint("- "+line))
				}
				for _, line := range preview.after {
					fmt.Fprintf(b, "    %s\n", p.added.Sprint("+ "+line))
				}
			}
		}
	}
	b.WriteByte('\n')
}

func writeSnippet(b *strings.Builder, fs *source.FileSet, file *source.File, sp source.Span, opts PrettyOpts, p palette) {
	start, end := fs.Resolve(sp)
	if start.Line == 0 {
		return
	}
	first := start.Line
	if opts.Context > 0 {
		ctx := uint32(opts.Context)
		if first > ctx {
			first -= ctx
		} else {
			first = 1
		}
	}
	gutterWidth := len(fmt.Sprint(start.Line))
	for ln := first; ln <= start.Line; ln++ {
		text := clip(expandTabs(file.GetLine(ln)), opts.Width)
		fmt.Fprintf(b, "%s %s\n", p.gutter.Sprintf("%*d |", gutterWidth, ln), text)
	}

	line := file.GetLine(start.Line)
	lineStart := file.LineStart(start.Line)
	from := int(sp.Start - lineStart)
	to := len(line)
	if end.Line == start.Line {
		to = int(sp.End - lineStart)
	}
	from = min(max(from, 0), len(line))
	to = min(max(to, from), len(line))

	pad := runewidth.StringWidth(expandTabs(line[:from]))
	width := max(runewidth.StringWidth(expandTabs(line[from:to])), 1)
	if opts.Width > 0 && pad+width > int(opts.Width) {
		if pad >= int(opts.Width) {
			return
		}
		width = int(opts.Width) - pad
	}
	marker := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(b, "%s %s%s\n", p.gutter.Sprintf("%*s |", gutterWidth, ""), strings.Repeat(" ", pad), p.caret.Sprint(marker))
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

func clip(s string, width uint8) string {
	if width == 0 || runewidth.StringWidth(s) <= int(width) {
		return s
	}
	return runewidth.Truncate(s, int(width), "…")
}
