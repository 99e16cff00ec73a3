package diagfmt

import (
	"fmt"
	"io"

	"portlint/internal/diag"
	"portlint/internal/source"
)

// NoIssuesMessage is printed by Text when no file has a diagnostic.
const NoIssuesMessage = "Port key check PASSED: No issues found."

// Text writes the fixed line format consumed by downstream tooling:
//
//	ERROR <code> (line <n>): <message>  (indented two spaces)
//
// Errors come first, then warnings, each group in bag order. A blank line and
// the "Total:" count line close the report.
func Text(w io.Writer, files []File, fs *source.FileSet, opts TextOpts) error {
	errs, warns := 0, 0
	for _, f := range files {
		if f.Bag == nil {
			continue
		}
		errs += f.Bag.Total(diag.SevError)
		warns += f.Bag.Total(diag.SevWarning)
	}
	if errs+warns == 0 {
		_, err := fmt.Fprintln(w, NoIssuesMessage)
		return err
	}

	for _, f := range files {
		if f.Bag == nil || f.Bag.Len() == 0 {
			continue
		}
		if opts.Headers {
			if _, err := fmt.Fprintf(w, "%s:\n", filePath(fs, f, opts.PathMode)); err != nil {
				return err
			}
		}
		for _, sev := range []diag.Severity{diag.SevError, diag.SevWarning} {
			for _, d := range f.Bag.Items() {
				if d.Severity != sev {
					continue
				}
				if err := writeTextLine(w, fs, d); err != nil {
					return err
				}
			}
		}
		if n := f.Bag.Dropped(); n > 0 {
			if _, err := fmt.Fprintf(w, "  ... %d more diagnostic(s) not shown (limit %d)\n", n, f.Bag.Cap()); err != nil {
				return err
			}
		}
	}

	_, err := fmt.Fprintf(w, "\nTotal: %d error(s), %d warning(s)\n", errs, warns)
	return err
}

func writeTextLine(w io.Writer, fs *source.FileSet, d diag.Diagnostic) error {
	start, _ := fs.Resolve(d.Primary)
	_, err := fmt.Fprintf(w, "  %s %s (line %d): %s\n", d.Severity, d.Code.ID(), start.Line, d.Message)
	return err
}

// filePath renders a file's path per mode, falling back to the recorded path
// when the FileSet does not know the file.
func filePath(fs *source.FileSet, f File, mode PathMode) string {
	if fs == nil {
		return f.Path
	}
	sf := fs.Get(f.ID)
	if sf == nil {
		return f.Path
	}
	return formatFilePath(fs, sf, mode)
}

func formatFilePath(fs *source.FileSet, f *source.File, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	}
	return f.FormatPath("auto", "")
}
