package diagfmt

import (
	"io"
	"strings"

	"portlint/internal/diag"
	"portlint/internal/source"
)

// Short prints one "severity code path:line:col message" line per
// diagnostic, keeping bag order. Nothing is printed for a clean run.
func Short(w io.Writer, files []File, fs *source.FileSet, includeNotes bool) error {
	var b strings.Builder
	for _, f := range files {
		if f.Bag == nil || f.Bag.Len() == 0 {
			continue
		}
		b.WriteString(diag.FormatShortDiagnostics(f.Bag.Items(), fs, includeNotes))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
