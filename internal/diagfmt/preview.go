package diagfmt

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"portlint/internal/diag"
	"portlint/internal/source"
)

type fixEditPreview struct {
	before []string
	after  []string
}

// buildFixEditPreview returns the whole lines touched by edit, before and
// after applying it.
func buildFixEditPreview(fs *source.FileSet, edit diag.TextEdit) (fixEditPreview, error) {
	if fs == nil {
		return fixEditPreview{}, fmt.Errorf("nil FileSet")
	}
	file := fs.Get(edit.Span.File)
	if file == nil {
		return fixEditPreview{}, fmt.Errorf("file %d not found in FileSet", edit.Span.File)
	}

	startPos, endPos := fs.Resolve(edit.Span)
	endLine := max(endPos.Line, startPos.Line)

	contentLen, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		return fixEditPreview{}, fmt.Errorf("file content length overflow: %w", err)
	}
	blockStart := file.LineStart(startPos.Line)
	blockEnd := min(max(lineEndInclusive(file, endLine, contentLen), blockStart), contentLen)

	original := file.Content[blockStart:blockEnd]
	if edit.Span.Start < blockStart || edit.Span.End < edit.Span.Start || edit.Span.End > blockEnd {
		return fixEditPreview{}, fmt.Errorf("edit span %s out of range for preview block", edit.Span)
	}
	relStart := edit.Span.Start - blockStart
	relEnd := edit.Span.End - blockStart

	after := make([]byte, 0, len(original)+len(edit.NewText))
	after = append(after, original[:relStart]...)
	after = append(after, edit.NewText...)
	after = append(after, original[relEnd:]...)

	return fixEditPreview{
		before: splitPreviewLines(original),
		after:  splitPreviewLines(after),
	}, nil
}

// splitPreviewLines drops the final newline so a one-line block yields one
// entry.
func splitPreviewLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	return strings.Split(strings.TrimRight(string(content), "\n"), "\n")
}

func lineEndInclusive(f *source.File, line, contentLen uint32) uint32 {
	if line == 0 {
		return 0
	}
	if idx := line - 1; int(idx) < len(f.LineIdx) {
		return f.LineIdx[idx] + 1
	}
	return contentLen
}
