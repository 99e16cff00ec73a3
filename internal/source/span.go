package source

import (
	"fmt"

	"fortio.org/safecast"
)

// Span is the half-open byte range [Start, End) of one file.
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

// SpanOf builds a span from int offsets such as regexp match indexes.
// An end that does not fit collapses the span to its start; a start that
// does not fit yields the empty span at the beginning of the file.
func SpanOf(file FileID, start, end int) Span {
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		return Span{File: file}
	}
	e, err := safecast.Conv[uint32](end)
	if err != nil || e < s {
		return Span{File: file, Start: s, End: s}
	}
	return Span{File: file, Start: s, End: e}
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Text returns the bytes s covers. It reports false when s belongs to
// another file or lies outside the content.
func (f *File) Text(s Span) ([]byte, bool) {
	if f == nil || s.File != f.ID || s.End < s.Start || int(s.End) > len(f.Content) {
		return nil, false
	}
	return f.Content[s.Start:s.End], true
}
