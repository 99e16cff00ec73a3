package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRelativePathOutsideBaseFallsBackToAbsolute(t *testing.T) {
	tmp := t.TempDir()

	baseDir := filepath.Join(tmp, "base")
	otherDir := filepath.Join(tmp, "other")
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		t.Fatalf("failed to create base dir: %v", err)
	}
	if err := os.MkdirAll(otherDir, 0o755); err != nil {
		t.Fatalf("failed to create other dir: %v", err)
	}

	target := filepath.Join(otherDir, "file.cs")
	got, err := RelativePath(target, baseDir)
	if err != nil {
		t.Fatalf("RelativePath returned error: %v", err)
	}
	if want := normalizePath(target); got != want {
		t.Fatalf("RelativePath = %q, want %q", got, want)
	}
}

func TestRelativePathInsideBaseStaysRelative(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "Assets", "Generated", "Graph.cs")

	got, err := RelativePath(target, tmp)
	if err != nil {
		t.Fatalf("RelativePath returned error: %v", err)
	}
	if got != "Assets/Generated/Graph.cs" {
		t.Fatalf("RelativePath = %q", got)
	}
}

func TestSpanOf(t *testing.T) {
	if got := SpanOf(1, 4, 9); got != (Span{File: 1, Start: 4, End: 9}) || got.Len() != 5 {
		t.Errorf("SpanOf = %v", got)
	}
	if got := SpanOf(1, 7, 3); got != (Span{File: 1, Start: 7, End: 7}) {
		t.Errorf("inverted offsets must collapse, got %v", got)
	}
	if got := SpanOf(2, -1, 3); got != (Span{File: 2}) {
		t.Errorf("negative start must yield the empty span, got %v", got)
	}
}

func TestFileText(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("graph.cs", []byte("eq.equal;\n"))
	f := fs.Get(id)

	got, ok := f.Text(Span{File: id, Start: 3, End: 8})
	if !ok || string(got) != "equal" {
		t.Fatalf("Text = %q, %v", got, ok)
	}
	if _, ok := f.Text(Span{File: id, Start: 3, End: 99}); ok {
		t.Error("span past the end must be rejected")
	}
	if _, ok := f.Text(Span{File: id + 1, Start: 0, End: 1}); ok {
		t.Error("span of another file must be rejected")
	}
}
