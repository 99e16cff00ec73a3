package ui

import (
	"strings"
	"testing"

	"portlint/internal/analyzer"
)

func newModel(files ...string) *progressModel {
	return NewProgressModel("portlint", files, make(chan analyzer.Event)).(*progressModel)
}

func TestApplyEventTracksStatus(t *testing.T) {
	m := newModel("a.cs", "b.cs")

	m.applyEvent(analyzer.Event{File: "a.cs", Stage: analyzer.StageAnalyze, Status: analyzer.StatusWorking})
	if got := m.items[0].status; got != "analyzing" {
		t.Fatalf("status = %q, want analyzing", got)
	}

	m.applyEvent(analyzer.Event{File: "a.cs", Stage: analyzer.StageAnalyze, Status: analyzer.StatusDone, Findings: 2})
	m.applyEvent(analyzer.Event{File: "b.cs", Stage: analyzer.StageAnalyze, Status: analyzer.StatusDone, Cached: true})
	if got := m.items[0].status; got != "2 issue(s)" {
		t.Fatalf("status = %q", got)
	}
	if got := m.items[1].status; got != "cached" {
		t.Fatalf("status = %q", got)
	}
	if m.findings != 2 || m.finishedCount() != 2 {
		t.Fatalf("findings=%d finished=%d", m.findings, m.finishedCount())
	}

	// a repeated terminal event must not double count
	m.applyEvent(analyzer.Event{File: "a.cs", Stage: analyzer.StageAnalyze, Status: analyzer.StatusDone, Findings: 2})
	if m.findings != 2 {
		t.Fatalf("findings = %d after repeat", m.findings)
	}
}

func TestApplyEventIgnoresUnknownFile(t *testing.T) {
	m := newModel("a.cs")
	if cmd := m.applyEvent(analyzer.Event{File: "zzz.cs", Status: analyzer.StatusDone}); cmd != nil {
		t.Fatal("expected nil command for unknown file")
	}
	if m.items[0].status != "queued" {
		t.Fatalf("status = %q", m.items[0].status)
	}
}

func TestViewListsFiles(t *testing.T) {
	m := newModel("Assets/Graphs/a.cs", "Assets/Graphs/b.cs")
	m.applyEvent(analyzer.Event{File: "Assets/Graphs/b.cs", Stage: analyzer.StageLoad, Status: analyzer.StatusError})
	m.Update(doneMsg{})

	view := m.View()
	for _, want := range []string{"done: portlint (1/2 files, 0 finding(s))", "Assets/Graphs/a.cs", "error", "queued"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"short.cs", 20, "short.cs"},
		{"a/very/long/path/graph.cs", 10, "a/very/..."},
		{"abcdef", 3, "abc"},
		{"abc", 0, "abc"},
	}
	for _, c := range cases {
		if got := truncate(c.in, c.width); got != c.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", c.in, c.width, got, c.want)
		}
	}
}
