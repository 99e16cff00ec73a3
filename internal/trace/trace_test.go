package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Enabled() {
		t.Fatal("off tracer must be disabled")
	}
	ctx, span := Start(WithTracer(context.Background(), tr), ScopeDriver, "check")
	if spanFrom(ctx) != nil {
		t.Fatal("unrecorded span must not enter the context")
	}
	if d := span.End(""); d != 0 {
		t.Fatalf("nop span reported duration %v", d)
	}
}

func TestStreamLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)

	ctx := WithTracer(context.Background(), tr)
	ctx, root := Start(ctx, ScopeDriver, "check")
	fileCtx, file := StartFile(ctx, "Graph.cs")
	_, rule := Start(fileCtx, ScopeRule, "rule:void-result")
	rule.End("")
	file.WithExtra("diagnostics", "2").End("")
	root.End("")

	out := buf.String()
	if strings.Contains(out, "rule:void-result") {
		t.Fatalf("rule scope must be filtered at phase level:\n%s", out)
	}
	if got := strings.Count(out, "\n"); got != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", got, out)
	}
	if !strings.Contains(out, "[file]   ← file:Graph.cs {diagnostics=2}") {
		t.Fatalf("missing file end event:\n%s", out)
	}
}

func TestPointPassesErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelError, FormatNDJSON)

	ctx := WithTracer(context.Background(), tr)
	_, span := Start(ctx, ScopeDriver, "check")
	span.End("")
	Point(ctx, ScopeFile, "io", "permission denied")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected only the point event, got %d lines", len(lines))
	}
	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatal(err)
	}
	if ev["kind"] != "point" || ev["detail"] != "permission denied" {
		t.Fatalf("unexpected event: %v", ev)
	}
}

func TestAutoFormat(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelDebug, Output: &buf, OutputPath: "run.ndjson"})
	if err != nil {
		t.Fatal(err)
	}
	Point(WithTracer(context.Background(), tr), ScopeDriver, "x", "")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("expected NDJSON output, got %q", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatal("empty context must yield Nop")
	}
	tr := NewStreamTracer(&bytes.Buffer{}, LevelDebug, FormatText)
	ctx := WithTracer(context.Background(), tr)
	if FromContext(ctx) != Tracer(tr) {
		t.Fatal("tracer lost in context")
	}
}

func TestParseLevel(t *testing.T) {
	if lvl, err := ParseLevel("DETAIL"); err != nil || lvl != LevelDetail {
		t.Fatalf("ParseLevel is case-insensitive: %v, %v", lvl, err)
	}
	for _, s := range []string{"off", "error", "phase", "detail", "debug"} {
		lvl, err := ParseLevel(s)
		if err != nil || lvl.String() != s {
			t.Fatalf("ParseLevel(%q) = %v, %v", s, lvl, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSpanTreeNesting(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatNDJSON)

	ctx := WithTracer(context.Background(), tr)
	ctx, root := Start(ctx, ScopeDriver, "check")
	fileCtx, file := StartFile(ctx, "Assets/Graph.cs")
	_, rule := Start(fileCtx, ScopeRule, "rule:comparison-accessor")
	rule.WithExtra("findings", "1").End("")
	Point(fileCtx, ScopeRule, "note", "")
	file.End("")
	root.End("")

	var events []Event
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var ev struct {
			Seq      uint64 `json:"seq"`
			Kind     string `json:"kind"`
			SpanID   uint64 `json:"span_id"`
			ParentID uint64 `json:"parent_id"`
			Depth    int    `json:"depth"`
			Name     string `json:"name"`
			File     string `json:"file"`
		}
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatal(err)
		}
		events = append(events, Event{Seq: ev.Seq, SpanID: ev.SpanID, ParentID: ev.ParentID, Depth: ev.Depth, Name: ev.Name, File: ev.File})
	}
	if len(events) != 7 {
		t.Fatalf("expected 7 events, got %d", len(events))
	}
	for i, ev := range events {
		if ev.Seq != uint64(i+1) {
			t.Fatalf("event %d has seq %d", i, ev.Seq)
		}
	}
	ruleBegin := events[2]
	if ruleBegin.ParentID != file.ID() || ruleBegin.Depth != 2 || ruleBegin.File != "Assets/Graph.cs" {
		t.Fatalf("rule span not nested under file: %+v", ruleBegin)
	}
	if events[1].ParentID != root.ID() || events[1].Depth != 1 {
		t.Fatalf("file span not nested under driver: %+v", events[1])
	}
	point := events[4]
	if point.Name != "note" || point.ParentID != file.ID() || point.Depth != 2 || point.File != "Assets/Graph.cs" {
		t.Fatalf("point not attached to file span: %+v", point)
	}
}

func TestFilteredScopeKeepsParent(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatNDJSON)
	ctx := WithTracer(context.Background(), tr)
	ctx, file := StartFile(ctx, "a.cs")
	ruleCtx, _ := Start(ctx, ScopeRule, "rule:void-result")
	if spanFrom(ruleCtx) != file {
		t.Fatal("filtered rule span must leave the file span current")
	}
}
