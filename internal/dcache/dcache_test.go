package dcache

import (
	"crypto/sha256"
	"testing"

	"portlint/internal/diag"
	"portlint/internal/source"
)

func TestPutGetRoundTrip(t *testing.T) {
	c, err := OpenAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	diags := []diag.Diagnostic{
		diag.NewError(diag.PortComparisonAccessor, source.Span{File: 7, Start: 10, End: 18}, "'eq.equal' is wrong").
			WithFix(diag.Fix{
				Title:       "replace",
				IsPreferred: true,
				Edits:       []diag.TextEdit{{Span: source.Span{File: 7, Start: 13, End: 18}, NewText: "comparison", OldText: "equal"}},
			}),
		diag.NewError(diag.PortVoidResult, source.Span{File: 7, Start: 40, End: 50}, "void").
			WithNote(source.Span{File: 7, Start: 1, End: 5}, "declared here"),
	}

	key := Key(sha256.Sum256([]byte("class A {}")), "catalog", "1.0.0")
	if err := c.Put(key, FromDiagnostics("Graph.cs", diags)); err != nil {
		t.Fatal(err)
	}

	var got Payload
	ok, err := c.Get(key, &got)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	restored := got.Restore(3)
	if len(restored) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(restored))
	}
	if restored[0].Primary.File != 3 || restored[0].Fixes[0].Edits[0].Span.File != 3 {
		t.Fatal("file id must be reattached")
	}
	if restored[0].Fixes[0].Edits[0].NewText != "comparison" {
		t.Fatalf("fix lost: %+v", restored[0].Fixes)
	}
	if restored[1].Notes[0].Msg != "declared here" || restored[1].Code != diag.PortVoidResult {
		t.Fatalf("note lost: %+v", restored[1])
	}
}

func TestMissAndKeyInputs(t *testing.T) {
	c, err := OpenAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var p Payload
	ok, err := c.Get(Key([32]byte{}, "a", "v"), &p)
	if ok || err != nil {
		t.Fatalf("expected clean miss, got %v %v", ok, err)
	}

	h := sha256.Sum256([]byte("x"))
	if Key(h, "a", "v") == Key(h, "b", "v") || Key(h, "a", "v") == Key(h, "a", "w") {
		t.Fatal("catalog digest and version must change the key")
	}
}

func TestDropAll(t *testing.T) {
	c, err := OpenAt(t.TempDir() + "/cache")
	if err != nil {
		t.Fatal(err)
	}
	key := Key([32]byte{1}, "", "")
	if err := c.Put(key, &Payload{Path: "a.cs"}); err != nil {
		t.Fatal(err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatal(err)
	}
	var p Payload
	if ok, _ := c.Get(key, &p); ok {
		t.Fatal("entry survived DropAll")
	}
	if err := c.Put(key, &Payload{Path: "a.cs"}); err != nil {
		t.Fatalf("cache unusable after DropAll: %v", err)
	}
}

func TestNilCache(t *testing.T) {
	var c *Cache
	if err := c.Put(Digest{}, &Payload{}); err != nil {
		t.Fatal(err)
	}
	var p Payload
	if ok, err := c.Get(Digest{}, &p); ok || err != nil {
		t.Fatal("nil cache must miss")
	}
}
