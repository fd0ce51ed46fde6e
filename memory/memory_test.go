package memory

import (
	"errors"
	"testing"

	"github.com/hupe1980/agenttree/artifact"
	"github.com/hupe1980/agenttree/core"
)

func TestMemory_FirstReferenceOrder(t *testing.T) {
	m := New()
	if !m.Add("b.ts", "src/b.ts") {
		t.Fatalf("expected b.ts to be new")
	}
	m.Add("a.ts", "src/a.ts")
	if m.Add("b.ts", "src/b.ts") {
		t.Fatalf("expected b.ts to be known")
	}
	names := m.Names()
	if len(names) != 2 || names[0] != "b.ts" || names[1] != "a.ts" {
		t.Fatalf("unexpected order %v", names)
	}
}

func TestMemory_RefreshReadsCurrentContent(t *testing.T) {
	ws := artifact.NewInMemoryStore()
	if err := ws.WriteFile("a.ts", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	m := New()
	m.Add("a.ts", "a.ts")
	m.Add("gone.ts", "gone.ts")

	blocks := m.Refresh(ws)
	if blocks[0].Content != "v1" {
		t.Fatalf("expected v1, got %q", blocks[0].Content)
	}
	if !errors.Is(blocks[1].Err, core.ErrFileSystem) {
		t.Fatalf("expected filesystem error for missing file, got %v", blocks[1].Err)
	}

	_ = ws.WriteFile("a.ts", []byte("v2"))
	if got := m.Refresh(ws)[0].Content; got != "v2" {
		t.Fatalf("expected refreshed v2, got %q", got)
	}
}

func TestMemory_Reset(t *testing.T) {
	m := New()
	m.Add("a", "a")
	m.Reset()
	if m.Len() != 0 || m.Contains("a") {
		t.Fatalf("expected empty memory after reset")
	}
}
