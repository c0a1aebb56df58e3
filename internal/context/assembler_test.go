package context

import "testing"

func TestAssembleOrdersFixedSections(t *testing.T) {
	a := NewAssembler()
	blocks := a.Assemble(Sections{
		StaticPrefix: "prefix",
		Rules:        "rules",
		Tools:        "tools",
		Memory:       "memory",
		Dynamic:      "dynamic",
	})
	if len(blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(blocks))
	}
	wantOrder := []BlockKind{BlockStaticPrefix, BlockRules, BlockTools, BlockMemory, BlockDynamic}
	for i, want := range wantOrder {
		if blocks[i].Kind != want {
			t.Errorf("block %d: expected kind %v, got %v", i, want, blocks[i].Kind)
		}
	}
}

func TestAssembleSkipsEmptySections(t *testing.T) {
	a := NewAssembler()
	blocks := a.Assemble(Sections{Rules: "rules", Dynamic: "dynamic"})
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Kind != BlockRules || blocks[1].Kind != BlockDynamic {
		t.Errorf("unexpected block kinds: %+v", blocks)
	}
}

func TestAssembleAllEmptyYieldsNoBlocks(t *testing.T) {
	a := NewAssembler()
	blocks := a.Assemble(Sections{})
	if len(blocks) != 0 {
		t.Errorf("expected no blocks, got %d", len(blocks))
	}
}

func TestDynamicBlockCarriesNoCacheMarker(t *testing.T) {
	a := NewAssembler()
	blocks := a.Assemble(Sections{StaticPrefix: "p", Dynamic: "d"})
	for _, b := range blocks {
		if b.Kind == BlockDynamic && b.CacheMarked {
			t.Error("expected dynamic block to carry no cache marker")
		}
		if b.Kind == BlockStaticPrefix && !b.CacheMarked {
			t.Error("expected static prefix block to carry a cache marker")
		}
	}
}

func TestCachePrefixExcludesDynamicContent(t *testing.T) {
	a := NewAssembler()
	blocks := a.Assemble(Sections{StaticPrefix: "stable", Dynamic: "2026-07-31T00:00:00Z"})
	prefix := CachePrefix(blocks)
	if prefix != "stable" {
		t.Errorf("expected cache prefix to contain only stable content, got %q", prefix)
	}
}

func TestRenderJoinsAllBlocks(t *testing.T) {
	a := NewAssembler()
	blocks := a.Assemble(Sections{StaticPrefix: "a", Dynamic: "b"})
	rendered := Render(blocks)
	if rendered != "a\n\nb" {
		t.Errorf("unexpected render output: %q", rendered)
	}
}
