package facade

import (
	"testing"

	"lspkit/internal/symbolcache"
	"lspkit/protocol"
	"lspkit/symbol"
)

func rng(startLine, startCol, endLine, endCol int) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: startLine, Character: startCol},
		End:   protocol.Position{Line: endLine, Character: endCol},
	}
}

func TestFindContainingCandidatePicksInnermostFunction(t *testing.T) {
	inner := &symbol.UnifiedSymbol{Name: "inner", Kind: protocol.SymbolKindFunction, Range: rng(2, 0, 4, 1)}
	outer := &symbol.UnifiedSymbol{Name: "outer", Kind: protocol.SymbolKindFunction, Range: rng(0, 0, 10, 1)}
	outer.Children = []*symbol.UnifiedSymbol{inner}
	inner.Parent = outer

	got := findContainingCandidate([]*symbol.UnifiedSymbol{outer}, 3, nil, false)
	if got != inner {
		t.Fatalf("expected innermost (inner), got %+v", got)
	}
}

func TestFindContainingCandidateDiscardsOneLineSymbols(t *testing.T) {
	oneLiner := &symbol.UnifiedSymbol{Name: "x", Kind: protocol.SymbolKindVariable, Range: rng(1, 0, 1, 5)}
	got := findContainingCandidate([]*symbol.UnifiedSymbol{oneLiner}, 1, nil, false)
	if got != nil {
		t.Fatalf("expected nil for a single-line candidate, got %+v", got)
	}
}

func TestFindContainingCandidateStrictExcludesStartLine(t *testing.T) {
	fn := &symbol.UnifiedSymbol{Name: "f", Kind: protocol.SymbolKindFunction, Range: rng(2, 0, 6, 1)}

	if got := findContainingCandidate([]*symbol.UnifiedSymbol{fn}, 2, nil, true); got != nil {
		t.Errorf("strict mode should exclude the declaration line, got %+v", got)
	}
	if got := findContainingCandidate([]*symbol.UnifiedSymbol{fn}, 3, nil, true); got != fn {
		t.Errorf("strict mode should include a body line, got %+v", got)
	}
	if got := findContainingCandidate([]*symbol.UnifiedSymbol{fn}, 2, nil, false); got != fn {
		t.Errorf("non-strict mode should include the declaration line, got %+v", got)
	}
}

func TestFindContainingCandidateColumnBoundaryOnStartLine(t *testing.T) {
	fn := &symbol.UnifiedSymbol{Name: "f", Kind: protocol.SymbolKindFunction, Range: rng(2, 10, 6, 1)}
	before := 5
	after := 20

	if got := findContainingCandidate([]*symbol.UnifiedSymbol{fn}, 2, &before, false); got != nil {
		t.Errorf("column before the symbol's start should not match, got %+v", got)
	}
	if got := findContainingCandidate([]*symbol.UnifiedSymbol{fn}, 2, &after, false); got != fn {
		t.Errorf("column after the symbol's start should match, got %+v", got)
	}
}

func TestFlattenToCachedAndReconstructTreeRoundTrip(t *testing.T) {
	child := &symbol.UnifiedSymbol{Name: "child", Kind: protocol.SymbolKindMethod, Range: rng(1, 0, 2, 0), SelectionRange: rng(1, 0, 1, 5)}
	parent := &symbol.UnifiedSymbol{Name: "parent", Kind: protocol.SymbolKindClass, Range: rng(0, 0, 3, 0), SelectionRange: rng(0, 0, 0, 6)}
	parent.Children = []*symbol.UnifiedSymbol{child}
	child.Parent = parent

	flat := symbol.Flatten([]*symbol.UnifiedSymbol{parent})
	cached := flattenToCached(flat)
	if len(cached) != 2 {
		t.Fatalf("expected 2 cached entries, got %d", len(cached))
	}
	if cached[0].ParentIndex != -1 {
		t.Errorf("expected root ParentIndex -1, got %d", cached[0].ParentIndex)
	}
	if cached[1].ParentIndex != 0 {
		t.Errorf("expected child ParentIndex 0, got %d", cached[1].ParentIndex)
	}

	mapper := newTestMapper(t)
	roots := reconstructTree(cached, "file:///a.go", mapper)
	if len(roots) != 1 || roots[0].Name != "parent" {
		t.Fatalf("expected single root named parent, got %+v", roots)
	}
	if len(roots[0].Children) != 1 || roots[0].Children[0].Name != "child" {
		t.Fatalf("expected parent to have child, got %+v", roots[0].Children)
	}
	if roots[0].Children[0].Parent != roots[0] {
		t.Error("expected reconstructed child's Parent back-reference to point at the root")
	}
}

func TestIsIgnoredRelFiltersNonSourceExtensions(t *testing.T) {
	f := newTestFacade(t)
	if !f.isIgnoredRel("README.md", false) {
		t.Error("expected README.md (not .go) to be treated as ignored for a Go facade")
	}
	if f.isIgnoredRel("main.go", false) {
		t.Error("main.go should not be ignored")
	}
}

func TestIsIgnoredRelAlwaysIgnoredDir(t *testing.T) {
	f := newTestFacade(t)
	if !f.isIgnoredRel("vendor", true) {
		t.Error("expected vendor/ to be always-ignored for a Go facade")
	}
}

var _ = symbolcache.CachedSymbol{} // keep symbolcache imported for reconstructTree's parameter type
