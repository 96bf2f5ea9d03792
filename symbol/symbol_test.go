package symbol

import (
	"testing"

	"lspkit/protocol"
)

func rng(l1, c1, l2, c2 int) protocol.Range {
	return protocol.Range{Start: protocol.Position{Line: l1, Character: c1}, End: protocol.Position{Line: l2, Character: c2}}
}

func TestFlattenIsPreOrder(t *testing.T) {
	child1 := &UnifiedSymbol{Name: "child1"}
	child2 := &UnifiedSymbol{Name: "child2"}
	root := &UnifiedSymbol{Name: "root", Children: []*UnifiedSymbol{child1, child2}}

	flat := Flatten([]*UnifiedSymbol{root})
	names := make([]string, len(flat))
	for i, n := range flat {
		names[i] = n.Name
	}
	want := []string{"root", "child1", "child2"}
	if len(names) != len(want) {
		t.Fatalf("Flatten = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Flatten[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestFindContainingPicksInnermost(t *testing.T) {
	inner := &UnifiedSymbol{Name: "inner", Range: rng(2, 0, 4, 0)}
	outer := &UnifiedSymbol{Name: "outer", Range: rng(0, 0, 10, 0), Children: []*UnifiedSymbol{inner}}

	got := FindContaining([]*UnifiedSymbol{outer}, protocol.Position{Line: 3, Character: 0})
	if got == nil || got.Name != "inner" {
		t.Fatalf("FindContaining = %v, want inner", got)
	}
}

func TestFindContainingOutsideAnyRange(t *testing.T) {
	outer := &UnifiedSymbol{Name: "outer", Range: rng(0, 0, 10, 0)}
	got := FindContaining([]*UnifiedSymbol{outer}, protocol.Position{Line: 20, Character: 0})
	if got != nil {
		t.Fatalf("FindContaining = %v, want nil", got)
	}
}

func TestExtractBodySingleLine(t *testing.T) {
	src := "package f\n\nfunc A() {}\n"
	n := &UnifiedSymbol{Range: rng(2, 0, 2, 11)}
	n.ExtractBody(src)
	if n.Body == nil || *n.Body != "func A() {}" {
		t.Fatalf("ExtractBody = %v", n.Body)
	}
}

func TestExtractBodyStripsLeadingIndent(t *testing.T) {
	src := "package f\n\n    func A() {}\n"
	n := &UnifiedSymbol{Range: rng(2, 4, 2, 15)}
	n.ExtractBody(src)
	if n.Body == nil || *n.Body != "func A() {}" {
		t.Fatalf("ExtractBody = %q", *n.Body)
	}
}

func TestFromSymbolInformationInfersNesting(t *testing.T) {
	outer := protocol.SymbolInformation{Name: "Type", Location: protocol.Location{URI: "file:///a.go", Range: rng(0, 0, 10, 0)}}
	inner := protocol.SymbolInformation{Name: "Method", Location: protocol.Location{URI: "file:///a.go", Range: rng(2, 0, 4, 0)}}

	roots := FromSymbolInformation([]protocol.SymbolInformation{outer, inner})
	if len(roots) != 1 {
		t.Fatalf("roots = %d, want 1", len(roots))
	}
	if len(roots[0].Children) != 1 || roots[0].Children[0].Name != "Method" {
		t.Fatalf("expected Method nested under Type, got %+v", roots[0])
	}
}

func TestResolveSelectionRangePrefersSelectionRange(t *testing.T) {
	sel := rng(1, 0, 1, 5)
	got := ResolveSelectionRange(sel, rng(0, 0, 10, 0), rng(2, 0, 2, 0))
	if got != sel {
		t.Fatalf("ResolveSelectionRange = %+v, want %+v", got, sel)
	}
}

func TestResolveSelectionRangeFallsBackToRange(t *testing.T) {
	r := rng(0, 0, 10, 0)
	got := ResolveSelectionRange(protocol.Range{}, r, rng(2, 0, 2, 0))
	if got != r {
		t.Fatalf("ResolveSelectionRange = %+v, want %+v", got, r)
	}
}

func TestResolveSelectionRangeFallsBackToLocationRange(t *testing.T) {
	locRange := rng(2, 0, 2, 0)
	got := ResolveSelectionRange(protocol.Range{}, protocol.Range{}, locRange)
	if got != locRange {
		t.Fatalf("ResolveSelectionRange = %+v, want %+v", got, locRange)
	}
}

func TestBuildNodeFallsBackWhenSelectionRangeOmitted(t *testing.T) {
	docSym := protocol.DocumentSymbol{Name: "f", Range: rng(3, 0, 5, 1)}
	roots := FromDocumentSymbols([]protocol.DocumentSymbol{docSym}, "file:///a.go", nil)
	if len(roots) != 1 {
		t.Fatalf("roots = %d, want 1", len(roots))
	}
	if roots[0].SelectionRange != docSym.Range {
		t.Fatalf("expected SelectionRange to fall back to Range, got %+v", roots[0].SelectionRange)
	}
}

func TestCountNodes(t *testing.T) {
	root := &UnifiedSymbol{Name: "root", Children: []*UnifiedSymbol{{Name: "a"}, {Name: "b"}}}
	if got := CountNodes([]*UnifiedSymbol{root}); got != 3 {
		t.Fatalf("CountNodes = %d, want 3", got)
	}
}
