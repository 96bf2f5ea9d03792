package uri

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"lspkit/protocol"
	"lspkit/symbol"
)

func TestPathToURIRoundTrip(t *testing.T) {
	root := t.TempDir()
	m := New(root)

	abs := filepath.Join(root, "a b", "file.go")
	u := m.PathToURI(abs)
	if u == "" {
		t.Fatalf("PathToURI returned empty string")
	}
	if got := m.URIToPath(u); filepath.Clean(got) != filepath.Clean(abs) {
		t.Fatalf("round trip: got %q, want %q", got, abs)
	}
}

func TestPathToURIEncodesSpaces(t *testing.T) {
	root := t.TempDir()
	m := New(root)
	u := m.PathToURI(filepath.Join(root, "a b.go"))
	if !strings.Contains(u, "%20") {
		t.Fatalf("PathToURI(%q) = %q, want percent-encoded space", "a b.go", u)
	}
}

func TestRelativePathOutsideRoot(t *testing.T) {
	root := t.TempDir()
	m := New(root)
	outside := filepath.Join(filepath.Dir(root), "elsewhere", "f.go")
	if _, ok := m.RelativePath(outside); ok {
		t.Fatalf("expected RelativePath to report not-contained for %q", outside)
	}
}

func TestRelativePathInsideRoot(t *testing.T) {
	root := t.TempDir()
	m := New(root)
	abs := filepath.Join(root, "pkg", "file.go")
	rel, ok := m.RelativePath(abs)
	if !ok {
		t.Fatalf("expected %q to be contained in root %q", abs, root)
	}
	if rel != "pkg/file.go" {
		t.Fatalf("RelativePath = %q, want %q", rel, "pkg/file.go")
	}
}

func TestEnrichLocation(t *testing.T) {
	root := t.TempDir()
	m := New(root)
	abs := filepath.Join(root, "pkg", "file.go")
	loc := protocol.Location{URI: m.PathToURI(abs)}
	m.EnrichLocation(&loc)
	if !loc.HasRelative {
		t.Fatalf("expected HasRelative for a path under root")
	}
	if loc.RelativePath != "pkg/file.go" {
		t.Fatalf("RelativePath = %q", loc.RelativePath)
	}
}

func TestEnrichSymbolFillsRelativePathAndSelectionRangeFallback(t *testing.T) {
	root := t.TempDir()
	m := New(root)
	abs := filepath.Join(root, "pkg", "file.go")

	rangeSpan := protocol.Range{Start: protocol.Position{Line: 1, Character: 0}, End: protocol.Position{Line: 3, Character: 1}}
	child := &symbol.UnifiedSymbol{
		Name:     "child",
		Range:    rangeSpan,
		Location: protocol.Location{URI: m.PathToURI(abs)},
	}
	root2 := &symbol.UnifiedSymbol{
		Name:     "parent",
		Range:    rangeSpan,
		Location: protocol.Location{URI: m.PathToURI(abs)},
		Children: []*symbol.UnifiedSymbol{child},
	}

	m.EnrichSymbol(root2, "pkg/file.go")

	if !root2.Location.HasRelative || root2.Location.RelativePath != "pkg/file.go" {
		t.Fatalf("expected parent location enriched, got %+v", root2.Location)
	}
	if root2.SelectionRange != rangeSpan {
		t.Fatalf("expected parent SelectionRange to fall back to Range, got %+v", root2.SelectionRange)
	}
	if !child.Location.HasRelative || child.Location.RelativePath != "pkg/file.go" {
		t.Fatalf("expected child location enriched recursively, got %+v", child.Location)
	}
	if child.SelectionRange != rangeSpan {
		t.Fatalf("expected child SelectionRange to fall back to Range, got %+v", child.SelectionRange)
	}
}

func TestEnrichSymbolUsesDefaultRelativeWhenURIDoesNotResolve(t *testing.T) {
	root := t.TempDir()
	m := New(root)
	sym := &symbol.UnifiedSymbol{Name: "synthetic"}
	m.EnrichSymbol(sym, "pkg/file.go")
	if !sym.Location.HasRelative || sym.Location.RelativePath != "pkg/file.go" {
		t.Fatalf("expected defaultRelative fallback, got %+v", sym.Location)
	}
}

func TestWindowsDriveLetterURI(t *testing.T) {
	if runtime.GOOS != "windows" {
		t.Skip("drive-letter decoding only exercised on windows")
	}
	m := New(`C:\repo`)
	p := m.URIToPath("file:///C:/repo/file.go")
	if p != `C:\repo\file.go` {
		t.Fatalf("URIToPath = %q", p)
	}
}
