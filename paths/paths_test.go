package paths

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestNewNormalizesToAbsolute(t *testing.T) {
	p, err := New(".")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !filepath.IsAbs(p.RepoRoot()) {
		t.Fatalf("RepoRoot() = %q, want absolute", p.RepoRoot())
	}
}

func TestSameRootSameHash(t *testing.T) {
	a, err := New("/tmp/example-repo")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, err := New("/tmp/example-repo")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Hash() != b.Hash() {
		t.Fatalf("hashes differ for the same root: %q vs %q", a.Hash(), b.Hash())
	}
}

func TestDifferentRootsDifferentHash(t *testing.T) {
	a, _ := New("/tmp/repo-a")
	b, _ := New("/tmp/repo-b")
	if a.Hash() == b.Hash() {
		t.Fatalf("expected distinct hashes for distinct roots")
	}
}

func TestSymbolCachePathIsVersionedAndPerLanguage(t *testing.T) {
	p, _ := New("/tmp/example-repo")
	goPath := p.SymbolCachePath("go")
	pyPath := p.SymbolCachePath("python")
	if goPath == pyPath {
		t.Fatalf("expected distinct cache paths per language")
	}
	if !strings.Contains(goPath, ".lspkit") || !strings.Contains(goPath, "cache") {
		t.Fatalf("SymbolCachePath() = %q, want it rooted under .lspkit/cache", goPath)
	}
	if !strings.Contains(goPath, "v1") {
		t.Fatalf("SymbolCachePath() = %q, want the schema version in the name", goPath)
	}
}
