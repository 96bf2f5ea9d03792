package symbolcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"lspkit/paths"
	"lspkit/protocol"
)

func testPaths(t *testing.T) *paths.RepoPaths {
	t.Helper()
	p, err := paths.New(t.TempDir())
	require.NoError(t, err)
	return p
}

func TestGetMissReturnsFalse(t *testing.T) {
	require := require.New(t)
	c := Open(testPaths(t), "go", nil)
	_, ok := c.Get("a.go", "hash")
	require.False(ok, "expected a miss on an empty cache")
}

func TestPutThenGetHitOnMatchingHash(t *testing.T) {
	require := require.New(t)
	c := Open(testPaths(t), "go", nil)
	syms := []CachedSymbol{{Name: "A", Kind: protocol.SymbolKindFunction, ParentIndex: -1}}
	c.Put("a.go", "h1", syms)

	entry, ok := c.Get("a.go", "h1")
	require.True(ok, "expected a hit for matching hash")
	require.Len(entry.Symbols, 1)
	require.Equal("A", entry.Symbols[0].Name)
}

func TestGetMissOnHashMismatch(t *testing.T) {
	require := require.New(t)
	c := Open(testPaths(t), "go", nil)
	c.Put("a.go", "h1", []CachedSymbol{{Name: "A", ParentIndex: -1}})
	_, ok := c.Get("a.go", "h2")
	require.False(ok, "expected a miss when content hash changed")
}

func TestFlushAndReopenRoundTrips(t *testing.T) {
	require := require.New(t)
	p := testPaths(t)
	c := Open(p, "go", nil)
	c.Put("a.go", "h1", []CachedSymbol{{Name: "A", Kind: protocol.SymbolKindFunction, ParentIndex: -1}})
	require.NoError(c.Flush(p))

	reopened := Open(p, "go", nil)
	entry, ok := reopened.Get("a.go", "h1")
	require.True(ok, "reopened cache missing persisted entry")
	require.Len(entry.Symbols, 1)
	require.Equal("A", entry.Symbols[0].Name)
}

func TestCorruptCacheStartsFresh(t *testing.T) {
	require := require.New(t)
	p := testPaths(t)
	require.NoError(p.EnsureCacheDir())
	require.NoError(os.WriteFile(p.SymbolCachePath("go"), []byte("not a valid gzip stream"), 0o644))

	c := Open(p, "go", nil)
	require.Equal(0, c.Len(), "expected a corrupt cache file to start fresh")
}

func TestInvalidateRemovesEntry(t *testing.T) {
	require := require.New(t)
	c := Open(testPaths(t), "go", nil)
	c.Put("a.go", "h1", []CachedSymbol{{Name: "A", ParentIndex: -1}})
	c.Invalidate("a.go")
	_, ok := c.Get("a.go", "h1")
	require.False(ok, "expected entry to be gone after Invalidate")
}

func TestDifferentLanguagesUseDifferentFiles(t *testing.T) {
	require := require.New(t)
	p := testPaths(t)
	goPath := p.SymbolCachePath("go")
	pyPath := p.SymbolCachePath("python")
	require.NotEqual(filepath.Clean(goPath), filepath.Clean(pyPath), "expected distinct cache files per language")
}
