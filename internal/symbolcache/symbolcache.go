// Package symbolcache implements C6, the persisted, content-hash-keyed
// symbol-tree cache (spec.md §4.6, §6): document_symbols results survive
// across facade restarts, invalidated per-file whenever that file's
// content hash changes.
//
// Grounded on the teacher's indexer.Index.SaveToCache/LoadFromCache
// (indexer/indexer.go): gob-encode the whole structure, gzip-compress it,
// write it under the repository's dot-directory. "Unreadable or wrong
// schema version" is treated the same as "empty cache" rather than an
// error, exactly as spec.md §6 requires - the teacher already sets that
// precedent by dropping LoadFromCache errors and starting fresh.
package symbolcache

import (
	"compress/gzip"
	"encoding/gob"
	"os"
	"sync"

	"lspkit/paths"
	"lspkit/protocol"
)

// Entry is one file's cached document symbol tree.
type Entry struct {
	ContentHash string
	Symbols     []CachedSymbol
}

// CachedSymbol is a gob-serializable flattening of symbol.UnifiedSymbol:
// the tree structure is reconstructed from ParentIndex on load, since
// gob cannot encode the live *UnifiedSymbol back-pointers directly.
type CachedSymbol struct {
	Name           string
	Kind           protocol.SymbolKind
	Detail         string
	Range          protocol.Range
	SelectionRange protocol.Range
	ParentIndex    int // -1 for a root
}

// fileCache is the gob-encoded container written to disk.
type fileCache struct {
	SchemaVersion int
	Entries       map[string]Entry // repo-relative path -> Entry
}

// Cache is a mutex-guarded, lazily-persisted symbol cache for one
// repository/language pair.
type Cache struct {
	mu     sync.Mutex
	path   string
	data   fileCache
	dirty  bool
	logger func(format string, args ...any)
}

// noopLog is used when no logger is supplied.
func noopLog(string, ...any) {}

// Open loads the on-disk cache for the given repository paths and
// language, or starts a fresh empty cache if the file is missing,
// unreadable, or was written by a different schema version.
func Open(p *paths.RepoPaths, language string, logf func(string, ...any)) *Cache {
	if logf == nil {
		logf = noopLog
	}
	c := &Cache{
		path:   p.SymbolCachePath(language),
		data:   fileCache{SchemaVersion: paths.CacheSchemaVersion, Entries: make(map[string]Entry)},
		logger: logf,
	}
	c.load()
	return c
}

func (c *Cache) load() {
	file, err := os.Open(c.path)
	if err != nil {
		return // missing cache: start fresh, no error
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		c.logger("symbolcache: corrupt gzip header in %s, starting fresh: %v", c.path, err)
		return
	}
	defer gzReader.Close()

	var loaded fileCache
	if err := gob.NewDecoder(gzReader).Decode(&loaded); err != nil {
		c.logger("symbolcache: corrupt cache contents in %s, starting fresh: %v", c.path, err)
		return
	}
	if loaded.SchemaVersion != paths.CacheSchemaVersion {
		c.logger("symbolcache: schema version %d in %s does not match %d, starting fresh", loaded.SchemaVersion, c.path, paths.CacheSchemaVersion)
		return
	}
	if loaded.Entries == nil {
		loaded.Entries = make(map[string]Entry)
	}
	c.data = loaded
}

// Get returns the cached entry for relPath if its stored content hash
// matches currentHash, reporting a miss otherwise (including when the
// path was never cached).
func (c *Cache) Get(relPath, currentHash string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data.Entries[relPath]
	if !ok || e.ContentHash != currentHash {
		return Entry{}, false
	}
	return e, true
}

// Put stores symbols for relPath under contentHash, marking the cache
// dirty so a subsequent Flush persists it.
func (c *Cache) Put(relPath, contentHash string, symbols []CachedSymbol) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Entries[relPath] = Entry{ContentHash: contentHash, Symbols: symbols}
	c.dirty = true
}

// Invalidate removes relPath's cached entry, if any.
func (c *Cache) Invalidate(relPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data.Entries[relPath]; ok {
		delete(c.data.Entries, relPath)
		c.dirty = true
	}
}

// Flush persists the cache to disk if it has unsaved changes. Returns a
// CachePersistenceError-flavored error on failure (spec.md §7); callers
// are expected to log and continue, not fail the originating operation.
func (c *Cache) Flush(p *paths.RepoPaths) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	if err := p.EnsureCacheDir(); err != nil {
		return err
	}

	tmp := c.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}

	gz := gzip.NewWriter(file)
	encErr := gob.NewEncoder(gz).Encode(c.data)
	closeErr := gz.Close()
	fileCloseErr := file.Close()

	if encErr != nil {
		os.Remove(tmp)
		return encErr
	}
	if closeErr != nil {
		os.Remove(tmp)
		return closeErr
	}
	if fileCloseErr != nil {
		os.Remove(tmp)
		return fileCloseErr
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// Len returns the number of cached file entries, exposed for tests and
// diagnostics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data.Entries)
}
