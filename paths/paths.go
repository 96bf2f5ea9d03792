// Package paths adapts the teacher's paths.ProjectPaths to lspkit's
// persisted cache layout (spec.md §4.6, §6): state lives in a ".lspkit"
// directory inside the repository root itself, so each repository has its
// own cache directory. A hash of the absolute root is also computed and
// exposed via Hash; it is not part of the on-disk layout.
package paths

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// CacheSchemaVersion is baked into the cache filename (spec.md §6): a
// version bump is indistinguishable from corruption and causes a fresh
// start, by design.
const CacheSchemaVersion = 1

// RepoPaths gives access to lspkit's on-disk state for one repository.
type RepoPaths struct {
	repoRoot string
	hash     string
}

// New builds a RepoPaths for the given repository root. root should
// already be absolute and symlink-resolved (repo.Root does this).
func New(root string) (*RepoPaths, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("paths: resolve %q: %w", root, err)
	}
	return &RepoPaths{repoRoot: absRoot, hash: hashRoot(absRoot)}, nil
}

// RepoRoot returns the repository root this RepoPaths was built for.
func (p *RepoPaths) RepoRoot() string { return p.repoRoot }

// LspkitDir is the root of all lspkit state inside the repository,
// generalizing the original's "<repo>/.serena" (spec.md §6).
func (p *RepoPaths) LspkitDir() string {
	return filepath.Join(p.repoRoot, ".lspkit")
}

// CacheDir is the directory holding the persisted symbol-tree cache.
func (p *RepoPaths) CacheDir() string {
	return filepath.Join(p.LspkitDir(), "cache")
}

// SymbolCachePath is the versioned, per-language cache file C6 reads and
// writes, generalizing spec.md §6's
// "<repo>/.serena/cache/document_symbols_cache.pkl" to a schema-stable,
// gob-encoded, gzip-compressed container (see internal/symbolcache).
func (p *RepoPaths) SymbolCachePath(language string) string {
	name := fmt.Sprintf("document_symbols_cache-%s-v%d.gob.gz", sanitize(language), CacheSchemaVersion)
	return filepath.Join(p.CacheDir(), name)
}

// EnsureCacheDir creates the cache directory if it does not exist.
func (p *RepoPaths) EnsureCacheDir() error {
	return os.MkdirAll(p.CacheDir(), 0o755)
}

// Hash returns the repository-root hash, exposed mainly for tests and
// diagnostics.
func (p *RepoPaths) Hash() string { return p.hash }

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '-'
		}
		return r
	}, s)
}

// hashRoot generates a stable identifier for the repository root, the same
// way the teacher's generateProjectHash does: forward-slash-normalized,
// lowercased on Windows for case-insensitive filesystems, SHA-256, first
// 16 hex characters.
func hashRoot(root string) string {
	normalized := filepath.ToSlash(root)
	if runtime.GOOS == "windows" {
		normalized = strings.ToLower(normalized)
	}
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", sum)[:16]
}
