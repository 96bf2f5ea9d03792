// Package uri implements C1, the Path/URI Mapper: converting between LSP's
// file:// URIs and filesystem paths, and enriching protocol.Location values
// with the repository-relative path spec.md §3 requires callers to see.
//
// The teacher talks to its language server with a bare "file://" + path
// concatenation (validation/lsp_client.go), which breaks on any path
// containing a space or non-ASCII byte. This generalizes that to proper
// percent-encoding/decoding via net/url, since a façade meant for arbitrary
// repositories can't assume ASCII, space-free paths.
package uri

import (
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"lspkit/protocol"
	"lspkit/symbol"
)

// Mapper converts between LSP URIs and filesystem paths rooted at a single
// repository root, and enriches wire types with repository-relative paths.
// Safe for concurrent use.
type Mapper struct {
	root string // absolute, symlink-resolved

	mu         sync.RWMutex
	toAbsolute map[string]string // uri -> absolute path
	toRelative map[string]string // absolute path -> relative path (root-relative)
	toURICache map[string]string // absolute path -> uri
}

// New builds a Mapper for repository root. root must already be absolute
// and symlink-resolved (repo.Root does this).
func New(root string) *Mapper {
	return &Mapper{
		root:       filepath.Clean(root),
		toAbsolute: make(map[string]string),
		toRelative: make(map[string]string),
		toURICache: make(map[string]string),
	}
}

// Root returns the repository root this Mapper was built for.
func (m *Mapper) Root() string { return m.root }

// PathToURI converts an absolute filesystem path to a file:// URI,
// percent-encoding reserved characters the way net/url does for any other
// scheme.
func (m *Mapper) PathToURI(absPath string) string {
	absPath = filepath.Clean(absPath)

	m.mu.RLock()
	if cached, ok := m.toURICache[absPath]; ok {
		m.mu.RUnlock()
		return cached
	}
	m.mu.RUnlock()

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}
	result := u.String()

	m.mu.Lock()
	m.toURICache[absPath] = result
	m.toAbsolute[result] = absPath
	m.mu.Unlock()
	return result
}

// URIToPath converts a file:// URI to an absolute filesystem path,
// percent-decoding as needed. Non-file URIs are returned unmodified (rare
// in practice; LSP servers overwhelmingly deal in file URIs only).
func (m *Mapper) URIToPath(uri string) string {
	m.mu.RLock()
	if cached, ok := m.toAbsolute[uri]; ok {
		m.mu.RUnlock()
		return cached
	}
	m.mu.RUnlock()

	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme != "file" {
		return uri
	}
	p := parsed.Path
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		// Windows drive-letter URI, e.g. file:///C:/foo -> C:/foo.
		p = p[1:]
	}
	p = filepath.FromSlash(p)

	m.mu.Lock()
	m.toAbsolute[uri] = p
	m.mu.Unlock()
	return p
}

// RelativePath returns absPath relative to the repository root, or ("",
// false) if absPath does not lie under the root (spec.md §3's invariant:
// relativePath is present only for paths contained in the resolved root).
func (m *Mapper) RelativePath(absPath string) (string, bool) {
	absPath = filepath.Clean(absPath)

	m.mu.RLock()
	if cached, ok := m.toRelative[absPath]; ok {
		m.mu.RUnlock()
		return cached, true
	}
	m.mu.RUnlock()

	rel, err := filepath.Rel(m.root, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)

	m.mu.Lock()
	m.toRelative[absPath] = rel
	m.mu.Unlock()
	return rel, true
}

// EnrichLocation populates loc's AbsolutePath/RelativePath/HasRelative
// fields in place from its URI.
func (m *Mapper) EnrichLocation(loc *protocol.Location) {
	loc.AbsolutePath = m.URIToPath(loc.URI)
	rel, ok := m.RelativePath(loc.AbsolutePath)
	loc.RelativePath = rel
	loc.HasRelative = ok
}

// EnrichLocations enriches every element of locs in place.
func (m *Mapper) EnrichLocations(locs []protocol.Location) {
	for i := range locs {
		m.EnrichLocation(&locs[i])
	}
}

// EnrichSymbol implements spec.md §4.1's enrichSymbol(sym, defaultRelative?):
// recursively ensures every node in sym's subtree has a well-formed
// location (absolutePath/relativePath filled in from its URI, falling
// back to defaultRelative when the URI doesn't resolve under the
// repository root - e.g. a synthetic tree node with no URI of its own)
// and a non-zero selectionRange (falling back to range, then to
// location.range, via symbol.ResolveSelectionRange).
func (m *Mapper) EnrichSymbol(sym *symbol.UnifiedSymbol, defaultRelative string) {
	if sym == nil {
		return
	}
	m.EnrichLocation(&sym.Location)
	if !sym.Location.HasRelative && defaultRelative != "" {
		sym.Location.RelativePath = defaultRelative
		sym.Location.HasRelative = true
	}
	sym.SelectionRange = symbol.ResolveSelectionRange(sym.SelectionRange, sym.Range, sym.Location.Range)
	for _, child := range sym.Children {
		m.EnrichSymbol(child, defaultRelative)
	}
}

// LocationFromLink converts a LocationLink to a Location, enriching it.
func (m *Mapper) LocationFromLink(link protocol.LocationLink) protocol.Location {
	loc := link.ToLocation()
	m.EnrichLocation(&loc)
	return loc
}
