package facade

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lspkit/ignore"
	"lspkit/internal/symbolcache"
	"lspkit/protocol"
	"lspkit/symbol"
)

// DocumentSymbols implements spec.md §4.7 document_symbols: cache lookup
// first, then a textDocument/documentSymbol round trip on miss.
func (f *Facade) DocumentSymbols(ctx context.Context, relPath string, includeBody bool) (flat []*symbol.UnifiedSymbol, roots []*symbol.UnifiedSymbol, err error) {
	if err := f.requireStarted(); err != nil {
		return nil, nil, err
	}
	absPath := f.absPath(relPath)

	if err := f.buffers.Open(absPath, f.toURI); err != nil {
		return nil, nil, fmt.Errorf("facade: open %s: %w", relPath, err)
	}
	defer f.buffers.Close(absPath, f.toURI)

	content, _ := f.buffers.Content(absPath)
	hash, _ := f.buffers.ContentHash(absPath)

	if entry, ok := f.cache.Get(relPath, hash); ok {
		roots := reconstructTree(entry.Symbols, f.toURI(absPath), f.mapper)
		for _, root := range roots {
			f.mapper.EnrichSymbol(root, relPath)
		}
		flat := symbol.Flatten(roots)
		if includeBody {
			for _, n := range flat {
				n.ExtractBody(content)
			}
		}
		return flat, roots, nil
	}

	fileURI := f.toURI(absPath)
	raw, err := f.supervisor.Transport.Call(ctx, "textDocument/documentSymbol", protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: fileURI},
	})
	if err != nil {
		return nil, nil, classifyErr(err)
	}

	roots, err = decodeDocumentSymbolResult(raw, fileURI, f.mapper.EnrichLocation)
	if err != nil {
		return nil, nil, fmt.Errorf("facade: decode documentSymbol response: %w", err)
	}
	for _, root := range roots {
		f.mapper.EnrichSymbol(root, relPath)
	}

	flat = symbol.Flatten(roots)
	if includeBody {
		for _, n := range flat {
			n.ExtractBody(content)
		}
	}
	f.cache.Put(relPath, hash, flattenToCached(flat))
	return flat, roots, nil
}

// decodeDocumentSymbolResult handles the three shapes textDocument/
// documentSymbol may return: an array of (possibly hierarchical)
// DocumentSymbol, an array of flat SymbolInformation, or null.
func decodeDocumentSymbolResult(raw json.RawMessage, fileURI string, enrich func(*protocol.Location)) ([]*symbol.UnifiedSymbol, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var docSymbols []protocol.DocumentSymbol
	if err := json.Unmarshal(raw, &docSymbols); err == nil && len(docSymbols) > 0 && docSymbols[0].Name != "" {
		return symbol.FromDocumentSymbols(docSymbols, fileURI, enrich), nil
	}

	var infos []protocol.SymbolInformation
	if err := json.Unmarshal(raw, &infos); err != nil {
		return nil, err
	}
	for i := range infos {
		enrich(&infos[i].Location)
	}
	return symbol.FromSymbolInformation(infos), nil
}

func flattenToCached(flat []*symbol.UnifiedSymbol) []symbolcache.CachedSymbol {
	index := make(map[*symbol.UnifiedSymbol]int, len(flat))
	for i, n := range flat {
		index[n] = i
	}
	out := make([]symbolcache.CachedSymbol, len(flat))
	for i, n := range flat {
		parentIdx := -1
		if n.Parent != nil {
			if idx, ok := index[n.Parent]; ok {
				parentIdx = idx
			}
		}
		out[i] = symbolcache.CachedSymbol{
			Name:           n.Name,
			Kind:           n.Kind,
			Detail:         n.Detail,
			Range:          n.Range,
			SelectionRange: n.SelectionRange,
			ParentIndex:    parentIdx,
		}
	}
	return out
}

type uriEnricher interface {
	EnrichLocation(loc *protocol.Location)
}

func reconstructTree(cached []symbolcache.CachedSymbol, fileURI string, enricher uriEnricher) []*symbol.UnifiedSymbol {
	nodes := make([]*symbol.UnifiedSymbol, len(cached))
	for i, c := range cached {
		loc := protocol.Location{URI: fileURI, Range: c.SelectionRange}
		enricher.EnrichLocation(&loc)
		nodes[i] = &symbol.UnifiedSymbol{
			Name:           c.Name,
			Kind:           c.Kind,
			Detail:         c.Detail,
			Range:          c.Range,
			SelectionRange: c.SelectionRange,
			Location:       loc,
		}
	}
	var roots []*symbol.UnifiedSymbol
	for i, c := range cached {
		if c.ParentIndex < 0 {
			roots = append(roots, nodes[i])
			continue
		}
		parent := nodes[c.ParentIndex]
		nodes[i].Parent = parent
		parent.Children = append(parent.Children, nodes[i])
	}
	return roots
}

// FullSymbolTree implements spec.md §4.7 full_symbol_tree: a filesystem
// walk rooted at withinRelPath (repo root when empty) emitting synthetic
// Package/File wrapper nodes around each directory/file's document
// symbols, skipping anything the ignore spec excludes.
func (f *Facade) FullSymbolTree(ctx context.Context, withinRelPath string, includeBody bool) ([]*symbol.UnifiedSymbol, error) {
	if err := f.requireStarted(); err != nil {
		return nil, err
	}

	startAbs := f.paths.RepoRoot()
	if withinRelPath != "" {
		startAbs = f.absPath(withinRelPath)
		info, err := os.Stat(startAbs)
		if err != nil {
			return nil, fmt.Errorf("facade: stat %s: %w", withinRelPath, err)
		}
		if f.isIgnoredRel(withinRelPath, info.IsDir()) {
			f.logger.Error("full_symbol_tree: explicit path is ignored", "path", withinRelPath)
			return nil, &IgnoredInputError{RelPath: withinRelPath}
		}
	}

	return f.walkTree(ctx, startAbs, includeBody)
}

func (f *Facade) walkTree(ctx context.Context, dirAbs string, includeBody bool) ([]*symbol.UnifiedSymbol, error) {
	entries, err := os.ReadDir(dirAbs)
	if err != nil {
		return nil, fmt.Errorf("facade: read dir %s: %w", dirAbs, err)
	}

	var nodes []*symbol.UnifiedSymbol
	for _, entry := range entries {
		childAbs := filepath.Join(dirAbs, entry.Name())
		rel, _ := f.mapper.RelativePath(childAbs)

		if entry.IsDir() {
			if f.isIgnoredRel(rel, true) {
				continue
			}
			children, err := f.walkTree(ctx, childAbs, includeBody)
			if err != nil {
				return nil, err
			}
			if len(children) == 0 {
				continue
			}
			pkg := &symbol.UnifiedSymbol{
				Name: entry.Name(),
				Kind: protocol.SymbolKindSyntheticPackage,
				Location: protocol.Location{
					URI: f.toURI(childAbs), RelativePath: rel, AbsolutePath: childAbs, HasRelative: true,
				},
			}
			for _, c := range children {
				c.Parent = pkg
			}
			pkg.Children = children
			nodes = append(nodes, pkg)
			continue
		}

		if f.isIgnoredRel(rel, false) {
			continue
		}

		fileNode, err := f.fileSymbolNode(ctx, rel, childAbs, includeBody)
		if err != nil {
			f.logger.Warn("full_symbol_tree: skipping file after error", "path", rel, "error", err)
			continue
		}
		nodes = append(nodes, fileNode)
	}
	return nodes, nil
}

func (f *Facade) fileSymbolNode(ctx context.Context, rel, abs string, includeBody bool) (*symbol.UnifiedSymbol, error) {
	_, roots, err := f.DocumentSymbols(ctx, rel, includeBody)
	if err != nil {
		return nil, err
	}

	lineCount, lastLen := fileExtent(abs)
	fileNode := &symbol.UnifiedSymbol{
		Name: filepath.Base(abs),
		Kind: protocol.SymbolKindSyntheticFile,
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: lineCount, Character: lastLen},
		},
		Location: protocol.Location{
			URI: f.toURI(abs), RelativePath: rel, AbsolutePath: abs, HasRelative: true,
		},
	}
	for _, r := range roots {
		r.Parent = fileNode
	}
	fileNode.Children = roots
	return fileNode, nil
}

func fileExtent(absPath string) (lineCount, lastLineLen int) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return 0, 0
	}
	lines := strings.Split(string(data), "\n")
	lineCount = len(lines) - 1
	if lineCount < 0 {
		lineCount = 0
	}
	lastLineLen = len(lines[len(lines)-1])
	return lineCount, lastLineLen
}

func (f *Facade) isIgnoredRel(rel string, isDir bool) bool {
	if rel == "" {
		return false
	}
	if !isDir && !ignore.HasSourceExtension(rel, f.extensions) {
		return true
	}
	return f.ignore.IsIgnored(rel, isDir)
}

// ContainingSymbol implements spec.md §4.7 containing_symbol.
func (f *Facade) ContainingSymbol(ctx context.Context, relPath string, line int, col *int, strict, includeBody bool) (*symbol.UnifiedSymbol, error) {
	if err := f.requireStarted(); err != nil {
		return nil, err
	}
	_, roots, err := f.DocumentSymbols(ctx, relPath, includeBody)
	if err != nil {
		return nil, err
	}
	return findContainingCandidate(roots, line, col, strict), nil
}

var containableKinds = map[protocol.SymbolKind]bool{
	protocol.SymbolKindMethod:   true,
	protocol.SymbolKindFunction: true,
	protocol.SymbolKindClass:    true,
	protocol.SymbolKindVariable: true,
}

func findContainingCandidate(roots []*symbol.UnifiedSymbol, line int, col *int, strict bool) *symbol.UnifiedSymbol {
	var best *symbol.UnifiedSymbol
	for _, n := range symbol.Flatten(roots) {
		if !containableKinds[n.Kind] {
			continue
		}
		if n.Range.Start.Line == n.Range.End.Line {
			continue // one-line candidates are discarded (import statements etc.)
		}
		if !candidateContains(n, line, col, strict) {
			continue
		}
		if best == nil || n.Range.Start.Line > best.Range.Start.Line {
			best = n
		}
	}
	return best
}

func candidateContains(n *symbol.UnifiedSymbol, line int, col *int, strict bool) bool {
	start, end := n.Range.Start.Line, n.Range.End.Line
	withinLines := start <= line && line <= end
	if strict {
		withinLines = start < line && line <= end
	}
	if !withinLines {
		return false
	}
	if col == nil {
		return true
	}
	if line > start {
		return true
	}
	return *col >= n.Range.Start.Character
}

// DefiningSymbol implements spec.md §4.7 defining_symbol.
func (f *Facade) DefiningSymbol(ctx context.Context, relPath string, line, col int, includeBody bool) (*symbol.UnifiedSymbol, error) {
	if err := f.requireStarted(); err != nil {
		return nil, err
	}
	locs, err := f.Definition(ctx, relPath, line, col)
	if err != nil {
		return nil, err
	}
	if len(locs) == 0 {
		return nil, nil
	}
	first := locs[0]
	if !first.HasRelative {
		return nil, nil
	}
	return f.ContainingSymbol(ctx, first.RelativePath, first.Range.Start.Line, nil, false, includeBody)
}

// ReferenceSite pairs a resolved containing symbol with the location of
// the reference that led to it (spec.md §4.7 referencing_symbols).
type ReferenceSite struct {
	Symbol *symbol.UnifiedSymbol
	Line   int
	Col    int
}

// ReferencingSymbols implements spec.md §4.7 referencing_symbols.
func (f *Facade) ReferencingSymbols(ctx context.Context, relPath string, line, col int, includeImports, includeSelf, includeBody, includeFileSymbols bool) ([]ReferenceSite, error) {
	if err := f.requireStarted(); err != nil {
		return nil, err
	}

	target, err := f.ContainingSymbol(ctx, relPath, line, &col, false, includeBody)
	if err != nil {
		return nil, err
	}

	refs, err := f.References(ctx, relPath, line, col)
	if err != nil {
		return nil, err
	}

	var sites []ReferenceSite
	for _, ref := range refs {
		if !ref.HasRelative {
			continue
		}
		refLine, refCol := ref.Range.Start.Line, ref.Range.Start.Character

		if target != nil && !includeSelf && ref.Range == target.SelectionRange && ref.RelativePath == relPath {
			continue
		}

		container, err := f.ContainingSymbol(ctx, ref.RelativePath, refLine, &refCol, false, includeBody)
		if err != nil {
			f.logger.Warn("referencing_symbols: containing_symbol failed", "path", ref.RelativePath, "error", err)
			continue
		}

		if container == nil {
			container = f.dynamicLanguageFallback(ctx, ref.RelativePath, refLine, includeBody)
		}
		if container == nil && includeFileSymbols {
			container = f.syntheticFileSymbol(ref.RelativePath, ref.AbsolutePath)
		}
		if container == nil {
			continue
		}

		if target != nil && !includeImports && container.Name == target.Name && container.Kind == target.Kind {
			continue
		}

		sites = append(sites, ReferenceSite{Symbol: container, Line: refLine, Col: refCol})
	}
	return sites, nil
}

// dynamicLanguageFallback implements the §9 design note: when no
// containing symbol is found and the reference line contains a ".", look
// up a same-file top-level Variable named for the identifier preceding the
// dot. This is a targeted heuristic for dynamically typed servers whose
// documentSymbol response omits member-write targets; it is not gated by
// language here, matching the original's unconditional default (see
// DESIGN.md for the Open Question this leaves unresolved).
func (f *Facade) dynamicLanguageFallback(ctx context.Context, relPath string, line int, includeBody bool) *symbol.UnifiedSymbol {
	abs := f.absPath(relPath)
	content, ok := f.buffers.Content(abs)
	if !ok {
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil
		}
		content = string(data)
	}
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return nil
	}
	lineText := lines[line]
	dot := strings.Index(lineText, ".")
	if dot < 0 {
		return nil
	}
	ident := strings.TrimSpace(lineText[:dot])
	if ident == "" {
		return nil
	}

	_, roots, err := f.DocumentSymbols(ctx, relPath, includeBody)
	if err != nil {
		return nil
	}
	for _, r := range roots {
		if r.Kind == protocol.SymbolKindVariable && r.Name == ident {
			return r
		}
	}
	return nil
}

func (f *Facade) syntheticFileSymbol(rel, abs string) *symbol.UnifiedSymbol {
	lineCount, lastLen := fileExtent(abs)
	return &symbol.UnifiedSymbol{
		Name: filepath.Base(abs),
		Kind: protocol.SymbolKindSyntheticFile,
		Range: protocol.Range{
			End: protocol.Position{Line: lineCount, Character: lastLen},
		},
		Location: protocol.Location{URI: f.toURI(abs), RelativePath: rel, AbsolutePath: abs, HasRelative: true},
	}
}
