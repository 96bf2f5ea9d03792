// Package symbol defines UnifiedSymbol, the tree-shaped model spec.md §3
// describes for document_symbols and full_symbol_tree results, and the
// traversal/body-extraction operations built on top of it.
//
// The teacher's internal/symbols.OutlineNode is the closest analogue
// (a hierarchical [Name, Kind, Span, Children] node built by its regex-
// based indexer); this generalizes it to wrap protocol.DocumentSymbol
// directly (since an LSP server already returns that hierarchy) and adds
// the parent back-reference and body-extraction spec.md requires.
package symbol

import (
	"strings"

	"lspkit/protocol"
)

// UnifiedSymbol is one node in a file or workspace symbol tree.
type UnifiedSymbol struct {
	Name           string
	Kind           protocol.SymbolKind
	Detail         string
	Range          protocol.Range
	SelectionRange protocol.Range
	Location       protocol.Location

	Children []*UnifiedSymbol
	Parent   *UnifiedSymbol `json:"-"` // back-reference only, never owns

	// Body is populated lazily by ExtractBody; nil until requested.
	Body *string
}

// FromDocumentSymbols converts an LSP documentSymbol response (already
// hierarchical when the server supports it) into a UnifiedSymbol forest
// whose roots are the file's top-level symbols, wiring parent
// back-references as it goes. Every node's Location uses fileURI with the
// node's own selection range, passed through enrich when it is non-nil.
func FromDocumentSymbols(symbols []protocol.DocumentSymbol, fileURI string, enrich func(*protocol.Location)) []*UnifiedSymbol {
	roots := make([]*UnifiedSymbol, 0, len(symbols))
	for _, s := range symbols {
		roots = append(roots, buildNode(s, fileURI, nil, enrich))
	}
	return roots
}

// ResolveSelectionRange implements spec.md §4.1's enrichSymbol fallback
// chain for a node's selectionRange: the first of selectionRange, range,
// location.range that isn't the zero value. A lenient or buggy server can
// omit selectionRange (or send range but not location), and the invariant
// selectionRange ⊆ range only holds if every node ends up with *some*
// range to select.
func ResolveSelectionRange(selectionRange, rng, locationRange protocol.Range) protocol.Range {
	if !selectionRange.IsZero() {
		return selectionRange
	}
	if !rng.IsZero() {
		return rng
	}
	return locationRange
}

func buildNode(s protocol.DocumentSymbol, fileURI string, parent *UnifiedSymbol, enrich func(*protocol.Location)) *UnifiedSymbol {
	selRange := ResolveSelectionRange(s.SelectionRange, s.Range, protocol.Range{})
	loc := protocol.Location{URI: fileURI, Range: selRange}
	if enrich != nil {
		enrich(&loc)
	}
	node := &UnifiedSymbol{
		Name:           s.Name,
		Kind:           s.Kind,
		Detail:         s.Detail,
		Range:          s.Range,
		SelectionRange: selRange,
		Location:       loc,
		Parent:         parent,
	}
	for _, child := range s.Children {
		node.Children = append(node.Children, buildNode(child, fileURI, node, enrich))
	}
	return node
}

// FromSymbolInformation converts the flat SymbolInformation[] shape (what
// a server without hierarchicalDocumentSymbolSupport returns) into a
// forest, inferring parent/child relationships from range containment: a
// symbol is nested under the innermost other symbol whose range contains
// it.
func FromSymbolInformation(infos []protocol.SymbolInformation) []*UnifiedSymbol {
	nodes := make([]*UnifiedSymbol, len(infos))
	for i, info := range infos {
		nodes[i] = &UnifiedSymbol{
			Name:           info.Name,
			Kind:           info.Kind,
			Range:          info.Location.Range,
			SelectionRange: info.Location.Range,
			Location:       info.Location,
		}
	}

	var roots []*UnifiedSymbol
	for _, n := range nodes {
		parent := innermostContainer(nodes, n)
		if parent == nil {
			roots = append(roots, n)
			continue
		}
		n.Parent = parent
		parent.Children = append(parent.Children, n)
	}
	return roots
}

func innermostContainer(candidates []*UnifiedSymbol, target *UnifiedSymbol) *UnifiedSymbol {
	var best *UnifiedSymbol
	for _, c := range candidates {
		if c == target || c.Location.URI != target.Location.URI {
			continue
		}
		if !c.Range.ContainsRange(target.Range) || c.Range == target.Range {
			continue
		}
		if best == nil || best.Range.ContainsRange(c.Range) {
			best = c
		}
	}
	return best
}

// Flatten returns every node in roots in pre-order (depth-first, parent
// before children, children in original order) - the same order spec.md
// §8 requires document_symbols' flattened view to match.
func Flatten(roots []*UnifiedSymbol) []*UnifiedSymbol {
	var out []*UnifiedSymbol
	var walk func(*UnifiedSymbol)
	walk = func(n *UnifiedSymbol) {
		out = append(out, n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}

// Contains reports whether pos lies within n's Range.
func (n *UnifiedSymbol) Contains(pos protocol.Position) bool {
	return n.Range.Contains(pos)
}

// FindContaining returns the innermost node in roots whose range contains
// pos, or nil if none does. It considers every node regardless of kind;
// facade's containing_symbol uses its own kind- and line-filtered search
// instead.
func FindContaining(roots []*UnifiedSymbol, pos protocol.Position) *UnifiedSymbol {
	var best *UnifiedSymbol
	for _, n := range Flatten(roots) {
		if n.Contains(pos) {
			if best == nil || best.Range.ContainsRange(n.Range) {
				best = n
			}
		}
	}
	return best
}

// ExtractBody sets n.Body to the substring of src spanning n.Range, with
// the first line's leading indentation stripped (spec.md §3's body
// invariant: the declaration line is reported as written, not re-indented
// relative to the file).
func (n *UnifiedSymbol) ExtractBody(src string) {
	lines := strings.Split(src, "\n")
	start, end := n.Range.Start, n.Range.End
	if start.Line < 0 || end.Line >= len(lines) || start.Line > end.Line {
		empty := ""
		n.Body = &empty
		return
	}

	var b strings.Builder
	for line := start.Line; line <= end.Line; line++ {
		text := lines[line]
		lo, hi := 0, len(text)
		if line == start.Line && start.Character <= len(text) {
			lo = start.Character
		}
		if line == end.Line && end.Character <= len(text) {
			hi = end.Character
		}
		if lo > hi {
			lo = hi
		}
		segment := text[lo:hi]
		if line == start.Line {
			segment = strings.TrimLeft(segment, " \t")
		}
		b.WriteString(segment)
		if line != end.Line {
			b.WriteByte('\n')
		}
	}
	body := b.String()
	n.Body = &body
}

// CountNodes returns the total number of nodes in the forest.
func CountNodes(roots []*UnifiedSymbol) int {
	return len(Flatten(roots))
}
