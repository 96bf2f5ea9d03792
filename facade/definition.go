package facade

import (
	"context"
	"encoding/json"
	"fmt"

	"lspkit/protocol"
)

// Definition implements spec.md §4.7 definition: a single Location, an
// array of Location, an array of LocationLink, or null are all normalized
// to a []protocol.Location enriched with repository-relative paths.
func (f *Facade) Definition(ctx context.Context, relPath string, line, col int) ([]protocol.Location, error) {
	if err := f.requireStarted(); err != nil {
		return nil, err
	}
	abs := f.absPath(relPath)
	if err := f.buffers.Open(abs, f.toURI); err != nil {
		return nil, fmt.Errorf("facade: open %s: %w", relPath, err)
	}
	defer f.buffers.Close(abs, f.toURI)

	raw, err := f.supervisor.Transport.Call(ctx, "textDocument/definition", protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: f.toURI(abs)},
		Position:     protocol.Position{Line: line, Character: col},
	})
	if err != nil {
		return nil, classifyErr(err)
	}
	return f.decodeLocations(raw)
}

// References implements spec.md §4.7 references: declarations are
// excluded, results outside the ignore spec are dropped, and a -32603
// server error surfaces as a typed LspProtocolError via classifyErr's
// rpc.ReferencesInternalError handling.
func (f *Facade) References(ctx context.Context, relPath string, line, col int) ([]protocol.Location, error) {
	if err := f.requireStarted(); err != nil {
		return nil, err
	}
	abs := f.absPath(relPath)
	if err := f.buffers.Open(abs, f.toURI); err != nil {
		return nil, fmt.Errorf("facade: open %s: %w", relPath, err)
	}
	defer f.buffers.Close(abs, f.toURI)

	raw, err := f.supervisor.Transport.Call(ctx, "textDocument/references", protocol.ReferenceParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: f.toURI(abs)},
			Position:     protocol.Position{Line: line, Character: col},
		},
		Context: protocol.ReferenceContext{IncludeDeclaration: false},
	})
	if err != nil {
		return nil, classifyErr(err)
	}

	locs, err := f.decodeLocations(raw)
	if err != nil {
		return nil, err
	}

	filtered := locs[:0]
	for _, l := range locs {
		if l.HasRelative && f.isIgnoredRel(l.RelativePath, false) {
			continue
		}
		filtered = append(filtered, l)
	}
	return filtered, nil
}

func (f *Facade) decodeLocations(raw json.RawMessage) ([]protocol.Location, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var single protocol.Location
	if err := json.Unmarshal(raw, &single); err == nil && single.URI != "" {
		f.mapper.EnrichLocation(&single)
		return []protocol.Location{single}, nil
	}

	var links []protocol.LocationLink
	if err := json.Unmarshal(raw, &links); err == nil && len(links) > 0 && links[0].TargetURI != "" {
		out := make([]protocol.Location, len(links))
		for i, l := range links {
			out[i] = f.mapper.LocationFromLink(l)
		}
		return out, nil
	}

	var locs []protocol.Location
	if err := json.Unmarshal(raw, &locs); err != nil {
		return nil, fmt.Errorf("facade: decode location response: %w", err)
	}
	f.mapper.EnrichLocations(locs)
	return locs, nil
}
