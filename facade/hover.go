package facade

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"lspkit/protocol"
)

// Hover implements spec.md §4.7 hover, decoding whichever of the
// "contents" wire shapes (bare string, MarkedString, array of either, or
// MarkupContent) the server used into a single text block.
func (f *Facade) Hover(ctx context.Context, relPath string, line, col int) (string, *protocol.Range, error) {
	if err := f.requireStarted(); err != nil {
		return "", nil, err
	}
	abs := f.absPath(relPath)
	if err := f.buffers.Open(abs, f.toURI); err != nil {
		return "", nil, fmt.Errorf("facade: open %s: %w", relPath, err)
	}
	defer f.buffers.Close(abs, f.toURI)

	raw, err := f.supervisor.Transport.Call(ctx, "textDocument/hover", protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: f.toURI(abs)},
		Position:     protocol.Position{Line: line, Character: col},
	})
	if err != nil {
		return "", nil, classifyErr(err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil, nil
	}

	var hover protocol.Hover
	if err := json.Unmarshal(raw, &hover); err != nil {
		return "", nil, fmt.Errorf("facade: decode hover response: %w", err)
	}
	return decodeHoverContents(hover.Contents), hover.Range, nil
}

func decodeHoverContents(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var marked protocol.MarkedString
	if err := json.Unmarshal(raw, &marked); err == nil && marked.Value != "" {
		return marked.Value
	}

	var markup protocol.MarkupContent
	if err := json.Unmarshal(raw, &markup); err == nil && markup.Value != "" {
		return markup.Value
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		var out string
		for i, item := range arr {
			if i > 0 {
				out += "\n\n"
			}
			out += decodeHoverContents(item)
		}
		return out
	}
	return ""
}

// completionPollLimit bounds the isIncomplete re-request loop spec.md §4.7
// describes for completions: a server may answer with isIncomplete=true
// repeatedly while it warms up (package indexing, etc).
const completionPollLimit = 30

// Completions implements spec.md §4.7 completions: polls while the server
// reports isIncomplete, discards Keyword-kind items, and dedupes by the
// text each item would insert (label, falling back to insertText, falling
// back to textEdit.NewText).
func (f *Facade) Completions(ctx context.Context, relPath string, line, col int) ([]protocol.CompletionItem, error) {
	if err := f.requireStarted(); err != nil {
		return nil, err
	}
	abs := f.absPath(relPath)
	if err := f.buffers.Open(abs, f.toURI); err != nil {
		return nil, fmt.Errorf("facade: open %s: %w", relPath, err)
	}
	defer f.buffers.Close(abs, f.toURI)

	seen := make(map[string]bool)
	var out []protocol.CompletionItem

	for attempt := 0; attempt < completionPollLimit; attempt++ {
		raw, err := f.supervisor.Transport.Call(ctx, "textDocument/completion", protocol.CompletionParams{
			TextDocumentPositionParams: protocol.TextDocumentPositionParams{
				TextDocument: protocol.TextDocumentIdentifier{URI: f.toURI(abs)},
				Position:     protocol.Position{Line: line, Character: col},
			},
		})
		if err != nil {
			return nil, classifyErr(err)
		}

		items, incomplete, err := decodeCompletionResult(raw)
		if err != nil {
			return nil, fmt.Errorf("facade: decode completion response: %w", err)
		}

		for _, item := range items {
			if item.Kind != nil && *item.Kind == protocol.CompletionItemKindKeyword {
				continue
			}
			key := completionSortKey(item)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, item)
		}

		if !incomplete {
			break
		}
		select {
		case <-ctx.Done():
			return out, classifyErr(ctx.Err())
		case <-time.After(50 * time.Millisecond):
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return completionSortKey(out[i]) < completionSortKey(out[j]) })
	return out, nil
}

func completionSortKey(item protocol.CompletionItem) string {
	if item.Label != "" {
		return item.Label
	}
	if item.InsertText != "" {
		return item.InsertText
	}
	if item.TextEdit != nil {
		return item.TextEdit.NewText
	}
	return ""
}

func decodeCompletionResult(raw json.RawMessage) ([]protocol.CompletionItem, bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false, nil
	}
	var list protocol.CompletionList
	if err := json.Unmarshal(raw, &list); err == nil && len(list.Items) > 0 {
		return list.Items, list.IsIncomplete, nil
	}
	var items []protocol.CompletionItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, err
	}
	return items, false, nil
}

// WorkspaceSymbol implements spec.md §4.7 workspace_symbol, enriching each
// result's location with repository-relative coordinates.
func (f *Facade) WorkspaceSymbol(ctx context.Context, query string) ([]protocol.SymbolInformation, error) {
	if err := f.requireStarted(); err != nil {
		return nil, err
	}
	// workspace/symbol can run long on a cold index; a work-done token lets
	// a server emit $/progress notifications the caller can correlate back
	// to this specific call (registerDefaultHandlers currently discards
	// them, but the token makes that a client-side choice, not a protocol
	// limitation).
	token := uuid.NewString()
	raw, err := f.supervisor.Transport.Call(ctx, "workspace/symbol", protocol.WorkspaceSymbolParams{
		Query:         query,
		WorkDoneToken: token,
	})
	if err != nil {
		return nil, classifyErr(err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var infos []protocol.SymbolInformation
	if err := json.Unmarshal(raw, &infos); err != nil {
		return nil, fmt.Errorf("facade: decode workspace/symbol response: %w", err)
	}
	for i := range infos {
		f.mapper.EnrichLocation(&infos[i].Location)
	}
	return infos, nil
}
