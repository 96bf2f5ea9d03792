package syncfacade

import (
	"context"

	"lspkit/facade"
	"lspkit/protocol"
	"lspkit/symbol"
)

// Definition blocks until facade.Facade.Definition returns or the
// configured per-call timeout elapses.
func (sf *SyncFacade) Definition(relPath string, line, col int) ([]protocol.Location, error) {
	return call(sf, "definition", func(ctx context.Context) ([]protocol.Location, error) {
		return sf.core.Definition(ctx, relPath, line, col)
	})
}

// References blocks until facade.Facade.References returns.
func (sf *SyncFacade) References(relPath string, line, col int) ([]protocol.Location, error) {
	return call(sf, "references", func(ctx context.Context) ([]protocol.Location, error) {
		return sf.core.References(ctx, relPath, line, col)
	})
}

type documentSymbolsResult struct {
	Flat  []*symbol.UnifiedSymbol
	Roots []*symbol.UnifiedSymbol
}

// DocumentSymbols blocks until facade.Facade.DocumentSymbols returns.
func (sf *SyncFacade) DocumentSymbols(relPath string, includeBody bool) (flat, roots []*symbol.UnifiedSymbol, err error) {
	res, err := call(sf, "document_symbols", func(ctx context.Context) (documentSymbolsResult, error) {
		f, r, err := sf.core.DocumentSymbols(ctx, relPath, includeBody)
		return documentSymbolsResult{Flat: f, Roots: r}, err
	})
	return res.Flat, res.Roots, err
}

// FullSymbolTree blocks until facade.Facade.FullSymbolTree returns.
func (sf *SyncFacade) FullSymbolTree(withinRelPath string, includeBody bool) ([]*symbol.UnifiedSymbol, error) {
	return call(sf, "full_symbol_tree", func(ctx context.Context) ([]*symbol.UnifiedSymbol, error) {
		return sf.core.FullSymbolTree(ctx, withinRelPath, includeBody)
	})
}

// ContainingSymbol blocks until facade.Facade.ContainingSymbol returns.
func (sf *SyncFacade) ContainingSymbol(relPath string, line int, col *int, strict, includeBody bool) (*symbol.UnifiedSymbol, error) {
	return call(sf, "containing_symbol", func(ctx context.Context) (*symbol.UnifiedSymbol, error) {
		return sf.core.ContainingSymbol(ctx, relPath, line, col, strict, includeBody)
	})
}

// DefiningSymbol blocks until facade.Facade.DefiningSymbol returns.
func (sf *SyncFacade) DefiningSymbol(relPath string, line, col int, includeBody bool) (*symbol.UnifiedSymbol, error) {
	return call(sf, "defining_symbol", func(ctx context.Context) (*symbol.UnifiedSymbol, error) {
		return sf.core.DefiningSymbol(ctx, relPath, line, col, includeBody)
	})
}

// ReferencingSymbols blocks until facade.Facade.ReferencingSymbols returns.
func (sf *SyncFacade) ReferencingSymbols(relPath string, line, col int, includeImports, includeSelf, includeBody, includeFileSymbols bool) ([]facade.ReferenceSite, error) {
	return call(sf, "referencing_symbols", func(ctx context.Context) ([]facade.ReferenceSite, error) {
		return sf.core.ReferencingSymbols(ctx, relPath, line, col, includeImports, includeSelf, includeBody, includeFileSymbols)
	})
}

type hoverResult struct {
	Text  string
	Range *protocol.Range
}

// Hover blocks until facade.Facade.Hover returns.
func (sf *SyncFacade) Hover(relPath string, line, col int) (string, *protocol.Range, error) {
	res, err := call(sf, "hover", func(ctx context.Context) (hoverResult, error) {
		text, rng, err := sf.core.Hover(ctx, relPath, line, col)
		return hoverResult{Text: text, Range: rng}, err
	})
	return res.Text, res.Range, err
}

// Completions blocks until facade.Facade.Completions returns.
func (sf *SyncFacade) Completions(relPath string, line, col int) ([]protocol.CompletionItem, error) {
	return call(sf, "completions", func(ctx context.Context) ([]protocol.CompletionItem, error) {
		return sf.core.Completions(ctx, relPath, line, col)
	})
}

// WorkspaceSymbol blocks until facade.Facade.WorkspaceSymbol returns.
func (sf *SyncFacade) WorkspaceSymbol(query string) ([]protocol.SymbolInformation, error) {
	return call(sf, "workspace_symbol", func(ctx context.Context) ([]protocol.SymbolInformation, error) {
		return sf.core.WorkspaceSymbol(ctx, query)
	})
}

// InsertAt blocks until facade.Facade.InsertAt returns.
func (sf *SyncFacade) InsertAt(relPath string, line, col int, text string) (protocol.Position, error) {
	return call(sf, "insert_text", func(ctx context.Context) (protocol.Position, error) {
		return sf.core.InsertAt(relPath, line, col, text)
	})
}

// DeleteBetween blocks until facade.Facade.DeleteBetween returns.
func (sf *SyncFacade) DeleteBetween(relPath string, start, end protocol.Position) error {
	return callVoid(sf, "delete_text", func(ctx context.Context) error {
		return sf.core.DeleteBetween(relPath, start, end)
	})
}

// GetDiagnostics blocks until facade.Facade.GetDiagnostics returns. Unlike
// the other operations this never touches the transport, but it still
// routes through the event loop so diagnostics are read after any
// in-flight edit on the same loop has applied.
func (sf *SyncFacade) GetDiagnostics(relPath string) ([]protocol.Diagnostic, error) {
	return call(sf, "get_diagnostics", func(ctx context.Context) ([]protocol.Diagnostic, error) {
		return sf.core.GetDiagnostics(relPath), nil
	})
}

// GetDiagnosticsBySeverity blocks until facade.Facade.GetDiagnosticsBySeverity returns.
func (sf *SyncFacade) GetDiagnosticsBySeverity(relPath string, levels ...protocol.DiagnosticSeverity) ([]protocol.Diagnostic, error) {
	return call(sf, "get_diagnostics_by_severity", func(ctx context.Context) ([]protocol.Diagnostic, error) {
		return sf.core.GetDiagnosticsBySeverity(relPath, levels...), nil
	})
}
