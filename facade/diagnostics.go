package facade

import (
	"encoding/json"

	"lspkit/protocol"
)

// handlePublishDiagnostics stores the most recent diagnostics list a server
// pushed for a document, keyed by repository-relative path (spec.md §4.7
// getDiagnostics/getDiagnosticsBySeverity).
func (f *Facade) handlePublishDiagnostics(raw []byte) {
	var params protocol.PublishDiagnosticsParams
	if err := json.Unmarshal(raw, &params); err != nil {
		f.logger.Warn("malformed publishDiagnostics notification", "error", err)
		return
	}
	abs := f.mapper.URIToPath(params.URI)
	rel, ok := f.mapper.RelativePath(abs)
	if !ok {
		rel = params.URI
	}

	f.diagMu.Lock()
	f.diagnostics[rel] = params.Diagnostics
	f.diagMu.Unlock()
}

// GetDiagnostics returns the last diagnostics list the server published for
// relPath, or nil if none have arrived yet.
func (f *Facade) GetDiagnostics(relPath string) []protocol.Diagnostic {
	f.diagMu.Lock()
	defer f.diagMu.Unlock()
	return append([]protocol.Diagnostic(nil), f.diagnostics[relPath]...)
}

// GetDiagnosticsBySeverity filters GetDiagnostics(relPath) to entries whose
// Severity is one of levels. A diagnostic with no severity set never
// matches a filter.
func (f *Facade) GetDiagnosticsBySeverity(relPath string, levels ...protocol.DiagnosticSeverity) []protocol.Diagnostic {
	all := f.GetDiagnostics(relPath)
	if len(levels) == 0 {
		return all
	}
	want := make(map[protocol.DiagnosticSeverity]bool, len(levels))
	for _, l := range levels {
		want[l] = true
	}
	var out []protocol.Diagnostic
	for _, d := range all {
		if d.Severity != nil && want[*d.Severity] {
			out = append(out, d)
		}
	}
	return out
}
