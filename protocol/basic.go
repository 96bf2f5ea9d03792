// Package protocol holds the LSP 3.17 wire types that lspkit's transport
// and facade layers exchange with a language server subprocess.
package protocol

// Position is a zero-based line/character offset inside a text document.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Less reports whether p sorts lexicographically before o.
func (p Position) Less(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Character < o.Character
}

// LessEqual reports p <= o lexicographically.
func (p Position) LessEqual(o Position) bool {
	return p == o || p.Less(o)
}

// Range is a start/end pair with Start <= End.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Contains reports whether pos falls within r, inclusive of both ends.
func (r Range) Contains(pos Position) bool {
	return r.Start.LessEqual(pos) && pos.LessEqual(r.End)
}

// ContainsRange reports whether r fully encloses o.
func (r Range) ContainsRange(o Range) bool {
	return r.Start.LessEqual(o.Start) && o.End.LessEqual(r.End)
}

// IsZero reports whether r is the zero value, i.e. a server omitted it
// (or zero-valued it) rather than sending a genuine zero-width range at
// the file's first character.
func (r Range) IsZero() bool {
	return r == Range{}
}

// TextDocumentIdentifier names a document by URI.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// TextDocumentItem is the full payload sent with didOpen.
type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

// VersionedTextDocumentIdentifier names a document together with the
// version the following edit applies to.
type VersionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int    `json:"version"`
}

// TextDocumentPositionParams is the common (document, position) pair used
// by definition/references/hover/completion requests.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// Location is a range inside a URI-identified document, enriched by the
// Path/URI Mapper with filesystem-relative coordinates.
//
// AbsolutePath and RelativePath are not part of the LSP wire format; they
// are populated by uri.Mapper.EnrichLocation after decoding and are
// omitted from JSON sent back over the wire.
type Location struct {
	URI           string `json:"uri"`
	Range         Range  `json:"range"`
	AbsolutePath  string `json:"-"`
	RelativePath  string `json:"-"`
	HasRelative   bool   `json:"-"`
}

// LocationLink is the richer alternative shape some servers return from
// textDocument/definition.
type LocationLink struct {
	OriginSelectionRange *Range `json:"originSelectionRange,omitempty"`
	TargetURI            string `json:"targetUri"`
	TargetRange          Range  `json:"targetRange"`
	TargetSelectionRange Range  `json:"targetSelectionRange"`
}

// ToLocation converts a LocationLink to the Location shape the facade
// surfaces uniformly to callers, per spec.md §4.7 definition().
func (l LocationLink) ToLocation() Location {
	return Location{URI: l.TargetURI, Range: l.TargetSelectionRange}
}

// SymbolKind mirrors the LSP SymbolKind enumeration (3.17 §3.17.1), plus
// the two synthetic kinds lspkit assigns to tree scaffolding nodes.
type SymbolKind int

const (
	SymbolKindFile          SymbolKind = 1
	SymbolKindModule        SymbolKind = 2
	SymbolKindNamespace     SymbolKind = 3
	SymbolKindPackage       SymbolKind = 4
	SymbolKindClass         SymbolKind = 5
	SymbolKindMethod        SymbolKind = 6
	SymbolKindProperty      SymbolKind = 7
	SymbolKindField         SymbolKind = 8
	SymbolKindConstructor   SymbolKind = 9
	SymbolKindEnum          SymbolKind = 10
	SymbolKindInterface     SymbolKind = 11
	SymbolKindFunction      SymbolKind = 12
	SymbolKindVariable      SymbolKind = 13
	SymbolKindConstant      SymbolKind = 14
	SymbolKindString        SymbolKind = 15
	SymbolKindNumber        SymbolKind = 16
	SymbolKindBoolean       SymbolKind = 17
	SymbolKindArray         SymbolKind = 18
	SymbolKindObject        SymbolKind = 19
	SymbolKindKey           SymbolKind = 20
	SymbolKindNull          SymbolKind = 21
	SymbolKindEnumMember    SymbolKind = 22
	SymbolKindStruct        SymbolKind = 23
	SymbolKindEvent         SymbolKind = 24
	SymbolKindOperator      SymbolKind = 25
	SymbolKindTypeParameter SymbolKind = 26

	// SymbolKindSyntheticPackage and SymbolKindSyntheticFile are lspkit's own
	// scaffolding kinds for full_symbol_tree's directory/file wrapper nodes
	// (spec.md §4.7); they are never sent to or received from a server.
	SymbolKindSyntheticPackage SymbolKind = 1000
	SymbolKindSyntheticFile    SymbolKind = 1001
)

// DiagnosticSeverity mirrors LSP's integer diagnostic severities.
type DiagnosticSeverity int

const (
	SeverityError       DiagnosticSeverity = 1
	SeverityWarning     DiagnosticSeverity = 2
	SeverityInformation DiagnosticSeverity = 3
	SeverityHint        DiagnosticSeverity = 4
)

// Diagnostic is a single textDocument/publishDiagnostics entry.
type Diagnostic struct {
	Range    Range               `json:"range"`
	Severity *DiagnosticSeverity `json:"severity,omitempty"`
	Code     any                 `json:"code,omitempty"`
	Source   *string             `json:"source,omitempty"`
	Message  string              `json:"message"`
}

// PublishDiagnosticsParams is the payload of textDocument/publishDiagnostics.
type PublishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Version     *int         `json:"version,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}
