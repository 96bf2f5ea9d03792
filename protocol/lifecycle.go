package protocol

// InitializeParams is the request payload for the initialize handshake.
// Field set follows the teacher's validation/lsp_client.go InitializeParams
// closely, trimmed to the capabilities lspkit actually negotiates.
type InitializeParams struct {
	ProcessID             *int               `json:"processId"`
	RootURI               *string            `json:"rootUri"`
	InitializationOptions any                `json:"initializationOptions,omitempty"`
	Capabilities          ClientCapabilities `json:"capabilities"`
	WorkspaceFolders      []WorkspaceFolder  `json:"workspaceFolders,omitempty"`
	Trace                 string             `json:"trace,omitempty"`
}

// WorkspaceFolder names one root folder of the workspace.
type WorkspaceFolder struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// ClientCapabilities declares what lspkit's facade understands. Only the
// capabilities the facade actually consumes are advertised; advertising
// more invites servers to rely on behavior lspkit does not implement.
type ClientCapabilities struct {
	Workspace    *WorkspaceClientCapabilities    `json:"workspace,omitempty"`
	TextDocument *TextDocumentClientCapabilities `json:"textDocument,omitempty"`
	General      *GeneralClientCapabilities      `json:"general,omitempty"`
}

type WorkspaceClientCapabilities struct {
	Symbol *WorkspaceSymbolClientCapabilities `json:"symbol,omitempty"`
}

type WorkspaceSymbolClientCapabilities struct{}

type TextDocumentClientCapabilities struct {
	Synchronization    *TextDocumentSyncClientCapabilities   `json:"synchronization,omitempty"`
	DocumentSymbol     *DocumentSymbolClientCapabilities     `json:"documentSymbol,omitempty"`
	Definition         *DefinitionClientCapabilities         `json:"definition,omitempty"`
	References         *ReferencesClientCapabilities         `json:"references,omitempty"`
	Hover              *HoverClientCapabilities              `json:"hover,omitempty"`
	Completion         *CompletionClientCapabilities         `json:"completion,omitempty"`
	PublishDiagnostics *PublishDiagnosticsClientCapabilities `json:"publishDiagnostics,omitempty"`
}

type DefinitionClientCapabilities struct{}
type ReferencesClientCapabilities struct{}
type HoverClientCapabilities struct{}

type TextDocumentSyncClientCapabilities struct {
	DidSave bool `json:"didSave,omitempty"`
}

type DocumentSymbolClientCapabilities struct {
	HierarchicalDocumentSymbolSupport bool `json:"hierarchicalDocumentSymbolSupport"`
}

type CompletionClientCapabilities struct {
	CompletionItem *struct {
		SnippetSupport bool `json:"snippetSupport,omitempty"`
	} `json:"completionItem,omitempty"`
}

type PublishDiagnosticsClientCapabilities struct{}

type GeneralClientCapabilities struct{}

// ServerCapabilities is the subset of the initialize response lspkit reads
// to assert the preconditions spec.md §4.7 names.
type ServerCapabilities struct {
	TextDocumentSync        any `json:"textDocumentSync,omitempty"`
	DefinitionProvider      any `json:"definitionProvider,omitempty"`
	ReferencesProvider      any `json:"referencesProvider,omitempty"`
	DocumentSymbolProvider  any `json:"documentSymbolProvider,omitempty"`
	HoverProvider           any `json:"hoverProvider,omitempty"`
	CompletionProvider      any `json:"completionProvider,omitempty"`
	WorkspaceSymbolProvider any `json:"workspaceSymbolProvider,omitempty"`
}

// InitializeResult is the initialize response payload.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
}
