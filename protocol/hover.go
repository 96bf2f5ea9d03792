package protocol

import "encoding/json"

// MarkupContent is the richer hover/documentation payload shape.
type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// MarkedString is the legacy hover content shape (string or {language,value}).
type MarkedString struct {
	Language string `json:"language,omitempty"`
	Value    string `json:"value"`
}

// Hover is the textDocument/hover response. Contents is left as json.RawMessage
// by the transport and decoded by facade.Hover into plain text, since the
// wire shape varies between a bare string, a MarkedString, an array of
// either, or MarkupContent.
type Hover struct {
	Contents json.RawMessage `json:"contents"`
	Range    *Range          `json:"range,omitempty"`
}

// CompletionParams is textDocument/completion's request shape.
type CompletionParams struct {
	TextDocumentPositionParams
}

// CompletionItemKind mirrors the LSP enumeration; only Keyword is
// referenced directly by the facade (spec.md §4.7 discards Keyword items).
type CompletionItemKind int

const CompletionItemKindKeyword CompletionItemKind = 14

// TextEdit describes a single text replacement, used for completion
// items' textEdit field.
type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

// CompletionItem is one entry of a textDocument/completion response.
type CompletionItem struct {
	Label      string              `json:"label"`
	Kind       *CompletionItemKind `json:"kind,omitempty"`
	Detail     string              `json:"detail,omitempty"`
	InsertText string              `json:"insertText,omitempty"`
	TextEdit   *TextEdit           `json:"textEdit,omitempty"`
}

// CompletionList is the richer shape servers may return instead of a bare
// CompletionItem array.
type CompletionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	Items        []CompletionItem `json:"items"`
}
