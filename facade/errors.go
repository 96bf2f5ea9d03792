package facade

import "fmt"

// ErrNotStarted is returned by every operation invoked before Start has
// completed successfully (spec.md §7 NotStarted).
var ErrNotStarted = fmt.Errorf("facade: not started")

// TransportError wraps a framing or I/O failure on the child's streams
// (spec.md §7 TransportError). It is fatal to the session: callers should
// treat it as a signal to Shutdown and report failure upward.
type TransportError struct{ Cause error }

func (e *TransportError) Error() string { return fmt.Sprintf("facade: transport error: %v", e.Cause) }
func (e *TransportError) Unwrap() error { return e.Cause }

// LspProtocolError wraps a structured JSON-RPC error the server returned
// (spec.md §7 LspProtocolError).
type LspProtocolError struct {
	Code    int
	Message string
}

func (e *LspProtocolError) Error() string {
	return fmt.Sprintf("facade: lsp error %d: %s", e.Code, e.Message)
}

// IgnoredInputError is returned when full_symbol_tree is explicitly asked
// to start at a path the ignore spec excludes (spec.md §7 IgnoredInput).
type IgnoredInputError struct{ RelPath string }

func (e *IgnoredInputError) Error() string {
	return fmt.Sprintf("facade: %q is ignored", e.RelPath)
}

// CachePersistenceError wraps a cache save/load failure. Per spec.md §7
// this is logged and swallowed by the cache layer; it is exported so a
// caller that wants to observe it explicitly (e.g. in tests) can, but
// facade methods never return it as their primary error.
type CachePersistenceError struct{ Cause error }

func (e *CachePersistenceError) Error() string {
	return fmt.Sprintf("facade: cache persistence: %v", e.Cause)
}
func (e *CachePersistenceError) Unwrap() error { return e.Cause }
