// Package facade implements C7, the LSP Facade: the async core that
// orchestrates C1-C6 into the higher-level operations spec.md §4.7 names.
// Package syncfacade wraps a Facade with the blocking, single-event-loop
// front-end C8 describes.
package facade

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"lspkit/config"
	"lspkit/ignore"
	"lspkit/internal/buffer"
	"lspkit/internal/process"
	"lspkit/internal/rpc"
	"lspkit/internal/symbolcache"
	"lspkit/langconfig"
	"lspkit/logging"
	"lspkit/paths"
	"lspkit/protocol"
	"lspkit/uri"
)

// Options configures a Facade. RepoRoot should already be absolute and
// symlink-resolved (repo.Root does this); Lang selects the server command
// and ignore/extension conventions.
type Options struct {
	RepoRoot string
	Lang     langconfig.LanguageConfig
	Config   *config.Config
	Logger   logging.Logger
}

// Facade is the async core. Safe for concurrent use once Start returns.
type Facade struct {
	opts   Options
	paths  *paths.RepoPaths
	mapper *uri.Mapper
	ignore *ignore.Spec
	logger logging.Logger

	supervisor *process.Supervisor
	buffers    *buffer.Registry
	cache      *symbolcache.Cache
	extensions []string

	started atomic.Bool

	diagMu      sync.Mutex
	diagnostics map[string][]protocol.Diagnostic // relPath -> diagnostics

	completionMu   sync.Mutex
	completionCond *sync.Cond
	completionTick int
}

// New builds a Facade for opts. It does not start the child process; call
// Start for that.
func New(opts Options) (*Facade, error) {
	if opts.Logger == nil {
		opts.Logger = logging.NoOp()
	}
	p, err := paths.New(opts.RepoRoot)
	if err != nil {
		return nil, fmt.Errorf("facade: %w", err)
	}

	var alwaysIgnored []string
	var extensions []string
	if opts.Lang != nil {
		alwaysIgnored = opts.Lang.AlwaysIgnoredDirNames()
		extensions = opts.Lang.SourceExtensions()
	}

	var gitignoreContent *string
	var userPatterns []string
	if opts.Config != nil {
		gitignoreContent = opts.Config.GitignoreFileContent
		userPatterns = opts.Config.IgnoredPaths
	}
	gitignoreLines, err := ignore.DiscoverGitignoreLines(p.RepoRoot(), gitignoreContent)
	if err != nil {
		opts.Logger.Warn("failed to read .gitignore, continuing without it", "error", err)
	}
	spec := ignore.New(append(append([]string{}, userPatterns...), gitignoreLines...), alwaysIgnored)

	language := ""
	if opts.Lang != nil {
		language = opts.Lang.ID()
	}

	f := &Facade{
		opts:        opts,
		paths:       p,
		mapper:      uri.New(p.RepoRoot()),
		ignore:      spec,
		logger:      opts.Logger,
		cache:       symbolcache.Open(p, language, logFunc(opts.Logger)),
		diagnostics: make(map[string][]protocol.Diagnostic),
		extensions:  extensions,
	}
	f.completionCond = sync.NewCond(&f.completionMu)
	return f, nil
}

func logFunc(l logging.Logger) func(string, ...any) {
	return func(format string, args ...any) { l.Warn(fmt.Sprintf(format, args...)) }
}

// Start launches the language-server child, performs the LSP
// initialize/initialized handshake, and registers the default handlers
// for server-initiated messages (spec.md §6): client/registerCapability is
// accepted as a no-op, window/logMessage is logged, $/progress is
// ignored, textDocument/publishDiagnostics is stored.
func (f *Facade) Start(ctx context.Context) error {
	if f.opts.Lang == nil {
		return fmt.Errorf("facade: no LanguageConfig configured")
	}
	bin, args := f.opts.Lang.Command()

	var trace rpc.TraceFunc
	if f.opts.Config != nil && f.opts.Config.TraceLspCommunication {
		trace = func(direction string, payload []byte) {
			f.logger.Debug("lsp trace", "direction", direction, "payload", string(payload))
		}
	}

	indep := f.opts.Config != nil && f.opts.Config.StartIndependentLspProcess
	f.supervisor = process.New(process.Options{
		Command:          bin,
		Args:             args,
		Dir:              f.paths.RepoRoot(),
		IndependentGroup: indep,
		Trace:            trace,
		Logger:           f.logger,
	})
	if err := f.supervisor.Start(); err != nil {
		return &TransportError{Cause: err}
	}

	f.buffers = buffer.New(f.supervisor.Transport, f.opts.Lang.ID())
	f.registerDefaultHandlers()

	if err := f.handshake(ctx); err != nil {
		_ = f.supervisor.Shutdown(context.Background(), 2*time.Second)
		return err
	}

	f.started.Store(true)
	return nil
}

func (f *Facade) handshake(ctx context.Context) error {
	rootURI := f.mapper.PathToURI(f.paths.RepoRoot())
	pid := 0
	params := protocol.InitializeParams{
		ProcessID: &pid,
		RootURI:   &rootURI,
		Capabilities: protocol.ClientCapabilities{
			Workspace: &protocol.WorkspaceClientCapabilities{
				Symbol: &protocol.WorkspaceSymbolClientCapabilities{},
			},
			TextDocument: &protocol.TextDocumentClientCapabilities{
				Synchronization:    &protocol.TextDocumentSyncClientCapabilities{DidSave: true},
				DocumentSymbol:     &protocol.DocumentSymbolClientCapabilities{HierarchicalDocumentSymbolSupport: true},
				Definition:         &protocol.DefinitionClientCapabilities{},
				References:         &protocol.ReferencesClientCapabilities{},
				Hover:              &protocol.HoverClientCapabilities{},
				PublishDiagnostics: &protocol.PublishDiagnosticsClientCapabilities{},
			},
			General: &protocol.GeneralClientCapabilities{},
		},
		WorkspaceFolders: []protocol.WorkspaceFolder{
			{URI: rootURI, Name: filepath.Base(f.paths.RepoRoot())},
		},
		InitializationOptions: f.opts.Lang.InitializationOptions(),
	}

	raw, err := f.supervisor.Transport.Call(ctx, "initialize", params)
	if err != nil {
		return classifyErr(err)
	}
	var result protocol.InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("facade: decode initialize result: %w", err)
	}
	caps := result.Capabilities
	if caps.TextDocumentSync == nil || caps.DefinitionProvider == nil || caps.CompletionProvider == nil {
		return fmt.Errorf("facade: server must advertise textDocumentSync, definitionProvider and completionProvider")
	}

	if err := f.supervisor.Transport.Notify("initialized", struct{}{}); err != nil {
		return &TransportError{Cause: err}
	}
	return nil
}

func (f *Facade) registerDefaultHandlers() {
	t := f.supervisor.Transport

	t.OnRequest("client/registerCapability", func(_ json.RawMessage) (any, *protocol.ResponseError) {
		return struct{}{}, nil
	})
	t.OnNotification("window/logMessage", func(params json.RawMessage) {
		f.logger.Info("server log", "raw", string(params))
	})
	t.OnNotification("$/progress", func(json.RawMessage) {})
	t.OnNotification("textDocument/publishDiagnostics", func(params json.RawMessage) {
		f.handlePublishDiagnostics(params)
	})
}

// Shutdown performs the staged child-process teardown (C4) and flushes the
// symbol cache. Calls after the first, and calls on a Facade that never
// started, are no-ops returning nil; a Facade is not restartable.
func (f *Facade) Shutdown(ctx context.Context, timeout time.Duration) error {
	if !f.started.Swap(false) {
		return nil
	}
	if err := f.cache.Flush(f.paths); err != nil {
		f.logger.Warn("cache flush failed", "error", (&CachePersistenceError{Cause: err}).Error())
	}
	if f.supervisor != nil {
		return f.supervisor.Shutdown(ctx, timeout)
	}
	return nil
}

func (f *Facade) requireStarted() error {
	if !f.started.Load() {
		return ErrNotStarted
	}
	return nil
}

func (f *Facade) toURI(absPath string) string { return f.mapper.PathToURI(absPath) }

func (f *Facade) absPath(relPath string) string {
	return filepath.Join(f.paths.RepoRoot(), filepath.FromSlash(relPath))
}

// classifyErr converts a transport-layer error into the spec.md §7
// taxonomy: an rpc.ReferencesInternalError or protocol.ResponseError
// becomes an LspProtocolError (the references-specific wrapping happens
// one layer down in C3; its text, including the originating position, is
// kept in the LspProtocolError's Message), context.DeadlineExceeded is
// returned unchanged, and anything else is a TransportError.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	if rpcErr, ok := err.(*protocol.ResponseError); ok {
		return &LspProtocolError{Code: rpcErr.Code, Message: rpcErr.Message}
	}
	if refErr, ok := err.(*rpc.ReferencesInternalError); ok {
		return &LspProtocolError{Code: refErr.Cause.Code, Message: refErr.Error()}
	}
	if err == context.DeadlineExceeded {
		return err
	}
	return &TransportError{Cause: err}
}
