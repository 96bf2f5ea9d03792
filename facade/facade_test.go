package facade

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lspkit/langconfig"
)

func newTestFacade(t *testing.T) *Facade {
	t.Helper()
	dir := t.TempDir()
	f, err := New(Options{RepoRoot: dir, Lang: langconfig.Go()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func TestOperationsBeforeStartReturnErrNotStarted(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()

	if _, err := f.Definition(ctx, "main.go", 0, 0); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Definition: expected ErrNotStarted, got %v", err)
	}
	if _, err := f.References(ctx, "main.go", 0, 0); !errors.Is(err, ErrNotStarted) {
		t.Errorf("References: expected ErrNotStarted, got %v", err)
	}
	if _, _, err := f.DocumentSymbols(ctx, "main.go", false); !errors.Is(err, ErrNotStarted) {
		t.Errorf("DocumentSymbols: expected ErrNotStarted, got %v", err)
	}
	if _, err := f.FullSymbolTree(ctx, "", false); !errors.Is(err, ErrNotStarted) {
		t.Errorf("FullSymbolTree: expected ErrNotStarted, got %v", err)
	}
	if _, err := f.ContainingSymbol(ctx, "main.go", 0, nil, false, false); !errors.Is(err, ErrNotStarted) {
		t.Errorf("ContainingSymbol: expected ErrNotStarted, got %v", err)
	}
	if _, _, err := f.Hover(ctx, "main.go", 0, 0); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Hover: expected ErrNotStarted, got %v", err)
	}
	if _, err := f.WorkspaceSymbol(ctx, "foo"); !errors.Is(err, ErrNotStarted) {
		t.Errorf("WorkspaceSymbol: expected ErrNotStarted, got %v", err)
	}
	if _, err := f.InsertAt("main.go", 0, 0, "x"); !errors.Is(err, ErrNotStarted) {
		t.Errorf("InsertAt: expected ErrNotStarted, got %v", err)
	}
}

// Shutdown on a Facade that never successfully started is a no-op, not an
// error (spec.md §8: idempotent teardown).
func TestShutdownOnUnstartedFacadeIsNoOp(t *testing.T) {
	f := newTestFacade(t)
	if err := f.Shutdown(context.Background(), 0); err != nil {
		t.Fatalf("Shutdown on unstarted facade: %v", err)
	}
}

func TestGetDiagnosticsEmptyBeforeAnyPublish(t *testing.T) {
	f := newTestFacade(t)
	if got := f.GetDiagnostics("main.go"); got != nil {
		t.Errorf("expected nil diagnostics, got %v", got)
	}
}

func TestAbsPathJoinsRepoRoot(t *testing.T) {
	f := newTestFacade(t)
	got := f.absPath("pkg/foo.go")
	want := filepath.Join(f.paths.RepoRoot(), "pkg", "foo.go")
	if got != want {
		t.Errorf("absPath: got %q, want %q", got, want)
	}
}

func TestNewDiscoversGitignoreFromRepoRoot(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("build/\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := New(Options{RepoRoot: dir, Lang: langconfig.Go()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !f.ignore.IsIgnored("build", true) {
		t.Error("expected build/ to be ignored per discovered .gitignore")
	}
}
