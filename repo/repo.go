// Package repo locates the repository root lspkit treats as the base for
// relative paths, symlink-resolved once per spec.md §3's relativePath
// invariant.
//
// The teacher's workspace.DetectWorkspace walks up the directory tree
// looking for a ".git" entry by hand. lspkit instead asks go-git, which
// already knows how to find the enclosing repository from a worktree
// subdirectory or a linked worktree, and which this module is the only
// consumer of (spec.md's Non-goals exclude cloning/pushing, so the rest of
// go-git's transport stack has no caller - see DESIGN.md).
package repo

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// Root resolves the repository root containing startDir. If startDir is
// not inside a git repository, it falls back to startDir itself
// (symlink-resolved), matching the teacher's fallback-to-cwd behavior.
func Root(startDir string) (string, error) {
	absStart, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("repo: resolve %q: %w", startDir, err)
	}
	resolved, err := filepath.EvalSymlinks(absStart)
	if err != nil {
		// Path may not exist yet (e.g. a test fixture directory created
		// after Root is first called); fall back to the unresolved form.
		resolved = absStart
	}

	r, err := git.PlainOpenWithOptions(resolved, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return resolved, nil
	}
	wt, err := r.Worktree()
	if err != nil {
		return resolved, nil
	}
	root, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		return wt.Filesystem.Root(), nil
	}
	return root, nil
}
