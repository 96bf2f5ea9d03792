// Package ignore implements C2, the Ignore Matcher: deciding whether a
// repository-relative path should be hidden from symbol/reference results
// (spec.md §4.2).
//
// The teacher's indexer.GitIgnore hand-rolls pattern matching (prefix/
// suffix wildcard special cases, no "**", no anchoring) in
// indexer/gitignore.go. This generalizes that to real gitignore glob
// semantics via github.com/bmatcuk/doublestar/v4, which the pack already
// depends on transitively through go-git's gitignore support - rather than
// keep extending the teacher's ad hoc string matching one special case at
// a time.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Spec decides whether a path is ignored: gitignore-style patterns plus a
// fixed set of always-ignored directory basenames (from a
// langconfig.LanguageConfig) and dotfile/dotdir filtering.
type Spec struct {
	patterns      []pattern
	alwaysDirs    map[string]bool
	ignoreDotDirs bool
}

type pattern struct {
	raw      string
	dirOnly  bool
	negate   bool
	anchored bool // pattern contained a "/" before its final segment
}

// New builds a Spec from gitignore-style pattern lines (as found in a
// .gitignore file or config.Config.IgnoredPaths) and a language's
// always-ignored directory names.
func New(patternLines []string, alwaysIgnoredDirNames []string) *Spec {
	s := &Spec{
		alwaysDirs:    make(map[string]bool, len(alwaysIgnoredDirNames)),
		ignoreDotDirs: true,
	}
	for _, name := range alwaysIgnoredDirNames {
		s.alwaysDirs[name] = true
	}
	for _, line := range patternLines {
		if p, ok := parsePattern(line); ok {
			s.patterns = append(s.patterns, p)
		}
	}
	return s
}

// Load builds a Spec by reading "<repoRoot>/.gitignore" (or using content
// in place of it, when non-nil - config.Config.GitignoreFileContent),
// layered with a language's always-ignored directories.
func Load(repoRoot string, content *string, alwaysIgnoredDirNames []string) (*Spec, error) {
	lines, err := DiscoverGitignoreLines(repoRoot, content)
	if err != nil {
		return nil, err
	}
	return New(lines, alwaysIgnoredDirNames), nil
}

// DiscoverGitignoreLines returns the non-comment, non-empty lines of
// "<repoRoot>/.gitignore", or of content when non-nil (used in place of
// reading the file - config.Config.GitignoreFileContent). A missing
// .gitignore is reported as (nil, nil): spec.md §4.2 treats it as a
// warning, not fatal, leaving the caller to decide how to log it.
func DiscoverGitignoreLines(repoRoot string, content *string) ([]string, error) {
	if content != nil {
		return splitLines(*content), nil
	}
	data, err := os.ReadFile(filepath.Join(repoRoot, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return splitLines(string(data)), nil
}

func splitLines(s string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(s))
	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		lines = append(lines, scanner.Text())
	}
	return lines
}

func parsePattern(line string) (pattern, bool) {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return pattern{}, false
	}
	p := pattern{raw: trimmed}
	if strings.HasPrefix(p.raw, "!") {
		p.negate = true
		p.raw = p.raw[1:]
	}
	if strings.HasSuffix(p.raw, "/") {
		p.dirOnly = true
		p.raw = strings.TrimSuffix(p.raw, "/")
	}
	p.raw = strings.TrimPrefix(p.raw, "/")
	p.anchored = strings.Contains(p.raw, "/")
	if !strings.Contains(p.raw, "*") && !p.anchored {
		// Bare basename patterns (e.g. "node_modules") match at any depth;
		// doublestar needs an explicit "**/" prefix to do the same.
		p.raw = "**/" + p.raw
	}
	return p, true
}

// IsIgnored reports whether relPath (repository-relative, forward-slash
// separated) should be excluded. isDir tells it whether to also apply
// directory-only gitignore patterns and the always-ignored directory set.
//
// Known quirk (documented, not fixed): doublestar.Match does not special-
// case a trailing "/**" the way some gitignore implementations match the
// directory itself as well as its contents; a dirOnly pattern here matches
// only when isDir is true for that exact path, not for files nested below
// it that were never individually tested. Callers are expected to test
// every ancestor directory during a tree walk, which the full_symbol_tree
// walk in facade does.
func (s *Spec) IsIgnored(relPath string, isDir bool) bool {
	relPath = filepath.ToSlash(relPath)
	if s.ignoreDotDirs && hasDotSegment(relPath) {
		return true
	}
	if s.underAlwaysIgnoredDir(relPath, isDir) {
		return true
	}

	ignored := false
	for _, p := range s.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		matched, _ := doublestar.Match(p.raw, relPath)
		if !matched {
			base := filepath.Base(relPath)
			matched, _ = doublestar.Match(p.raw, base)
		}
		if matched {
			ignored = !p.negate
		}
	}
	return ignored
}

// underAlwaysIgnoredDir reports whether relPath names, or is nested under,
// an always-ignored directory. A file like "vendor/pkg/foo.go" is never
// itself a directory, but every segment above its basename is, so those
// ancestor segments are always checked; relPath's own final segment is
// only checked when isDir says it names a directory too.
func (s *Spec) underAlwaysIgnoredDir(relPath string, isDir bool) bool {
	parts := strings.Split(relPath, "/")
	n := len(parts)
	if !isDir {
		n--
	}
	for i := 0; i < n; i++ {
		if s.alwaysDirs[parts[i]] {
			return true
		}
	}
	return false
}

func hasDotSegment(relPath string) bool {
	for _, part := range strings.Split(relPath, "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

// HasSourceExtension reports whether path's extension is in exts (as
// returned by langconfig.LanguageConfig.SourceExtensions). An empty exts
// accepts every extension.
func HasSourceExtension(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
