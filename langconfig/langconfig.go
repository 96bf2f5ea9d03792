// Package langconfig provides the LanguageConfig external collaborator
// spec.md §6 names (the facade's factory consumes one; bootstrapping the
// server binary itself is out of scope per spec.md §1) plus a small
// registry of concrete configurations for the languages the pack's
// reference implementation ships bindings for.
package langconfig

// LanguageConfig selects how to launch a language server and how C2's
// ignore matcher should treat that language's source tree.
type LanguageConfig interface {
	// ID is the language identifier (config.Config.CodeLanguage).
	ID() string

	// Command returns the server binary and its arguments.
	Command() (binary string, args []string)

	// SourceExtensions lists the file extensions (including the leading
	// dot) considered source for this language; spec.md §4.2 ignores any
	// regular file whose extension is outside this set when
	// ignoreUnsupported is true.
	SourceExtensions() []string

	// AlwaysIgnoredDirNames lists directory basenames this language's
	// ecosystem conventionally never wants indexed, layered on top of the
	// default "starts with a dot" predicate (spec.md §4.2).
	AlwaysIgnoredDirNames() []string

	// InitializationOptions is sent as initialize's
	// initializationOptions, letting a caller tune server-specific
	// behavior (e.g. gopls's usePlaceholders) without the facade
	// special-casing servers by name.
	InitializationOptions() any
}

type staticConfig struct {
	id         string
	command    string
	args       []string
	extensions []string
	ignoreDirs []string
	initOpts   any
}

func (c staticConfig) ID() string                     { return c.id }
func (c staticConfig) Command() (string, []string)    { return c.command, c.args }
func (c staticConfig) SourceExtensions() []string      { return c.extensions }
func (c staticConfig) AlwaysIgnoredDirNames() []string { return c.ignoreDirs }
func (c staticConfig) InitializationOptions() any      { return c.initOpts }

// Go returns the configuration for gopls, matching the original's
// language_servers/gopls setup: placeholders enabled for completions and a
// generous completion budget.
func Go() LanguageConfig {
	return staticConfig{
		id:         "go",
		command:    "gopls",
		args:       []string{"serve"},
		extensions: []string{".go"},
		ignoreDirs: []string{"vendor", "bin"},
		initOpts: map[string]any{
			"usePlaceholders":  true,
			"completionBudget": "200ms",
		},
	}
}

// Python returns the configuration for a Python language server (pylsp).
func Python() LanguageConfig {
	return staticConfig{
		id:         "python",
		command:    "pylsp",
		args:       nil,
		extensions: []string{".py", ".pyi"},
		ignoreDirs: []string{"__pycache__", "venv", ".venv", "site-packages"},
	}
}

// TypeScript returns the configuration for typescript-language-server.
func TypeScript() LanguageConfig {
	return staticConfig{
		id:         "typescript",
		command:    "typescript-language-server",
		args:       []string{"--stdio"},
		extensions: []string{".ts", ".tsx", ".js", ".jsx"},
		ignoreDirs: []string{"node_modules", "dist", "build"},
	}
}

// PHP returns the configuration for phpactor, including the ignored
// directory set the original PHPActor.is_ignored_dirname override adds on
// top of the shared default (packages, cache, build, dist, vendor, ...).
func PHP() LanguageConfig {
	return staticConfig{
		id:         "php",
		command:    "phpactor",
		args:       []string{"language-server"},
		extensions: []string{".php"},
		ignoreDirs: []string{
			"vendor", "packages", "node_modules", "cache", "build", "dist",
			"dev", "generated", "lib", "m2-hotfixes", "phpserver", "pub",
			"server", "var",
		},
	}
}

// Rust returns the configuration for rust-analyzer.
func Rust() LanguageConfig {
	return staticConfig{
		id:         "rust",
		command:    "rust-analyzer",
		args:       nil,
		extensions: []string{".rs"},
		ignoreDirs: []string{"target"},
	}
}

// Registry maps a language id to its LanguageConfig.
func Registry() map[string]LanguageConfig {
	configs := []LanguageConfig{Go(), Python(), TypeScript(), PHP(), Rust()}
	m := make(map[string]LanguageConfig, len(configs))
	for _, c := range configs {
		m[c.ID()] = c
	}
	return m
}
