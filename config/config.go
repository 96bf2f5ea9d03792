// Package config defines the factory configuration spec.md §6 names and
// the ambient load/merge/save machinery around it. The teacher's
// config.Config (JSON over encoding/json, loaded global-then-local) is the
// template; the merge step here uses dario.cat/mergo instead of the
// teacher's hand-written field-by-field mergeCfg, since mergo is already
// pulled in transitively by go-git and a struct merge is exactly its job.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
)

// Config is the factory configuration spec.md §6 describes:
//
//	{ codeLanguage, ignoredPaths, traceLspCommunication,
//	  startIndependentLspProcess, gitignoreFileContent? }
//
// plus the ambient knobs (sync call timeout, log level) every constructor
// in this module also needs.
type Config struct {
	// CodeLanguage selects the server binary/arguments via langconfig.
	CodeLanguage string `json:"code_language"`

	// IgnoredPaths seeds the ignore spec (C2) alongside any discovered
	// .gitignore. Normalized to forward slashes on load.
	IgnoredPaths []string `json:"ignored_paths"`

	// TraceLspCommunication gates transport-level logging of every frame.
	TraceLspCommunication bool `json:"trace_lsp_communication"`

	// StartIndependentLspProcess controls whether the child is placed in
	// its own process group (internal/process.Options.IndependentGroup).
	StartIndependentLspProcess bool `json:"start_independent_lsp_process"`

	// GitignoreFileContent, if non-nil, is used verbatim instead of
	// reading "<repo>/.gitignore" from disk.
	GitignoreFileContent *string `json:"gitignore_file_content,omitempty"`

	// SyncCallTimeout is the sync façade's per-call wall-clock timeout
	// (spec.md §5). Zero means no timeout, the spec's default.
	SyncCallTimeout time.Duration `json:"sync_call_timeout"`

	// LogLevel is the minimum severity the default StdLogger emits.
	LogLevel string `json:"log_level"`
}

// Default returns a Config with the spec's documented defaults.
func Default() *Config {
	return &Config{
		CodeLanguage:               "",
		IgnoredPaths:               nil,
		TraceLspCommunication:      false,
		StartIndependentLspProcess: false,
		GitignoreFileContent:       nil,
		SyncCallTimeout:            0,
		LogLevel:                   "info",
	}
}

// Load reads a Config from a JSON file, normalizing IgnoredPaths to
// forward slashes per spec.md §4.2.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	normalizeIgnoredPaths(&cfg)
	return &cfg, nil
}

// Save writes cfg as indented JSON to path, creating parent directories as
// needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Merge overlays src onto dst in place: any field src sets to a non-zero
// value overrides the corresponding field in dst. Zero-valued fields in
// src (the common case for a partial override file) are left alone,
// matching the teacher's "only replace what was explicitly set" semantics
// in config.mergeCfg - but expressed with mergo.Merge(..., WithOverride)
// instead of one branch per field.
func Merge(dst, src *Config) error {
	if err := mergo.Merge(dst, src, mergo.WithOverride()); err != nil {
		return fmt.Errorf("config: merge: %w", err)
	}
	normalizeIgnoredPaths(dst)
	return nil
}

func normalizeIgnoredPaths(cfg *Config) {
	for i, p := range cfg.IgnoredPaths {
		cfg.IgnoredPaths[i] = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	}
}
