package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadNormalizesIgnoredPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	cfg := Default()
	cfg.IgnoredPaths = []string{"build\\output", " vendor/ "}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"build/output", "vendor/"}
	if len(loaded.IgnoredPaths) != len(want) {
		t.Fatalf("IgnoredPaths = %v, want %v", loaded.IgnoredPaths, want)
	}
	for i, w := range want {
		if loaded.IgnoredPaths[i] != w {
			t.Fatalf("IgnoredPaths[%d] = %q, want %q", i, loaded.IgnoredPaths[i], w)
		}
	}
}

func TestMergeOverridesOnlyNonZeroFields(t *testing.T) {
	dst := Default()
	dst.CodeLanguage = "go"
	dst.SyncCallTimeout = 5 * time.Second

	src := &Config{TraceLspCommunication: true}

	if err := Merge(dst, src); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if dst.CodeLanguage != "go" {
		t.Fatalf("CodeLanguage overwritten: %q", dst.CodeLanguage)
	}
	if dst.SyncCallTimeout != 5*time.Second {
		t.Fatalf("SyncCallTimeout overwritten: %v", dst.SyncCallTimeout)
	}
	if !dst.TraceLspCommunication {
		t.Fatalf("expected TraceLspCommunication to be overridden to true")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error loading missing config file")
	}
}
