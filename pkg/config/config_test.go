package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dualpane/corefs/pkg/entrymodel"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Resolve.CacheCapacity != DefaultResolverCacheCapacity {
		t.Fatalf("CacheCapacity = %d, want %d", cfg.Resolve.CacheCapacity, DefaultResolverCacheCapacity)
	}
	if cfg.Compare.DefaultMode != entrymodel.ModeSmart {
		t.Fatalf("DefaultMode = %v, want smart", cfg.Compare.DefaultMode)
	}
}

func TestLoadMissingFilePassesThroughNotExist(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.yml"))
	if !os.IsNotExist(err) {
		t.Fatalf("Load missing file error = %v, want os.IsNotExist", err)
	}
}

func TestLoadPartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	contents := "scan:\n  workers: 4\ncompare:\n  defaultMode: structure\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scan.Workers != 4 {
		t.Fatalf("Scan.Workers = %d, want 4", cfg.Scan.Workers)
	}
	if cfg.Compare.DefaultMode != entrymodel.ModeStructure {
		t.Fatalf("DefaultMode = %v, want structure", cfg.Compare.DefaultMode)
	}
	// Untouched by the file, so should retain its default.
	if cfg.Resolve.CacheCapacity != DefaultResolverCacheCapacity {
		t.Fatalf("CacheCapacity = %d, want default %d", cfg.Resolve.CacheCapacity, DefaultResolverCacheCapacity)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("bogusField: true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("Load with unknown field: want error, got nil")
	}
}
