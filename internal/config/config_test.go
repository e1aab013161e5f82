package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shelf/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Organizer.Workers != 4 {
		t.Fatalf("default workers = %d, want 4", cfg.Organizer.Workers)
	}
	if cfg.Ollama.BaseURL == "" {
		t.Fatal("expected default ollama base url")
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		`rules_file = "` + filepath.Join(dir, "rules.json") + `"`,
		"[ollama]",
		`base_url = "http://localhost:11434/"`,
		"timeout_seconds = 30",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if strings.HasSuffix(cfg.Ollama.BaseURL, "/") {
		t.Fatalf("base url not trimmed: %q", cfg.Ollama.BaseURL)
	}
	if cfg.Ollama.TimeoutSeconds != 30 {
		t.Fatalf("timeout = %d, want 30", cfg.Ollama.TimeoutSeconds)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("data dir not absolute: %q", cfg.Paths.DataDir)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[watcher]",
		"poll_interval_ms = 0",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for zero poll interval")
	}
}

func TestJournalAndLockPaths(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/tmp/shelf-test"
	if got := cfg.JournalPath(); got != "/tmp/shelf-test/journal.db" {
		t.Fatalf("JournalPath = %q", got)
	}
	if got := cfg.LockPath(); got != "/tmp/shelf-test/shelfd.lock" {
		t.Fatalf("LockPath = %q", got)
	}
}
