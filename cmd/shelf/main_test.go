package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shelf/internal/config"
	"shelf/internal/daemon"
	"shelf/internal/logging"
	"shelf/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	apiAddr    string
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := filepath.Dir(cfg.Paths.DataDir)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	d, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	t.Cleanup(func() {
		cancel()
		d.Close()
	})

	return &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		apiAddr:    d.APIAddr(),
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, apiAddr, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--api", apiAddr}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got %q", needle, haystack)
	}
}

func TestCLIStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Status")
	requireContains(t, out, "running")
	requireContains(t, out, "Watcher")
}

func TestCLIMonitorCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"monitor", "stop"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("monitor stop: %v", err)
	}
	requireContains(t, out, "Monitor stopped")
	requireContains(t, out, "watcher active: no")

	out, _, err = runCLI(t, []string{"monitor", "start"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("monitor start: %v", err)
	}
	requireContains(t, out, "Monitor started")
	requireContains(t, out, "watcher active: yes")
}

func TestCLIWatchCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	watched := filepath.Join(env.baseDir, "inbox")
	if err := os.MkdirAll(watched, 0o755); err != nil {
		t.Fatalf("create inbox: %v", err)
	}

	out, _, err := runCLI(t, []string{"watch", "list"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("watch list: %v", err)
	}
	requireContains(t, out, "No folders are being watched")

	out, _, err = runCLI(t, []string{"watch", "add", watched}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("watch add: %v", err)
	}
	requireContains(t, out, "Watching "+watched)

	out, _, err = runCLI(t, []string{"watch", "list"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("watch list: %v", err)
	}
	requireContains(t, out, watched)

	out, _, err = runCLI(t, []string{"watch", "add", watched}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("watch add duplicate: %v", err)
	}
	requireContains(t, out, "already watched")

	out, _, err = runCLI(t, []string{"watch", "remove", watched}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("watch remove: %v", err)
	}
	requireContains(t, out, "Stopped watching")

	if _, _, err := runCLI(t, []string{"watch", "remove", watched}, env.apiAddr, env.configPath); err == nil {
		t.Fatal("expected removing unknown folder to fail")
	}
}

func TestCLIWatchAddRejectsMissingFolder(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(env.baseDir, "does-not-exist")

	if _, _, err := runCLI(t, []string{"watch", "add", missing}, env.apiAddr, env.configPath); err == nil {
		t.Fatal("expected add of missing folder to be rejected by the daemon")
	}
}

func TestCLIHistoryEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No history recorded yet")
}

func TestCLIRenameMissingFile(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"rename", filepath.Join(env.baseDir, "absent.pdf")}, env.apiAddr, env.configPath)
	if err == nil {
		t.Fatal("expected rename of missing file to fail")
	}
}

func TestCLIConfigShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "watchlist")
	requireContains(t, out, "rename_by_ai")
}

func TestConfigInit(t *testing.T) {
	env := setupCLITestEnv(t)

	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.apiAddr, env.configPath); err == nil {
		t.Fatal("expected init without --overwrite to refuse existing file")
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\nrules_file = %q\napi_bind = %q\n",
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.Paths.RulesFile,
		cfg.Paths.APIBind,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}
