package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shelve/internal/faults"
	"shelve/internal/testsupport"
)

type cliEnv struct {
	base       string
	source     string
	configPath string
}

func setupCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	source := filepath.Join(base, "inbox")
	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatalf("mkdir source: %v", err)
	}
	body := fmt.Sprintf(`source_folder: %s
destinations:
  Pictures: [.jpg, png]
  Docs: [.pdf]
watch:
  settle_delay_ms: 20
paths:
  log_dir: %s
  data_dir: %s
`, source, filepath.Join(base, "logs"), filepath.Join(base, "data"))
	configPath := testsupport.WriteFile(t, base, "config.yaml", body)
	return &cliEnv{base: base, source: source, configPath: configPath}
}

func runCLI(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestScanCommandOrganizesBacklog(t *testing.T) {
	env := setupCLIEnv(t)
	testsupport.WriteFile(t, env.source, "photo.jpg", "jpeg")
	testsupport.WriteFile(t, env.source, "report.pdf", "pdf")
	testsupport.WriteFile(t, env.source, "notes.txt", "txt")

	stdout, _, err := runCLI(t, context.Background(), "scan", "--config-file", env.configPath)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(stdout, "scan complete: 2 moved, 1 skipped, 0 failed") {
		t.Fatalf("unexpected output: %q", stdout)
	}
	if strings.Contains(stdout, "file moved") {
		t.Fatalf("console should be quiet without --verbose: %q", stdout)
	}
	testsupport.AssertContent(t, filepath.Join(env.source, "Pictures", "photo.jpg"), "jpeg")
	testsupport.AssertContent(t, filepath.Join(env.source, "Docs", "report.pdf"), "pdf")

	logData, err := os.ReadFile(filepath.Join(env.base, "logs", "shelve.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(logData), "photo.jpg") {
		t.Fatalf("log file missing outcome: %q", logData)
	}
}

func TestScanCommandDryRunEchoes(t *testing.T) {
	env := setupCLIEnv(t)
	path := testsupport.WriteFile(t, env.source, "photo.jpg", "jpeg")

	stdout, _, err := runCLI(t, context.Background(), "scan", "-c", env.configPath, "--dry-run")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(stdout, "[DRY RUN] would move file") {
		t.Fatalf("expected dry-run echo, got %q", stdout)
	}
	if !strings.Contains(stdout, "[DRY RUN] scan complete: 1 moved") {
		t.Fatalf("expected dry-run summary, got %q", stdout)
	}
	testsupport.AssertContent(t, path, "jpeg")
	testsupport.AssertMissing(t, filepath.Join(env.source, "Pictures"))
}

func TestRootCommandWatchesUntilCancelled(t *testing.T) {
	env := setupCLIEnv(t)
	testsupport.WriteFile(t, env.source, "backlog.jpg", "old")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, _, err := runCLI(t, ctx, "-c", env.configPath, "-v")
		done <- err
	}()

	testsupport.Eventually(t, 5*time.Second, func() bool {
		_, err := os.Stat(filepath.Join(env.source, "Pictures", "backlog.jpg"))
		return err == nil
	}, "expected backlog file to be moved")
	testsupport.WriteFile(t, env.source, "live.pdf", "new")
	testsupport.Eventually(t, 5*time.Second, func() bool {
		_, err := os.Stat(filepath.Join(env.source, "Docs", "live.pdf"))
		return err == nil
	}, "expected live file to be moved")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("root command returned %v on interrupt", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("root command did not stop")
	}
}

func TestRootCommandNoInitialScan(t *testing.T) {
	env := setupCLIEnv(t)
	path := testsupport.WriteFile(t, env.source, "backlog.jpg", "old")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, _, err := runCLI(t, ctx, "-c", env.configPath, "--no-initial-scan"); err != nil {
		t.Fatalf("root command: %v", err)
	}
	testsupport.AssertContent(t, path, "old")
}

func TestMissingConfigFails(t *testing.T) {
	env := setupCLIEnv(t)
	_, _, err := runCLI(t, context.Background(), "scan", "-c", filepath.Join(env.base, "absent.yaml"))
	if !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestAmbiguousRulesFail(t *testing.T) {
	env := setupCLIEnv(t)
	body := fmt.Sprintf("source_folder: %s\ndestinations:\n  A: [.jpg]\n  B: [JPG]\n", env.source)
	path := testsupport.WriteFile(t, env.base, "bad.yaml", body)

	_, _, err := runCLI(t, context.Background(), "config", "validate", "-c", path)
	if !errors.Is(err, faults.ErrConfiguration) || !strings.Contains(err.Error(), ".jpg") {
		t.Fatalf("expected ambiguous extension error, got %v", err)
	}
}

func TestConfigValidatePrintsRules(t *testing.T) {
	env := setupCLIEnv(t)
	stdout, _, err := runCLI(t, context.Background(), "config", "validate", "-c", env.configPath)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	for _, want := range []string{"Configuration valid", filepath.Join(env.source, "Pictures"), ".jpg .png"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("output missing %q: %q", want, stdout)
		}
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	env := setupCLIEnv(t)
	target := filepath.Join(env.base, "new", "config.yaml")

	stdout, _, err := runCLI(t, context.Background(), "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(stdout, target) {
		t.Fatalf("unexpected output: %q", stdout)
	}
	if _, _, err := runCLI(t, context.Background(), "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestHistoryCommand(t *testing.T) {
	env := setupCLIEnv(t)

	stdout, _, err := runCLI(t, context.Background(), "history", "-c", env.configPath)
	if err != nil {
		t.Fatalf("history before scan: %v", err)
	}
	if !strings.Contains(stdout, "No history recorded yet") {
		t.Fatalf("unexpected output: %q", stdout)
	}

	testsupport.WriteFile(t, env.source, "photo.jpg", "jpeg")
	testsupport.WriteFile(t, env.source, "notes.txt", "txt")
	if _, _, err := runCLI(t, context.Background(), "scan", "-c", env.configPath); err != nil {
		t.Fatalf("scan: %v", err)
	}

	stdout, _, err = runCLI(t, context.Background(), "history", "-c", env.configPath, "--status", "moved")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(stdout, "photo.jpg") || strings.Contains(stdout, "notes.txt") {
		t.Fatalf("unexpected history output: %q", stdout)
	}

	if _, _, err := runCLI(t, context.Background(), "history", "-c", env.configPath, "--status", "bogus"); err == nil {
		t.Fatal("expected error for invalid status")
	}
}
