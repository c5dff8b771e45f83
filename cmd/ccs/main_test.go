package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestRunVersionAndUsage(t *testing.T) {
	if code := run([]string{"ccs"}); code != exitOK {
		t.Fatalf("bare invocation: exit %d", code)
	}
	if code := run([]string{"ccs", "version"}); code != exitOK {
		t.Fatalf("version: exit %d", code)
	}
	if code := run([]string{"ccs", "no-such-command"}); code != exitInvalidInput {
		t.Fatalf("unknown command: exit %d", code)
	}
}

func TestRunConfigPath(t *testing.T) {
	workDir := t.TempDir()
	if code := run([]string{"ccs", "config", "path", "-dir", workDir}); code != exitOK {
		t.Fatalf("config path: exit %d", code)
	}
}

func TestRunMigrateWithoutLegacyIsInvalidInput(t *testing.T) {
	workDir := t.TempDir()
	if code := run([]string{"ccs", "migrate", "-dir", workDir}); code != exitInvalidInput {
		t.Fatalf("migrate without legacy: exit %d", code)
	}
}

func TestRunMigrateEndToEnd(t *testing.T) {
	workDir := t.TempDir()
	legacy := map[string]any{
		"profiles": map[string]any{
			"work": map[string]any{"account": "acme"},
		},
	}
	encoded, err := json.Marshal(legacy)
	if err != nil {
		t.Fatalf("marshal legacy: %v", err)
	}
	if err := os.WriteFile(filepath.Join(workDir, "config.json"), encoded, 0o600); err != nil {
		t.Fatalf("write legacy: %v", err)
	}

	if code := run([]string{"ccs", "migrate", "-dir", workDir}); code != exitOK {
		t.Fatalf("migrate: exit %d", code)
	}
	if _, err := os.Stat(filepath.Join(workDir, "config.yaml")); err != nil {
		t.Fatalf("expected migrated config: %v", err)
	}
	// Second run has nothing left to do.
	if code := run([]string{"ccs", "migrate", "-dir", workDir}); code != exitInvalidInput {
		t.Fatalf("repeat migrate: exit %d", code)
	}
}

func TestRunRollbackRequiresBackupFlag(t *testing.T) {
	if code := run([]string{"ccs", "rollback"}); code != exitInvalidInput {
		t.Fatalf("rollback without backup: exit %d", code)
	}
}
