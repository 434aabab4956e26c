package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Engine.MaxWorkers != 4 {
		t.Errorf("expected default max workers 4, got %d", cfg.Engine.MaxWorkers)
	}

	if cfg.Engine.TaskTimeout != 5*time.Minute {
		t.Errorf("expected task timeout 5m, got %v", cfg.Engine.TaskTimeout)
	}

	if !cfg.Engine.UseVCS {
		t.Error("expected engine.use_vcs to be true")
	}

	if cfg.Quality.Threshold != 0.7 {
		t.Errorf("expected quality threshold 0.7, got %v", cfg.Quality.Threshold)
	}

	if !cfg.Quality.Enforce {
		t.Error("expected quality.enforce to be true")
	}

	if cfg.TUI.RefreshRate != 100*time.Millisecond {
		t.Errorf("expected refresh rate 100ms, got %v", cfg.TUI.RefreshRate)
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: test-key
  model: claude-sonnet-4-20250514
engine:
  max_workers: 8
  task_timeout: 10m
  use_vcs: false
quality:
  threshold: 0.9
  enforce: false
tui:
  refresh_rate: 200ms
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("api key = %q", cfg.Anthropic.APIKey)
	}
	if cfg.Engine.MaxWorkers != 8 {
		t.Errorf("max workers = %d", cfg.Engine.MaxWorkers)
	}
	if cfg.Engine.TaskTimeout != 10*time.Minute {
		t.Errorf("task timeout = %v", cfg.Engine.TaskTimeout)
	}
	if cfg.Engine.UseVCS {
		t.Error("use_vcs should be false")
	}
	if cfg.Quality.Threshold != 0.9 {
		t.Errorf("threshold = %v", cfg.Quality.Threshold)
	}
	if cfg.TUI.RefreshRate != 200*time.Millisecond {
		t.Errorf("refresh rate = %v", cfg.TUI.RefreshRate)
	}
}

func TestLoadFromPathAppliesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("anthropic:\n  api_key: k\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.Engine.MaxWorkers != 4 {
		t.Errorf("default max workers not applied, got %d", cfg.Engine.MaxWorkers)
	}
	if cfg.Quality.Threshold != 0.7 {
		t.Errorf("default threshold not applied, got %v", cfg.Quality.Threshold)
	}
}

func TestLoadFromPathExpandsEnv(t *testing.T) {
	t.Setenv("WEFT_TEST_KEY", "secret-from-env")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("anthropic:\n  api_key: ${WEFT_TEST_KEY}\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Anthropic.APIKey != "secret-from-env" {
		t.Errorf("api key = %q", cfg.Anthropic.APIKey)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Anthropic.APIKey = "saved-key"
	cfg.Engine.MaxWorkers = 2

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadFromPath(GetUserConfigPath())
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.Anthropic.APIKey != "saved-key" {
		t.Errorf("api key = %q", loaded.Anthropic.APIKey)
	}
	if loaded.Engine.MaxWorkers != 2 {
		t.Errorf("max workers = %d", loaded.Engine.MaxWorkers)
	}
}
