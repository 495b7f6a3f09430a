package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)
	for _, k := range []string{EnvPort, EnvLogLevel, EnvUI, EnvFFprobe, EnvBackendPython, EnvBackendModule} {
		t.Setenv(k, "")
	}
	return dir
}

func TestNew_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.UI() != UIWindow {
		t.Errorf("UI() = %q, want %q", cfg.UI(), UIWindow)
	}
	if cfg.DBPath() != filepath.Join(dir, DBFilename) {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}
	if cfg.BackendModule() != DefaultBackendModule {
		t.Errorf("BackendModule() = %q, want %q", cfg.BackendModule(), DefaultBackendModule)
	}
	if cfg.BackendTimeoutDoctor() != 30*time.Second {
		t.Errorf("BackendTimeoutDoctor() = %v, want 30s", cfg.BackendTimeoutDoctor())
	}
}

func TestNew_FileThenEnv(t *testing.T) {
	dir := isolate(t)

	yamlContent := `
port: 9100
log_level: debug
ui: tray
backend:
  python: /opt/venv/bin/python
  timeout_generate_seconds: 60
`
	if err := os.WriteFile(filepath.Join(dir, ConfigFilename), []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv(EnvPort, "9200")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9200 {
		t.Errorf("Port() = %d, want env value 9200", cfg.Port())
	}
	if cfg.LogLevel() != "debug" {
		t.Errorf("LogLevel() = %q, want debug", cfg.LogLevel())
	}
	if cfg.UI() != UITray {
		t.Errorf("UI() = %q, want tray", cfg.UI())
	}
	if cfg.BackendPython() != "/opt/venv/bin/python" {
		t.Errorf("BackendPython() = %q", cfg.BackendPython())
	}
	if cfg.BackendTimeoutGenerate() != time.Minute {
		t.Errorf("BackendTimeoutGenerate() = %v, want 1m", cfg.BackendTimeoutGenerate())
	}
}

func TestNew_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"non numeric port", EnvPort, "abc"},
		{"port out of range", EnvPort, "70000"},
		{"unknown ui", EnvUI, "terminal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.val)

			if _, err := New(); err == nil {
				t.Errorf("New() with %s=%s: expected error", tt.key, tt.val)
			}
		})
	}
}

func TestNew_BadConfigFile(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, ConfigFilename), []byte("port: [nope"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := New(); err == nil {
		t.Error("New() with malformed config file: expected error")
	}
}
