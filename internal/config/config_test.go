package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	home := t.TempDir()
	cfg, err := Load(home)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("expected default api url %q, got %q", defaultAPIURL, cfg.APIURL)
	}
	if cfg.APITimeout != defaultTimeout {
		t.Fatalf("expected default timeout %v, got %v", defaultTimeout, cfg.APITimeout)
	}
	if cfg.LogLevel != defaultLevel {
		t.Fatalf("expected default log level %q, got %q", defaultLevel, cfg.LogLevel)
	}
}

func TestInitAppDirScaffold(t *testing.T) {
	home := t.TempDir()
	if err := InitAppDir(home); err != nil {
		t.Fatalf("InitAppDir returned error: %v", err)
	}
	for _, dir := range []string{"logs", "state", "export"} {
		if fi, err := os.Stat(filepath.Join(home, AppDir, dir)); err != nil || !fi.IsDir() {
			t.Fatalf("expected %s directory, got err=%v", dir, err)
		}
	}
	data, err := os.ReadFile(filepath.Join(home, AppDir, "config.yaml"))
	if err != nil {
		t.Fatalf("expected scaffolded config.yaml: %v", err)
	}
	if string(data) != defaultConfigYAML {
		t.Fatal("scaffolded config does not match the default template")
	}

	// A second init must not clobber an existing config file.
	if err := os.WriteFile(filepath.Join(home, AppDir, "config.yaml"), []byte("version: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := InitAppDir(home); err != nil {
		t.Fatalf("second InitAppDir returned error: %v", err)
	}
	data, _ = os.ReadFile(filepath.Join(home, AppDir, "config.yaml"))
	if string(data) != "version: 1\n" {
		t.Fatal("InitAppDir overwrote an existing config file")
	}
}

func TestLoadParsesYamlAndTrimsSlash(t *testing.T) {
	home := t.TempDir()
	appDir := filepath.Join(home, AppDir)
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		t.Fatal(err)
	}
	configYAML := `version: 1
api:
  url: https://paths.example.com/api/
  timeout: 3s
log:
  level: debug
`
	if err := os.WriteFile(filepath.Join(appDir, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(home)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "https://paths.example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.APIURL)
	}
	if cfg.APITimeout != 3*time.Second {
		t.Fatalf("expected 3s timeout, got %v", cfg.APITimeout)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.LogLevel)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PATHWAY_API_URL", "http://10.0.0.5:9090/api")
	t.Setenv("PATHWAY_LOG_LEVEL", "warn")
	cfg, err := Load(home)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://10.0.0.5:9090/api" {
		t.Fatalf("env override not applied, got %q", cfg.APIURL)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("env override not applied, got %q", cfg.LogLevel)
	}
}
