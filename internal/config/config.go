// internal/config/config.go
//
// This package handles configuration and the .pathway directory structure.
// Every user gets a ~/.pathway/ folder holding config, logs, cached state
// and CSV exports.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// AppDir is the name of the directory we create in the user's home
	AppDir = ".pathway"

	defaultAPIURL  = "http://localhost:8080/api"
	defaultTimeout = 10 * time.Second
	defaultLevel   = "info"
)

const defaultConfigYAML = `# pathway client configuration
version: 1

api:
  # Base URL of the Learning Path Generator backend.
  # Override with PATHWAY_API_URL.
  url: http://localhost:8080/api
  # Per-request timeout. Override with PATHWAY_API_TIMEOUT.
  timeout: 10s

log:
  # zap level: debug, info, warn, error. Override with PATHWAY_LOG_LEVEL.
  level: info
`

// fileConfig models ~/.pathway/config.yaml.
type fileConfig struct {
	Version int `yaml:"version"`
	API     struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"api"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Config holds the runtime configuration for the pathway client.
type Config struct {
	// HomeDir is the user's home directory
	HomeDir string

	// AppDirPath is HomeDir/.pathway
	AppDirPath string

	APIURL     string
	APITimeout time.Duration
	LogLevel   string
}

// InitAppDir creates the .pathway directory structure under the given home
// directory. Called once on startup, before anything else touches disk.
//
// Structure created:
// .pathway/
// ├── logs/     <- client.log (one line per API round trip)
// ├── state/    <- cached resources, one JSON document per key
// └── export/   <- CSV exports of learning paths
func InitAppDir(homeDir string) error {
	appDir := filepath.Join(homeDir, AppDir)

	dirs := []string{
		filepath.Join(appDir, "logs"),
		filepath.Join(appDir, "state"),
		filepath.Join(appDir, "export"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure %s: %w", dir, err)
		}
	}

	return ensureConfigFile(filepath.Join(appDir, "config.yaml"))
}

// ensureConfigFile writes the commented default config if none exists yet.
// The template is parsed before writing so a bad edit to the scaffold string
// fails loudly in tests instead of producing a broken first-run file.
func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal([]byte(defaultConfigYAML), &fc); err != nil {
		return fmt.Errorf("config: default template invalid: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("config: write default config: %w", err)
	}
	return nil
}

// Load reads ~/.pathway/config.yaml and applies PATHWAY_* environment
// overrides on top of it.
func Load(homeDir string) (*Config, error) {
	appDir := filepath.Join(homeDir, AppDir)

	v := viper.New()
	v.SetConfigFile(filepath.Join(appDir, "config.yaml"))
	v.SetConfigType("yaml")
	v.SetDefault("api.url", defaultAPIURL)
	v.SetDefault("api.timeout", defaultTimeout)
	v.SetDefault("log.level", defaultLevel)

	v.SetEnvPrefix("PATHWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file just means first run raced InitAppDir; defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	cfg := &Config{
		HomeDir:    homeDir,
		AppDirPath: appDir,
		APIURL:     strings.TrimRight(v.GetString("api.url"), "/"),
		APITimeout: v.GetDuration("api.timeout"),
		LogLevel:   v.GetString("log.level"),
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.APITimeout <= 0 {
		cfg.APITimeout = defaultTimeout
	}
	return cfg, nil
}

// LogsDir is where the client log lives.
func (c *Config) LogsDir() string { return filepath.Join(c.AppDirPath, "logs") }

// StateDir is where cached resources live.
func (c *Config) StateDir() string { return filepath.Join(c.AppDirPath, "state") }

// ExportDir is where CSV exports are written.
func (c *Config) ExportDir() string { return filepath.Join(c.AppDirPath, "export") }
