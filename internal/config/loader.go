package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main
// or in manager.NewWithConfig.
type Config struct {
	Addr     string `json:"addr" yaml:"addr" toml:"addr"`
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`

	// Engine discovery. Environment variables fill whatever is left empty.
	ExecutablePath  string   `json:"executable_path" yaml:"executable_path" toml:"executable_path"`
	BundledChromium string   `json:"bundled_chromium" yaml:"bundled_chromium" toml:"bundled_chromium"`
	Serverless      bool     `json:"serverless" yaml:"serverless" toml:"serverless"`
	LibraryPaths    []string `json:"library_paths" yaml:"library_paths" toml:"library_paths"`
	Warmup          bool     `json:"warmup" yaml:"warmup" toml:"warmup"`

	// Launch and render tunables.
	MaxSessions       int `json:"max_sessions" yaml:"max_sessions" toml:"max_sessions"`
	LaunchMaxAttempts int `json:"launch_max_attempts" yaml:"launch_max_attempts" toml:"launch_max_attempts"`
	LaunchWaitMs      int `json:"launch_wait_ms" yaml:"launch_wait_ms" toml:"launch_wait_ms"`
	StartTimeoutMs    int `json:"start_timeout_ms" yaml:"start_timeout_ms" toml:"start_timeout_ms"`
	LoadTimeoutMs     int `json:"load_timeout_ms" yaml:"load_timeout_ms" toml:"load_timeout_ms"`
	ExportTimeoutMs   int `json:"export_timeout_ms" yaml:"export_timeout_ms" toml:"export_timeout_ms"`
	MaxWaitMs         int `json:"max_wait_ms" yaml:"max_wait_ms" toml:"max_wait_ms"`

	// HTTP layer.
	RenderTimeoutSec int64 `json:"render_timeout_sec" yaml:"render_timeout_sec" toml:"render_timeout_sec"`
	MaxBodyBytes     int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORS             CORS  `json:"cors" yaml:"cors" toml:"cors"`
}

// CORS configures cross-origin access to the HTTP API.
type CORS struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
	Methods []string `json:"methods" yaml:"methods" toml:"methods"`
	Headers []string `json:"headers" yaml:"headers" toml:"headers"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects values that cannot be meant.
func (c Config) Validate() error {
	for name, v := range map[string]int{
		"max_sessions":        c.MaxSessions,
		"launch_max_attempts": c.LaunchMaxAttempts,
		"launch_wait_ms":      c.LaunchWaitMs,
		"start_timeout_ms":    c.StartTimeoutMs,
		"load_timeout_ms":     c.LoadTimeoutMs,
		"export_timeout_ms":   c.ExportTimeoutMs,
		"max_wait_ms":         c.MaxWaitMs,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if c.RenderTimeoutSec < 0 || c.MaxBodyBytes < 0 {
		return fmt.Errorf("render_timeout_sec and max_body_bytes must not be negative")
	}
	return nil
}
