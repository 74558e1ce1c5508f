// Package config loads the process configuration file. This file
// configures how the server runs (listen address, file locations,
// logging); the settings file owned by pkg/settings remains the source
// of truth for the backend URL and the rule list.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the working directory
// when no --config flag is given. A .json sibling is also accepted.
const DefaultFileName = "mockfwd.yaml"

// Config holds process-level configuration.
type Config struct {
	// Listen is the address the HTTP server binds, e.g. ":8000".
	Listen string `yaml:"listen" json:"listen"`

	// SettingsPath locates the persisted settings file.
	SettingsPath string `yaml:"settings" json:"settings"`

	// StaticDir is served under /static/ when non-empty. Requests under
	// /static/ bypass the mock/proxy dispatch logic entirely.
	StaticDir string `yaml:"static_dir" json:"static_dir"`

	// RuleGlobs are extra rule files merged into the startup rule list,
	// resolved relative to the settings file's directory.
	RuleGlobs []string `yaml:"rule_globs" json:"rule_globs"`

	Log LogConfig `yaml:"log" json:"log"`
}

// LogConfig configures the operational logger.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`

	// File enables rotating file output when non-empty.
	File       string `yaml:"file" json:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Listen:       ":8000",
		SettingsPath: "settings.json",
		StaticDir:    "static",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the config file at path. An empty path falls back to
// DefaultFileName (then its .json sibling) in the working directory;
// when neither exists the defaults are returned. Values absent from the
// file keep their defaults.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFileName
		if _, err := os.Stat(path); os.IsNotExist(err) {
			alt := "mockfwd.json"
			if _, err := os.Stat(alt); err == nil {
				path = alt
			} else {
				return Default(), nil
			}
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if cfg.Listen == "" {
		cfg.Listen = ":8000"
	}
	if cfg.SettingsPath == "" {
		cfg.SettingsPath = "settings.json"
	}
	return cfg, nil
}
