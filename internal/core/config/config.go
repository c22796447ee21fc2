// Package config handles configuration loading and validation for quill.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hay-kot/quill/internal/core/history"
)

// History backend names.
const (
	BackendAuto   = "auto"   // SQLite, falling back to memory if it cannot be opened
	BackendMemory = "memory" // memory only, nothing persisted
)

// Config holds the application configuration.
type Config struct {
	History  HistoryConfig  `yaml:"history"`
	Composer ComposerConfig `yaml:"composer"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// HistoryConfig bounds the input history.
type HistoryConfig struct {
	// RetentionMax is the number of records kept on disk.
	RetentionMax int `yaml:"retention_max"`
	// PreloadCap is the number of entries loaded for navigation.
	PreloadCap int    `yaml:"preload_cap"`
	Backend    string `yaml:"backend"`
}

// ComposerConfig configures the input widget.
type ComposerConfig struct {
	Placeholder string `yaml:"placeholder"`
	CharLimit   int    `yaml:"char_limit"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		History: HistoryConfig{
			RetentionMax: history.DefaultRetentionMax,
			PreloadCap:   history.DefaultPreloadCap,
			Backend:      BackendAuto,
		},
		Composer: ComposerConfig{
			Placeholder: "Write something...",
			CharLimit:   4000,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.DataDir = dataDir
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.History.RetentionMax == 0 {
		c.History.RetentionMax = defaults.History.RetentionMax
	}
	if c.History.PreloadCap == 0 {
		c.History.PreloadCap = defaults.History.PreloadCap
	}
	if c.History.Backend == "" {
		c.History.Backend = defaults.History.Backend
	}
	if c.Composer.Placeholder == "" {
		c.Composer.Placeholder = defaults.Composer.Placeholder
	}
	if c.Composer.CharLimit == 0 {
		c.Composer.CharLimit = defaults.Composer.CharLimit
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.History.RetentionMax < 1 {
		return fmt.Errorf("history.retention_max must be at least 1")
	}

	if c.History.PreloadCap < 1 {
		return fmt.Errorf("history.preload_cap must be at least 1")
	}

	if !isValidBackend(c.History.Backend) {
		return fmt.Errorf("history.backend has invalid value %q", c.History.Backend)
	}

	if c.Composer.CharLimit < 0 {
		return fmt.Errorf("composer.char_limit cannot be negative")
	}

	return nil
}

// HistoryOptions returns the history bounds.
func (c *Config) HistoryOptions() history.Options {
	return history.Options{
		RetentionMax: c.History.RetentionMax,
		PreloadCap:   c.History.PreloadCap,
	}
}

// HistoryFile returns the path to the history database.
func (c *Config) HistoryFile() string {
	return filepath.Join(c.DataDir, "history.db")
}

func isValidBackend(name string) bool {
	switch name {
	case BackendAuto, BackendMemory:
		return true
	default:
		return false
	}
}
