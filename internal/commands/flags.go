package commands

import (
	"os"
	"path/filepath"

	"github.com/hay-kot/quill/internal/core/config"
	"github.com/hay-kot/quill/internal/core/history"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string
	Memory     bool

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// Connector owns the lazily opened history backend
	Connector *history.Connector

	// Store is the low-level history store over Connector
	Store *history.Store

	// Repository is the cached history layer used by the composer
	Repository *history.Repository
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "quill", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "quill")
}
