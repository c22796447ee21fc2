package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/quill/internal/core/history"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, history.DefaultRetentionMax, cfg.History.RetentionMax)
	assert.Equal(t, history.DefaultPreloadCap, cfg.History.PreloadCap)
	assert.Equal(t, BackendAuto, cfg.History.Backend)
	assert.Equal(t, 4000, cfg.Composer.CharLimit)
	assert.Equal(t, filepath.Join(dataDir, "history.db"), cfg.HistoryFile())
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
history:
  retention_max: 25
  preload_cap: 40
  backend: memory
composer:
  placeholder: "Say it"
`)

	cfg, err := Load(path, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, history.Options{RetentionMax: 25, PreloadCap: 40}, cfg.HistoryOptions())
	assert.Equal(t, BackendMemory, cfg.History.Backend)
	assert.Equal(t, "Say it", cfg.Composer.Placeholder)
	assert.Equal(t, 4000, cfg.Composer.CharLimit, "unset values take defaults")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative retention", "history:\n  retention_max: -1\n"},
		{"negative preload", "history:\n  preload_cap: -3\n"},
		{"unknown backend", "history:\n  backend: cloud\n"},
		{"malformed yaml", "history: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body), t.TempDir())
			assert.Error(t, err)
		})
	}
}

func TestLoad_EmptyDataDir(t *testing.T) {
	_, err := Load("", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data directory")
}
