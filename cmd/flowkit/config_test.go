package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/flowkit/pkg/schema"
)

func TestLoadConfigDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, filepath.Join(home, ".flowkit", "flowkit.db"), cfg.DBPath)
	assert.Equal(t, "ascii", cfg.Render.Format)
	assert.Empty(t, cfg.Rules)
}

func TestLoadConfigSettingsFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".flowkit")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte(`
log_level: warn
render:
  format: mermaid
rules:
  - name: labelled
    expression: 'label != ""'
    severity: error
    message: node needs a label
`), 0o644))

	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "mermaid", cfg.Render.Format)
	require.Len(t, cfg.Rules, 1)
	assert.Equal(t, "labelled", cfg.Rules[0].Name)
	assert.Equal(t, schema.SeverityError, cfg.Rules[0].Severity)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "flowkit.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"log_level": "warn", "render": {"format": "mermaid"}}`), 0o644))

	t.Setenv("FLOWKIT_LOG_LEVEL", "debug")
	t.Setenv("FLOWKIT_RENDER_FORMAT", "svg")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "svg", cfg.Render.Format)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"log_level":`), 0o644))

	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestDBURI(t *testing.T) {
	assert.Equal(t, "file:/tmp/x.db", dbURI("/tmp/x.db"))
	assert.Equal(t, "file:/tmp/x.db", dbURI("file:/tmp/x.db"))
	assert.Equal(t, "libsql://db.example.com", dbURI("libsql://db.example.com"))
}
