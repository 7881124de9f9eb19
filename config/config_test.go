package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prettyspec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, FormatNative, cfg.Format)
	assert.Equal(t, UIInline, cfg.UI)
	assert.Equal(t, 3, cfg.SlowestCount)
	assert.Equal(t, 10, cfg.MessageLines)
	assert.Equal(t, 5, cfg.BacktraceLines)
	assert.Equal(t, 50, cfg.DescriptionWidth)
	assert.Equal(t, 30, cfg.LocationWidth)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
format: gotest
ui: tui
no_color: true
slowest_count: 5
show_backtrace: true
palette:
  failure: "#FF0000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, FormatGoTest, cfg.Format)
	assert.Equal(t, UITUI, cfg.UI)
	assert.True(t, cfg.NoColor)
	assert.True(t, cfg.ShowBacktrace)
	assert.Equal(t, 5, cfg.SlowestCount)
	assert.Equal(t, "#FF0000", cfg.Palette.Failure)

	// Untouched keys keep their defaults.
	assert.Equal(t, 50, cfg.ProgressWidth)
	assert.Equal(t, 10, cfg.MessageLines)
	assert.Empty(t, cfg.Palette.Success)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestLoadWithoutDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadDefaultFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("ui: auto\n"), 0o644))
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, UIAuto, cfg.UI)
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(writeConfig(t, "slowest_count: [nope\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad format", func(c *Config) { c.Format = "junit" }, "invalid format"},
		{"bad ui", func(c *Config) { c.UI = "fancy" }, "invalid ui mode"},
		{"zero slowest", func(c *Config) { c.SlowestCount = 0 }, "slowest_count"},
		{"negative width", func(c *Config) { c.ProgressWidth = -1 }, "progress_width"},
		{"zero message lines", func(c *Config) { c.MessageLines = 0 }, "message_lines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, "ui: sideways\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
