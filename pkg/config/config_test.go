package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "searchseed.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.Run.IncludeAudit)
}

func TestValidateFailsFast(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero global target", func(c *Config) { c.Run.GlobalTarget = 0 }},
		{"no categories", func(c *Config) { c.Categories = nil }},
		{"zero workers", func(c *Config) { c.Pipeline.Workers = 0 }},
		{"zero max attempts", func(c *Config) { c.Pipeline.MaxAttempts = 0 }},
		{"unknown extract mode", func(c *Config) { c.Extract.Mode = "oracle" }},
		{"empty category name", func(c *Config) { c.Categories[0].Name = "" }},
		{"duplicate category", func(c *Config) { c.Categories[1].Name = c.Categories[0].Name }},
		{"negative soft target", func(c *Config) { c.Categories[0].SoftTarget = -1 }},
		{"inverted word range", func(c *Config) { c.Categories[0].MinWords = 3; c.Categories[0].MaxWords = 2 }},
		{"common category not configured", func(c *Config) { c.Run.CommonCategory = "shared-terms" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
[run]
global_target = 150
common_category = "common"

[pipeline]
workers = 8
requests_per_second = 0.5
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 150, cfg.Run.GlobalTarget)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, 0.5, cfg.Pipeline.RequestsPerSecond)
	// Untouched sections keep their defaults.
	assert.Equal(t, 3, cfg.Pipeline.MaxAttempts)
	assert.Equal(t, "rules", cfg.Extract.Mode)
	assert.Len(t, cfg.Categories, 5)
}

func TestLoadConfigPartialRecovery(t *testing.T) {
	// workers has the wrong type, which fails the strict decode. The
	// recovery path keeps the valid run section and defaults the rest.
	path := writeTempConfig(t, `
[run]
global_target = 42
include_audit = false

[pipeline]
workers = "many"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Run.GlobalTarget)
	assert.False(t, cfg.Run.IncludeAudit)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
}

func TestLoadConfigWithPriority(t *testing.T) {
	cfg, loadedFrom, err := LoadConfigWithPriority("")
	require.NoError(t, err)
	assert.Empty(t, loadedFrom)
	assert.Equal(t, DefaultConfig().Run.GlobalTarget, cfg.Run.GlobalTarget)

	cfg, loadedFrom, err = LoadConfigWithPriority(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Empty(t, loadedFrom, "missing file falls back to builtin defaults")
	require.NotNil(t, cfg)

	path := writeTempConfig(t, "[run]\nglobal_target = 77\n")
	cfg, loadedFrom, err = LoadConfigWithPriority(path)
	require.NoError(t, err)
	assert.Equal(t, path, loadedFrom)
	assert.Equal(t, 77, cfg.Run.GlobalTarget)
}

func TestCategoryForFolder(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		folder string
		want   string
	}{
		{"api-reference", "reference"},
		{"APIReference", "reference"},
		{"guides", "guide"},
		{"GUIDES", "guide"},
		{"solution", "solution"},
		{"solutions", "solution"},
		{"api-overview", "overview"},
		{"common", "common"},
		{"shared", "common"},
		{"random-folder", "overview"},
	}
	for _, tt := range tests {
		t.Run(tt.folder, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.CategoryForFolder(tt.folder))
		})
	}
}

func TestCategoryLookup(t *testing.T) {
	cfg := DefaultConfig()

	cat, ok := cfg.Category("guide")
	require.True(t, ok)
	assert.Equal(t, 90, cat.SoftTarget)

	_, ok = cfg.Category("nonexistent")
	assert.False(t, ok)
}
