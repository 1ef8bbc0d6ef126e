package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentflare-ai/pydocmd/internal/docstring"
)

func flagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("pydocmd", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), flagSet(t))
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want.OutputDir, cfg.OutputDir)
	assert.Equal(t, docstring.Auto, cfg.Style)
	assert.Equal(t, "index.md", cfg.InitFileName)
	assert.Equal(t, []string{"."}, cfg.SearchPath)
	assert.Equal(t, want.Jobs, cfg.Jobs)
	assert.False(t, cfg.Overwrite)
	assert.Empty(t, cfg.File)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pyproject.toml"), `
[project]
name = "shapes"

[tool.pydocmd]
output_dir = "from-pyproject"
docstring_style = "numpy"
sort_members = true
jobs = 1
`)
	writeFile(t, filepath.Join(dir, ".pydocmd.yaml"), `
output-dir: from-file
jobs: 2
anchor-extend: true
`)
	t.Setenv("PYDOCMD_JOBS", "3")

	cfg, err := Load(dir, flagSet(t, "--output-dir", "from-flag"))
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.OutputDir)
	assert.Equal(t, docstring.NumPy, cfg.Style)
	assert.True(t, cfg.SortMembers)
	assert.True(t, cfg.AnchorExtend)
	assert.Equal(t, 3, cfg.Jobs)
	assert.Equal(t, filepath.Join(dir, ".pydocmd.yaml"), cfg.File)
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "docs.toml")
	writeFile(t, file, `
overwrite = true
search-path = ["src", "lib"]
init-file-name = "README.md"
`)

	cfg, err := Load(t.TempDir(), flagSet(t, "--config", file))
	require.NoError(t, err)
	assert.True(t, cfg.Overwrite)
	assert.Equal(t, []string{"src", "lib"}, cfg.SearchPath)
	assert.Equal(t, "README.md", cfg.InitFileName)

	_, err = Load(dir, flagSet(t, "--config", filepath.Join(dir, "missing.yaml")))
	assert.Error(t, err)
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := Load(t.TempDir(), flagSet(t, "-p", "src", "-p", "vendor", "--ignore-data", "--docstring-style", "Google"))
	require.NoError(t, err)
	assert.Equal(t, []string{"src", "vendor"}, cfg.SearchPath)
	assert.True(t, cfg.IgnoreData)
	assert.Equal(t, docstring.Google, cfg.Style)
}

func TestLoad_NilFlags(t *testing.T) {
	cfg, err := Load(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, "doc", cfg.OutputDir)
}

func TestLoad_InvalidStyle(t *testing.T) {
	_, err := Load(t.TempDir(), flagSet(t, "--docstring-style", "javadoc"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidStyle))
	assert.Contains(t, err.Error(), "docstring-style")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero jobs", func(c *Config) { c.Jobs = 0 }, "jobs"},
		{"negative jobs", func(c *Config) { c.Jobs = -2 }, "jobs"},
		{"empty output", func(c *Config) { c.OutputDir = "" }, "output-dir"},
		{"nested init file", func(c *Config) { c.InitFileName = "a/index.md" }, "init-file-name"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "log-format"},
		{"style", func(c *Config) { c.DocstringStyle = "nope" }, "docstring-style"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}
