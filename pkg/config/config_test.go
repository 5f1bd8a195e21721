package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/schemini/refsync/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// 🧪 TestDefault tests the built-in configuration
func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, ".backup", cfg.Backup.Suffix)
	assert.Equal(t, 50, cfg.Index.ProgressBatch)
	assert.Equal(t, "logs", cfg.Logs.Dir)
	assert.Empty(t, cfg.Layout.CodeSubfolder)
	require.NoError(t, config.Validate(testContext(t), cfg))
}

// 🧪 TestLoadYAML tests loading a YAML config
func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "refsync.yaml", `
backup:
  suffix: ".bak"
layout:
  code_subfolder: "{code}"
index:
  ignore_patterns:
    - "~$*"
    - "*.tmp"
  progress_batch: 100
logs:
  dir: "reports"
`)

	cfg, err := config.Load(testContext(t), path)
	require.NoError(t, err)

	assert.Equal(t, ".bak", cfg.Backup.Suffix)
	assert.Equal(t, "{code}", cfg.Layout.CodeSubfolder)
	assert.Equal(t, []string{"~$*", "*.tmp"}, cfg.Index.IgnorePatterns)
	assert.Equal(t, 100, cfg.Index.ProgressBatch)
	assert.Equal(t, "reports", cfg.Logs.Dir)
	assert.Equal(t, path, cfg.Location())
}

// 🧪 TestLoadJSON tests loading a JSON config
func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "refsync.json", `{
  "backup": {"suffix": ".prev"},
  "layout": {"code_subfolder": "MIX_{code}"}
}`)

	cfg, err := config.Load(testContext(t), path)
	require.NoError(t, err)

	assert.Equal(t, ".prev", cfg.Backup.Suffix)
	assert.Equal(t, "MIX_A100", cfg.SubfolderFor("A100"))
	// Unset sections fall back to defaults
	assert.Equal(t, 50, cfg.Index.ProgressBatch)
	assert.Equal(t, "logs", cfg.Logs.Dir)
}

// 🧪 TestLoadHCL tests loading an HCL config
func TestLoadHCL(t *testing.T) {
	path := writeConfig(t, "refsync.hcl", `
backup {
  suffix = ".bak"
}

index {
  progress_batch = 25
}
`)

	cfg, err := config.Load(testContext(t), path)
	require.NoError(t, err)

	assert.Equal(t, ".bak", cfg.Backup.Suffix)
	assert.Equal(t, 25, cfg.Index.ProgressBatch)
}

// 🧪 TestLoadErrors tests rejection of malformed configs
func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name          string
		fileName      string
		content       string
		expectedError string
	}{
		{
			name:          "unknown_extension",
			fileName:      "refsync.toml",
			content:       "",
			expectedError: "unsupported file extension",
		},
		{
			name:          "unknown_yaml_field",
			fileName:      "refsync.yaml",
			content:       "nonsense: true\n",
			expectedError: "parsing YAML",
		},
		{
			name:          "suffix_without_dot",
			fileName:      "refsync.yaml",
			content:       "backup:\n  suffix: \"bak\"\n",
			expectedError: "must start with a dot",
		},
		{
			name:          "subfolder_with_path_separator",
			fileName:      "refsync.yaml",
			content:       "layout:\n  code_subfolder: \"a/{code}\"\n",
			expectedError: "single path element",
		},
		{
			name:          "negative_progress_batch",
			fileName:      "refsync.yaml",
			content:       "index:\n  progress_batch: -1\n",
			expectedError: "must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.fileName, tt.content)
			_, err := config.Load(testContext(t), path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

// 🧪 TestLoadMissingFile tests the read error path
func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(testContext(t), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

// 🧪 TestSubfolderFor tests layout expansion
func TestSubfolderFor(t *testing.T) {
	cfg := config.Default()
	assert.Empty(t, cfg.SubfolderFor("A100"))

	cfg.Layout.CodeSubfolder = "{code}"
	assert.Equal(t, "A100", cfg.SubfolderFor("A100"))
}
