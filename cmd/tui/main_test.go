package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigKeepsLogsOffTheTerminal(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name       string
		args       []string
		wantOutput string
	}{
		{name: "Default discards", args: []string{"-c", filepath.Join(dir, "missing.yaml")}, wantOutput: "discard"},
		{
			name:       "Log file flag",
			args:       []string{"-c", filepath.Join(dir, "missing.yaml"), "--log-file", filepath.Join(dir, "tui.log")},
			wantOutput: "file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := parseFlags(tt.args)
			require.NoError(t, err)

			cfg, err := loadConfig(f)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutput, cfg.Log.Output)
		})
	}
}

func TestLoadConfigFlagsOverride(t *testing.T) {
	f, err := parseFlags([]string{
		"-c", filepath.Join(t.TempDir(), "missing.yaml"),
		"--backend", "http://rag.internal:9000",
		"--no-sources",
	})
	require.NoError(t, err)

	cfg, err := loadConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "http://rag.internal:9000", cfg.Backend.BaseURL)
	assert.False(t, cfg.ShowSources)
}

func TestLoadConfigRejectsBadBackend(t *testing.T) {
	f, err := parseFlags([]string{"-c", filepath.Join(t.TempDir(), "missing.yaml"), "--backend", "not a url"})
	require.NoError(t, err)

	_, err = loadConfig(f)
	assert.Error(t, err)
}
