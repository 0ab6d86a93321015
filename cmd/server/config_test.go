package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	f, err := parseFlags([]string{"-c", "/tmp/chatwidget.yaml", "-p", "9090", "--backend", "http://rag:8000"})
	require.NoError(t, err)

	assert.Equal(t, flags{configPath: "/tmp/chatwidget.yaml", port: "9090", backendURL: "http://rag:8000"}, f)

	_, err = parseFlags([]string{"--unknown"})
	assert.Error(t, err)
}

func TestLoadConfigFlagsWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7000\"\nbackend:\n  baseURL: http://file:8000\n"), 0o600))

	cfg, err := loadConfig(flags{configPath: path})
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "http://file:8000", cfg.Backend.BaseURL)

	cfg, err = loadConfig(flags{configPath: path, port: "9090", backendURL: "http://flag:8000"})
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "http://flag:8000", cfg.Backend.BaseURL)

	_, err = loadConfig(flags{configPath: path, backendURL: "relative/path"})
	assert.Error(t, err)
}
