package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aicourse/chatwidget/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json")

	logger.Debug("hidden")
	logger.Info("shown", slog.String("module", "widget"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "widget", entry["module"])
}

func TestNewWithWriterText(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, slog.LevelDebug, "text").Debug("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widget.log")

	logger, closeLog, err := New(config.LogConfig{Level: "warn", Format: "text", Output: "file", FilePath: path})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept")
	require.NoError(t, closeLog())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "kept")
	assert.NotContains(t, string(b), "dropped")
}

func TestNewInvalid(t *testing.T) {
	_, _, err := New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)

	_, _, err = New(config.LogConfig{Level: "info", Output: "printer"})
	assert.Error(t, err)

	_, _, err = New(config.LogConfig{Level: "info", Output: "file"})
	assert.Error(t, err)
}
