package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/delve/config"
)

func restoreDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestSetup_Text(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer

	logger := Setup(&config.Config{LogLevel: slog.LevelInfo, LogFormat: "text"}, &buf)
	logger.Debug("hidden")
	logger.Info("shown", "turn", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "turn=3")
	assert.Same(t, logger, slog.Default())
}

func TestSetup_JSON(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer

	logger := Setup(&config.Config{LogLevel: slog.LevelDebug, LogFormat: "json"}, &buf)
	WithPlayer(logger, "Ada").Debug("step", "verb", "look")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "step", entry["msg"])
	assert.Equal(t, "Ada", entry["player"])
	assert.Equal(t, "look", entry["verb"])
	assert.Equal(t, "DEBUG", entry["level"])
}

func TestDestination(t *testing.T) {
	w, closeFn, err := Destination(&config.Config{}, true)
	require.NoError(t, err)
	assert.Equal(t, os.Stderr, w)
	assert.NoError(t, closeFn())

	w, closeFn, err = Destination(&config.Config{}, false)
	require.NoError(t, err)
	assert.Equal(t, io.Discard, w)
	assert.NoError(t, closeFn())
}

func TestDestination_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "delve.log")

	w, closeFn, err := Destination(&config.Config{LogFile: path}, false)
	require.NoError(t, err)
	_, err = io.WriteString(w, "line\n")
	require.NoError(t, err)
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line\n", string(data))
}
