package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_DisabledDiscards(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Enabled: false, Stderr: &buf}))
	Info("hello")
	assert.Empty(t, buf.String())
}

func TestInit_Stderr(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Level: slog.LevelDebug, Stderr: &buf}))
	t.Cleanup(func() { _ = Init(Options{}) })

	Debug("split block", "size", 64)
	assert.Contains(t, buf.String(), "split block")
	assert.Contains(t, buf.String(), "size=64")
}

func TestInit_LogDirWritesJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(Options{Enabled: true, LogDir: dir}))

	Warn("double free", "addr", "0x1000")
	Debug("filtered out at info level")
	require.NoError(t, Close())

	name := logPrefix + time.Now().Format("2006-01-02") + logSuffix
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"double free"`)
	assert.NotContains(t, string(data), "filtered out")
}

func TestCleanOldLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

	files := map[string]bool{ // name -> should survive
		"arenactl-2026-01-01.log": false,
		"arenactl-2026-03-30.log": true,
		"arenactl-garbage.log":    true,
		"other-2020-01-01.log":    true,
	}
	for name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	cleanOldLogs(dir, now)

	for name, survive := range files {
		_, err := os.Stat(filepath.Join(dir, name))
		if survive {
			assert.NoError(t, err, name)
		} else {
			assert.True(t, os.IsNotExist(err), name)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
}
