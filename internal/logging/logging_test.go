package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postpack/internal/config"
)

func TestDefaultLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithConfig(nil, &buf)
	defer l.Close()

	assert.Equal(t, logrus.WarnLevel, l.GetLevel())

	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestJSONFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "debug"

	var buf bytes.Buffer
	l := NewWithConfig(cfg, &buf)
	defer l.Close()

	l.WithField("path", "dist/app.js").Debug("deleted entry")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "deleted entry", line["msg"])
	assert.Equal(t, "dist/app.js", line["path"])
	assert.Equal(t, "debug", line["level"])
}

func TestLogFileReceivesOutput(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "postpack.log")

	var buf bytes.Buffer
	l := NewWithConfig(cfg, &buf)
	l.Warn("entry not removable")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(cfg.Logging.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "entry not removable")
	assert.Contains(t, buf.String(), "entry not removable")
}

func TestRotateOldLogFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "postpack.log")
	require.NoError(t, os.WriteFile(logPath, []byte("old\n"), 0o644))
	old := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(logPath, old, old))

	rotateLogsIfNeeded(logrus.New(), logPath, 5)

	_, err := os.Stat(logPath)
	assert.True(t, os.IsNotExist(err), "current log should have been rotated away")

	// The rotated copy keeps the old mtime, so it is removed in the same pass.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRotateKeepsFreshLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "postpack.log")
	require.NoError(t, os.WriteFile(logPath, []byte("fresh\n"), 0o644))

	rotateLogsIfNeeded(logrus.New(), logPath, 5)

	_, err := os.Stat(logPath)
	assert.NoError(t, err)
}
