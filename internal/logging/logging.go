package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"postpack/internal/config"
)

// TimestampFormat is the timestamp layout used by both formatters.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Logger wraps a logrus logger together with the log file it may append to
type Logger struct {
	*logrus.Logger
	file *os.File
}

// New creates a logger writing to stderr with default settings
func New() *Logger {
	return NewWithConfig(nil, os.Stderr)
}

// NewWithConfig creates a logger writing to out and, when configured, to a
// rotated log file. Stdout is reserved for the run summary, so callers pass stderr.
func NewWithConfig(cfg *config.Config, out io.Writer) *Logger {
	if cfg == nil {
		cfg = config.Default()
	}

	l := &Logger{Logger: logrus.New()}
	l.Out = out
	l.Formatter = formatter(cfg.Logging.Format)

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.WarnLevel
	}
	l.SetLevel(level)

	if cfg.Logging.File == "" {
		return l
	}

	filePath := cfg.Logging.File
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			l.WithError(err).WithField("dir", dir).Warn("failed to ensure log directory")
			return l
		}
	}

	rotateLogsIfNeeded(l.Logger, filePath, cfg.Logging.RotationDays)

	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		l.WithError(err).WithField("file", filePath).Warn("failed to open log file")
		return l
	}

	l.file = f
	l.Out = io.MultiWriter(out, f)
	return l
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func formatter(format string) logrus.Formatter {
	if format == "json" {
		return &logrus.JSONFormatter{TimestampFormat: TimestampFormat}
	}
	return &logrus.TextFormatter{TimestampFormat: TimestampFormat, FullTimestamp: true}
}

// rotateLogsIfNeeded rotates the log file once it is older than rotationDays
func rotateLogsIfNeeded(logger logrus.FieldLogger, logPath string, rotationDays int) {
	if rotationDays <= 0 {
		return
	}

	info, err := os.Stat(logPath)
	if err != nil {
		// Log file doesn't exist yet, nothing to rotate
		return
	}

	cutoffTime := time.Now().AddDate(0, 0, -rotationDays)
	if info.ModTime().Before(cutoffTime) {
		timestamp := info.ModTime().Format("20060102-150405")
		rotatedPath := logPath + "." + timestamp

		if err := os.Rename(logPath, rotatedPath); err != nil {
			logger.WithError(err).Warn("failed to rotate log file")
			return
		}

		cleanupOldLogs(logger, logPath, rotationDays)
	}
}

// cleanupOldLogs removes rotated log files older than rotationDays
func cleanupOldLogs(logger logrus.FieldLogger, logPath string, rotationDays int) {
	logDir := filepath.Dir(logPath)
	baseName := filepath.Base(logPath)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	cutoffTime := time.Now().AddDate(0, 0, -rotationDays)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, baseName+".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoffTime) {
			fullPath := filepath.Join(logDir, name)
			if err := os.Remove(fullPath); err != nil {
				logger.WithError(err).WithField("file", fullPath).Warn("failed to remove old log file")
			}
		}
	}
}
