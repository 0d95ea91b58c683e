package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// FileName is the optional configuration file looked up in the working directory.
const FileName = ".postpack.yaml"

type LoggingCfg struct {
	Level        string `yaml:"level" json:"level"`                 // logrus level name (default: warn)
	Format       string `yaml:"format" json:"format"`               // text or json (default: text)
	File         string `yaml:"file" json:"file"`                   // Optional log file, appended to
	RotationDays int    `yaml:"rotation_days" json:"rotation_days"` // Days to keep logs before rotation
}

type MetricsCfg struct {
	Textfile string `yaml:"textfile" json:"textfile"` // node_exporter textfile collector target
}

type Config struct {
	Logging      LoggingCfg `yaml:"logging" json:"logging"`
	Metrics      MetricsCfg `yaml:"metrics" json:"metrics"`
	DatabasePath string     `yaml:"database_path" json:"database_path"` // SQLite deletion history, empty disables
}

var (
	errInvalidLevel     = errors.New("logging.level is not a valid level")
	errInvalidFormat    = errors.New("logging.format must be text or json")
	errNegativeRotation = errors.New("logging.rotation_days cannot be negative")
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	// Defaults never fail validation.
	_ = cfg.validateAndDefault()
	return cfg
}

// Load reads path. A missing file is not an error and yields Default().
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		// An empty file decodes to io.EOF; treat it as all defaults.
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) validateAndDefault() error {
	if c.Logging.Level == "" {
		c.Logging.Level = "warn"
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %q", errInvalidLevel, c.Logging.Level)
	}

	switch c.Logging.Format {
	case "":
		c.Logging.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", errInvalidFormat, c.Logging.Format)
	}

	if c.Logging.RotationDays < 0 {
		return errNegativeRotation
	}
	if c.Logging.RotationDays == 0 {
		c.Logging.RotationDays = 30 // Default: keep logs for 30 days
	}

	c.Logging.File = cleanOptional(c.Logging.File)
	c.Metrics.Textfile = cleanOptional(c.Metrics.Textfile)
	c.DatabasePath = cleanOptional(c.DatabasePath)

	return nil
}

func cleanOptional(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}

// sqliteSidecars are the files SQLite keeps next to a WAL-mode database
var sqliteSidecars = []string{"-wal", "-shm", "-journal"}

// ArtifactPaths lists the files this configuration writes to, so they can be
// shielded from deletion. The history database brings its SQLite sidecars.
func (c *Config) ArtifactPaths() []string {
	var paths []string
	for _, p := range []string{c.Logging.File, c.Metrics.Textfile} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	if c.DatabasePath != "" {
		paths = append(paths, c.DatabasePath)
		for _, suffix := range sqliteSidecars {
			paths = append(paths, c.DatabasePath+suffix)
		}
	}
	return paths
}
