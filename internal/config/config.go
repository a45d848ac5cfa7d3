// Package config loads the operator configuration from a YAML file and
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/beeresearch/atomconnect-go/pkg/connection"
	"github.com/beeresearch/atomconnect-go/pkg/discovery"
	"github.com/beeresearch/atomconnect-go/pkg/service"
)

// AppName names the per-user directories.
const AppName = "AtomConnect"

// File names inside the directories.
const (
	FileName    = "config.yaml"
	LogFileName = "last-run.log"
)

// ErrInvalid marks a configuration that failed validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the operator configuration.
type Config struct {
	// DataDir holds the snapshot, session log, device list and history.
	DataDir string `yaml:"data_dir"`

	// LogDir holds last-run.log.
	LogDir string `yaml:"log_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Scan    ScanConfig    `yaml:"scan"`
	Connect ConnectConfig `yaml:"connect"`

	// History enables the SQLite session archive.
	History bool `yaml:"history"`

	// MetricsAddr serves /metrics when non-empty, e.g. "127.0.0.1:9464".
	MetricsAddr string `yaml:"metrics_addr"`

	// ProtocolLog is a CBOR capture file. Empty disables capture.
	ProtocolLog string `yaml:"protocol_log"`
}

// ScanConfig configures discovery.
type ScanConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	NamePrefix string        `yaml:"name_prefix"`
	MinRSSI    int           `yaml:"min_rssi"`
}

// ConnectConfig configures the connect loop.
type ConnectConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	Timeout      time.Duration `yaml:"timeout"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Default returns the defaults for the current platform and user.
func Default() Config {
	home, _ := os.UserHomeDir()
	return DefaultFor(runtime.GOOS, home, os.Getenv("APPDATA"))
}

// DefaultFor returns the defaults for goos with the given home and
// %APPDATA% directories.
func DefaultFor(goos, home, appData string) Config {
	retry := connection.DefaultRetryPolicy()
	scan := discovery.DefaultParams()
	return Config{
		DataDir:  DataDirFor(goos, home, appData),
		LogDir:   LogDirFor(goos, home, appData),
		LogLevel: "info",
		Scan: ScanConfig{
			Timeout:    scan.Timeout,
			NamePrefix: scan.NamePrefix,
			MinRSSI:    scan.MinRSSI,
		},
		Connect: ConnectConfig{
			MaxAttempts:  retry.MaxAttempts,
			Timeout:      retry.ConnectTimeout,
			RetryDelay:   retry.RetryDelay,
			PollInterval: retry.PollInterval,
		},
		History: true,
	}
}

// DataDirFor returns the data directory for goos.
func DataDirFor(goos, home, appData string) string {
	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", AppName)
	case "windows":
		return filepath.Join(appData, AppName)
	default:
		return filepath.Join(home, "."+strings.ToLower(AppName))
	}
}

// LogDirFor returns the log directory for goos.
func LogDirFor(goos, home, appData string) string {
	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Logs", AppName)
	case "windows":
		return filepath.Join(appData, AppName, "logs")
	default:
		return filepath.Join(home, "."+strings.ToLower(AppName), "logs")
	}
}

// Load reads path over the defaults. Fields absent from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := cfg.merge(path); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) merge(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks ranges and the log level.
func (c Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if c.Scan.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("scan.timeout must be positive, got %s", c.Scan.Timeout))
	}
	if c.Connect.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("connect.max_attempts must be positive, got %d", c.Connect.MaxAttempts))
	}
	if c.Connect.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("connect.timeout must be positive, got %s", c.Connect.Timeout))
	}
	if c.Connect.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("connect.retry_delay must not be negative, got %s", c.Connect.RetryDelay))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// LogPath returns the operational log file.
func (c Config) LogPath() string {
	return filepath.Join(c.LogDir, LogFileName)
}

// Level returns the parsed log level, info if invalid.
func (c Config) Level() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ScanParams returns the discovery parameters.
func (c Config) ScanParams() discovery.Params {
	return discovery.Params{
		Timeout:    c.Scan.Timeout,
		NamePrefix: c.Scan.NamePrefix,
		MinRSSI:    c.Scan.MinRSSI,
	}
}

// RetryPolicy returns the connect policy.
func (c Config) RetryPolicy() connection.RetryPolicy {
	return connection.RetryPolicy{
		MaxAttempts:    c.Connect.MaxAttempts,
		ConnectTimeout: c.Connect.Timeout,
		RetryDelay:     c.Connect.RetryDelay,
		PollInterval:   c.Connect.PollInterval,
	}
}

// MonitorConfig returns the service configuration. Metrics and loggers are
// attached by the caller.
func (c Config) MonitorConfig() service.Config {
	return service.Config{
		DataDir:       c.DataDir,
		Scan:          c.ScanParams(),
		Retry:         c.RetryPolicy(),
		EnableHistory: c.History,
	}
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q (use: debug, info, warn, error)", s)
	}
	return level, nil
}
