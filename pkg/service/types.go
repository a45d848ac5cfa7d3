package service

import (
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/beeresearch/atomconnect-go/pkg/connection"
	"github.com/beeresearch/atomconnect-go/pkg/discovery"
	"github.com/beeresearch/atomconnect-go/pkg/log"
	"github.com/beeresearch/atomconnect-go/pkg/persistence"
)

// Service errors.
var (
	ErrClosed          = errors.New("monitor closed")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrNoSuchDevice    = errors.New("no such device")
	ErrHistoryDisabled = errors.New("history disabled")
)

// Config configures a Monitor.
type Config struct {
	// DataDir holds the snapshot, the session log, the device list and the
	// history database.
	DataDir string

	// Scan is used by Scan and StartScan.
	Scan discovery.Params

	// Retry is the connect policy.
	Retry connection.RetryPolicy

	// EnableHistory opens the SQLite history store in DataDir.
	EnableHistory bool

	// Registerer receives the engine collectors. Nil disables metrics.
	Registerer prometheus.Registerer

	// ProtocolLogger receives protocol capture events. Optional.
	ProtocolLogger log.Logger

	// Logger is used for operational logging. Optional.
	Logger *slog.Logger
}

// DefaultConfig returns the operator defaults for dataDir.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:       dataDir,
		Scan:          discovery.DefaultParams(),
		Retry:         connection.DefaultRetryPolicy(),
		EnableHistory: true,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.Join(ErrInvalidConfig, errors.New("data dir is required"))
	}
	if c.Scan.Timeout < 0 {
		return errors.Join(ErrInvalidConfig, errors.New("scan timeout must not be negative"))
	}
	if c.Retry.MaxAttempts < 0 {
		return errors.Join(ErrInvalidConfig, errors.New("max attempts must not be negative"))
	}
	return nil
}

// DeviceListPath returns the device list file in DataDir.
func (c Config) DeviceListPath() string {
	return filepath.Join(c.DataDir, persistence.DeviceListFileName)
}

// HistoryPath returns the history database in DataDir.
func (c Config) HistoryPath() string {
	return filepath.Join(c.DataDir, persistence.HistoryFileName)
}
