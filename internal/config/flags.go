package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
)

// Flags binds command-line overrides. Only flags given on the command line
// replace values from the file.
type Flags struct {
	fs         *flag.FlagSet
	configFile string
	values     Config
}

// NewFlags registers the configuration flags on fs with defaults as the
// displayed default values.
func NewFlags(fs *flag.FlagSet, defaults Config) *Flags {
	f := &Flags{fs: fs, values: defaults}
	v := &f.values

	fs.StringVar(&f.configFile, "config", "", "Configuration file path (default <data-dir>/"+FileName+" if present)")
	fs.StringVar(&v.DataDir, "data-dir", defaults.DataDir, "Directory for snapshot, session log, device list and history")
	fs.StringVar(&v.LogDir, "log-dir", defaults.LogDir, "Directory for "+LogFileName)
	fs.StringVar(&v.LogLevel, "log-level", defaults.LogLevel, "Log level: debug, info, warn, error")
	fs.DurationVar(&v.Scan.Timeout, "scan-timeout", defaults.Scan.Timeout, "Scan window")
	fs.StringVar(&v.Scan.NamePrefix, "name-prefix", defaults.Scan.NamePrefix, "Device name prefix (case-insensitive)")
	fs.IntVar(&v.Scan.MinRSSI, "min-rssi", defaults.Scan.MinRSSI, "Exclusive minimum RSSI in dBm")
	fs.IntVar(&v.Connect.MaxAttempts, "max-attempts", defaults.Connect.MaxAttempts, "Connect attempts per session")
	fs.DurationVar(&v.Connect.Timeout, "connect-timeout", defaults.Connect.Timeout, "Timeout of one connect attempt")
	fs.DurationVar(&v.Connect.RetryDelay, "retry-delay", defaults.Connect.RetryDelay, "Pause between attempts")
	fs.BoolVar(&v.History, "history", defaults.History, "Archive sessions in history.db")
	fs.StringVar(&v.MetricsAddr, "metrics-addr", defaults.MetricsAddr, "Serve Prometheus metrics on this address")
	fs.StringVar(&v.ProtocolLog, "protocol-log", defaults.ProtocolLog, "Write a CBOR protocol capture to this file")

	return f
}

// ConfigFile returns the -config value.
func (f *Flags) ConfigFile() string {
	return f.configFile
}

// Resolve loads the configuration file and applies the flags that were set.
// Without -config, <data-dir>/config.yaml is read if it exists.
func (f *Flags) Resolve(defaults Config) (Config, error) {
	cfg := defaults

	set := make(map[string]bool)
	f.fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	path := f.configFile
	if path == "" {
		dataDir := cfg.DataDir
		if set["data-dir"] {
			dataDir = f.values.DataDir
		}
		candidate := filepath.Join(dataDir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}
	if path != "" {
		if err := cfg.merge(path); err != nil {
			return Config{}, err
		}
	}

	v := f.values
	overrides := map[string]func(){
		"data-dir":        func() { cfg.DataDir = v.DataDir },
		"log-dir":         func() { cfg.LogDir = v.LogDir },
		"log-level":       func() { cfg.LogLevel = v.LogLevel },
		"scan-timeout":    func() { cfg.Scan.Timeout = v.Scan.Timeout },
		"name-prefix":     func() { cfg.Scan.NamePrefix = v.Scan.NamePrefix },
		"min-rssi":        func() { cfg.Scan.MinRSSI = v.Scan.MinRSSI },
		"max-attempts":    func() { cfg.Connect.MaxAttempts = v.Connect.MaxAttempts },
		"connect-timeout": func() { cfg.Connect.Timeout = v.Connect.Timeout },
		"retry-delay":     func() { cfg.Connect.RetryDelay = v.Connect.RetryDelay },
		"history":         func() { cfg.History = v.History },
		"metrics-addr":    func() { cfg.MetricsAddr = v.MetricsAddr },
		"protocol-log":    func() { cfg.ProtocolLog = v.ProtocolLog },
	}
	for name, apply := range overrides {
		if set[name] {
			apply()
		}
	}

	return cfg, cfg.Validate()
}
