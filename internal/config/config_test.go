package config

import (
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirsPerPlatform(t *testing.T) {
	tests := []struct {
		goos    string
		wantDat string
		wantLog string
	}{
		{"darwin", filepath.Join("/Users/op", "Library", "Application Support", "AtomConnect"), filepath.Join("/Users/op", "Library", "Logs", "AtomConnect")},
		{"windows", filepath.Join(`C:\AppData`, "AtomConnect"), filepath.Join(`C:\AppData`, "AtomConnect", "logs")},
		{"linux", filepath.Join("/Users/op", ".atomconnect"), filepath.Join("/Users/op", ".atomconnect", "logs")},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			assert.Equal(t, tt.wantDat, DataDirFor(tt.goos, "/Users/op", `C:\AppData`))
			assert.Equal(t, tt.wantLog, LogDirFor(tt.goos, "/Users/op", `C:\AppData`))
		})
	}
}

func TestDefaults(t *testing.T) {
	cfg := DefaultFor("linux", "/home/op", "")

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Second, cfg.Scan.Timeout)
	assert.Equal(t, "atom", cfg.Scan.NamePrefix)
	assert.Equal(t, -70, cfg.Scan.MinRSSI)
	assert.Equal(t, 10, cfg.Connect.MaxAttempts)
	assert.Equal(t, 40*time.Second, cfg.Connect.Timeout)
	assert.Equal(t, 2500*time.Millisecond, cfg.Connect.RetryDelay)
	assert.Equal(t, time.Second, cfg.Connect.PollInterval)
	assert.Equal(t, filepath.Join("/home/op", ".atomconnect", "logs", "last-run.log"), cfg.LogPath())

	mc := cfg.MonitorConfig()
	assert.Equal(t, cfg.DataDir, mc.DataDir)
	assert.Equal(t, 10, mc.Retry.MaxAttempts)
	assert.Equal(t, "atom", mc.Scan.NamePrefix)
	assert.True(t, mc.EnableHistory)
}

func writeFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), `
data_dir: /var/lib/atom
log_level: debug
scan:
  timeout: 10s
  name_prefix: AtomFast
connect:
  max_attempts: 3
  retry_delay: 500ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/atom", cfg.DataDir)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, 10*time.Second, cfg.Scan.Timeout)
	assert.Equal(t, "AtomFast", cfg.Scan.NamePrefix)
	assert.Equal(t, -70, cfg.Scan.MinRSSI)
	assert.Equal(t, 3, cfg.Connect.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Connect.RetryDelay)
	assert.Equal(t, 40*time.Second, cfg.Connect.Timeout)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeFile(t, t.TempDir(), "scan: [not a map")
	_, err = Load(path)
	assert.Error(t, err)

	path = writeFile(t, t.TempDir(), "connect:\n  max_attempts: 0\nlog_level: loud\n")
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("atomconnect", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scan:\n  timeout: 10s\n  min_rssi: -80\nconnect:\n  max_attempts: 3\n")

	defaults := DefaultFor("linux", dir, "")
	fs := newFlagSet()
	flags := NewFlags(fs, defaults)
	require.NoError(t, fs.Parse([]string{"-config", path, "-max-attempts", "5", "-metrics-addr", ":9464"}))

	cfg, err := flags.Resolve(defaults)
	require.NoError(t, err)

	assert.Equal(t, path, flags.ConfigFile())
	assert.Equal(t, 10*time.Second, cfg.Scan.Timeout)
	assert.Equal(t, -80, cfg.Scan.MinRSSI)
	assert.Equal(t, 5, cfg.Connect.MaxAttempts)
	assert.Equal(t, ":9464", cfg.MetricsAddr)
}

func TestFlagsFindFileInDataDir(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, dataDir, "scan:\n  name_prefix: AtomSwift\n")

	defaults := DefaultFor("linux", t.TempDir(), "")
	fs := newFlagSet()
	flags := NewFlags(fs, defaults)
	require.NoError(t, fs.Parse([]string{"-data-dir", dataDir}))

	cfg, err := flags.Resolve(defaults)
	require.NoError(t, err)
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, "AtomSwift", cfg.Scan.NamePrefix)
}

func TestFlagsWithoutFile(t *testing.T) {
	defaults := DefaultFor("linux", t.TempDir(), "")
	fs := newFlagSet()
	flags := NewFlags(fs, defaults)
	require.NoError(t, fs.Parse(nil))

	cfg, err := flags.Resolve(defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, cfg)
}
