package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/beeresearch/atomconnect-go/pkg/ble"
	"github.com/beeresearch/atomconnect-go/pkg/connection"
	"github.com/beeresearch/atomconnect-go/pkg/discovery"
	"github.com/beeresearch/atomconnect-go/pkg/export"
	"github.com/beeresearch/atomconnect-go/pkg/metrics"
	"github.com/beeresearch/atomconnect-go/pkg/persistence"
	"github.com/beeresearch/atomconnect-go/pkg/reading"
	"github.com/beeresearch/atomconnect-go/pkg/status"
)

// Monitor runs scans and one connect loop against a single transport.
type Monitor struct {
	cfg    Config
	logger *slog.Logger

	status  *status.Status
	scanner *discovery.Scanner
	session *connection.Session
	samples *persistence.SampleStore
	devices *persistence.DeviceListStore
	history *persistence.HistoryStore
	metrics *metrics.Metrics

	mu     sync.Mutex
	closed bool
}

// NewMonitor opens the stores under cfg.DataDir and wires the engine.
// The known-device list is loaded into Status before it returns.
func NewMonitor(transport ble.Transport, cfg Config) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	m := &Monitor{
		cfg:     cfg,
		logger:  cfg.Logger,
		status:  status.New(),
		devices: persistence.NewDeviceListStore(cfg.DeviceListPath()),
	}

	samples, err := persistence.NewSampleStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open sample store: %w", err)
	}
	m.samples = samples

	if cfg.EnableHistory {
		history, err := persistence.OpenHistoryStore(cfg.HistoryPath())
		if err != nil {
			samples.Close()
			return nil, fmt.Errorf("open history: %w", err)
		}
		m.history = history
	}

	if cfg.Registerer != nil {
		m.metrics = metrics.New(cfg.Registerer)
	}

	known, err := m.devices.Load()
	if err != nil {
		m.logger.Warn("failed to load device list", "path", m.devices.Path(), "error", err)
	}
	if len(known) > 0 {
		m.logger.Info("loaded known devices", "count", len(known))
		m.status.Preload(known)
	}

	// The list is saved before Status signals the end of the scan.
	scanReporters := discovery.MultiReporter{deviceListSaver{store: m.devices, logger: m.logger}, m.status}
	sessionCfg := connection.Config{
		Retry:          cfg.Retry,
		ProtocolLogger: cfg.ProtocolLogger,
		Logger:         cfg.Logger,
	}
	if m.history != nil {
		sessionCfg.History = m.history
	}
	if m.metrics != nil {
		scanReporters = append(scanReporters, m.metrics)
		sessionCfg.Observer = m.metrics
	}

	m.scanner = discovery.NewScanner(transport, discovery.ScannerConfig{
		Reporter:       scanReporters,
		ProtocolLogger: cfg.ProtocolLogger,
		Logger:         cfg.Logger,
	})
	m.session = connection.NewSession(transport, m.samples, m.status, sessionCfg)

	return m, nil
}

// Status returns the shared status read by the display layer.
func (m *Monitor) Status() *status.Status {
	return m.status
}

// Session returns the connect loop.
func (m *Monitor) Session() *connection.Session {
	return m.session
}

// SampleStore returns the file store receiving samples.
func (m *Monitor) SampleStore() *persistence.SampleStore {
	return m.samples
}

// Scan runs one blocking scan with the configured parameters.
func (m *Monitor) Scan(ctx context.Context) ([]discovery.Device, error) {
	if m.isClosed() {
		return nil, ErrClosed
	}
	return m.scanner.Scan(ctx, m.cfg.Scan)
}

// ScanFor runs one blocking scan with a custom window.
func (m *Monitor) ScanFor(ctx context.Context, timeout time.Duration) ([]discovery.Device, error) {
	if m.isClosed() {
		return nil, ErrClosed
	}
	p := m.cfg.Scan
	p.Timeout = timeout
	return m.scanner.Scan(ctx, p)
}

// StartScan runs a scan in the background. Use Status().ScanDone() to wait.
func (m *Monitor) StartScan(ctx context.Context) error {
	if m.isClosed() {
		return ErrClosed
	}
	return m.scanner.Start(ctx, m.cfg.Scan)
}

// Scanning reports whether a scan is in progress.
func (m *Monitor) Scanning() bool {
	return m.scanner.Running()
}

// Devices returns the devices of the last scan, or the known devices.
func (m *Monitor) Devices() []discovery.Device {
	return m.status.Snapshot().Devices
}

// Connect starts the connect loop for the device at index in Devices.
func (m *Monitor) Connect(ctx context.Context, index int) error {
	devices := m.Devices()
	if index < 0 || index >= len(devices) {
		return fmt.Errorf("%w: %d (have %d)", ErrNoSuchDevice, index, len(devices))
	}
	return m.ConnectDevice(ctx, devices[index])
}

// ConnectDevice starts the connect loop for d. It returns
// connection.ErrAlreadyConnecting if a loop is running.
func (m *Monitor) ConnectDevice(ctx context.Context, d discovery.Device) error {
	if m.isClosed() {
		return ErrClosed
	}
	m.logger.Info("connecting", "name", d.Name, "address", d.Address)
	return m.session.Start(ctx, d)
}

// Disconnect asks the connect loop to stop. It does not wait.
func (m *Monitor) Disconnect() {
	m.session.RequestStop()
}

// Latest returns the last persisted snapshot, nil before the first sample.
func (m *Monitor) Latest() (*reading.Record, error) {
	return m.samples.LatestSnapshot()
}

// Export writes the current session log as CSV to outPath.
func (m *Monitor) Export(outPath string) (int, error) {
	n, err := export.SessionLog(m.samples.SessionLogPath(), outPath)
	if err != nil {
		return 0, err
	}
	m.logger.Info("exported session log", "path", outPath, "rows", n)
	return n, nil
}

// Sessions lists archived sessions, newest first.
func (m *Monitor) Sessions() ([]persistence.SessionSummary, error) {
	if m.history == nil {
		return nil, ErrHistoryDisabled
	}
	return m.history.Sessions()
}

// LifetimeCounts returns the counts recorded for address across sessions.
func (m *Monitor) LifetimeCounts(address ble.Address) (uint64, error) {
	if m.history == nil {
		return 0, ErrHistoryDisabled
	}
	return m.history.LifetimeCounts(address.String())
}

// Close stops the connect loop, waits for it and closes the stores.
func (m *Monitor) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.session.RequestStop()
	m.session.Wait()

	var errs []error
	if err := m.samples.Close(); err != nil {
		errs = append(errs, err)
	}
	if m.history != nil {
		if err := m.history.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Monitor) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// deviceListSaver writes the device list after a scan that found devices.
type deviceListSaver struct {
	store  *persistence.DeviceListStore
	logger *slog.Logger
}

func (deviceListSaver) ScanStarted(time.Duration)    {}
func (deviceListSaver) DeviceFound(discovery.Device) {}

func (s deviceListSaver) ScanFinished(found []discovery.Device, err error) {
	if err != nil || len(found) == 0 {
		return
	}
	if err := s.store.Save(found); err != nil {
		s.logger.Warn("failed to save device list", "path", s.store.Path(), "error", err)
	}
}

var _ discovery.Reporter = deviceListSaver{}
