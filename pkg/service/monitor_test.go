package service

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/beeresearch/atomconnect-go/pkg/ble"
	"github.com/beeresearch/atomconnect-go/pkg/ble/mocks"
	"github.com/beeresearch/atomconnect-go/pkg/connection"
	"github.com/beeresearch/atomconnect-go/pkg/discovery"
	"github.com/beeresearch/atomconnect-go/pkg/export"
	"github.com/beeresearch/atomconnect-go/pkg/frame"
	"github.com/beeresearch/atomconnect-go/pkg/persistence"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig(t.TempDir())
	cfg.Scan.Timeout = 10 * time.Millisecond
	cfg.Retry = connection.RetryPolicy{
		MaxAttempts:    2,
		ConnectTimeout: time.Second,
		RetryDelay:     time.Millisecond,
		PollInterval:   5 * time.Millisecond,
	}
	return cfg
}

func newTestMonitor(t *testing.T, transport ble.Transport, cfg Config) *Monitor {
	t.Helper()
	m, err := NewMonitor(transport, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func expectScan(transport *mocks.MockTransport, advs ...ble.Advertisement) {
	transport.EXPECT().Scan(mock.Anything).
		RunAndReturn(func(cb func(ble.Advertisement)) (ble.ScanHandle, error) {
			for _, a := range advs {
				cb(a)
			}
			return nil, nil
		}).Once()
	transport.EXPECT().StopScan(mock.Anything).Return(nil).Once()
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig("/tmp/x").Validate())

	err := DefaultConfig("").Validate()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg := DefaultConfig("/tmp/x")
	cfg.Retry.MaxAttempts = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestNewMonitorPreloadsKnownDevices(t *testing.T) {
	cfg := testConfig(t)
	known := []discovery.Device{{Name: "AtomFast", Address: "AA:01", RSSI: -55}}
	require.NoError(t, persistence.NewDeviceListStore(cfg.DeviceListPath()).Save(known))

	m := newTestMonitor(t, mocks.NewMockTransport(t), cfg)

	assert.Equal(t, known, m.Devices())
	assert.Equal(t, connection.PhaseIdle, m.Status().State().Phase)
}

func TestScanSavesDeviceList(t *testing.T) {
	cfg := testConfig(t)
	transport := mocks.NewMockTransport(t)
	expectScan(transport,
		ble.Advertisement{Name: "AtomX", Address: "AA:01", RSSI: -60},
		ble.Advertisement{Name: "Other", Address: "BB:02", RSSI: -50},
	)

	m := newTestMonitor(t, transport, cfg)
	found, err := m.Scan(context.Background())
	require.NoError(t, err)

	want := []discovery.Device{{Name: "AtomX", Address: "AA:01", RSSI: -60}}
	assert.Equal(t, want, found)
	assert.Equal(t, want, m.Devices())

	saved, err := persistence.NewDeviceListStore(cfg.DeviceListPath()).Load()
	require.NoError(t, err)
	assert.Equal(t, want, saved)
}

func TestEmptyScanKeepsDeviceList(t *testing.T) {
	cfg := testConfig(t)
	known := []discovery.Device{{Name: "AtomFast", Address: "AA:01", RSSI: -55}}
	require.NoError(t, persistence.NewDeviceListStore(cfg.DeviceListPath()).Save(known))

	transport := mocks.NewMockTransport(t)
	expectScan(transport)

	m := newTestMonitor(t, transport, cfg)
	found, err := m.ScanFor(context.Background(), 5*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, found)

	saved, err := persistence.NewDeviceListStore(cfg.DeviceListPath()).Load()
	require.NoError(t, err)
	assert.Equal(t, known, saved)
	assert.Equal(t, "No matching devices found", m.Status().Text())
}

func TestStartScanInBackground(t *testing.T) {
	transport := mocks.NewMockTransport(t)
	expectScan(transport, ble.Advertisement{Name: "AtomX", Address: "AA:01", RSSI: -60})

	m := newTestMonitor(t, transport, testConfig(t))
	require.NoError(t, m.StartScan(context.Background()))

	select {
	case <-m.Status().ScanDone():
	case <-time.After(2 * time.Second):
		t.Fatal("scan never finished")
	}
	require.Eventually(t, func() bool { return !m.Scanning() }, time.Second, time.Millisecond)
	assert.Len(t, m.Devices(), 1)
}

func TestConnectRejectsUnknownIndex(t *testing.T) {
	m := newTestMonitor(t, mocks.NewMockTransport(t), testConfig(t))

	err := m.Connect(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNoSuchDevice)

	err = m.Connect(context.Background(), -1)
	assert.ErrorIs(t, err, ErrNoSuchDevice)
}

func TestConnectStreamsIntoStoresAndExports(t *testing.T) {
	cfg := testConfig(t)
	reg := prometheus.NewRegistry()
	cfg.Registerer = reg

	device := ble.Advertisement{Name: "AtomX", Address: "AA:01", RSSI: -60}
	transport := mocks.NewMockTransport(t)
	conn := mocks.NewMockConnection(t)
	expectScan(transport, device)

	transport.EXPECT().Connect(mock.Anything, device.Address, cfg.Retry.ConnectTimeout).Return(conn, nil).Once()
	conn.EXPECT().Subscribe(ble.NotifyCharacteristic, mock.Anything).
		RunAndReturn(func(_ uuid.UUID, onNotify func([]byte)) error {
			for _, c := range []uint16{10, 0, 5} {
				onNotify(frame.Encode(0, 0.5, 0.12, c, 90, 21))
			}
			return nil
		}).Once()
	conn.EXPECT().Alive().Return(true).Maybe()
	conn.EXPECT().Unsubscribe(ble.NotifyCharacteristic).Return(nil).Once()
	conn.EXPECT().Disconnect().Return(nil).Once()

	m := newTestMonitor(t, transport, cfg)
	_, err := m.Scan(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.Connect(context.Background(), 0))
	require.Eventually(t, func() bool {
		latest := m.Status().Snapshot().Latest
		return latest != nil && latest.TotalCounts == 15
	}, 2*time.Second, time.Millisecond)

	assert.ErrorIs(t, m.ConnectDevice(context.Background(), discovery.Device{Name: "AtomX", Address: "AA:01"}),
		connection.ErrAlreadyConnecting)

	m.Disconnect()
	m.Session().Wait()

	view := m.Status().Snapshot()
	assert.False(t, view.Connected)
	assert.Equal(t, "Disconnected", view.Text)

	snap, err := m.Latest()
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, uint64(15), snap.Counts)

	out := filepath.Join(t.TempDir(), "export.csv")
	n, err := m.Export(out)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	sessions, err := m.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "AA:01", sessions[0].Address)
	assert.Equal(t, 3, sessions[0].Samples)
	assert.Equal(t, connection.ReasonUserStop, sessions[0].EndReason)

	total, err := m.LifetimeCounts("AA:01")
	require.NoError(t, err)
	assert.Equal(t, uint64(15), total)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["atomconnect_frames_accepted_total"])
	assert.True(t, names["atomconnect_scans_total"])
}

func TestHistoryDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.EnableHistory = false
	m := newTestMonitor(t, mocks.NewMockTransport(t), cfg)

	_, err := m.Sessions()
	assert.ErrorIs(t, err, ErrHistoryDisabled)
	_, err = m.LifetimeCounts("AA:01")
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	_, err = os.Stat(cfg.HistoryPath())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestExportWithoutData(t *testing.T) {
	m := newTestMonitor(t, mocks.NewMockTransport(t), testConfig(t))

	_, err := m.Export(filepath.Join(t.TempDir(), "out.csv"))
	assert.ErrorIs(t, err, export.ErrNoData)
}

func TestCloseIsIdempotent(t *testing.T) {
	m, err := NewMonitor(mocks.NewMockTransport(t), testConfig(t))
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err = m.Scan(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.StartScan(context.Background()), ErrClosed)
	assert.ErrorIs(t, m.Connect(context.Background(), 0), ErrNoSuchDevice)
}
