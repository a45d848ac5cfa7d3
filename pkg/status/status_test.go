package status

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beeresearch/atomconnect-go/pkg/connection"
	"github.com/beeresearch/atomconnect-go/pkg/discovery"
	"github.com/beeresearch/atomconnect-go/pkg/reading"
)

var atomX = discovery.Device{Name: "AtomX", Address: "AA:01", RSSI: -60}

func TestNewIsIdle(t *testing.T) {
	s := New()
	v := s.Snapshot()

	assert.Equal(t, connection.PhaseIdle, v.State.Phase)
	assert.Equal(t, "idle", v.Text)
	assert.False(t, v.Connected)
	assert.Nil(t, v.Latest)

	select {
	case <-s.ScanDone():
	default:
		t.Fatal("ScanDone should be closed when no scan ran")
	}
}

func TestScanLifecycle(t *testing.T) {
	s := New()
	s.ScanStarted(30 * time.Second)

	v := s.Snapshot()
	assert.True(t, v.Scanning)
	assert.Equal(t, connection.PhaseScanning, v.State.Phase)
	assert.Equal(t, "Scanning for devices (~30 sec.)", v.Text)

	done := s.ScanDone()
	select {
	case <-done:
		t.Fatal("ScanDone closed while scanning")
	default:
	}

	s.DeviceFound(atomX)
	assert.Equal(t, "Found AtomX (RSSI: -60 dBm)", s.Text())

	s.ScanFinished([]discovery.Device{atomX}, nil)
	<-done

	v = s.Snapshot()
	assert.False(t, v.Scanning)
	assert.Equal(t, connection.PhaseIdle, v.State.Phase)
	assert.Equal(t, "Found 1 device(s)", v.Text)
	assert.Equal(t, []discovery.Device{atomX}, v.Devices)
}

func TestScanFinishedTexts(t *testing.T) {
	s := New()
	s.ScanStarted(time.Second)
	s.ScanFinished(nil, nil)
	assert.Equal(t, "No matching devices found", s.Text())

	s.ScanStarted(time.Second)
	s.ScanFinished(nil, errors.New("adapter off"))
	v := s.Snapshot()
	assert.Equal(t, "Scan failed: adapter off", v.Text)
	assert.EqualError(t, v.ScanErr, "adapter off")
}

func TestScanFailureKeepsPreviousDevices(t *testing.T) {
	s := New()
	s.ScanStarted(time.Second)
	s.ScanFinished([]discovery.Device{atomX}, nil)

	s.ScanStarted(time.Second)
	s.ScanFinished(nil, errors.New("adapter off"))

	assert.Equal(t, []discovery.Device{atomX}, s.Snapshot().Devices)
}

func TestScanDuringConnectionKeepsState(t *testing.T) {
	s := New()
	s.StateChanged(atomX, connection.State{Phase: connection.PhaseConnected})

	s.ScanStarted(time.Second)
	assert.Equal(t, connection.PhaseConnected, s.State().Phase)
	s.ScanFinished(nil, nil)
	assert.Equal(t, connection.PhaseConnected, s.State().Phase)
}

func TestConnectionReports(t *testing.T) {
	s := New()

	s.StateChanged(atomX, connection.State{Phase: connection.PhaseConnecting, Attempt: 1})
	s.Progress("Attempt 1/10 to connect to AtomX")
	v := s.Snapshot()
	assert.Equal(t, uint32(1), v.State.Attempt)
	assert.False(t, v.Connected)
	assert.Equal(t, atomX, v.Selected)
	assert.Equal(t, "Attempt 1/10 to connect to AtomX", v.Text)

	s.StateChanged(atomX, connection.State{Phase: connection.PhaseConnected})
	assert.True(t, s.Snapshot().Connected)

	sample := reading.Sample{TotalCounts: 15, CPS: 2.5}
	s.SampleReceived(sample)
	v = s.Snapshot()
	require.NotNil(t, v.Latest)
	assert.Equal(t, uint64(15), v.Latest.TotalCounts)

	s.StateChanged(atomX, connection.State{Phase: connection.PhaseIdle, Reason: connection.ReasonUserStop})
	assert.False(t, s.Snapshot().Connected)
}

func TestSnapshotIsCopy(t *testing.T) {
	s := New()
	s.ScanFinished([]discovery.Device{atomX}, nil)
	s.SampleReceived(reading.Sample{TotalCounts: 1})

	v := s.Snapshot()
	v.Devices[0].Name = "changed"
	v.Latest.TotalCounts = 99

	v2 := s.Snapshot()
	assert.Equal(t, "AtomX", v2.Devices[0].Name)
	assert.Equal(t, uint64(1), v2.Latest.TotalCounts)
}

func TestPreload(t *testing.T) {
	s := New()
	s.Preload([]discovery.Device{atomX})
	assert.Len(t, s.Snapshot().Devices, 1)

	other := discovery.Device{Name: "AtomSwift", Address: "BB:02"}
	s.Preload([]discovery.Device{other, other})
	assert.Equal(t, []discovery.Device{atomX}, s.Snapshot().Devices, "preload must not replace existing devices")
}

func TestListener(t *testing.T) {
	s := New()

	var mu sync.Mutex
	var texts []string
	s.SetListener(func(v View) {
		mu.Lock()
		defer mu.Unlock()
		texts = append(texts, v.Text)
	})

	s.Progress("one")
	s.Progress("two")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"one", "two"}, texts)
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.SampleReceived(reading.Sample{TotalCounts: uint64(j)})
				s.Progress("x")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Snapshot()
			}
		}()
	}
	wg.Wait()
}
