package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/beeresearch/atomconnect-go/pkg/connection"
	"github.com/beeresearch/atomconnect-go/pkg/discovery"
	"github.com/beeresearch/atomconnect-go/pkg/reading"
)

func TestObserverCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ConnectAttempted()
	m.ConnectAttempted()
	m.ConnectFailed()
	m.FrameRejected()
	m.PersistFailed()
	m.FrameAccepted(reading.Sample{TotalCounts: 15, CPS: 2.5, DoseRate: 0.12, Dose: 0.5, Battery: 80, TemperatureC: -3})

	checks := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"connect_attempts", m.connectAttempts, 2},
		{"connect_failures", m.connectFailures, 1},
		{"frames_rejected", m.framesRejected, 1},
		{"persist_failures", m.persistFailures, 1},
		{"frames_accepted", m.framesAccepted, 1},
		{"cps", m.cps, 2.5},
		{"battery", m.battery, 80},
		{"temp", m.temp, -3},
		{"counts", m.counts, 15},
	}
	for _, c := range checks {
		if got := testutil.ToFloat64(c.c); got != c.want {
			t.Errorf("%s = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestPhaseGauge(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.FrameAccepted(reading.Sample{TotalCounts: 40})
	m.PhaseChanged(connection.PhaseConnected)
	if got := testutil.ToFloat64(m.phase); got != float64(connection.PhaseConnected) {
		t.Errorf("phase = %v, want %v", got, float64(connection.PhaseConnected))
	}

	// A new attempt starts a new session counter.
	m.PhaseChanged(connection.PhaseConnecting)
	if got := testutil.ToFloat64(m.counts); got != 0 {
		t.Errorf("counts after reconnect = %v, want 0", got)
	}
}

func TestScanReporter(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ScanStarted(0)
	m.DeviceFound(discovery.Device{Address: "A"})
	m.DeviceFound(discovery.Device{Address: "B"})
	m.ScanFinished(nil, nil)
	m.ScanStarted(0)
	m.ScanFinished(nil, errors.New("adapter off"))

	if got := testutil.ToFloat64(m.scans); got != 2 {
		t.Errorf("scans = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.devicesFound); got != 2 {
		t.Errorf("devices_found = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.scanFailures); got != 1 {
		t.Errorf("scan_failures = %v, want 1", got)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ConnectAttempted()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "atomconnect_connect_attempts_total 1") {
		t.Errorf("body missing counter:\n%s", rec.Body.String())
	}
}

func TestDoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	defer func() {
		if recover() == nil {
			t.Error("registering twice should panic")
		}
	}()
	New(reg)
}
