// Package metrics exposes session engine counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/beeresearch/atomconnect-go/pkg/connection"
	"github.com/beeresearch/atomconnect-go/pkg/discovery"
	"github.com/beeresearch/atomconnect-go/pkg/reading"
)

const namespace = "atomconnect"

// Metrics implements connection.Observer and discovery.Reporter.
type Metrics struct {
	connectAttempts prometheus.Counter
	connectFailures prometheus.Counter
	framesAccepted  prometheus.Counter
	framesRejected  prometheus.Counter
	persistFailures prometheus.Counter
	scans           prometheus.Counter
	scanFailures    prometheus.Counter
	devicesFound    prometheus.Counter

	phase    prometheus.Gauge
	cps      prometheus.Gauge
	doseRate prometheus.Gauge
	dose     prometheus.Gauge
	battery  prometheus.Gauge
	temp     prometheus.Gauge
	counts   prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}

	m := &Metrics{
		connectAttempts: counter("connect_attempts_total", "Connect attempts started."),
		connectFailures: counter("connect_failures_total", "Connect attempts that failed."),
		framesAccepted:  counter("frames_accepted_total", "Notification frames decoded into samples."),
		framesRejected:  counter("frames_rejected_total", "Notification frames dropped as malformed."),
		persistFailures: counter("persist_failures_total", "Failed sample store or history writes."),
		scans:           counter("scans_total", "Advertisement scans started."),
		scanFailures:    counter("scan_failures_total", "Advertisement scans aborted by an error."),
		devicesFound:    counter("devices_found_total", "Matching devices discovered across scans."),

		phase:    gauge("connection_phase", "Connection phase (0=IDLE 1=SCANNING 2=CONNECTING 3=CONNECTED 4=DISCONNECTING 5=FAILED)."),
		cps:      gauge("counts_per_second", "Count rate of the latest sample."),
		doseRate: gauge("dose_rate_usv_per_hour", "Dose rate of the latest sample in µSv/h."),
		dose:     gauge("dose_msv", "Cumulative device dose of the latest sample in mSv."),
		battery:  gauge("battery_percent", "Battery charge of the latest sample."),
		temp:     gauge("temperature_celsius", "Device temperature of the latest sample."),
		counts:   gauge("session_counts", "Cumulative counts in the current session."),
	}

	reg.MustRegister(
		m.connectAttempts, m.connectFailures, m.framesAccepted, m.framesRejected,
		m.persistFailures, m.scans, m.scanFailures, m.devicesFound,
		m.phase, m.cps, m.doseRate, m.dose, m.battery, m.temp, m.counts,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) ConnectAttempted() { m.connectAttempts.Inc() }
func (m *Metrics) ConnectFailed()    { m.connectFailures.Inc() }
func (m *Metrics) FrameRejected()    { m.framesRejected.Inc() }
func (m *Metrics) PersistFailed()    { m.persistFailures.Inc() }

// FrameAccepted counts the frame and publishes its values.
func (m *Metrics) FrameAccepted(s reading.Sample) {
	m.framesAccepted.Inc()
	m.cps.Set(s.CPS)
	m.doseRate.Set(float64(s.DoseRate))
	m.dose.Set(float64(s.Dose))
	m.battery.Set(float64(s.Battery))
	m.temp.Set(float64(s.TemperatureC))
	m.counts.Set(float64(s.TotalCounts))
}

// PhaseChanged publishes the phase as its numeric value.
func (m *Metrics) PhaseChanged(p connection.Phase) {
	m.phase.Set(float64(p))
	if p == connection.PhaseConnecting {
		m.counts.Set(0)
	}
}

func (m *Metrics) ScanStarted(time.Duration)     { m.scans.Inc() }
func (m *Metrics) DeviceFound(discovery.Device) { m.devicesFound.Inc() }

// ScanFinished counts aborted scans.
func (m *Metrics) ScanFinished(_ []discovery.Device, err error) {
	if err != nil {
		m.scanFailures.Inc()
	}
}

// Compile-time interface satisfaction checks.
var (
	_ connection.Observer = (*Metrics)(nil)
	_ discovery.Reporter  = (*Metrics)(nil)
)
