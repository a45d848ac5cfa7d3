// Package status holds the process-wide session status read by the display
// layer.
//
// Status is written only through the discovery.Reporter and
// connection.Reporter methods it implements; front ends read it with
// Snapshot and wait for scans with ScanDone.
package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/beeresearch/atomconnect-go/pkg/connection"
	"github.com/beeresearch/atomconnect-go/pkg/discovery"
	"github.com/beeresearch/atomconnect-go/pkg/reading"
)

// InitialText is the status line before anything happened.
const InitialText = "idle"

// View is a consistent copy of the status.
type View struct {
	State     connection.State
	Text      string
	Connected bool

	// Selected is the device of the current or last connect loop.
	Selected discovery.Device

	// Devices are the results of the last scan, or the known devices loaded
	// at startup.
	Devices []discovery.Device

	Scanning bool
	ScanErr  error

	// Latest is the most recent sample, nil before the first one.
	Latest *reading.Sample

	UpdatedAt time.Time
}

// Status is safe for concurrent use.
type Status struct {
	mu        sync.Mutex
	state     connection.State
	text      string
	connected bool
	selected  discovery.Device
	devices   []discovery.Device
	scanning  bool
	scanErr   error
	latest    *reading.Sample
	updatedAt time.Time
	scanDone  chan struct{}
	listener  func(View)
}

// New returns a Status in IDLE with text "idle".
func New() *Status {
	done := make(chan struct{})
	close(done)
	return &Status{
		state:     connection.State{Phase: connection.PhaseIdle},
		text:      InitialText,
		updatedAt: time.Now(),
		scanDone:  done,
	}
}

// SetListener registers fn to be called with a fresh View after every
// change. fn runs on the goroutine that caused the change and must not block.
func (s *Status) SetListener(fn func(View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = fn
}

// Snapshot returns a copy of the current status.
func (s *Status) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// State returns the current connection state.
func (s *Status) State() connection.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Text returns the current status line.
func (s *Status) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// ScanDone returns a channel closed when no scan is running. A new channel
// is installed each time a scan starts.
func (s *Status) ScanDone() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanDone
}

// Preload installs the known-device list read at startup. It is ignored once
// a scan has produced results.
func (s *Status) Preload(devices []discovery.Device) {
	s.update(func() {
		if len(s.devices) == 0 {
			s.devices = slices.Clone(devices)
		}
	})
}

// ScanStarted implements discovery.Reporter.
func (s *Status) ScanStarted(timeout time.Duration) {
	s.update(func() {
		s.scanning = true
		s.scanErr = nil
		s.scanDone = make(chan struct{})
		if !s.state.Active() {
			s.state = connection.State{Phase: connection.PhaseScanning}
		}
		s.text = fmt.Sprintf("Scanning for devices (~%d sec.)", int(timeout.Round(time.Second)/time.Second))
	})
}

// DeviceFound implements discovery.Reporter.
func (s *Status) DeviceFound(d discovery.Device) {
	s.update(func() {
		s.text = fmt.Sprintf("Found %s (RSSI: %d dBm)", d.Name, d.RSSI)
	})
}

// ScanFinished implements discovery.Reporter.
func (s *Status) ScanFinished(found []discovery.Device, err error) {
	s.update(func() {
		s.scanning = false
		s.scanErr = err
		if len(found) > 0 || err == nil {
			s.devices = slices.Clone(found)
		}
		if s.state.Phase == connection.PhaseScanning {
			s.state = connection.State{Phase: connection.PhaseIdle}
		}

		switch {
		case err != nil:
			s.text = fmt.Sprintf("Scan failed: %v", err)
		case len(found) == 0:
			s.text = "No matching devices found"
		default:
			s.text = fmt.Sprintf("Found %d device(s)", len(found))
		}

		select {
		case <-s.scanDone:
		default:
			close(s.scanDone)
		}
	})
}

// StateChanged implements connection.Reporter.
func (s *Status) StateChanged(device discovery.Device, st connection.State) {
	s.update(func() {
		s.state = st
		s.connected = st.Phase == connection.PhaseConnected
		s.selected = device
	})
}

// Progress implements connection.Reporter.
func (s *Status) Progress(text string) {
	s.update(func() {
		s.text = text
	})
}

// SampleReceived implements connection.Reporter.
func (s *Status) SampleReceived(sample reading.Sample) {
	s.update(func() {
		s.latest = &sample
	})
}

func (s *Status) update(fn func()) {
	s.mu.Lock()
	fn()
	s.updatedAt = time.Now()
	listener := s.listener
	var v View
	if listener != nil {
		v = s.viewLocked()
	}
	s.mu.Unlock()

	if listener != nil {
		listener(v)
	}
}

func (s *Status) viewLocked() View {
	v := View{
		State:     s.state,
		Text:      s.text,
		Connected: s.connected,
		Selected:  s.selected,
		Devices:   slices.Clone(s.devices),
		Scanning:  s.scanning,
		ScanErr:   s.scanErr,
		UpdatedAt: s.updatedAt,
	}
	if s.latest != nil {
		latest := *s.latest
		v.Latest = &latest
	}
	return v
}

// Compile-time interface satisfaction checks.
var (
	_ discovery.Reporter  = (*Status)(nil)
	_ connection.Reporter = (*Status)(nil)
)
