package connection

import (
	"time"

	"github.com/beeresearch/atomconnect-go/pkg/discovery"
	"github.com/beeresearch/atomconnect-go/pkg/reading"
)

// SampleStore persists accepted samples.
type SampleStore interface {
	// OnSample persists one sample. Errors are logged and do not stop
	// the session.
	OnSample(s reading.Sample) error

	// ClearSessionLog truncates the session log. Called exactly once per
	// successful connection, on entering CONNECTED.
	ClearSessionLog() error
}

// Reporter receives session progress for display.
type Reporter interface {
	// StateChanged is called on every transition, from the loop goroutine.
	StateChanged(device discovery.Device, state State)

	// Progress carries a human-readable status line.
	Progress(text string)

	// SampleReceived is called from the pump goroutine after the sample
	// was handed to the store.
	SampleReceived(s reading.Sample)
}

// History archives sessions across connections. Optional.
type History interface {
	BeginSession(id string, device discovery.Device, startedAt time.Time) error
	RecordSample(id string, s reading.Sample) error
	EndSession(id string, endedAt time.Time, reason string) error
}

// Observer receives counters for metrics. Optional.
type Observer interface {
	ConnectAttempted()
	ConnectFailed()
	FrameAccepted(s reading.Sample)
	FrameRejected()
	PersistFailed()
	PhaseChanged(p Phase)
}

// NoopReporter discards all reports.
type NoopReporter struct{}

func (NoopReporter) StateChanged(discovery.Device, State) {}
func (NoopReporter) Progress(string)                      {}
func (NoopReporter) SampleReceived(reading.Sample)        {}

var _ Reporter = NoopReporter{}
