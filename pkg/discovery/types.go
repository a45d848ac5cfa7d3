package discovery

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beeresearch/atomconnect-go/pkg/ble"
)

// Scan defaults.
const (
	// DefaultScanTimeout is the scan window used by the operator shell.
	DefaultScanTimeout = 30 * time.Second

	// DefaultNamePrefix matches Atom device names.
	DefaultNamePrefix = "atom"

	// DefaultMinRSSI is the exclusive signal floor in dBm.
	DefaultMinRSSI = -70
)

// Discovery errors.
var (
	ErrScanAborted    = errors.New("scan aborted")
	ErrScanInProgress = errors.New("scan already in progress")
)

// Device describes a discovered peripheral. Identity is Address.
type Device struct {
	Name    string
	Address ble.Address
	RSSI    int
}

// String returns a one-line description used in status texts.
func (d Device) String() string {
	return fmt.Sprintf("%s (%s, %d dBm)", d.Name, d.Address, d.RSSI)
}

// ShortAddress returns the last twelve hex digits of the address in upper
// case, the form shown in device lists.
func (d Device) ShortAddress() string {
	s := strings.ToUpper(strings.NewReplacer(":", "", "-", "").Replace(string(d.Address)))
	if len(s) > 12 {
		s = s[len(s)-12:]
	}
	return s
}

// Params configures one scan.
type Params struct {
	// Timeout is the scan window. Zero means DefaultScanTimeout.
	Timeout time.Duration

	// NamePrefix is matched case-insensitively against the advertised name.
	NamePrefix string

	// MinRSSI is the exclusive lower bound on signal strength.
	MinRSSI int
}

// DefaultParams returns the operator defaults.
func DefaultParams() Params {
	return Params{
		Timeout:    DefaultScanTimeout,
		NamePrefix: DefaultNamePrefix,
		MinRSSI:    DefaultMinRSSI,
	}
}

// FilterFunc reports whether an advertisement should produce a Device.
type FilterFunc func(ble.Advertisement) bool

// Filter returns the advertisement filter for p: a non-empty name that
// starts with NamePrefix ignoring case, and RSSI strictly above MinRSSI.
func (p Params) Filter() FilterFunc {
	prefix := strings.ToLower(p.NamePrefix)
	return func(adv ble.Advertisement) bool {
		if adv.Name == "" {
			return false
		}
		if !strings.HasPrefix(strings.ToLower(adv.Name), prefix) {
			return false
		}
		return adv.RSSI > p.MinRSSI
	}
}

// Reporter receives scan progress. Implementations must be safe for
// concurrent use; DeviceFound runs on the transport's callback goroutine.
type Reporter interface {
	ScanStarted(timeout time.Duration)
	DeviceFound(d Device)
	ScanFinished(found []Device, err error)
}

// NoopReporter discards progress.
type NoopReporter struct{}

func (NoopReporter) ScanStarted(time.Duration)    {}
func (NoopReporter) DeviceFound(Device)           {}
func (NoopReporter) ScanFinished([]Device, error) {}

var _ Reporter = NoopReporter{}

// MultiReporter fans progress out to several reporters in order.
type MultiReporter []Reporter

func (m MultiReporter) ScanStarted(timeout time.Duration) {
	for _, r := range m {
		r.ScanStarted(timeout)
	}
}

func (m MultiReporter) DeviceFound(d Device) {
	for _, r := range m {
		r.DeviceFound(d)
	}
}

func (m MultiReporter) ScanFinished(found []Device, err error) {
	for _, r := range m {
		r.ScanFinished(found, err)
	}
}

var _ Reporter = MultiReporter(nil)
