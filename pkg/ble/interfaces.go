package ble

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// NotifyCharacteristic is the GATT characteristic carrying measurement frames.
var NotifyCharacteristic = uuid.MustParse("70bc767e-7a1a-4304-81ed-14b9af54f7bd")

// ErrTransport marks failures reported by the BLE stack (scan, connect,
// subscribe, disconnect). Wrap it so callers can match with errors.Is.
var ErrTransport = errors.New("ble transport error")

// Address is the opaque transport identifier of a peripheral. On Linux and
// Windows it is a MAC address, on macOS a CoreBluetooth UUID.
type Address string

// String returns the address as reported by the transport.
func (a Address) String() string {
	return string(a)
}

// Advertisement is one observed advertising packet.
type Advertisement struct {
	// Name is the advertised local name (may be empty).
	Name string

	// Address identifies the advertising peripheral.
	Address Address

	// RSSI is the received signal strength in dBm.
	RSSI int
}

// ScanHandle represents a running advertisement listener.
type ScanHandle interface {
	// Err delivers at most one asynchronous scan failure. The channel may
	// be nil if the transport never fails asynchronously.
	Err() <-chan error
}

// Transport is the BLE capability used by discovery and sessions.
// Implemented by tinygo.Adapter.
type Transport interface {
	// Scan starts the advertisement listener. onAdvertisement is invoked
	// for every packet until StopScan returns.
	Scan(onAdvertisement func(Advertisement)) (ScanHandle, error)

	// StopScan stops the listener. When it returns no further callbacks
	// are delivered.
	StopScan(h ScanHandle) error

	// Connect opens a fresh connection to the peripheral. It must give up
	// after timeout or when ctx is done.
	Connect(ctx context.Context, address Address, timeout time.Duration) (Connection, error)
}

// Connection is one live link to a peripheral. A Connection is never reused
// after Disconnect.
type Connection interface {
	// Subscribe enables notifications on the characteristic.
	Subscribe(characteristic uuid.UUID, onNotify func(payload []byte)) error

	// Unsubscribe disables notifications on the characteristic.
	Unsubscribe(characteristic uuid.UUID) error

	// Disconnect closes the link.
	Disconnect() error

	// Alive reports whether the transport still considers the link up.
	Alive() bool
}
