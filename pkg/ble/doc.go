// Package ble defines the Bluetooth Low Energy capability the session engine
// depends on.
//
// The engine never talks to a radio directly. It scans, connects and
// subscribes through the Transport and Connection interfaces declared here,
// so the same code runs against the tinygo adapter in package ble/tinygo, a
// recorded fixture, or a testify mock from package ble/mocks.
//
// # Notifications
//
// Atom dosimeters push one 13-byte frame every two seconds on a single
// notify characteristic (NotifyCharacteristic). Callbacks registered with
// Connection.Subscribe run on the transport's own event goroutine and must
// not block for long.
package ble
