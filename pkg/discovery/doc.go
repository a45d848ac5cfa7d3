// Package discovery finds Atom dosimeters by listening to BLE advertisements.
//
// A scan runs for a fixed window. Every advertisement passes through a
// Filter (name prefix, signal floor) and the first packet seen from an
// address produces the Device for that address; later packets are ignored.
//
// # Defaults
//
// Operator-initiated scans use a 30 second window, the name prefix "atom"
// (case-insensitive) and accept RSSI strictly greater than -70 dBm.
//
// # Progress
//
// The Scanner reports progress to a Reporter. status.Status implements the
// interface and turns the calls into the human-readable status line shown
// by the display layer. ScanFinished is only called once the transport
// listener has been stopped.
package discovery
