// Package connection runs the lifecycle of one dosimeter connection.
//
// A Session owns a single connect loop at a time:
//
//	IDLE -> CONNECTING(n) -> CONNECTED -> DISCONNECTING -> IDLE | FAILED
//
// # Retry Policy
//
// Attempts are bounded. Initial connects and reconnects after a lost link
// draw from the same budget (10 by default). Each connect has its own
// timeout (40s) and failed attempts are separated by a fixed delay (2.5s).
// When the budget is spent without a user stop, the session ends in
// FAILED("exhausted retries").
//
// # Cancellation
//
// RequestStop is cooperative. The loop observes it before each attempt,
// after each retry delay and in the keep-alive loop; a connect already in
// flight completes or times out first. Once observed, no new attempt starts
// and the session returns to IDLE("disconnected by user").
//
// # Frames
//
// Notifications are handed from the transport callback to a per-connection
// pump goroutine through a buffered channel. The pump is the only writer of
// the decoder counter and the sample store, so samples are persisted in
// arrival order.
package connection
