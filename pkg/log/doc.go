// Package log provides structured protocol capture for the dosimeter link.
//
// It is separate from operational logging (slog). Protocol capture records a
// machine-readable trace of everything that crossed the BLE link: scan
// advertisements, raw notification frames, decoded samples, session state
// changes and errors.
//
// # Basic Usage
//
//	// Console during development
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// Capture file for later analysis
//	cfg.ProtocolLogger, _ = log.NewFileLogger("session.alog")
//
//	// Both
//	cfg.ProtocolLogger = log.NewMultiLogger(console, file)
//
// # File Format
//
// Capture files are a stream of CBOR-encoded Event values with integer keys.
// The atomconnect-log tool views, filters and exports them.
package log
