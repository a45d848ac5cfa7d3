// Package persistence stores dosimeter readings and the known-device list.
//
// Three files live in the data directory:
//
//	latest_data.json  single most recent reading, replaced atomically
//	recording.jsonl   session log, one JSON object per line, append-only
//	device_map.json   devices found by the last successful scan
//
// The session log is truncated when a new connection is established and is
// otherwise only appended to, so a crash loses at most the line being
// written. ReadSessionLog skips a torn final line.
//
// HistoryStore keeps every session in SQLite for long-term analysis.
package persistence
