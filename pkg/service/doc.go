// Package service wires the session engine together for a front end.
//
// # Monitor
//
// Monitor owns one Scanner, one Session and the file stores under a data
// directory. It handles:
//   - Loading the known-device list at startup
//   - Background and blocking scans, saving the device list afterwards
//   - Selecting a device from the last scan and running the connect loop
//   - Optional SQLite history and Prometheus collectors
//   - CSV export of the current session log
//
// Example usage:
//
//	cfg := service.DefaultConfig(dataDir)
//	mon, err := service.NewMonitor(adapter, cfg)
//	defer mon.Close()
//
//	devices, _ := mon.Scan(ctx)
//	_ = mon.Connect(ctx, 0)
//	view := mon.Status().Snapshot()
//
// All state read by the display layer goes through Status.
package service
