package commands

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/beeresearch/atomconnect-go/pkg/export"
	"github.com/beeresearch/atomconnect-go/pkg/log"
)

const testSession = "abc12345-6789-0123-4567-890abcdef012"

var testStart = time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)

func testEvents() []log.Event {
	return []log.Event{
		{
			Timestamp:     testStart,
			Direction:     log.DirectionIn,
			Layer:         log.LayerTransport,
			Category:      log.CategoryAdvertisement,
			DeviceAddress: "AA:01",
			DeviceName:    "AtomX",
			Advertisement: &log.AdvertisementEvent{Name: "AtomX", Address: "AA:01", RSSI: -60, Accepted: true},
		},
		{
			Timestamp: testStart.Add(time.Second),
			Layer:     log.LayerSession,
			Category:  log.CategoryState,
			SessionID: testSession,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityConnection,
				OldState: "CONNECTING",
				NewState: "CONNECTED",
				Attempt:  2,
			},
			DeviceAddress: "AA:01",
			DeviceName:    "AtomX",
		},
		{
			Timestamp:     testStart.Add(2 * time.Second),
			SessionID:     testSession,
			Layer:         log.LayerTransport,
			Category:      log.CategoryFrame,
			DeviceAddress: "AA:01",
			Frame:         log.NewFrameEvent([]byte{0x00, 0x01, 0x02}),
		},
		{
			Timestamp:     testStart.Add(2 * time.Second),
			SessionID:     testSession,
			Layer:         log.LayerFrame,
			Category:      log.CategorySample,
			DeviceAddress: "AA:01",
			Sample:        &log.SampleEvent{TotalCounts: 15, CPS: 2.5, Dose: 0.5, DoseRate: 0.25, Battery: 90, TemperatureC: 21},
		},
		{
			Timestamp:     testStart.Add(3 * time.Second),
			SessionID:     testSession,
			Layer:         log.LayerFrame,
			Category:      log.CategoryError,
			DeviceAddress: "AA:01",
			Error:         &log.ErrorEventData{Layer: log.LayerFrame, Message: "invalid frame length: 5", Context: "decode"},
		},
	}
}

func writeCapture(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.alog")
	logger, err := log.CreateFileLogger(path)
	if err != nil {
		t.Fatalf("CreateFileLogger() error = %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return path
}

func TestRunView(t *testing.T) {
	path := writeCapture(t, testEvents())

	var buf bytes.Buffer
	if err := RunView(path, log.Filter{}, &buf); err != nil {
		t.Fatalf("RunView() error = %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"2026-01-28T10:15:32.123456Z [session:-]",
		"[session:abc12345]",
		"AtomX AA:01 -60 dBm accepted",
		"CONNECTING -> CONNECTED",
		"Attempt: 2",
		"Data: 000102",
		"Counts: 15",
		"Message: invalid frame length: 5",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("view output missing %q:\n%s", want, output)
		}
	}
}

func TestRunViewFiltered(t *testing.T) {
	path := writeCapture(t, testEvents())

	category := log.CategorySample
	var buf bytes.Buffer
	if err := RunView(path, log.Filter{Category: &category}, &buf); err != nil {
		t.Fatalf("RunView() error = %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "Counts: 15") {
		t.Errorf("expected sample event, got: %s", output)
	}
	if strings.Contains(output, "ADVERTISEMENT") {
		t.Errorf("filtered view contains other categories: %s", output)
	}
}

func TestRunExportCSV(t *testing.T) {
	path := writeCapture(t, testEvents())
	out := filepath.Join(t.TempDir(), "events.csv")

	if err := RunExport(path, "csv", out); err != nil {
		t.Fatalf("RunExport() error = %v", err)
	}

	rows := readCSV(t, out)
	if len(rows) != 6 {
		t.Fatalf("rows = %d, want header + 5", len(rows))
	}
	if rows[0][0] != "timestamp" || rows[0][8] != "detail" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[2][7] != "state" || rows[2][8] != "CONNECTING->CONNECTED" {
		t.Errorf("state row = %v", rows[2])
	}
	if rows[4][7] != "sample" || rows[4][8] != "15" {
		t.Errorf("sample row = %v", rows[4])
	}
}

func TestRunExportSamples(t *testing.T) {
	path := writeCapture(t, testEvents())
	out := filepath.Join(t.TempDir(), "samples.csv")

	if err := RunExport(path, "samples", out); err != nil {
		t.Fatalf("RunExport() error = %v", err)
	}

	rows := readCSV(t, out)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(export.Columns, ",") {
		t.Errorf("header = %v, want %v", rows[0], export.Columns)
	}
	if rows[1][1] != "15" || rows[1][5] != "90" {
		t.Errorf("row = %v", rows[1])
	}
}

func TestRunExportSamplesWithoutSamples(t *testing.T) {
	path := writeCapture(t, testEvents()[:1])

	err := RunExport(path, "samples", filepath.Join(t.TempDir(), "out.csv"))
	if !errors.Is(err, export.ErrNoData) {
		t.Errorf("RunExport() error = %v, want ErrNoData", err)
	}
}

func TestRunExportJSONL(t *testing.T) {
	path := writeCapture(t, testEvents())
	out := filepath.Join(t.TempDir(), "events.jsonl")

	if err := RunExport(path, "jsonl", out); err != nil {
		t.Fatalf("RunExport() error = %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
	}
	if lines != 5 {
		t.Errorf("lines = %d, want 5", lines)
	}
}

func TestRunExportUnknownFormat(t *testing.T) {
	path := writeCapture(t, testEvents())
	if err := RunExport(path, "xml", filepath.Join(t.TempDir(), "out")); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRunFilter(t *testing.T) {
	path := writeCapture(t, testEvents())
	out := filepath.Join(t.TempDir(), "filtered.alog")

	filter, err := FilterOptions{SessionID: testSession, Layer: "frame"}.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var buf bytes.Buffer
	if err := RunFilter(path, out, filter, &buf); err != nil {
		t.Fatalf("RunFilter() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Filtered 2 events") {
		t.Errorf("output = %q", buf.String())
	}

	reader, err := log.NewReader(out)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer reader.Close()
	stats, err := Collect(reader)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if stats.TotalEvents != 2 || stats.EventsByLayer[log.LayerFrame] != 2 {
		t.Errorf("filtered capture = %+v", stats)
	}
}

func TestFilterOptionsErrors(t *testing.T) {
	for _, opts := range []FilterOptions{
		{Layer: "wire"},
		{Direction: "sideways"},
		{Category: "message"},
		{TimeStart: "yesterday"},
		{TimeEnd: "2026-13-01"},
	} {
		if _, err := opts.Build(); err == nil {
			t.Errorf("Build(%+v) expected error", opts)
		}
	}
}

func TestRunStats(t *testing.T) {
	path := writeCapture(t, testEvents())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats() error = %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Total Events: 5",
		"Advertisements: 1 (1 accepted)",
		"Sessions: 1",
		"[abc12345] 4 events",
		"Frames: 1, samples: 1, last counts: 15",
		"Errors: 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("stats output missing %q:\n%s", want, output)
		}
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return rows
}
