package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newCaptureAdapter() (*SlogAdapter, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogAdapter(slog.New(h)), &buf
}

func TestSlogAdapterAttributes(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  []string
	}{
		{
			name: "Frame",
			event: Event{
				SessionID: "s-1",
				Layer:     LayerTransport,
				Category:  CategoryFrame,
				Frame:     NewFrameEvent([]byte{0xab, 0xcd}),
			},
			want: []string{"session=s-1", "layer=TRANSPORT", "frame_size=2", "frame_hex=abcd"},
		},
		{
			name: "Sample",
			event: Event{
				Category: CategorySample,
				Sample:   &SampleEvent{TotalCounts: 15, CPS: 2.5, Battery: 80, TemperatureC: -3},
			},
			want: []string{"category=SAMPLE", "counts=15", "cps=2.5", "battery=80", "temp=-3"},
		},
		{
			name: "StateChange",
			event: Event{
				Category: CategoryState,
				StateChange: &StateChangeEvent{
					Entity: StateEntityConnection, OldState: "CONNECTING", NewState: "FAILED",
					Reason: "exhausted retries", Attempt: 10,
				},
			},
			want: []string{"entity=CONNECTION", "new_state=FAILED", "attempt=10", `reason="exhausted retries"`},
		},
		{
			name: "Advertisement",
			event: Event{
				DeviceAddress: "11:22",
				Category:      CategoryAdvertisement,
				Advertisement: &AdvertisementEvent{Name: "AtomX", Address: "11:22", RSSI: -60, Accepted: true},
			},
			want: []string{"device=11:22", "name=AtomX", "rssi=-60", "accepted=true"},
		},
		{
			name: "Error",
			event: Event{
				Category: CategoryError,
				Error:    &ErrorEventData{Layer: LayerFrame, Message: "bad", Context: "decode"},
			},
			want: []string{"error_layer=FRAME", "error_msg=bad", "error_context=decode"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, buf := newCaptureAdapter()
			tt.event.Timestamp = time.Now()
			a.Log(tt.event)

			out := buf.String()
			if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, "msg=protocol") {
				t.Errorf("missing level/msg in %q", out)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output %q missing %q", out, w)
				}
			}
		})
	}
}

func TestSlogAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	a := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	a.Log(Event{Category: CategoryFrame})
	if buf.Len() != 0 {
		t.Errorf("debug event written at info level: %q", buf.String())
	}
}
