package commands

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/beeresearch/atomconnect-go/pkg/log"
)

// RunView prints the events matching filter in human-readable form.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
	return nil
}

// formatEvent writes one event: a header line, details, and a blank line.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format(timestampLayout)

	device := event.DeviceAddress
	if event.DeviceName != "" {
		device = fmt.Sprintf("%s (%s)", event.DeviceName, event.DeviceAddress)
	}
	if device == "" {
		device = "-"
	}

	fmt.Fprintf(w, "%s [session:%s] %-3s %s %s %s\n",
		ts, shortSessionID(event.SessionID), event.Direction, event.Layer, event.Category, device)

	switch {
	case event.Frame != nil:
		formatFrame(w, event.Frame)
	case event.Sample != nil:
		formatSample(w, event.Sample)
	case event.StateChange != nil:
		formatStateChange(w, event.StateChange)
	case event.Advertisement != nil:
		formatAdvertisement(w, event.Advertisement)
	case event.Error != nil:
		formatError(w, event.Error)
	}

	fmt.Fprintln(w)
}

func formatFrame(w io.Writer, frame *log.FrameEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(frame.Data))
		if frame.Truncated {
			fmt.Fprint(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatSample(w io.Writer, s *log.SampleEvent) {
	fmt.Fprintf(w, "  Counts: %d  CPS: %.2f\n", s.TotalCounts, s.CPS)
	fmt.Fprintf(w, "  Dose: %.4f mSv  Rate: %.3f uSv/h\n", s.Dose, s.DoseRate)
	fmt.Fprintf(w, "  Battery: %d%%  Temp: %d C\n", s.Battery, s.TemperatureC)
}

func formatStateChange(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity)
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Attempt > 0 {
		fmt.Fprintf(w, "  Attempt: %d\n", sc.Attempt)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatAdvertisement(w io.Writer, adv *log.AdvertisementEvent) {
	name := adv.Name
	if name == "" {
		name = "(unnamed)"
	}
	verdict := "ignored"
	if adv.Accepted {
		verdict = "accepted"
	}
	fmt.Fprintf(w, "  %s %s %d dBm %s\n", name, adv.Address, adv.RSSI, verdict)
}

func formatError(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer)
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}
