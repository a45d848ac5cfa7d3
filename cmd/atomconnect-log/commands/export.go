package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/beeresearch/atomconnect-go/pkg/export"
	"github.com/beeresearch/atomconnect-go/pkg/log"
	"github.com/beeresearch/atomconnect-go/pkg/reading"
)

// RunExport converts the capture at path. Formats: jsonl (every event),
// csv (one row per event) and samples (decoded readings in the session
// export layout).
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	case "samples":
		return exportSamples(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv, samples)", format)
	}
}

// eachEvent calls fn for every event until EOF.
func eachEvent(reader *log.Reader, fn func(log.Event) error) error {
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := fn(event); err != nil {
			return err
		}
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	return eachEvent(reader, func(event log.Event) error {
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		return nil
	})
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"timestamp", "session_id", "direction", "layer", "category", "device_address", "device_name", "type", "detail"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	err := eachEvent(reader, func(event log.Event) error {
		row := []string{
			event.Timestamp.UTC().Format(timestampLayout),
			event.SessionID,
			event.Direction.String(),
			event.Layer.String(),
			event.Category.String(),
			event.DeviceAddress,
			event.DeviceName,
			eventType(event),
			eventDetail(event),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

// eventDetail is the one-column summary used by the csv format.
func eventDetail(event log.Event) string {
	switch {
	case event.Frame != nil:
		return strconv.Itoa(event.Frame.Size) + " bytes"
	case event.Sample != nil:
		return strconv.FormatUint(event.Sample.TotalCounts, 10)
	case event.StateChange != nil:
		return event.StateChange.OldState + "->" + event.StateChange.NewState
	case event.Advertisement != nil:
		return strconv.FormatBool(event.Advertisement.Accepted)
	case event.Error != nil:
		return event.Error.Message
	default:
		return ""
	}
}

func exportSamples(reader *log.Reader, w io.Writer) error {
	var records []reading.Record
	err := eachEvent(reader, func(event log.Event) error {
		if s := event.Sample; s != nil {
			records = append(records, reading.Record{
				Time:    event.Timestamp,
				Counts:  s.TotalCounts,
				CPS:     s.CPS,
				Dose:    s.Dose,
				Rate:    s.DoseRate,
				Battery: s.Battery,
				Temp:    s.TemperatureC,
			})
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return export.ErrNoData
	}
	return export.WriteCSV(w, records)
}
