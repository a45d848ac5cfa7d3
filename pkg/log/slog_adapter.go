package log

import (
	"context"
	"fmt"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event as one "protocol" record.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session", event.SessionID))
	}
	if event.DeviceAddress != "" {
		attrs = append(attrs, slog.String("device", event.DeviceAddress))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("frame_size", event.Frame.Size),
			slog.String("frame_hex", fmt.Sprintf("%x", event.Frame.Data)),
		)
		if event.Frame.Truncated {
			attrs = append(attrs, slog.Bool("truncated", true))
		}
	case event.Sample != nil:
		attrs = append(attrs,
			slog.Uint64("counts", event.Sample.TotalCounts),
			slog.Float64("cps", event.Sample.CPS),
			slog.Float64("dose", float64(event.Sample.Dose)),
			slog.Float64("rate", float64(event.Sample.DoseRate)),
			slog.Int("battery", int(event.Sample.Battery)),
			slog.Int("temp", int(event.Sample.TemperatureC)),
		)
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Attempt != 0 {
			attrs = append(attrs, slog.Uint64("attempt", uint64(event.StateChange.Attempt)))
		}
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Advertisement != nil:
		attrs = append(attrs,
			slog.String("name", event.Advertisement.Name),
			slog.String("address", event.Advertisement.Address),
			slog.Int("rssi", event.Advertisement.RSSI),
			slog.Bool("accepted", event.Advertisement.Accepted),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "protocol", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
