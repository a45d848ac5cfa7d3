// Package commands implements the atomconnect-log CLI commands.
package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/beeresearch/atomconnect-go/pkg/log"
)

// ParseLayerFlag parses a layer string (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "frame":
		return log.LayerFrame, nil
	case "session":
		return log.LayerSession, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be transport, frame, or session)", s)
	}
}

// ParseDirectionFlag parses a direction string (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "frame":
		return log.CategoryFrame, nil
	case "sample":
		return log.CategorySample, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	case "advertisement", "adv":
		return log.CategoryAdvertisement, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be frame, sample, state, error, or advertisement)", s)
	}
}

// FilterOptions holds the string forms of the filter flags.
type FilterOptions struct {
	SessionID     string
	DeviceAddress string
	TimeStart     string
	TimeEnd       string
	Layer         string
	Direction     string
	Category      string
}

// Build converts the options into a log.Filter.
func (o FilterOptions) Build() (log.Filter, error) {
	filter := log.Filter{
		SessionID:     o.SessionID,
		DeviceAddress: o.DeviceAddress,
	}

	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}
	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}
	if o.Layer != "" {
		l, err := ParseLayerFlag(o.Layer)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Layer = &l
	}
	if o.Direction != "" {
		d, err := ParseDirectionFlag(o.Direction)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Direction = &d
	}
	if o.Category != "" {
		c, err := ParseCategoryFlag(o.Category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}
	return filter, nil
}

func shortSessionID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// eventType names the payload carried by event.
func eventType(event log.Event) string {
	switch {
	case event.Frame != nil:
		return "frame"
	case event.Sample != nil:
		return "sample"
	case event.StateChange != nil:
		return "state"
	case event.Advertisement != nil:
		return "advertisement"
	case event.Error != nil:
		return "error"
	default:
		return "unknown"
	}
}

const timestampLayout = "2006-01-02T15:04:05.000000Z"
