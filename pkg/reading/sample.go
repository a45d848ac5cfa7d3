// Package reading defines the typed dosimeter reading produced by the frame
// decoder and its persisted JSON shape.
package reading

import "time"

// Sample is one decoded measurement frame. Samples are immutable once created.
type Sample struct {
	// Timestamp is when the frame was accepted.
	Timestamp time.Time

	// TotalCounts is the running sum of counts since the session started.
	// It never decreases within a session.
	TotalCounts uint64

	// CPS is the instantaneous count rate (counts per second) over the
	// frame's two-second interval.
	CPS float64

	// Dose is the device's cumulative dose in mSv.
	Dose float32

	// DoseRate is the current dose rate in µSv/h.
	DoseRate float32

	// Battery is the battery charge in percent.
	Battery uint8

	// TemperatureC is the device temperature in °C.
	TemperatureC int8
}

// Record is the on-disk form of a Sample used by the snapshot file and the
// session log. Field names match the files consumed by the display and
// export layers.
type Record struct {
	Time    time.Time `json:"time"`
	Counts  uint64    `json:"counts"`
	CPS     float64   `json:"cps"`
	Dose    float32   `json:"dose"`
	Rate    float32   `json:"rate"`
	Battery uint8     `json:"battery"`
	Temp    int8      `json:"temp"`
}

// Record converts the sample to its persisted form.
func (s Sample) Record() Record {
	return Record{
		Time:    s.Timestamp,
		Counts:  s.TotalCounts,
		CPS:     s.CPS,
		Dose:    s.Dose,
		Rate:    s.DoseRate,
		Battery: s.Battery,
		Temp:    s.TemperatureC,
	}
}

// Sample converts a persisted record back to a Sample.
func (r Record) Sample() Sample {
	return Sample{
		Timestamp:    r.Time,
		TotalCounts:  r.Counts,
		CPS:          r.CPS,
		Dose:         r.Dose,
		DoseRate:     r.Rate,
		Battery:      r.Battery,
		TemperatureC: r.Temp,
	}
}

// CPM returns the count rate scaled to counts per minute.
func (s Sample) CPM() float64 {
	return s.CPS * 60
}
