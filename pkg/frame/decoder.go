package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/beeresearch/atomconnect-go/pkg/reading"
)

// Frame constants.
const (
	// Size is the length of a measurement frame in bytes.
	Size = 13

	// Interval is the measurement window covered by one frame.
	Interval = 2 * time.Second
)

// Field offsets within a frame.
const (
	offStatus   = 0
	offDose     = 1
	offDoseRate = 5
	offCounts   = 9
	offBattery  = 11
	offTemp     = 12
)

// ErrInvalidLength indicates a payload that is not exactly Size bytes.
var ErrInvalidLength = errors.New("invalid frame length")

// Counter is the cumulative count state carried between frames.
type Counter struct {
	total uint64
}

// Total returns the counts accumulated so far.
func (c *Counter) Total() uint64 {
	return c.total
}

// Reset clears the running total.
func (c *Counter) Reset() {
	c.total = 0
}

// Decode converts a payload into a Sample stamped with at, advancing c by the
// frame's interval count. On error c is left unchanged. A nil c decodes as
// the first frame of a session.
func Decode(payload []byte, c *Counter, at time.Time) (reading.Sample, error) {
	if len(payload) != Size {
		return reading.Sample{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(payload), Size)
	}
	if c == nil {
		c = &Counter{}
	}

	counts := binary.LittleEndian.Uint16(payload[offCounts:])
	c.total += uint64(counts)

	return reading.Sample{
		Timestamp:    at,
		TotalCounts:  c.total,
		CPS:          float64(counts) / Interval.Seconds(),
		Dose:         math.Float32frombits(binary.LittleEndian.Uint32(payload[offDose:])),
		DoseRate:     math.Float32frombits(binary.LittleEndian.Uint32(payload[offDoseRate:])),
		Battery:      payload[offBattery],
		TemperatureC: int8(payload[offTemp]),
	}, nil
}

// Encode builds a frame from a Sample's device-reported fields and the
// interval count. It is the inverse of Decode and is used by simulators and
// tests.
func Encode(status uint8, dose, doseRate float32, counts uint16, battery uint8, tempC int8) []byte {
	buf := make([]byte, Size)
	buf[offStatus] = status
	binary.LittleEndian.PutUint32(buf[offDose:], math.Float32bits(dose))
	binary.LittleEndian.PutUint32(buf[offDoseRate:], math.Float32bits(doseRate))
	binary.LittleEndian.PutUint16(buf[offCounts:], counts)
	buf[offBattery] = battery
	buf[offTemp] = byte(tempC)
	return buf
}

// Decoder decodes frames for one session.
// It is not safe for concurrent use; the session feeds it from one goroutine.
type Decoder struct {
	counter Counter
	now     func() time.Time
}

// NewDecoder creates a decoder with a zero counter using the wall clock.
func NewDecoder() *Decoder {
	return &Decoder{now: time.Now}
}

// NewDecoderWithClock creates a decoder that stamps samples using now.
func NewDecoderWithClock(now func() time.Time) *Decoder {
	if now == nil {
		now = time.Now
	}
	return &Decoder{now: now}
}

// Decode decodes one payload.
func (d *Decoder) Decode(payload []byte) (reading.Sample, error) {
	return Decode(payload, &d.counter, d.now())
}

// TotalCounts returns the counter's current total.
func (d *Decoder) TotalCounts() uint64 {
	return d.counter.Total()
}
