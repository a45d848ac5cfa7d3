package log

import "time"

// MaxFrameDataSize caps the raw bytes stored per frame event.
const MaxFrameDataSize = 64

// Event is one captured protocol event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the connection session (UUID). Empty for scan
	// events, which happen outside any session.
	SessionID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates data flow relative to this host.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"5,keyasint"`

	// DeviceAddress is the peer's BLE address.
	DeviceAddress string `cbor:"6,keyasint,omitempty"`

	// DeviceName is the peer's advertised name.
	DeviceName string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame         *FrameEvent         `cbor:"10,keyasint,omitempty"`
	Sample        *SampleEvent        `cbor:"11,keyasint,omitempty"`
	StateChange   *StateChangeEvent   `cbor:"12,keyasint,omitempty"`
	Advertisement *AdvertisementEvent `cbor:"13,keyasint,omitempty"`
	Error         *ErrorEventData     `cbor:"14,keyasint,omitempty"`
}

// Direction indicates the direction of data flow.
type Direction uint8

const (
	// DirectionIn is data received from the device.
	DirectionIn Direction = 0
	// DirectionOut is a request sent to the device.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates where an event was captured.
type Layer uint8

const (
	// LayerTransport is the BLE link: advertisements and raw notifications.
	LayerTransport Layer = 0
	// LayerFrame is the frame decoder.
	LayerFrame Layer = 1
	// LayerSession is the connection state machine.
	LayerSession Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerFrame:
		return "FRAME"
	case LayerSession:
		return "SESSION"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryFrame is a raw notification payload.
	CategoryFrame Category = 0
	// CategorySample is a decoded reading.
	CategorySample Category = 1
	// CategoryState is a state change.
	CategoryState Category = 2
	// CategoryError is an error at any layer.
	CategoryError Category = 3
	// CategoryAdvertisement is an advertisement seen while scanning.
	CategoryAdvertisement Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryFrame:
		return "FRAME"
	case CategorySample:
		return "SAMPLE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	case CategoryAdvertisement:
		return "ADVERTISEMENT"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures a raw notification payload.
type FrameEvent struct {
	// Size is the payload size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the raw payload (may be truncated).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// NewFrameEvent copies payload into a FrameEvent, truncating at
// MaxFrameDataSize.
func NewFrameEvent(payload []byte) *FrameEvent {
	data := payload
	truncated := false
	if len(data) > MaxFrameDataSize {
		data = data[:MaxFrameDataSize]
		truncated = true
	}
	return &FrameEvent{
		Size:      len(payload),
		Data:      append([]byte(nil), data...),
		Truncated: truncated,
	}
}

// SampleEvent captures one decoded reading.
type SampleEvent struct {
	TotalCounts  uint64  `cbor:"1,keyasint"`
	CPS          float64 `cbor:"2,keyasint"`
	Dose         float32 `cbor:"3,keyasint"`
	DoseRate     float32 `cbor:"4,keyasint"`
	Battery      uint8   `cbor:"5,keyasint"`
	TemperatureC int8    `cbor:"6,keyasint"`
}

// StateChangeEvent captures scanner and connection lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`

	// Attempt is the connect attempt number for CONNECTING states.
	Attempt uint32 `cbor:"5,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection is the connection session.
	StateEntityConnection StateEntity = 0
	// StateEntityScanner is the advertisement scanner.
	StateEntityScanner StateEntity = 1
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityScanner:
		return "SCANNER"
	default:
		return "UNKNOWN"
	}
}

// AdvertisementEvent captures an advertisement observed during a scan.
type AdvertisementEvent struct {
	Name    string `cbor:"1,keyasint,omitempty"`
	Address string `cbor:"2,keyasint"`
	RSSI    int    `cbor:"3,keyasint"`

	// Accepted reports whether the advertisement passed the scan filter and
	// was new in this scan.
	Accepted bool `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
