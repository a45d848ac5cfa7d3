package connection

import "fmt"

// Phase is the coarse connection state.
type Phase uint8

const (
	// PhaseIdle indicates no connection and no loop running.
	PhaseIdle Phase = iota

	// PhaseScanning indicates an advertisement scan is running. The scanner
	// owns this phase; a Session never enters it.
	PhaseScanning

	// PhaseConnecting indicates a connect attempt is in progress.
	PhaseConnecting

	// PhaseConnected indicates the link is up and subscribed.
	PhaseConnected

	// PhaseDisconnecting indicates the connection is being released.
	PhaseDisconnecting

	// PhaseFailed indicates the loop gave up.
	PhaseFailed
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseScanning:
		return "SCANNING"
	case PhaseConnecting:
		return "CONNECTING"
	case PhaseConnected:
		return "CONNECTED"
	case PhaseDisconnecting:
		return "DISCONNECTING"
	case PhaseFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Reasons attached to terminal states.
const (
	ReasonUserStop  = "disconnected by user"
	ReasonExhausted = "exhausted retries"
	ReasonLinkLost  = "connection lost"
)

// State is the full connection state.
type State struct {
	Phase Phase

	// Attempt is the 1-based attempt number while CONNECTING.
	Attempt uint32

	// Reason explains FAILED and user-initiated IDLE states.
	Reason string
}

// Active reports whether a connect loop owns this state.
func (s State) Active() bool {
	switch s.Phase {
	case PhaseConnecting, PhaseConnected, PhaseDisconnecting:
		return true
	}
	return false
}

// String returns e.g. "CONNECTING(3)" or "FAILED(exhausted retries)".
func (s State) String() string {
	switch {
	case s.Phase == PhaseConnecting && s.Attempt > 0:
		return fmt.Sprintf("%s(%d)", s.Phase, s.Attempt)
	case s.Reason != "":
		return fmt.Sprintf("%s(%s)", s.Phase, s.Reason)
	default:
		return s.Phase.String()
	}
}
