package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/beeresearch/atomconnect-go/pkg/ble"
	"github.com/beeresearch/atomconnect-go/pkg/discovery"
	"github.com/beeresearch/atomconnect-go/pkg/frame"
	"github.com/beeresearch/atomconnect-go/pkg/log"
	"github.com/beeresearch/atomconnect-go/pkg/reading"
)

// Session errors.
var (
	ErrAlreadyConnecting = errors.New("already connecting")
	ErrNoDevice          = errors.New("no device address")
)

// frameQueueSize is the per-connection notification buffer.
const frameQueueSize = 64

// Config configures a Session.
type Config struct {
	// Retry is the connect policy. Zero fields take defaults.
	Retry RetryPolicy

	// History archives sessions and samples. Optional.
	History History

	// Observer receives metrics callbacks. Optional.
	Observer Observer

	// ProtocolLogger receives protocol capture events. Optional.
	ProtocolLogger log.Logger

	// Logger is used for operational logging. Optional.
	Logger *slog.Logger

	// Clock stamps samples. Defaults to time.Now.
	Clock func() time.Time
}

// Session runs the connect loop for one device at a time.
type Session struct {
	transport ble.Transport
	store     SampleStore
	reporter  Reporter
	policy    RetryPolicy
	history   History
	observer  Observer
	plog      log.Logger
	logger    *slog.Logger
	now       func() time.Time

	stopFlag atomic.Bool

	// reportMu orders state transitions as seen by the reporter.
	reportMu sync.Mutex

	mu        sync.RWMutex
	state     State
	device    discovery.Device
	running   bool
	stopCh    chan struct{}
	stopOnce  *sync.Once
	done      chan struct{}
	sessionID string
	lastErr   error
}

// NewSession creates an idle session.
func NewSession(transport ble.Transport, store SampleStore, reporter Reporter, cfg Config) *Session {
	if reporter == nil {
		reporter = NoopReporter{}
	}
	observer := cfg.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	done := make(chan struct{})
	close(done)

	return &Session{
		transport: transport,
		store:     store,
		reporter:  reporter,
		policy:    cfg.Retry.withDefaults(),
		history:   cfg.History,
		observer:  observer,
		plog:      log.OrNoop(cfg.ProtocolLogger),
		logger:    logger,
		now:       now,
		state:     State{Phase: PhaseIdle},
		done:      done,
	}
}

// Policy returns the effective retry policy.
func (s *Session) Policy() RetryPolicy {
	return s.policy
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Device returns the device of the current or most recent loop.
func (s *Session) Device() discovery.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.device
}

// SessionID returns the ID of the live connection, or "" when not connected.
func (s *Session) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// Running reports whether a connect loop is active.
func (s *Session) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// LastError returns the error of the most recent failed attempt.
func (s *Session) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Done returns a channel closed when the current loop has finished.
func (s *Session) Done() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done
}

// Wait blocks until the current loop has finished.
func (s *Session) Wait() {
	<-s.Done()
}

// Start launches the connect loop for device in the background.
// Cancelling ctx has the same effect as RequestStop.
func (s *Session) Start(ctx context.Context, device discovery.Device) error {
	if device.Address == "" {
		s.reporter.Progress("No address found, wait or scan again")
		return ErrNoDevice
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("start ignored", "device", device.Address, "reason", ErrAlreadyConnecting)
		s.reporter.Progress(ErrAlreadyConnecting.Error())
		return ErrAlreadyConnecting
	}
	s.running = true
	s.device = device
	s.lastErr = nil
	s.stopCh = make(chan struct{})
	s.stopOnce = &sync.Once{}
	s.done = make(chan struct{})
	s.stopFlag.Store(false)
	stopCh, done := s.stopCh, s.done
	s.mu.Unlock()

	go s.run(ctx, device, stopCh, done)
	return nil
}

// RequestStop asks the loop to disconnect and return to IDLE.
// It is idempotent and safe to call from any goroutine.
func (s *Session) RequestStop() {
	s.stopFlag.Store(true)

	s.mu.RLock()
	once, ch := s.stopOnce, s.stopCh
	s.mu.RUnlock()

	if once != nil {
		once.Do(func() {
			s.stopFlag.Store(true)
			close(ch)
		})
	}
}

func (s *Session) stopRequested(ctx context.Context) bool {
	return s.stopFlag.Load() || ctx.Err() != nil
}

// outcome is how one attempt ended.
type outcome uint8

const (
	outcomeFailed outcome = iota
	outcomeLost
	outcomeStopped
)

func (s *Session) run(ctx context.Context, device discovery.Device, stopCh <-chan struct{}, done chan struct{}) {
	defer close(done)

	name := displayName(device)
	budget := newAttemptBudget(s.policy.MaxAttempts)

	for {
		if s.stopRequested(ctx) {
			s.finishStopped(device)
			return
		}

		n, ok := budget.next()
		if !ok {
			break
		}

		s.setState(device, State{Phase: PhaseConnecting, Attempt: n})
		s.reporter.Progress(fmt.Sprintf("Attempt %d/%d to connect to %s", n, s.policy.MaxAttempts, name))
		s.observer.ConnectAttempted()

		result, err := s.attempt(ctx, device, stopCh)
		switch result {
		case outcomeStopped:
			s.finishStopped(device)
			return
		case outcomeLost:
			s.logger.Warn("connection lost", "device", device.Address, "attempt", n)
			s.reporter.Progress("Connection lost, retrying...")
		case outcomeFailed:
			s.mu.Lock()
			s.lastErr = err
			s.mu.Unlock()
			s.observer.ConnectFailed()
			s.logger.Warn("connect attempt failed", "device", device.Address, "attempt", n, "error", err)
			s.logError("", device, log.LayerSession, err, "connect")
			s.reporter.Progress(fmt.Sprintf("Attempt %d, error: %v", n, err))
		}

		if budget.exhausted() {
			break
		}
		if !s.sleep(ctx, stopCh, s.policy.RetryDelay) {
			s.finishStopped(device)
			return
		}
	}

	if s.stopRequested(ctx) {
		s.finishStopped(device)
		return
	}

	s.finish(device, State{Phase: PhaseFailed, Reason: ReasonExhausted})
	s.logger.Error("giving up", "device", device.Address, "attempts", s.policy.MaxAttempts)
	s.reporter.Progress(fmt.Sprintf("Failed after %d attempts.", s.policy.MaxAttempts))
}

// attempt performs one connect, subscribe and keep-alive cycle. The
// connection is released on every return path, including a panic raised by
// the transport, which is reported as a transport error.
func (s *Session) attempt(ctx context.Context, device discovery.Device, stopCh <-chan struct{}) (result outcome, err error) {
	var l *link

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("transport panic", "device", device.Address, "panic", r)
			result, err = outcomeFailed, fmt.Errorf("%w: panic: %v", ble.ErrTransport, r)
		}
		if l != nil {
			s.release(device, l, result)
		}
	}()

	connectCtx, cancel := context.WithTimeout(ctx, s.policy.ConnectTimeout)
	conn, err := s.transport.Connect(connectCtx, device.Address, s.policy.ConnectTimeout)
	cancel()
	if err != nil {
		return outcomeFailed, transportError("connect", err)
	}
	if conn == nil {
		return outcomeFailed, fmt.Errorf("%w: connect returned no connection", ble.ErrTransport)
	}

	l = newLink(conn, frame.NewDecoderWithClock(s.now))

	if s.stopRequested(ctx) {
		return outcomeStopped, nil
	}

	if err := conn.Subscribe(ble.NotifyCharacteristic, l.deliver); err != nil {
		return outcomeFailed, transportError("subscribe", err)
	}
	l.subscribed = true

	l.sessionID = uuid.NewString()
	s.mu.Lock()
	s.sessionID = l.sessionID
	s.mu.Unlock()

	s.setState(device, State{Phase: PhaseConnected})
	l.connected = true

	if err := s.store.ClearSessionLog(); err != nil {
		s.persistFailed(l.sessionID, device, err, "clear session log")
	}
	if s.history != nil {
		if err := s.history.BeginSession(l.sessionID, device, s.now()); err != nil {
			s.persistFailed(l.sessionID, device, err, "begin session")
		} else {
			l.archived = true
		}
	}

	l.pumping = true
	go s.pump(device, l)

	s.logger.Info("connected", "device", device.Address, "name", device.Name, "session", l.sessionID)
	s.reporter.Progress(fmt.Sprintf("Connected to %s", displayName(device)))

	return s.keepAlive(ctx, conn, stopCh), nil
}

// keepAlive holds the connection until a stop is requested or the link drops.
func (s *Session) keepAlive(ctx context.Context, conn ble.Connection, stopCh <-chan struct{}) outcome {
	ticker := time.NewTicker(s.policy.PollInterval)
	defer ticker.Stop()

	for {
		if s.stopRequested(ctx) {
			return outcomeStopped
		}
		if !conn.Alive() {
			return outcomeLost
		}

		select {
		case <-ticker.C:
		case <-stopCh:
			return outcomeStopped
		case <-ctx.Done():
			return outcomeStopped
		}
	}
}

// release unsubscribes, disconnects and drains the pump.
func (s *Session) release(device discovery.Device, l *link, result outcome) {
	if l.connected {
		s.setState(device, State{Phase: PhaseDisconnecting})
	}

	if l.subscribed {
		if err := guard(func() error { return l.conn.Unsubscribe(ble.NotifyCharacteristic) }); err != nil {
			s.logger.Debug("unsubscribe failed", "device", device.Address, "error", err)
		}
	}
	if err := guard(l.conn.Disconnect); err != nil {
		s.logger.Debug("disconnect failed", "device", device.Address, "error", err)
	}

	l.close()
	if l.pumping {
		<-l.pumpDone
	}

	if l.archived {
		reason := ReasonLinkLost
		switch result {
		case outcomeStopped:
			reason = ReasonUserStop
		case outcomeFailed:
			reason = ble.ErrTransport.Error()
		}
		if err := s.history.EndSession(l.sessionID, s.now(), reason); err != nil {
			s.persistFailed(l.sessionID, device, err, "end session")
		}
	}

	s.mu.Lock()
	s.sessionID = ""
	s.mu.Unlock()
}

// pump is the only goroutine that touches the decoder and the stores for a
// connection. After close it drains what is already queued.
func (s *Session) pump(device discovery.Device, l *link) {
	defer close(l.pumpDone)

	for {
		select {
		case payload := <-l.frames:
			s.handleFrame(device, l, payload)
		case <-l.closed:
			for {
				select {
				case payload := <-l.frames:
					s.handleFrame(device, l, payload)
				default:
					return
				}
			}
		}
	}
}

func (s *Session) handleFrame(device discovery.Device, l *link, payload []byte) {
	s.plog.Log(log.Event{
		Timestamp:     s.now(),
		SessionID:     l.sessionID,
		Direction:     log.DirectionIn,
		Layer:         log.LayerTransport,
		Category:      log.CategoryFrame,
		DeviceAddress: device.Address.String(),
		Frame:         log.NewFrameEvent(payload),
	})

	sample, err := l.decoder.Decode(payload)
	if err != nil {
		s.observer.FrameRejected()
		s.logger.Warn("frame dropped", "device", device.Address, "size", len(payload), "error", err)
		s.logError(l.sessionID, device, log.LayerFrame, err, "decode")
		return
	}

	s.observer.FrameAccepted(sample)
	s.plog.Log(log.Event{
		Timestamp:     sample.Timestamp,
		SessionID:     l.sessionID,
		Direction:     log.DirectionIn,
		Layer:         log.LayerFrame,
		Category:      log.CategorySample,
		DeviceAddress: device.Address.String(),
		Sample:        sampleEvent(sample),
	})

	if err := s.store.OnSample(sample); err != nil {
		s.persistFailed(l.sessionID, device, err, "store sample")
	}
	if l.archived {
		if err := s.history.RecordSample(l.sessionID, sample); err != nil {
			s.persistFailed(l.sessionID, device, err, "archive sample")
		}
	}

	s.reporter.SampleReceived(sample)
}

func (s *Session) setState(device discovery.Device, st State) {
	s.transition(device, st, false)
}

// finish enters a terminal state. The loop is marked inactive in the same
// critical section, so a reporter may call Start from the callback.
func (s *Session) finish(device discovery.Device, st State) {
	s.transition(device, st, true)
}

func (s *Session) transition(device discovery.Device, st State, terminal bool) {
	s.reportMu.Lock()
	defer s.reportMu.Unlock()

	s.mu.Lock()
	old := s.state
	s.state = st
	if terminal {
		s.running = false
	}
	id := s.sessionID
	s.mu.Unlock()

	s.logger.Debug("state change", "device", device.Address, "from", old.String(), "to", st.String())
	s.observer.PhaseChanged(st.Phase)
	s.plog.Log(log.Event{
		Timestamp:     s.now(),
		SessionID:     id,
		Layer:         log.LayerSession,
		Category:      log.CategoryState,
		DeviceAddress: device.Address.String(),
		DeviceName:    device.Name,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: old.Phase.String(),
			NewState: st.Phase.String(),
			Reason:   st.Reason,
			Attempt:  st.Attempt,
		},
	})
	s.reporter.StateChanged(device, st)
}

func (s *Session) finishStopped(device discovery.Device) {
	s.finish(device, State{Phase: PhaseIdle, Reason: ReasonUserStop})
	s.logger.Info(ReasonUserStop, "device", device.Address)
	s.reporter.Progress("Disconnected")
}

// sleep waits d and reports whether the loop should continue.
func (s *Session) sleep(ctx context.Context, stopCh <-chan struct{}, d time.Duration) bool {
	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()

		select {
		case <-t.C:
		case <-stopCh:
			return false
		case <-ctx.Done():
			return false
		}
	}
	return !s.stopRequested(ctx)
}

func (s *Session) persistFailed(sessionID string, device discovery.Device, err error, op string) {
	s.observer.PersistFailed()
	s.logger.Warn("persistence failed", "op", op, "error", err)
	s.logError(sessionID, device, log.LayerSession, err, op)
}

func (s *Session) logError(sessionID string, device discovery.Device, layer log.Layer, err error, op string) {
	s.plog.Log(log.Event{
		Timestamp:     s.now(),
		SessionID:     sessionID,
		Layer:         layer,
		Category:      log.CategoryError,
		DeviceAddress: device.Address.String(),
		Error: &log.ErrorEventData{
			Layer:   layer,
			Message: err.Error(),
			Context: op,
		},
	})
}

// link is the per-attempt connection state.
type link struct {
	conn      ble.Connection
	decoder   *frame.Decoder
	frames    chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	pumpDone  chan struct{}
	sessionID string

	subscribed bool
	connected  bool
	pumping    bool
	archived   bool
}

func newLink(conn ble.Connection, decoder *frame.Decoder) *link {
	return &link{
		conn:     conn,
		decoder:  decoder,
		frames:   make(chan []byte, frameQueueSize),
		closed:   make(chan struct{}),
		pumpDone: make(chan struct{}),
	}
}

// deliver is the notification callback. It runs on the transport's goroutine.
func (l *link) deliver(payload []byte) {
	p := append([]byte(nil), payload...)
	select {
	case l.frames <- p:
	case <-l.closed:
	}
}

func (l *link) close() {
	l.closeOnce.Do(func() { close(l.closed) })
}

// guard calls fn, converting a panic into a transport error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ble.ErrTransport, r)
		}
	}()
	return fn()
}

func transportError(op string, err error) error {
	if errors.Is(err, ble.ErrTransport) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", ble.ErrTransport, op, err)
}

func displayName(d discovery.Device) string {
	if d.Name != "" {
		return d.Name
	}
	return d.Address.String()
}

func sampleEvent(s reading.Sample) *log.SampleEvent {
	return &log.SampleEvent{
		TotalCounts:  s.TotalCounts,
		CPS:          s.CPS,
		Dose:         s.Dose,
		DoseRate:     s.DoseRate,
		Battery:      s.Battery,
		TemperatureC: s.TemperatureC,
	}
}

type noopObserver struct{}

func (noopObserver) ConnectAttempted()            {}
func (noopObserver) ConnectFailed()               {}
func (noopObserver) FrameAccepted(reading.Sample) {}
func (noopObserver) FrameRejected()               {}
func (noopObserver) PersistFailed()               {}
func (noopObserver) PhaseChanged(Phase)           {}
