package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/beeresearch/atomconnect-go/pkg/ble"
	"github.com/beeresearch/atomconnect-go/pkg/log"
)

// ScannerConfig configures a Scanner.
type ScannerConfig struct {
	// Reporter receives progress. Nil disables reporting.
	Reporter Reporter

	// ProtocolLogger receives every advertisement seen. Optional.
	ProtocolLogger log.Logger

	// Logger is the optional logger for debug output.
	Logger *slog.Logger
}

// Scanner runs time-bounded advertisement scans. At most one scan runs at a
// time per Scanner.
type Scanner struct {
	transport ble.Transport
	reporter  Reporter
	plog      log.Logger
	logger    *slog.Logger

	running atomic.Bool
}

// NewScanner creates a scanner on top of transport.
func NewScanner(transport ble.Transport, cfg ScannerConfig) *Scanner {
	if cfg.Reporter == nil {
		cfg.Reporter = NoopReporter{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{
		transport: transport,
		reporter:  cfg.Reporter,
		plog:      log.OrNoop(cfg.ProtocolLogger),
		logger:    cfg.Logger,
	}
}

// Running reports whether a scan is in progress.
func (s *Scanner) Running() bool {
	return s.running.Load()
}

// Scan listens for p.Timeout and returns the matching devices in discovery
// order. An empty result is not an error.
//
// If the transport fails, or ctx is cancelled before the window elapses, the
// devices found so far are returned together with an error wrapping
// ErrScanAborted. Transport failures additionally wrap ble.ErrTransport.
func (s *Scanner) Scan(ctx context.Context, p Params) ([]Device, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer s.running.Store(false)

	return s.scan(ctx, p)
}

// Start runs Scan on a background goroutine. Results are delivered through
// the Reporter. It returns ErrScanInProgress if a scan is already running.
func (s *Scanner) Start(ctx context.Context, p Params) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrScanInProgress
	}

	go func() {
		defer s.running.Store(false)
		if _, err := s.scan(ctx, p); err != nil {
			s.logger.Warn("background scan failed", "error", err)
		}
	}()
	return nil
}

func (s *Scanner) scan(ctx context.Context, p Params) ([]Device, error) {
	if p.Timeout <= 0 {
		p.Timeout = DefaultScanTimeout
	}
	filter := p.Filter()

	var (
		mu      sync.Mutex
		seen    = make(map[ble.Address]struct{})
		found   []Device
		stopped bool
	)

	onAdvertisement := func(adv ble.Advertisement) {
		accepted := filter(adv)
		if accepted {
			mu.Lock()
			if _, dup := seen[adv.Address]; dup || stopped {
				accepted = false
			} else {
				seen[adv.Address] = struct{}{}
			}
			mu.Unlock()
		}
		s.logAdvertisement(adv, accepted)
		if !accepted {
			return
		}

		d := Device{Name: adv.Name, Address: adv.Address, RSSI: adv.RSSI}
		mu.Lock()
		found = append(found, d)
		mu.Unlock()

		s.logger.Debug("device found", "name", d.Name, "address", d.Address, "rssi", d.RSSI)
		s.reporter.DeviceFound(d)
	}

	s.logger.Info("scanning for devices", "timeout", p.Timeout, "prefix", p.NamePrefix, "min_rssi", p.MinRSSI)
	s.logState("IDLE", "SCANNING", "")
	s.reporter.ScanStarted(p.Timeout)

	handle, err := s.transport.Scan(onAdvertisement)
	if err != nil {
		err = fmt.Errorf("%w: start listener: %w", ErrScanAborted, asTransportError(err))
		s.logState("SCANNING", "IDLE", err.Error())
		s.reporter.ScanFinished(nil, err)
		return nil, err
	}

	var scanErrs <-chan error
	if handle != nil {
		scanErrs = handle.Err()
	}

	timer := time.NewTimer(p.Timeout)
	defer timer.Stop()

	var abortErr error
	select {
	case <-timer.C:
	case <-ctx.Done():
		abortErr = ctx.Err()
	case err := <-scanErrs:
		abortErr = asTransportError(err)
	}

	// The listener must be fully stopped before completion is signalled.
	stopErr := s.transport.StopScan(handle)

	mu.Lock()
	stopped = true
	result := slices.Clone(found)
	mu.Unlock()

	if abortErr == nil && stopErr != nil {
		abortErr = fmt.Errorf("stop listener: %w", asTransportError(stopErr))
	} else if stopErr != nil {
		s.logger.Warn("stop listener failed", "error", stopErr)
	}

	if abortErr != nil {
		err := fmt.Errorf("%w: %w", ErrScanAborted, abortErr)
		s.logger.Warn("scan aborted", "error", err, "found", len(result))
		s.logState("SCANNING", "IDLE", err.Error())
		s.reporter.ScanFinished(result, err)
		return result, err
	}

	s.logger.Info("scan finished", "found", len(result))
	s.logState("SCANNING", "IDLE", fmt.Sprintf("found %d", len(result)))
	s.reporter.ScanFinished(result, nil)
	return result, nil
}

func (s *Scanner) logAdvertisement(adv ble.Advertisement, accepted bool) {
	s.plog.Log(log.Event{
		Timestamp:     time.Now(),
		Direction:     log.DirectionIn,
		Layer:         log.LayerTransport,
		Category:      log.CategoryAdvertisement,
		DeviceAddress: adv.Address.String(),
		DeviceName:    adv.Name,
		Advertisement: &log.AdvertisementEvent{
			Name:     adv.Name,
			Address:  adv.Address.String(),
			RSSI:     adv.RSSI,
			Accepted: accepted,
		},
	})
}

func (s *Scanner) logState(from, to, reason string) {
	s.plog.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerSession,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityScanner,
			OldState: from,
			NewState: to,
			Reason:   reason,
		},
	})
}

// asTransportError makes sure err matches ble.ErrTransport.
func asTransportError(err error) error {
	if err == nil || errors.Is(err, ble.ErrTransport) {
		return err
	}
	return fmt.Errorf("%w: %w", ble.ErrTransport, err)
}
