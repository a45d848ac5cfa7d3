// Package tinygo implements ble.Transport on top of tinygo.org/x/bluetooth
// (BlueZ on Linux, CoreBluetooth on macOS, WinRT on Windows).
package tinygo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"tinygo.org/x/bluetooth"

	"github.com/beeresearch/atomconnect-go/pkg/ble"
)

// DefaultResolveTimeout bounds the scan used to find an address that was
// not seen by an earlier scan of this process.
const DefaultResolveTimeout = 10 * time.Second

// Adapter errors.
var (
	ErrScanRunning        = errors.New("scan already running")
	ErrUnknownAddress     = errors.New("address not seen while scanning")
	ErrNoCharacteristic   = errors.New("characteristic not found")
	ErrConnectionReleased = errors.New("connection released")
)

// Config configures an Adapter.
type Config struct {
	// ResolveTimeout bounds the address resolving scan. Zero means
	// DefaultResolveTimeout.
	ResolveTimeout time.Duration

	// Logger is the optional logger for debug output.
	Logger *slog.Logger
}

// Adapter is a ble.Transport over one bluetooth.Adapter.
type Adapter struct {
	adapter        *bluetooth.Adapter
	resolveTimeout time.Duration
	logger         *slog.Logger

	mu       sync.Mutex
	scan     *scanHandle
	seen     map[string]bluetooth.Address
	links    map[string]*connection
	resolves map[string]chan bluetooth.Address
}

var _ ble.Transport = (*Adapter)(nil)

// New enables adapter and installs the connect handler used for liveness.
// Pass bluetooth.DefaultAdapter for the system radio.
func New(adapter *bluetooth.Adapter, cfg Config) (*Adapter, error) {
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = DefaultResolveTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("%w: enable adapter: %w", ble.ErrTransport, err)
	}

	a := &Adapter{
		adapter:        adapter,
		resolveTimeout: cfg.ResolveTimeout,
		logger:         cfg.Logger,
		seen:           make(map[string]bluetooth.Address),
		links:          make(map[string]*connection),
		resolves:       make(map[string]chan bluetooth.Address),
	}
	adapter.SetConnectHandler(a.onConnectEvent)
	return a, nil
}

// scanHandle tracks one running bluetooth.Adapter.Scan call.
type scanHandle struct {
	errs chan error
	done chan struct{}
	stop sync.Once
}

func (h *scanHandle) Err() <-chan error { return h.errs }

// Scan starts the radio scan on its own goroutine.
func (a *Adapter) Scan(onAdvertisement func(ble.Advertisement)) (ble.ScanHandle, error) {
	return a.startScan(onAdvertisement)
}

func (a *Adapter) startScan(onAdvertisement func(ble.Advertisement)) (*scanHandle, error) {
	a.mu.Lock()
	if a.scan != nil {
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ble.ErrTransport, ErrScanRunning)
	}
	h := &scanHandle{errs: make(chan error, 1), done: make(chan struct{})}
	a.scan = h
	a.mu.Unlock()

	go func() {
		defer close(h.done)
		err := a.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			a.observe(result, onAdvertisement)
		})
		if err != nil {
			h.errs <- fmt.Errorf("%w: scan: %w", ble.ErrTransport, err)
		}

		a.mu.Lock()
		if a.scan == h {
			a.scan = nil
		}
		a.mu.Unlock()
	}()

	return h, nil
}

func (a *Adapter) observe(result bluetooth.ScanResult, onAdvertisement func(ble.Advertisement)) {
	address := result.Address.String()

	a.mu.Lock()
	a.seen[address] = result.Address
	resolved := a.resolves[address]
	delete(a.resolves, address)
	a.mu.Unlock()

	if resolved != nil {
		resolved <- result.Address
	}
	if onAdvertisement != nil {
		onAdvertisement(ble.Advertisement{
			Name:    result.LocalName(),
			Address: ble.Address(address),
			RSSI:    int(result.RSSI),
		})
	}
}

// StopScan stops the radio scan and waits for the scan goroutine to return.
func (a *Adapter) StopScan(h ble.ScanHandle) error {
	sh, ok := h.(*scanHandle)
	if !ok || sh == nil {
		return nil
	}

	var err error
	sh.stop.Do(func() {
		select {
		case <-sh.done:
			return
		default:
		}
		if stopErr := a.adapter.StopScan(); stopErr != nil {
			err = fmt.Errorf("%w: stop scan: %w", ble.ErrTransport, stopErr)
		}
	})
	if err != nil {
		return err
	}
	<-sh.done
	return nil
}

// Connect resolves address, connects within timeout and returns the link.
func (a *Adapter) Connect(ctx context.Context, address ble.Address, timeout time.Duration) (ble.Connection, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target, err := a.resolve(ctx, address.String())
	if err != nil {
		return nil, err
	}

	type result struct {
		device bluetooth.Device
		err    error
	}
	results := make(chan result, 1)
	go func() {
		device, err := a.adapter.Connect(target, bluetooth.ConnectionParams{
			ConnectionTimeout: bluetooth.NewDuration(timeout),
		})
		results <- result{device, err}
	}()

	var res result
	select {
	case res = <-results:
	case <-ctx.Done():
		go func() {
			// A late connect is released so the peripheral can advertise again.
			if late := <-results; late.err == nil {
				_ = late.device.Disconnect()
			}
		}()
		return nil, fmt.Errorf("%w: connect %s: %w", ble.ErrTransport, address, ctx.Err())
	}
	if res.err != nil {
		return nil, fmt.Errorf("%w: connect %s: %w", ble.ErrTransport, address, res.err)
	}

	c := &connection{adapter: a, device: res.device, address: address.String(), subs: make(map[uuid.UUID]bluetooth.DeviceCharacteristic)}
	c.alive.Store(true)

	a.mu.Lock()
	a.links[c.address] = c
	a.mu.Unlock()

	a.logger.Debug("connected", "address", address)
	return c, nil
}

// resolve returns the platform address for s, scanning for it if needed.
func (a *Adapter) resolve(ctx context.Context, s string) (bluetooth.Address, error) {
	a.mu.Lock()
	if addr, ok := a.seen[s]; ok {
		a.mu.Unlock()
		return addr, nil
	}
	found := make(chan bluetooth.Address, 1)
	a.resolves[s] = found
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		delete(a.resolves, s)
		a.mu.Unlock()
	}()

	a.logger.Debug("resolving address", "address", s)
	var scanErrs <-chan error
	h, err := a.startScan(nil)
	switch {
	case errors.Is(err, ErrScanRunning):
		// The running scan observes the address too.
	case err != nil:
		return bluetooth.Address{}, err
	default:
		defer a.StopScan(h)
		scanErrs = h.errs
	}

	timer := time.NewTimer(a.resolveTimeout)
	defer timer.Stop()

	select {
	case addr := <-found:
		return addr, nil
	case err := <-scanErrs:
		return bluetooth.Address{}, err
	case <-timer.C:
		return bluetooth.Address{}, fmt.Errorf("%w: %w: %s", ble.ErrTransport, ErrUnknownAddress, s)
	case <-ctx.Done():
		return bluetooth.Address{}, fmt.Errorf("%w: resolve %s: %w", ble.ErrTransport, s, ctx.Err())
	}
}

func (a *Adapter) onConnectEvent(device bluetooth.Device, connected bool) {
	if connected {
		return
	}
	address := device.Address.String()

	a.mu.Lock()
	c := a.links[address]
	delete(a.links, address)
	a.mu.Unlock()

	if c != nil {
		a.logger.Debug("link dropped", "address", address)
		c.alive.Store(false)
	}
}

func (a *Adapter) forget(c *connection) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.links[c.address] == c {
		delete(a.links, c.address)
	}
}

// connection is one live bluetooth.Device.
type connection struct {
	adapter *Adapter
	device  bluetooth.Device
	address string
	alive   atomic.Bool

	mu       sync.Mutex
	subs     map[uuid.UUID]bluetooth.DeviceCharacteristic
	released bool
}

var _ ble.Connection = (*connection)(nil)

func (c *connection) Subscribe(characteristic uuid.UUID, onNotify func([]byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return fmt.Errorf("%w: %w", ble.ErrTransport, ErrConnectionReleased)
	}

	target, err := bluetooth.ParseUUID(characteristic.String())
	if err != nil {
		return fmt.Errorf("%w: %w", ble.ErrTransport, err)
	}

	services, err := c.device.DiscoverServices(nil)
	if err != nil {
		return fmt.Errorf("%w: discover services: %w", ble.ErrTransport, err)
	}
	for _, svc := range services {
		chars, err := svc.DiscoverCharacteristics([]bluetooth.UUID{target})
		if err != nil || len(chars) == 0 {
			continue
		}
		if err := chars[0].EnableNotifications(onNotify); err != nil {
			return fmt.Errorf("%w: enable notifications: %w", ble.ErrTransport, err)
		}
		c.subs[characteristic] = chars[0]
		return nil
	}
	return fmt.Errorf("%w: %w: %s", ble.ErrTransport, ErrNoCharacteristic, characteristic)
}

func (c *connection) Unsubscribe(characteristic uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	char, ok := c.subs[characteristic]
	if !ok {
		return nil
	}
	delete(c.subs, characteristic)
	if err := char.EnableNotifications(nil); err != nil {
		return fmt.Errorf("%w: disable notifications: %w", ble.ErrTransport, err)
	}
	return nil
}

func (c *connection) Disconnect() error {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return nil
	}
	c.released = true
	c.mu.Unlock()

	c.alive.Store(false)
	c.adapter.forget(c)
	if err := c.device.Disconnect(); err != nil {
		return fmt.Errorf("%w: disconnect: %w", ble.ErrTransport, err)
	}
	return nil
}

func (c *connection) Alive() bool {
	return c.alive.Load()
}
