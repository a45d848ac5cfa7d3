// Command atomconnect connects to an Atom dosimeter over Bluetooth Low
// Energy, records its readings and offers an interactive shell.
//
// Usage:
//
//	atomconnect [flags]
//
// Flags:
//
//	-config string          Configuration file path (default <data-dir>/config.yaml if present)
//	-data-dir string        Directory for snapshot, session log, device list and history
//	-log-dir string         Directory for last-run.log
//	-log-level string       Log level: debug, info, warn, error (default "info")
//	-scan-timeout duration  Scan window (default 30s)
//	-name-prefix string     Device name prefix (default "atom")
//	-min-rssi int           Exclusive minimum RSSI in dBm (default -70)
//	-max-attempts int       Connect attempts per session (default 10)
//	-connect-timeout dur    Timeout of one connect attempt (default 40s)
//	-retry-delay duration   Pause between attempts (default 2.5s)
//	-history                Archive sessions in history.db (default true)
//	-metrics-addr string    Serve Prometheus metrics on this address
//	-protocol-log string    Write a CBOR protocol capture to this file
//
// Examples:
//
//	# Start the shell with defaults
//	atomconnect
//
//	# Expose metrics and capture the protocol
//	atomconnect -metrics-addr 127.0.0.1:9464 -protocol-log session.alog
//
// Interactive Commands:
//
//	scan [seconds] - Scan for Atom devices
//	devices        - List devices from the last scan
//	connect <n>    - Connect to device number n
//	disconnect     - Stop the connect loop
//	status         - Show connection state and the latest reading
//	export [path]  - Export the session log as CSV
//	history        - List archived sessions
//	quit           - Exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"tinygo.org/x/bluetooth"

	"github.com/beeresearch/atomconnect-go/cmd/atomconnect/interactive"
	"github.com/beeresearch/atomconnect-go/internal/config"
	"github.com/beeresearch/atomconnect-go/pkg/ble/tinygo"
	"github.com/beeresearch/atomconnect-go/pkg/log"
	"github.com/beeresearch/atomconnect-go/pkg/metrics"
	"github.com/beeresearch/atomconnect-go/pkg/service"
)

func main() {
	defaults := config.Default()
	flags := config.NewFlags(flag.CommandLine, defaults)
	flag.Parse()

	cfg, err := flags.Resolve(defaults)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	for _, dir := range []string{cfg.DataDir, cfg.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	// last-run.log is truncated on every start.
	logFile, err := os.Create(cfg.LogPath())
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	console := &consoleWriter{w: os.Stdout}
	logger := slog.New(slog.NewTextHandler(io.MultiWriter(logFile, console), &slog.HandlerOptions{Level: cfg.Level()}))
	logger.Info("=== AtomConnect started ===", "data_dir", cfg.DataDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mcfg := cfg.MonitorConfig()
	mcfg.Logger = logger

	var protocolLoggers []log.Logger
	if cfg.ProtocolLog != "" {
		fileLogger, err := log.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			return fmt.Errorf("failed to create protocol logger: %w", err)
		}
		defer fileLogger.Close()
		logger.Info("protocol logging enabled", "path", cfg.ProtocolLog)
		protocolLoggers = append(protocolLoggers, fileLogger)
	}
	if cfg.Level() <= slog.LevelDebug {
		protocolLoggers = append(protocolLoggers, log.NewSlogAdapter(logger))
	}
	if len(protocolLoggers) > 0 {
		mcfg.ProtocolLogger = log.NewMultiLogger(protocolLoggers...)
	}

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		mcfg.Registerer = reg
		metricsSrv = startMetrics(cfg.MetricsAddr, reg, logger)
	}

	adapter, err := tinygo.New(bluetooth.DefaultAdapter, tinygo.Config{Logger: logger})
	if err != nil {
		return err
	}

	monitor, err := service.NewMonitor(adapter, mcfg)
	if err != nil {
		return err
	}

	home, _ := os.UserHomeDir()
	shell, err := interactive.New(monitor, interactive.Config{ScanTimeout: cfg.Scan.Timeout, HomeDir: home})
	if err != nil {
		monitor.Close()
		return err
	}
	console.Set(shell.Stdout())
	shell.Watch()
	go shell.Run(ctx, cancel)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	cancel()

	var errs []error
	if err := monitor.Close(); err != nil {
		errs = append(errs, err)
	}
	if metricsSrv != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		stop()
	}

	console.Set(os.Stdout)
	logger.Info("goodbye")
	return errors.Join(errs...)
}

func startMetrics(addr string, g prometheus.Gatherer, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server exited", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}

// consoleWriter lets the log handler follow the readline prompt once the
// shell exists.
type consoleWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *consoleWriter) Set(w io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.w = w
}

func (c *consoleWriter) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Write(p)
}
