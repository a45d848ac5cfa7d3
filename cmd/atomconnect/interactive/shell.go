// Package interactive provides the operator shell for atomconnect.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"

	"github.com/beeresearch/atomconnect-go/pkg/ble"
	"github.com/beeresearch/atomconnect-go/pkg/connection"
	"github.com/beeresearch/atomconnect-go/pkg/discovery"
	"github.com/beeresearch/atomconnect-go/pkg/export"
	"github.com/beeresearch/atomconnect-go/pkg/persistence"
	"github.com/beeresearch/atomconnect-go/pkg/service"
	"github.com/beeresearch/atomconnect-go/pkg/status"
)

// Engine is the part of service.Monitor the shell drives.
type Engine interface {
	Status() *status.Status
	ScanFor(ctx context.Context, timeout time.Duration) ([]discovery.Device, error)
	Devices() []discovery.Device
	Connect(ctx context.Context, index int) error
	Disconnect()
	Export(outPath string) (int, error)
	Sessions() ([]persistence.SessionSummary, error)
	LifetimeCounts(address ble.Address) (uint64, error)
}

var _ Engine = (*service.Monitor)(nil)

// Config configures the shell.
type Config struct {
	// ScanTimeout is used by scan without an argument.
	ScanTimeout time.Duration

	// HomeDir anchors the default export path.
	HomeDir string
}

// Shell handles interactive mode for atomconnect.
type Shell struct {
	engine Engine
	cfg    Config
	rl     *readline.Instance
	out    io.Writer
	now    func() time.Time

	mu       sync.Mutex
	lastText string
}

// New creates a shell reading commands through readline.
func New(engine Engine, cfg Config) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "atom> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	s := newShell(engine, cfg, rl.Stdout())
	s.rl = rl
	return s, nil
}

func newShell(engine Engine, cfg Config, out io.Writer) *Shell {
	if cfg.ScanTimeout <= 0 {
		cfg.ScanTimeout = discovery.DefaultScanTimeout
	}
	return &Shell{engine: engine, cfg: cfg, out: out, now: time.Now}
}

// Stdout returns a writer that coordinates with the readline prompt.
func (s *Shell) Stdout() io.Writer {
	return s.out
}

// Watch prints every new status line as it changes.
func (s *Shell) Watch() {
	s.engine.Status().SetListener(func(v status.View) {
		s.mu.Lock()
		changed := v.Text != s.lastText
		s.lastText = v.Text
		s.mu.Unlock()

		if changed {
			fmt.Fprintf(s.out, "[%s] %s\n", v.State.Phase, v.Text)
		}
	})
}

// Run starts the command loop. It calls cancel on quit or EOF.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}

		if quit := s.Execute(ctx, line); quit {
			cancel()
			return
		}
	}
}

// Execute runs one command line and reports whether the shell should exit.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()
	case "scan":
		s.cmdScan(ctx, args)
	case "devices", "list", "ls":
		s.cmdDevices()
	case "connect", "c":
		s.cmdConnect(ctx, args)
	case "disconnect", "stop":
		s.cmdDisconnect()
	case "status", "st":
		s.cmdStatus()
	case "export":
		s.cmdExport(args)
	case "history":
		s.cmdHistory()
	case "quit", "exit", "q":
		s.cmdDisconnect()
		fmt.Fprintln(s.out, "Exiting...")
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
AtomConnect Commands:
  Discovery & Connection:
    scan [seconds]    - Scan for Atom devices (default window from config)
    devices           - List devices from the last scan
    connect <n>       - Connect to device number n
    disconnect        - Stop the connect loop

  Data:
    status            - Show connection state and the latest reading
    export [path]     - Export the session log as CSV
    history           - List archived sessions

  General:
    help              - Show this help
    quit              - Exit`)
}

func (s *Shell) cmdScan(ctx context.Context, args []string) {
	timeout := s.cfg.ScanTimeout
	if len(args) > 0 {
		secs, err := strconv.Atoi(args[0])
		if err != nil || secs <= 0 {
			fmt.Fprintf(s.out, "Invalid scan window: %s (seconds)\n", args[0])
			return
		}
		timeout = time.Duration(secs) * time.Second
	}

	devices, err := s.engine.ScanFor(ctx, timeout)
	if err != nil {
		fmt.Fprintf(s.out, "Scan error: %v\n", err)
		if len(devices) == 0 {
			return
		}
	}
	if len(devices) == 0 {
		fmt.Fprintln(s.out, "No matching devices found")
		return
	}
	s.printDevices(devices)
}

func (s *Shell) cmdDevices() {
	devices := s.engine.Devices()
	if len(devices) == 0 {
		fmt.Fprintln(s.out, "No devices known (run 'scan')")
		return
	}
	s.printDevices(devices)
}

func (s *Shell) printDevices(devices []discovery.Device) {
	fmt.Fprintf(s.out, "\nDevices (%d):\n", len(devices))
	for idx, d := range devices {
		fmt.Fprintf(s.out, "  %d. %-20s %s  %d dBm\n", idx+1, d.Name, d.ShortAddress(), d.RSSI)
	}
}

func (s *Shell) cmdConnect(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: connect <n>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid device number: %s\n", args[0])
		return
	}

	err = s.engine.Connect(ctx, n-1)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrNoSuchDevice):
		fmt.Fprintf(s.out, "No device %d (run 'devices')\n", n)
	case errors.Is(err, connection.ErrAlreadyConnecting):
		fmt.Fprintln(s.out, "Already connecting; 'disconnect' first")
	default:
		fmt.Fprintf(s.out, "Connect error: %v\n", err)
	}
}

func (s *Shell) cmdDisconnect() {
	if !s.engine.Status().State().Active() {
		return
	}
	s.engine.Disconnect()
	fmt.Fprintln(s.out, "Disconnect requested")
}

func (s *Shell) cmdStatus() {
	v := s.engine.Status().Snapshot()

	fmt.Fprintln(s.out, "\nStatus:")
	fmt.Fprintln(s.out, "-------------------------------------------")
	fmt.Fprintf(s.out, "  State:     %s\n", v.State)
	fmt.Fprintf(s.out, "  Message:   %s\n", v.Text)
	if v.Selected.Address != "" {
		fmt.Fprintf(s.out, "  Device:    %s\n", v.Selected)
	}
	if v.Scanning {
		fmt.Fprintln(s.out, "  Scanning:  yes")
	}
	if v.Latest == nil {
		fmt.Fprintln(s.out, "  Reading:   none yet")
		return
	}

	r := v.Latest
	fmt.Fprintf(s.out, "  Reading:   %s\n", r.Timestamp.Format(time.TimeOnly))
	fmt.Fprintf(s.out, "    Counts:  %d (%.2f cps, %.0f cpm)\n", r.TotalCounts, r.CPS, r.CPM())
	fmt.Fprintf(s.out, "    Dose:    %.4f mSv\n", r.Dose)
	fmt.Fprintf(s.out, "    Rate:    %.3f uSv/h\n", r.DoseRate)
	fmt.Fprintf(s.out, "    Battery: %d%%\n", r.Battery)
	fmt.Fprintf(s.out, "    Temp:    %d C\n", r.TemperatureC)
}

func (s *Shell) cmdExport(args []string) {
	path := export.DefaultPath(s.cfg.HomeDir, s.now())
	if len(args) > 0 {
		path = args[0]
	}

	n, err := s.engine.Export(path)
	switch {
	case errors.Is(err, export.ErrNoData):
		fmt.Fprintln(s.out, "No data recorded.")
	case err != nil:
		fmt.Fprintf(s.out, "Export error: %v\n", err)
	default:
		fmt.Fprintf(s.out, "Exported %d readings to %s\n", n, path)
	}
}

func (s *Shell) cmdHistory() {
	sessions, err := s.engine.Sessions()
	if errors.Is(err, service.ErrHistoryDisabled) {
		fmt.Fprintln(s.out, "History is disabled")
		return
	}
	if err != nil {
		fmt.Fprintf(s.out, "History error: %v\n", err)
		return
	}
	if len(sessions) == 0 {
		fmt.Fprintln(s.out, "No sessions recorded")
		return
	}

	fmt.Fprintf(s.out, "\nSessions (%d):\n", len(sessions))
	totals := make(map[string]uint64)
	for _, sess := range sessions {
		ended := "open"
		if !sess.EndedAt.IsZero() {
			ended = sess.EndedAt.Sub(sess.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(s.out, "  %s  %-16s %s  %d samples, %d counts, %s\n",
			sess.StartedAt.Format(time.DateTime), sess.Name, ended, sess.Samples, sess.MaxCounts, sess.EndReason)
		if _, ok := totals[sess.Address]; !ok {
			total, err := s.engine.LifetimeCounts(ble.Address(sess.Address))
			if err == nil {
				totals[sess.Address] = total
			}
		}
	}

	fmt.Fprintln(s.out, "\nLifetime counts:")
	for address, total := range totals {
		fmt.Fprintf(s.out, "  %s  %d\n", address, total)
	}
}
