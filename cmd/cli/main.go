package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/skobkin/bledm/internal/app"
	"github.com/skobkin/bledm/internal/config"
	"github.com/skobkin/bledm/internal/notifications"
	"github.com/skobkin/bledm/internal/persistence"
	"github.com/skobkin/bledm/internal/session"
	"github.com/skobkin/bledm/internal/transport"
)

const usage = `usage: bledm-cli [flags] <command> [args]

commands:
  scan              scan and add the chosen device to the list
  connect <name>    scan for <name>, connect and hold until interrupted
  history           print recent session activity
  clear-history     delete the activity journal (see -older-than)
`

type cliOptions struct {
	Adapter     string
	ScanTimeout time.Duration

	Command   string
	Target    string
	Pick      string
	Hold      time.Duration
	OlderThan time.Duration
	Limit     int
	Notify    bool
	Version   bool
}

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(opts, os.Stdin, os.Stdout); err != nil {
		slog.Error("run cli", "error", err)
		os.Exit(1)
	}
}

func parseArgs(args []string, output io.Writer) (cliOptions, error) {
	var opts cliOptions

	fs := flag.NewFlagSet("bledm-cli", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		_, _ = fmt.Fprint(output, usage, "\nflags:\n")
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(output, "\n%s\n", app.SourceURL)
	}
	fs.StringVar(&opts.Adapter, "adapter", "", "bluetooth adapter id, e.g. hci1 (Linux only)")
	fs.DurationVar(&opts.ScanTimeout, "scan-timeout", 0, "discovery window, 0 uses the configured value")
	fs.StringVar(&opts.Pick, "pick", "", "pick the scan candidate with this address or name instead of prompting")
	fs.DurationVar(&opts.Hold, "hold", 0, "keep the connection for this long, 0 waits for interrupt")
	fs.DurationVar(&opts.OlderThan, "older-than", 0, "clear-history only removes records older than this, 0 removes all")
	fs.IntVar(&opts.Limit, "limit", persistence.DefaultActivityLimit, "number of history records to print")
	fs.BoolVar(&opts.Notify, "notify", false, "show desktop notifications for session events")
	fs.BoolVar(&opts.Version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	if opts.Version {
		return opts, nil
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return cliOptions{}, errors.New("missing command")
	}
	opts.Command = rest[0]
	switch opts.Command {
	case "scan", "history", "clear-history":
		if len(rest) != 1 {
			return cliOptions{}, fmt.Errorf("%s takes no arguments", opts.Command)
		}
	case "connect":
		if len(rest) != 2 || strings.TrimSpace(rest[1]) == "" {
			return cliOptions{}, errors.New("connect requires a device name")
		}
		opts.Target = strings.TrimSpace(rest[1])
		if opts.Pick == "" {
			opts.Pick = opts.Target
		}
	default:
		return cliOptions{}, fmt.Errorf("unknown command %q", opts.Command)
	}
	if opts.Limit <= 0 {
		return cliOptions{}, fmt.Errorf("limit must be positive, got %d", opts.Limit)
	}
	if opts.Hold < 0 || opts.OlderThan < 0 || opts.ScanTimeout < 0 {
		return cliOptions{}, errors.New("durations must not be negative")
	}

	return opts, nil
}

// applyOverrides maps flags onto the loaded config for this run only.
func (o cliOptions) applyOverrides(cfg *config.AppConfig) {
	if adapter := strings.TrimSpace(o.Adapter); adapter != "" {
		cfg.Bluetooth.Adapter = adapter
	}
	if o.ScanTimeout > 0 {
		cfg.Bluetooth.ScanTimeoutSeconds = int(math.Ceil(o.ScanTimeout.Seconds()))
	}
}

func run(opts cliOptions, in io.Reader, out io.Writer) error {
	if opts.Version {
		_, err := fmt.Fprintln(out, app.VersionLine())
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Initialize(ctx, app.Options{
		LockID:          app.InstanceLockID,
		Chooser:         newChooser(opts.Pick, in, out),
		LogToStdoutOnly: true,
		Override:        opts.applyOverrides,
	})
	if err != nil {
		return fmt.Errorf("initialize app runtime: %w", err)
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			slog.Warn("close app runtime", "error", closeErr)
		}
	}()
	logger := rt.LogManager.Logger("cli")
	logger.Info("starting bledm cli", "command", opts.Command, "version", app.BuildVersion())

	if opts.Notify {
		rt.StartNotifications(notifications.NewDesktopSender(app.DisplayName, rt.LogManager.Logger("notifications")), func() bool {
			return false
		})
	}

	switch opts.Command {
	case "scan":
		return runScan(ctx, rt.Session, out)
	case "connect":
		return runConnect(ctx, rt.Session, opts.Target, opts.Hold, out)
	case "history":
		records, err := rt.RecentActivity(ctx, opts.Limit)
		if err != nil {
			return err
		}
		printHistory(out, records)
		return nil
	case "clear-history":
		var before time.Time
		if opts.OlderThan > 0 {
			before = time.Now().Add(-opts.OlderThan)
		}
		removed, err := rt.ClearActivity(ctx, before)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "Removed %d activity records.\n", removed)
		return err
	default:
		return fmt.Errorf("unknown command %q", opts.Command)
	}
}

type sessionRunner interface {
	Snapshot() session.Snapshot
	Scan(ctx context.Context) error
	Connect(ctx context.Context, name string) error
	Disconnect(ctx context.Context) error
}

func runScan(ctx context.Context, s sessionRunner, out io.Writer) error {
	err := s.Scan(ctx)
	printSnapshot(out, s.Snapshot())

	return err
}

func runConnect(ctx context.Context, s sessionRunner, name string, hold time.Duration, out io.Writer) error {
	if err := s.Scan(ctx); err != nil {
		printSnapshot(out, s.Snapshot())
		return err
	}
	if err := s.Connect(ctx, name); err != nil {
		printSnapshot(out, s.Snapshot())
		return err
	}
	printSnapshot(out, s.Snapshot())

	waitCtx := ctx
	if hold > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, hold)
		defer cancel()
	}
	<-waitCtx.Done()

	// The signal context is already done here.
	disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.Disconnect(disconnectCtx)
	printSnapshot(out, s.Snapshot())

	return err
}

func printSnapshot(out io.Writer, snap session.Snapshot) {
	for _, entry := range snap.Entries {
		_, _ = fmt.Fprintf(out, "%s - %s\n", entry.Name, entry.Status)
	}
	if snap.Message != "" {
		_, _ = fmt.Fprintln(out, snap.Message)
	}
}

func printHistory(out io.Writer, records []persistence.ActivityRecord) {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(out, "No activity recorded.")
		return
	}
	for _, rec := range records {
		mark := "ok"
		if rec.Failed {
			mark = "failed"
		}
		_, _ = fmt.Fprintf(out, "%s  %-10s %-6s %s\n", rec.At.Local().Format(time.DateTime), rec.Operation, mark, rec.Message)
	}
}

func newChooser(pick string, in io.Reader, out io.Writer) transport.Chooser {
	if strings.TrimSpace(pick) != "" {
		return transport.ChooserFunc(func(_ context.Context, candidates []transport.Candidate) (transport.Candidate, error) {
			candidate, ok := transport.FindCandidate(candidates, pick)
			if !ok {
				return transport.Candidate{}, fmt.Errorf("%w: %q", transport.ErrNoDevicesFound, pick)
			}
			return candidate, nil
		})
	}

	return &promptChooser{in: bufio.NewReader(in), out: out}
}

// promptChooser lists candidates on out and reads a number from in.
type promptChooser struct {
	in  *bufio.Reader
	out io.Writer
}

func (c *promptChooser) Choose(ctx context.Context, candidates []transport.Candidate) (transport.Candidate, error) {
	if len(candidates) == 0 {
		return transport.Candidate{}, transport.ErrNoDevicesFound
	}
	for i, candidate := range candidates {
		_, _ = fmt.Fprintf(c.out, "%d) %s  %s\n", i+1, candidate.Title(), candidate.Details())
	}
	_, _ = fmt.Fprint(c.out, "Pick a device (empty to cancel): ")

	lines := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		line, err := c.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			errs <- err
			return
		}
		lines <- line
	}()

	select {
	case <-ctx.Done():
		return transport.Candidate{}, ctx.Err()
	case err := <-errs:
		if errors.Is(err, io.EOF) {
			return transport.Candidate{}, transport.ErrChooserCanceled
		}
		return transport.Candidate{}, fmt.Errorf("read choice: %w", err)
	case line := <-lines:
		line = strings.TrimSpace(line)
		if line == "" {
			return transport.Candidate{}, transport.ErrChooserCanceled
		}
		index, err := strconv.Atoi(line)
		if err != nil {
			return transport.Candidate{}, fmt.Errorf("invalid choice %q: %w", line, err)
		}
		candidate, ok := transport.CandidateAt(candidates, index-1)
		if !ok {
			return transport.Candidate{}, fmt.Errorf("choice %d is out of range", index)
		}
		return candidate, nil
	}
}
