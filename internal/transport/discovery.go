package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/skobkin/bledm/internal/bluetoothutil"
	"github.com/skobkin/bledm/internal/session"
	"tinygo.org/x/bluetooth"
)

const (
	DefaultScanTimeout = 10 * time.Second
	scanStopAttempts   = 3
)

// scanStopWait bounds each wait for Adapter.Scan to return after StopScan.
var scanStopWait = 500 * time.Millisecond

type scanFunc func(ctx context.Context, adapterID string, prefixes []string) ([]Candidate, error)

// Discovery implements session.Discoverer: it scans for advertising devices
// matching the name prefixes, then asks the Chooser to pick one.
type Discovery struct {
	adapterID   string
	scanTimeout time.Duration
	chooser     Chooser
	scan        scanFunc

	mu sync.Mutex
}

func NewDiscovery(adapterID string, scanTimeout time.Duration, chooser Chooser) *Discovery {
	if scanTimeout <= 0 {
		scanTimeout = DefaultScanTimeout
	}
	return &Discovery{
		adapterID:   strings.TrimSpace(adapterID),
		scanTimeout: scanTimeout,
		chooser:     chooser,
		scan:        scanAdvertisements,
	}
}

// SetChooser replaces the chooser used by later RequestDevice calls.
func (d *Discovery) SetChooser(chooser Chooser) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.chooser = chooser
}

func (d *Discovery) RequestDevice(ctx context.Context, opts session.DiscoveryOptions) (session.Device, error) {
	d.mu.Lock()
	chooser := d.chooser
	d.mu.Unlock()
	if chooser == nil {
		return nil, errors.New("device chooser is not configured")
	}

	services, err := bluetoothutil.ParseServiceUUIDs(opts.OptionalServices)
	if err != nil {
		return nil, fmt.Errorf("parse optional services: %w", err)
	}

	logger := transportLogger("discovery", "adapter", d.adapterID)
	scanCtx := ctx
	if _, hasDeadline := scanCtx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(scanCtx, d.scanTimeout)
		defer cancel()
	}

	logger.Info("scanning", "timeout", d.scanTimeout, "name_prefixes", opts.NamePrefixes)
	candidates, err := d.scan(scanCtx, d.adapterID, opts.NamePrefixes)
	if err != nil {
		logger.Warn("scan failed", "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		logger.Info("no matching devices found")
		return nil, ErrNoDevicesFound
	}
	logger.Debug("scan finished", "candidates", len(candidates))

	picked, err := chooser.Choose(ctx, candidates)
	if err != nil {
		logger.Info("chooser returned without a device", "error", err)
		return nil, err
	}
	logger.Info("device chosen", "name", picked.Name, "address", picked.Address)

	return newPeripheral(picked, d.adapterID, services), nil
}

// scanAdvertisements collects advertisements until ctx is done.
func scanAdvertisements(ctx context.Context, adapterID string, prefixes []string) ([]Candidate, error) {
	adapter := bluetoothutil.ResolveAdapter(adapterID)
	if err := bluetoothutil.EnableAdapter(adapter); err != nil {
		return nil, err
	}
	if err := bluetoothutil.StopScan(adapter); err != nil {
		return nil, fmt.Errorf("reset bluetooth scan state: %w", err)
	}

	collector := newCandidateCollector(prefixes)
	scanErrCh := make(chan error, 1)
	go func() {
		scanErrCh <- bluetoothutil.RunScan(adapter, func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			collector.add(candidateFromResult(result))
		})
	}()

	stop := func() error { return bluetoothutil.StopScan(adapter) }
	if err := awaitScanCompletion(ctx, stop, scanErrCh); err != nil {
		return nil, err
	}

	return collector.list(), nil
}

func awaitScanCompletion(ctx context.Context, stop func() error, scanErrCh <-chan error) error {
	select {
	case err := <-scanErrCh:
		if err = bluetoothutil.NormalizeScanError(err); err != nil {
			return fmt.Errorf("scan bluetooth devices: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	if err := stopScanAndWait(stop, scanErrCh); err != nil {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil
	}

	return ctx.Err()
}

// stopScanAndWait stops the scan and waits for it to return. A stop that lands
// before the scan has really started is lost, so it is repeated a few times.
func stopScanAndWait(stop func() error, scanErrCh <-chan error) error {
	for attempt := 1; attempt <= scanStopAttempts; attempt++ {
		if err := stop(); err != nil {
			return fmt.Errorf("stop bluetooth scan: %w", err)
		}

		timer := time.NewTimer(scanStopWait)
		select {
		case err := <-scanErrCh:
			timer.Stop()
			if err = bluetoothutil.NormalizeScanError(err); err != nil {
				return fmt.Errorf("scan bluetooth devices: %w", err)
			}
			return nil
		case <-timer.C:
		}
	}

	transportLogger("scan").Warn("bluetooth scan did not return after stop", "attempts", scanStopAttempts)
	return nil
}

// candidateCollector dedups advertisements by address. Names can arrive in a
// later scan response, so prefix filtering happens in list.
type candidateCollector struct {
	prefixes []string

	mu     sync.Mutex
	byAddr map[string]Candidate
}

func newCandidateCollector(prefixes []string) *candidateCollector {
	return &candidateCollector{
		prefixes: prefixes,
		byAddr:   make(map[string]Candidate),
	}
}

func (c *candidateCollector) add(candidate Candidate) {
	if candidate.Address == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.byAddr[candidate.Address]; ok {
		candidate = mergeCandidate(existing, candidate)
	}
	c.byAddr[candidate.Address] = candidate
}

func (c *candidateCollector) list() []Candidate {
	c.mu.Lock()
	out := make([]Candidate, 0, len(c.byAddr))
	for _, candidate := range c.byAddr {
		if bluetoothutil.MatchesNamePrefix(candidate.Name, c.prefixes) {
			out = append(out, candidate)
		}
	}
	c.mu.Unlock()

	sortCandidates(out)
	return out
}

// transportLogger tags records with the transport operation they belong to.
func transportLogger(op string, attrs ...any) *slog.Logger {
	return slog.Default().With(append([]any{"component", "transport", "op", op}, attrs...)...)
}
