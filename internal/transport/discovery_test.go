package transport

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/skobkin/bledm/internal/session"
)

func newTestDiscovery(scan scanFunc, chooser Chooser) *Discovery {
	d := NewDiscovery("hci0", time.Second, chooser)
	d.scan = scan
	return d
}

func TestDiscoveryRequestDeviceReturnsChosenPeripheral(t *testing.T) {
	var gotPrefixes []string
	var gotDeadline bool
	scan := func(ctx context.Context, adapterID string, prefixes []string) ([]Candidate, error) {
		if adapterID != "hci0" {
			t.Fatalf("unexpected adapter: %q", adapterID)
		}
		_, gotDeadline = ctx.Deadline()
		gotPrefixes = prefixes
		return []Candidate{
			{Name: "WIDI Jack", Address: "AA:AA:AA:AA:AA:AA", RSSI: -50},
			{Name: "WIDI Jack2", Address: "BB:BB:BB:BB:BB:BB", RSSI: -60},
		}, nil
	}
	var offered []Candidate
	chooser := ChooserFunc(func(_ context.Context, candidates []Candidate) (Candidate, error) {
		offered = candidates
		return candidates[1], nil
	})

	device, err := newTestDiscovery(scan, chooser).RequestDevice(context.Background(), session.DiscoveryOptions{
		NamePrefixes:     []string{"WIDI Jack"},
		OptionalServices: []string{"battery_service"},
	})
	if err != nil {
		t.Fatalf("request device: %v", err)
	}

	peripheral, ok := device.(*Peripheral)
	if !ok {
		t.Fatalf("unexpected device type %T", device)
	}
	if peripheral.Name() != "WIDI Jack2" || peripheral.Address() != "BB:BB:BB:BB:BB:BB" {
		t.Fatalf("unexpected peripheral: %s %s", peripheral.Name(), peripheral.Address())
	}
	if len(peripheral.services) != 1 {
		t.Fatalf("expected optional service to be resolved, got %v", peripheral.services)
	}
	if len(offered) != 2 {
		t.Fatalf("expected chooser to see both candidates, got %d", len(offered))
	}
	if !gotDeadline {
		t.Fatalf("expected scan context to carry the scan timeout")
	}
	if len(gotPrefixes) != 1 || gotPrefixes[0] != "WIDI Jack" {
		t.Fatalf("unexpected prefixes: %v", gotPrefixes)
	}
}

func TestDiscoveryRequestDeviceErrors(t *testing.T) {
	scanErr := errors.New("adapter is off")
	tests := []struct {
		name    string
		scan    scanFunc
		chooser Chooser
		opts    session.DiscoveryOptions
		wantErr error
	}{
		{
			name: "no candidates",
			scan: func(context.Context, string, []string) ([]Candidate, error) { return nil, nil },
			chooser: ChooserFunc(func(context.Context, []Candidate) (Candidate, error) {
				t.Fatalf("chooser must not be called without candidates")
				return Candidate{}, nil
			}),
			wantErr: ErrNoDevicesFound,
		},
		{
			name:    "scan failure",
			scan:    func(context.Context, string, []string) ([]Candidate, error) { return nil, scanErr },
			chooser: ChooserFunc(func(context.Context, []Candidate) (Candidate, error) { return Candidate{}, nil }),
			wantErr: scanErr,
		},
		{
			name: "chooser canceled",
			scan: func(context.Context, string, []string) ([]Candidate, error) {
				return []Candidate{{Name: "WIDI Jack", Address: "AA"}}, nil
			},
			chooser: ChooserFunc(func(context.Context, []Candidate) (Candidate, error) {
				return Candidate{}, ErrChooserCanceled
			}),
			wantErr: ErrChooserCanceled,
		},
	}

	for _, tc := range tests {
		_, err := newTestDiscovery(tc.scan, tc.chooser).RequestDevice(context.Background(), tc.opts)
		if !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: want %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestDiscoveryRejectsInvalidOptionalService(t *testing.T) {
	d := newTestDiscovery(func(context.Context, string, []string) ([]Candidate, error) {
		t.Fatalf("scan must not start with invalid options")
		return nil, nil
	}, ChooserFunc(func(context.Context, []Candidate) (Candidate, error) { return Candidate{}, nil }))

	if _, err := d.RequestDevice(context.Background(), session.DiscoveryOptions{OptionalServices: []string{"nope"}}); err == nil {
		t.Fatalf("expected error for invalid service")
	}
}

func TestDiscoveryWithoutChooser(t *testing.T) {
	d := newTestDiscovery(func(context.Context, string, []string) ([]Candidate, error) { return nil, nil }, nil)
	if _, err := d.RequestDevice(context.Background(), session.DiscoveryOptions{}); err == nil {
		t.Fatalf("expected error without chooser")
	}

	d.SetChooser(ChooserFunc(func(context.Context, []Candidate) (Candidate, error) { return Candidate{}, nil }))
	if _, err := d.RequestDevice(context.Background(), session.DiscoveryOptions{}); !errors.Is(err, ErrNoDevicesFound) {
		t.Fatalf("expected ErrNoDevicesFound after setting chooser, got %v", err)
	}
}

func TestAwaitScanCompletion(t *testing.T) {
	prevWait := scanStopWait
	scanStopWait = 20 * time.Millisecond
	t.Cleanup(func() { scanStopWait = prevWait })

	t.Run("scan finishes on its own", func(t *testing.T) {
		scanErrCh := make(chan error, 1)
		scanErrCh <- nil
		stops := 0
		err := awaitScanCompletion(context.Background(), func() error { stops++; return nil }, scanErrCh)
		if err != nil || stops != 0 {
			t.Fatalf("unexpected result: err=%v stops=%d", err, stops)
		}
	})

	t.Run("timeout stops the scan", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		defer cancel()
		scanErrCh := make(chan error, 1)
		stops := 0
		err := awaitScanCompletion(ctx, func() error {
			stops++
			scanErrCh <- nil
			return nil
		}, scanErrCh)
		if err != nil || stops != 1 {
			t.Fatalf("unexpected result: err=%v stops=%d", err, stops)
		}
	})

	t.Run("cancel is reported", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		scanErrCh := make(chan error, 1)
		err := awaitScanCompletion(ctx, func() error {
			scanErrCh <- nil
			return nil
		}, scanErrCh)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("late scan start gets stopped again", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		defer cancel()
		scanErrCh := make(chan error, 1)
		stops := 0
		err := awaitScanCompletion(ctx, func() error {
			stops++
			if stops == 2 {
				scanErrCh <- nil
			}
			return nil
		}, scanErrCh)
		if err != nil || stops != 2 {
			t.Fatalf("unexpected result: err=%v stops=%d", err, stops)
		}
	})

	t.Run("scan that never returns does not block", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		defer cancel()
		stops := 0
		done := make(chan error, 1)
		go func() {
			done <- awaitScanCompletion(ctx, func() error { stops++; return nil }, make(chan error))
		}()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("wait for scan completion was not bounded")
		}
		if stops != scanStopAttempts {
			t.Fatalf("expected %d stop attempts, got %d", scanStopAttempts, stops)
		}
	})

	t.Run("stop failure", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := awaitScanCompletion(ctx, func() error { return errors.New("adapter gone") }, make(chan error))
		if err == nil || !strings.Contains(err.Error(), "stop bluetooth scan") {
			t.Fatalf("expected stop error, got %v", err)
		}
	})
}
