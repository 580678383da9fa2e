package transport

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/skobkin/bledm/internal/bluetoothutil"
	"tinygo.org/x/bluetooth"
)

var (
	// ErrNoDevicesFound means the scan window closed without a matching advertisement.
	ErrNoDevicesFound = errors.New("no matching bluetooth devices found")
	// ErrChooserCanceled means the user dismissed the device chooser.
	ErrChooserCanceled = errors.New("device chooser was canceled")
)

// Candidate is one advertising device offered to the chooser.
type Candidate struct {
	Name    string
	Address string
	RSSI    int

	addr bluetooth.Address
}

// Chooser presents candidates to the user and blocks until one is picked.
type Chooser interface {
	Choose(ctx context.Context, candidates []Candidate) (Candidate, error)
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(ctx context.Context, candidates []Candidate) (Candidate, error)

func (f ChooserFunc) Choose(ctx context.Context, candidates []Candidate) (Candidate, error) {
	return f(ctx, candidates)
}

func candidateFromResult(result bluetooth.ScanResult) Candidate {
	return Candidate{
		Name:    strings.TrimSpace(result.LocalName()),
		Address: bluetoothutil.NormalizeAddress(result.Address.String()),
		RSSI:    int(result.RSSI),
		addr:    result.Address,
	}
}

// mergeCandidate folds a repeated advertisement into the known one.
func mergeCandidate(existing, next Candidate) Candidate {
	merged := existing

	if len(strings.TrimSpace(next.Name)) > len(strings.TrimSpace(merged.Name)) {
		merged.Name = next.Name
	}
	if next.RSSI > merged.RSSI {
		merged.RSSI = next.RSSI
	}

	return merged
}

func sortCandidates(candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].RSSI != candidates[j].RSSI {
			return candidates[i].RSSI > candidates[j].RSSI
		}

		leftName := strings.ToLower(candidates[i].Name)
		rightName := strings.ToLower(candidates[j].Name)
		if leftName != rightName {
			return leftName < rightName
		}

		return candidates[i].Address < candidates[j].Address
	})
}

// Title is the first line shown for a candidate in choosers.
func (c Candidate) Title() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	return "(unnamed)"
}

// Details is the secondary line shown for a candidate in choosers.
func (c Candidate) Details() string {
	return fmt.Sprintf("%s RSSI: %d", c.Address, c.RSSI)
}

func (c Candidate) String() string {
	return c.Title() + "\n" + c.Details()
}

// CandidateAt returns candidates[index] when index is in range.
func CandidateAt(candidates []Candidate, index int) (Candidate, bool) {
	if index < 0 || index >= len(candidates) {
		return Candidate{}, false
	}
	return candidates[index], true
}

// FindCandidate matches query against address first, then exact name.
func FindCandidate(candidates []Candidate, query string) (Candidate, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Candidate{}, false
	}
	address := bluetoothutil.NormalizeAddress(query)
	for _, c := range candidates {
		if c.Address == address {
			return c, true
		}
	}
	for _, c := range candidates {
		if c.Name == query {
			return c, true
		}
	}

	return Candidate{}, false
}
