package bluetoothutil

import (
	"errors"
	"fmt"

	"tinygo.org/x/bluetooth"
)

// ScanCallback receives advertisement reports from Adapter.Scan.
type ScanCallback func(*bluetooth.Adapter, bluetooth.ScanResult)

func StopScan(adapter *bluetooth.Adapter) error {
	err := adapter.StopScan()
	if err != nil && !IsBenignStopScanError(err) {
		return err
	}

	return nil
}

func NormalizeScanError(err error) error {
	if err == nil || IsBenignStopScanError(err) {
		return nil
	}

	return err
}

// RunScan blocks in Adapter.Scan. A stale scan left by another process is
// stopped and the scan is retried once.
func RunScan(adapter *bluetooth.Adapter, callback ScanCallback) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		err := adapter.Scan(callback)
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsScanAlreadyInProgressError(err) {
			return err
		}
		if stopErr := StopScan(adapter); stopErr != nil {
			return errors.Join(err, fmt.Errorf("stop stale bluetooth scan: %w", stopErr))
		}
	}
	return lastErr
}
