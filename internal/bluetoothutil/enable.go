package bluetoothutil

import (
	"fmt"
	"runtime"
	"strings"

	"tinygo.org/x/bluetooth"
)

// EnableAdapter powers up the adapter for scanning and connecting.
func EnableAdapter(adapter *bluetooth.Adapter) error {
	err := adapter.Enable()
	if err == nil || isBenignEnableAdapterError(err) {
		return nil
	}

	return fmt.Errorf("enable bluetooth adapter: %w", err)
}

func isBenignEnableAdapterError(err error) bool {
	if err == nil || runtime.GOOS != "windows" {
		return false
	}

	// On Windows RoInitialize(S_FALSE) surfaces as "Incorrect function." when COM is already initialized.
	msg := strings.TrimSpace(strings.ToLower(err.Error()))

	return msg == "incorrect function" || msg == "incorrect function."
}
