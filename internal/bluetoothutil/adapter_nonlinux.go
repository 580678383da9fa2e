//go:build !linux

package bluetoothutil

import (
	"log/slog"
	"strings"

	"tinygo.org/x/bluetooth"
)

// ResolveAdapter returns the default adapter. Named adapters are a BlueZ
// concept, so a configured id is ignored here.
func ResolveAdapter(adapterID string) *bluetooth.Adapter {
	if id := strings.TrimSpace(adapterID); id != "" {
		slog.Debug("ignoring bluetooth adapter id on this platform", "component", "bluetooth", "adapter", id)
	}

	return bluetooth.DefaultAdapter
}
