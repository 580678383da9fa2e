//go:build linux

package bluetoothutil

import (
	"strings"

	"tinygo.org/x/bluetooth"
)

const defaultAdapterID = "hci0"

func ResolveAdapter(adapterID string) *bluetooth.Adapter {
	trimmed := strings.TrimSpace(adapterID)
	if trimmed == "" {
		return bluetooth.DefaultAdapter
	}
	return bluetooth.NewAdapter(trimmed)
}

func resolveAdapterID(adapterID string) string {
	trimmed := strings.TrimSpace(adapterID)
	if trimmed == "" {
		return defaultAdapterID
	}
	return trimmed
}
