package bluetoothutil

import (
	"fmt"
	"strconv"
	"strings"

	"tinygo.org/x/bluetooth"
)

// gattServiceNames maps the GATT service names accepted in config to UUIDs.
var gattServiceNames = map[string]bluetooth.UUID{
	"battery_service":    bluetooth.ServiceUUIDBattery,
	"device_information": bluetooth.ServiceUUIDDeviceInformation,
	"heart_rate":         bluetooth.ServiceUUIDHeartRate,
	"generic_access":     bluetooth.ServiceUUIDGenericAccess,
	"generic_attribute":  bluetooth.ServiceUUIDGenericAttribute,
}

// ParseServiceUUID accepts a GATT service name, a 16-bit "0xNNNN" alias or a full UUID.
func ParseServiceUUID(raw string) (bluetooth.UUID, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return bluetooth.UUID{}, fmt.Errorf("service identifier is empty")
	}
	if uuid, ok := gattServiceNames[strings.ToLower(value)]; ok {
		return uuid, nil
	}
	if strings.HasPrefix(strings.ToLower(value), "0x") {
		short, err := strconv.ParseUint(value[2:], 16, 16)
		if err != nil {
			return bluetooth.UUID{}, fmt.Errorf("invalid 16-bit service UUID %q: %w", raw, err)
		}
		return bluetooth.New16BitUUID(uint16(short)), nil
	}

	uuid, err := bluetooth.ParseUUID(value)
	if err != nil {
		return bluetooth.UUID{}, fmt.Errorf("invalid service UUID %q: %w", raw, err)
	}

	return uuid, nil
}

// ParseServiceUUIDs resolves every identifier, failing on the first invalid one.
func ParseServiceUUIDs(raw []string) ([]bluetooth.UUID, error) {
	out := make([]bluetooth.UUID, 0, len(raw))
	for _, item := range raw {
		uuid, err := ParseServiceUUID(item)
		if err != nil {
			return nil, err
		}
		out = append(out, uuid)
	}

	return out, nil
}
