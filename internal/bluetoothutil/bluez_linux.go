//go:build linux

package bluetoothutil

import (
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	bluezBusName     = "org.bluez"
	bluezDeviceIface = "org.bluez.Device1"
	dbusPropsGet     = "org.freedesktop.DBus.Properties.Get"
)

// DeviceObjectPath converts "AA:BB:CC:DD:EE:FF" on adapter hci0 to
// "/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF".
func DeviceObjectPath(adapterID, address string) dbus.ObjectPath {
	escaped := strings.ReplaceAll(NormalizeAddress(address), ":", "_")
	return dbus.ObjectPath("/org/bluez/" + resolveAdapterID(adapterID) + "/dev_" + escaped)
}

// DeviceConnected reads the BlueZ Device1.Connected property.
func DeviceConnected(adapterID, address string) (bool, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return false, fmt.Errorf("connect to system bus: %w", err)
	}

	path := DeviceObjectPath(adapterID, address)
	var v dbus.Variant
	if err := conn.Object(bluezBusName, path).Call(dbusPropsGet, 0, bluezDeviceIface, "Connected").Store(&v); err != nil {
		if IsDBusErrorName(err, ErrNameUnknownObject) {
			return false, nil
		}
		return false, fmt.Errorf("read %s Connected: %w", path, err)
	}
	connected, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("property Connected of %s is %T, not bool", path, v.Value())
	}

	return connected, nil
}
