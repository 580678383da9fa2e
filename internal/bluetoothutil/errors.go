package bluetoothutil

import (
	"errors"
	"strings"

	"github.com/godbus/dbus/v5"
)

// BlueZ D-Bus error names the session layer reacts to.
const (
	ErrNameNotReady      = "org.bluez.Error.NotReady"
	ErrNameFailed        = "org.bluez.Error.Failed"
	ErrNameInProgress    = "org.bluez.Error.InProgress"
	ErrNameNotConnected  = "org.bluez.Error.NotConnected"
	ErrNameUnknownObject = "org.freedesktop.DBus.Error.UnknownObject"
)

func IsDBusErrorName(err error, want string) bool {
	var dbusErrPtr *dbus.Error
	if errors.As(err, &dbusErrPtr) && dbusErrPtr != nil && dbusErrPtr.Name == want {
		return true
	}

	var dbusErr dbus.Error
	return errors.As(err, &dbusErr) && dbusErr.Name == want
}

func IsBenignStopScanError(err error) bool {
	if err == nil {
		return true
	}
	if IsDBusErrorName(err, ErrNameNotReady) {
		return true
	}
	if IsDBusErrorName(err, ErrNameFailed) && containsFold(err.Error(), "no discovery started") {
		return true
	}

	return containsFold(err.Error(), "cancel", "stopped", "not scanning", "no scan in progress")
}

func IsScanAlreadyInProgressError(err error) bool {
	if err == nil {
		return false
	}
	if IsDBusErrorName(err, ErrNameInProgress) {
		return true
	}
	return containsFold(err.Error(), "already in progress")
}

// IsNotConnectedError reports a disconnect attempt on a link that is already down.
func IsNotConnectedError(err error) bool {
	if err == nil {
		return false
	}
	if IsDBusErrorName(err, ErrNameNotConnected) {
		return true
	}
	return containsFold(err.Error(), "not connected")
}

func containsFold(s string, needles ...string) bool {
	s = strings.ToLower(s)
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
