//go:build !linux

package bluetoothutil

import (
	"errors"
	"runtime"
)

// ErrConnectionStateUnsupported is returned where the OS stack has no
// synchronous connection state query.
var ErrConnectionStateUnsupported = errors.New("connection state query is not supported on " + runtime.GOOS)

func DeviceConnected(_, _ string) (bool, error) {
	return false, ErrConnectionStateUnsupported
}
