package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDeviceSelected means Connect was called with a name that matches no known device.
	ErrNoDeviceSelected = errors.New("no device selected")
	// ErrDeviceNotAllowed means discovery returned a device outside the allow-list.
	ErrDeviceNotAllowed = errors.New("device is not in the allow-list")
	// ErrBusy means another session operation is still outstanding.
	ErrBusy = errors.New("another session operation is in progress")
)

const (
	MessageScanFailed     = "Error scanning for devices."
	MessageSelectDevice   = "Please select a device to connect."
	MessageBusy           = "Another operation is in progress."
	messageConnected      = "Connected to %s"
	messageConnectFail    = "Error connecting to %s"
	messageDisconnected   = "Disconnected from %s"
	messageDisconnectFail = "Error disconnecting from %s"
)

func connectedMessage(name string) string     { return fmt.Sprintf(messageConnected, name) }
func connectFailedMessage(name string) string { return fmt.Sprintf(messageConnectFail, name) }
func disconnectedMessage(name string) string  { return fmt.Sprintf(messageDisconnected, name) }
func disconnectFailedMessage(name string) string {
	return fmt.Sprintf(messageDisconnectFail, name)
}
