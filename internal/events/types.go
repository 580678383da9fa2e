package events

import "time"

// Operation names the session action that produced an event.
type Operation string

const (
	OperationScan       Operation = "scan"
	OperationConnect    Operation = "connect"
	OperationDisconnect Operation = "disconnect"
)

// StatusMessage is published whenever the user-visible session message changes.
type StatusMessage struct {
	Operation Operation
	Device    string
	Text      string
	Failed    bool
	Timestamp time.Time
}

// ConnectionChanged reports a successful connect or disconnect.
type ConnectionChanged struct {
	Device    string
	Connected bool
	Timestamp time.Time
}

// DeviceDiscovered reports a device appended to the known list by a scan.
type DeviceDiscovered struct {
	Device    string
	Connected bool
	Timestamp time.Time
}
