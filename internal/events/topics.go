package events

const (
	TopicSessionState     = "session.state"
	TopicStatusMessage    = "session.message"
	TopicConnection       = "session.connection"
	TopicDeviceDiscovered = "session.device_discovered"
)
