package app

const (
	Name           = "bledm"
	DisplayName    = "Bluetooth Device Manager"
	SourceURL      = "https://git.skobk.in/skobkin/bledm"
	ConfigFilename = "config.json"
	DBFilename     = "app.db"
	LogFilename    = "app.log"
	// InstanceLockID is shared by the GUI and the CLI so only one process
	// drives the Bluetooth adapter at a time.
	InstanceLockID = Name
)
