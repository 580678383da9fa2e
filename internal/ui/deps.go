package ui

import (
	"context"

	"fyne.io/fyne/v2"

	"github.com/skobkin/bledm/internal/bus"
	"github.com/skobkin/bledm/internal/config"
	"github.com/skobkin/bledm/internal/session"
	"github.com/skobkin/bledm/internal/transport"
)

// SessionController is the part of session.Manager the window drives.
type SessionController interface {
	AllowedNames() []string
	Snapshot() session.Snapshot
	Select(name string)
	Scan(ctx context.Context) error
	ConnectSelected(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

type DataDependencies struct {
	Bus                bus.MessageBus
	Session            SessionController
	CurrentConfig      func() config.AppConfig
	LastSelectedDevice string
}

type ActionDependencies struct {
	OnDeviceSelected func(name string)
	// OnChooserReady receives the window-backed device chooser once the
	// window exists.
	OnChooserReady func(chooser transport.Chooser)
	OnQuit         func()
}

type PlatformDependencies struct {
	OpenBluetoothSettings func() error
}

type UIHooks struct {
	CurrentWindow     func() fyne.Window
	RunOnUI           func(func())
	RunAsync          func(func())
	ShowChooserDialog func(window fyne.Window, candidates []transport.Candidate, onDone func(transport.Candidate, bool)) func()
	ShowErrorDialog   func(err error, window fyne.Window)
}

type LaunchOptions struct {
	StartHidden bool
}

type RuntimeDependencies struct {
	Data     DataDependencies
	Actions  ActionDependencies
	Platform PlatformDependencies
	UIHooks  UIHooks
	Launch   LaunchOptions
}
