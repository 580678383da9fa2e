package ui

import (
	"log/slog"

	bleapp "github.com/skobkin/bledm/internal/app"
	"github.com/skobkin/bledm/internal/platform"
)

func BuildRuntimeDependencies(rt *bleapp.Runtime, launch LaunchOptions, onQuit func()) RuntimeDependencies {
	dep := RuntimeDependencies{
		Launch: launch,
		Actions: ActionDependencies{
			OnQuit: onQuit,
		},
		Platform: PlatformDependencies{
			OpenBluetoothSettings: func() error {
				return platform.OpenBluetoothSettings(slog.With("component", "platform"))
			},
		},
	}

	if rt == nil {
		return dep
	}

	cfg := rt.CurrentConfig()
	dep.Data = DataDependencies{
		CurrentConfig:      rt.CurrentConfig,
		LastSelectedDevice: cfg.UI.LastSelectedDevice,
	}
	if rt.Bus != nil {
		dep.Data.Bus = rt.Bus
	}
	if rt.Session != nil {
		dep.Data.Session = rt.Session
	}
	dep.Actions.OnDeviceSelected = rt.RememberSelectedDevice
	dep.Actions.OnChooserReady = rt.SetChooser

	return dep
}
