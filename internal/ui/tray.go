package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	bleapp "github.com/skobkin/bledm/internal/app"
	"github.com/skobkin/bledm/internal/resources"
	"github.com/skobkin/bledm/internal/session"
)

const (
	trayShowLabel         = "Show"
	trayDisconnectLabel   = "Disconnect"
	trayQuitLabel         = "Quit"
	trayNotConnectedLabel = "Not connected"
	trayConnectedFormat   = "Connected: "
)

// systemTray mirrors the session in the tray menu. All methods are no-ops
// when the driver has no tray.
type systemTray struct {
	desk desktop.App

	menu       *fyne.Menu
	status     *fyne.MenuItem
	disconnect *fyne.MenuItem
}

func newSystemTray(fyApp fyne.App, window fyne.Window, onDisconnect, quit func()) *systemTray {
	desk, ok := fyApp.(desktop.App)
	if !ok {
		appLogger.Debug("system tray is not available on this driver")
		return &systemTray{}
	}

	t := &systemTray{desk: desk}
	t.status = fyne.NewMenuItem(trayNotConnectedLabel, nil)
	t.status.Disabled = true
	t.disconnect = fyne.NewMenuItem(trayDisconnectLabel, func() {
		appLogger.Debug("system tray disconnect action invoked")
		if onDisconnect != nil {
			onDisconnect()
		}
	})
	t.disconnect.Disabled = true
	t.menu = fyne.NewMenu(bleapp.Name,
		t.status,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem(trayShowLabel, func() {
			appLogger.Debug("system tray show action invoked")
			window.Show()
			window.RequestFocus()
		}),
		t.disconnect,
		fyne.NewMenuItem(trayQuitLabel, func() {
			appLogger.Debug("system tray quit action invoked")
			if quit != nil {
				quit()
			}
		}),
	)
	desk.SetSystemTrayMenu(t.menu)

	return t
}

func (t *systemTray) SetIcon(variant fyne.ThemeVariant) {
	if t.desk == nil {
		return
	}
	t.desk.SetSystemTrayIcon(resources.TrayIconResource(variant))
}

// Update reflects the active connection and busy state in the menu.
func (t *systemTray) Update(snap session.Snapshot) {
	if t.desk == nil {
		return
	}
	label := trayNotConnectedLabel
	if snap.HasActive {
		label = trayConnectedFormat + snap.ActiveName
	}
	t.status.Label = label
	t.disconnect.Disabled = !snap.HasActive || snap.Busy
	t.menu.Refresh()
}
