package ui

import (
	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	bleapp "github.com/skobkin/bledm/internal/app"
	"github.com/skobkin/bledm/internal/bus"
	"github.com/skobkin/bledm/internal/events"
	"github.com/skobkin/bledm/internal/session"
)

var newFyneApp = func() fyne.App {
	return fyneapp.NewWithID("in.skobk.bledm")
}

func runWithApp(dep RuntimeDependencies, fyApp fyne.App) error {
	variant := fyApp.Settings().ThemeVariant()
	appLogger.Info(
		"starting UI runtime",
		"version", bleapp.BuildVersion(),
		"start_hidden", dep.Launch.StartHidden,
		"theme", variant,
	)

	window := fyApp.NewWindow(windowTitle())
	window.Resize(fyne.NewSize(defaultWindowWidth, defaultWindowHeight))
	dep = withDefaultHooks(dep, window)

	if dep.Actions.OnChooserReady != nil {
		dep.Actions.OnChooserReady(newDialogChooser(dep.UIHooks))
	}

	panel := newDevicePanel(dep)
	window.SetContent(panel.content)

	stopNotifications := startNotificationService(dep, fyApp, dep.Launch.StartHidden)

	var runtime *windowRuntime
	tray := newSystemTray(fyApp, window, panel.disconnect, func() { runtime.Quit() })
	if dep.Data.Session != nil {
		tray.Update(dep.Data.Session.Snapshot())
	}
	stopListener := bus.Listen(dep.Data.Bus, events.TopicSessionState, func(snap session.Snapshot) {
		dep.UIHooks.RunOnUI(func() {
			panel.apply(snap)
			tray.Update(snap)
		})
	})

	runtime = newWindowRuntime(fyApp, window, dep.Actions.OnQuit, stopListener, stopNotifications)
	runtime.BindCloseIntercept()

	themes := newThemeRuntime(fyApp, panel, tray)
	themes.BindSettings()
	themes.Apply(variant)

	runtime.Run(dep.Launch.StartHidden)

	return nil
}
