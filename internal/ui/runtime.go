package ui

import (
	"sync"

	"fyne.io/fyne/v2"
)

// windowRuntime owns the main window lifetime. Closing the window hides it to
// the tray; only Quit or the app loop ending run the shutdown hooks.
type windowRuntime struct {
	fyApp  fyne.App
	window fyne.Window

	onQuit func()
	stops  []func()

	shutdownOnce sync.Once
}

func newWindowRuntime(fyApp fyne.App, window fyne.Window, onQuit func(), stops ...func()) *windowRuntime {
	return &windowRuntime{
		fyApp:  fyApp,
		window: window,
		onQuit: onQuit,
		stops:  stops,
	}
}

func (r *windowRuntime) BindCloseIntercept() {
	if r.window == nil {
		return
	}
	r.window.SetCloseIntercept(func() {
		appLogger.Debug("main window close intercepted: hiding to tray")
		r.window.Hide()
	})
}

func (r *windowRuntime) Quit() {
	appLogger.Info("quit requested")
	r.shutdown()
	if r.fyApp != nil {
		r.fyApp.Quit()
	}
}

// Run shows the window unless startHidden is set and blocks in the app loop.
func (r *windowRuntime) Run(startHidden bool) {
	if r.window != nil {
		r.window.Show()
		if startHidden {
			appLogger.Info("starting hidden in the tray")
			r.window.Hide()
		}
	}
	if r.fyApp != nil {
		r.fyApp.Run()
	}
	appLogger.Info("UI loop stopped")
	r.shutdown()
}

func (r *windowRuntime) shutdown() {
	r.shutdownOnce.Do(func() {
		for _, stop := range r.stops {
			if stop != nil {
				stop()
			}
		}
		if r.onQuit != nil {
			r.onQuit()
		}
	})
}
