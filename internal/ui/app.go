package ui

import (
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	bleapp "github.com/skobkin/bledm/internal/app"
)

var appLogger = slog.With("component", "ui")

const defaultWindowWidth, defaultWindowHeight = 420, 520

func Run(dep RuntimeDependencies) error {
	return runWithApp(dep, newFyneApp())
}

// withDefaultHooks fills UI hooks that tests usually replace.
func withDefaultHooks(dep RuntimeDependencies, window fyne.Window) RuntimeDependencies {
	hooks := &dep.UIHooks
	if hooks.CurrentWindow == nil {
		hooks.CurrentWindow = func() fyne.Window { return window }
	}
	if hooks.RunOnUI == nil {
		hooks.RunOnUI = fyne.Do
	}
	if hooks.RunAsync == nil {
		hooks.RunAsync = func(fn func()) { go fn() }
	}
	if hooks.ShowChooserDialog == nil {
		hooks.ShowChooserDialog = showChooserDialog
	}
	if hooks.ShowErrorDialog == nil {
		hooks.ShowErrorDialog = dialog.ShowError
	}

	return dep
}

func windowTitle() string {
	return bleapp.DisplayName
}
