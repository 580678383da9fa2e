package ui

import (
	"fyne.io/fyne/v2"

	"github.com/skobkin/bledm/internal/resources"
)

// themeRuntime swaps icon variants when the OS theme changes.
type themeRuntime struct {
	fyApp fyne.App
	panel *devicePanel
	tray  *systemTray
}

func newThemeRuntime(fyApp fyne.App, panel *devicePanel, tray *systemTray) *themeRuntime {
	return &themeRuntime{fyApp: fyApp, panel: panel, tray: tray}
}

func (r *themeRuntime) BindSettings() {
	r.fyApp.Settings().AddListener(func(settings fyne.Settings) {
		appLogger.Debug("theme settings changed")
		r.Apply(settings.ThemeVariant())
	})
}

func (r *themeRuntime) Apply(variant fyne.ThemeVariant) {
	appLogger.Debug("applying theme resources", "theme", variant)
	r.fyApp.SetIcon(resources.AppIconResource(variant))
	if r.tray != nil {
		r.tray.SetIcon(variant)
	}
	if r.panel != nil {
		r.panel.setStatusIcons(
			resources.UIIconResource(resources.UIIconConnected, variant),
			resources.UIIconResource(resources.UIIconDisconnected, variant),
		)
	}
}
