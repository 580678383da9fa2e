package ui

import (
	"testing"

	fynetest "fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"

	"github.com/skobkin/bledm/internal/session"
)

func TestSystemTrayMenuActions(t *testing.T) {
	base := fynetest.NewApp()
	t.Cleanup(base.Quit)

	app := &appSpy{App: base}
	window := &windowSpy{Window: base.NewWindow("tray")}
	var disconnectCalls, quitCalls int

	tray := newSystemTray(app, window, func() { disconnectCalls++ }, func() { quitCalls++ })
	if app.trayMenu == nil {
		t.Fatalf("expected tray menu to be configured")
	}

	tray.SetIcon(theme.VariantLight)
	if app.trayIcon == nil {
		t.Fatalf("expected tray icon to be set")
	}

	app.trayItem(trayShowLabel).Action()
	if window.showCalls != 1 || window.focusCalls != 1 {
		t.Fatalf("expected show action to show and focus window, got show=%d focus=%d", window.showCalls, window.focusCalls)
	}

	app.trayItem(trayDisconnectLabel).Action()
	if disconnectCalls != 1 {
		t.Fatalf("expected disconnect action callback once, got %d", disconnectCalls)
	}

	app.trayItem(trayQuitLabel).Action()
	if quitCalls != 1 {
		t.Fatalf("expected quit action callback once, got %d", quitCalls)
	}
}

func TestSystemTrayUpdateFollowsConnection(t *testing.T) {
	base := fynetest.NewApp()
	t.Cleanup(base.Quit)

	app := &appSpy{App: base}
	tray := newSystemTray(app, base.NewWindow("tray"), nil, nil)

	disconnect := app.trayItem(trayDisconnectLabel)
	if !disconnect.Disabled {
		t.Fatalf("expected disconnect to start disabled")
	}
	if app.trayItem(trayNotConnectedLabel) == nil {
		t.Fatalf("expected not connected status item")
	}

	tray.Update(session.Snapshot{HasActive: true, ActiveName: "WIDI Jack"})
	if app.trayItem("Connected: WIDI Jack") == nil {
		t.Fatalf("expected connected status item")
	}
	if disconnect.Disabled {
		t.Fatalf("expected disconnect to be enabled with active connection")
	}

	tray.Update(session.Snapshot{HasActive: true, ActiveName: "WIDI Jack", Busy: true})
	if !disconnect.Disabled {
		t.Fatalf("expected disconnect to be disabled while busy")
	}

	tray.Update(session.Snapshot{})
	if app.trayItem(trayNotConnectedLabel) == nil || !disconnect.Disabled {
		t.Fatalf("expected tray to return to disconnected state")
	}
}

func TestSystemTrayWithoutDesktopDriverIsNoop(t *testing.T) {
	base := fynetest.NewApp()
	t.Cleanup(base.Quit)

	tray := newSystemTray(&plainApp{App: base}, base.NewWindow("tray"), nil, nil)
	tray.SetIcon(theme.VariantDark)
	tray.Update(session.Snapshot{HasActive: true, ActiveName: "WIDI Jack"})
}
