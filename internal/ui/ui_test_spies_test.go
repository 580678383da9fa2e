package ui

import "fyne.io/fyne/v2"

// plainApp hides the desktop extensions of the test app.
type plainApp struct {
	fyne.App
}

// appSpy records the app calls the window runtime and tray make.
type appSpy struct {
	fyne.App

	runCalls  int
	quitCalls int

	window   *windowSpy
	trayMenu *fyne.Menu
	trayIcon fyne.Resource

	lifecycle *lifecycleSpy
}

func (a *appSpy) Run() {
	a.runCalls++
}

func (a *appSpy) Quit() {
	a.quitCalls++
}

func (a *appSpy) NewWindow(title string) fyne.Window {
	a.window = &windowSpy{Window: a.App.NewWindow(title)}

	return a.window
}

func (a *appSpy) SetSystemTrayMenu(menu *fyne.Menu) {
	a.trayMenu = menu
}

func (a *appSpy) SetSystemTrayIcon(icon fyne.Resource) {
	a.trayIcon = icon
}

func (a *appSpy) SetSystemTrayWindow(fyne.Window) {}

func (a *appSpy) Lifecycle() fyne.Lifecycle {
	if a.lifecycle != nil {
		return a.lifecycle
	}

	return a.App.Lifecycle()
}

func (a *appSpy) trayItem(label string) *fyne.MenuItem {
	if a.trayMenu == nil {
		return nil
	}
	for _, item := range a.trayMenu.Items {
		if item.Label == label {
			return item
		}
	}

	return nil
}

type windowSpy struct {
	fyne.Window

	showCalls      int
	hideCalls      int
	focusCalls     int
	closeIntercept func()
}

func (w *windowSpy) Show() {
	w.showCalls++
	w.Window.Show()
}

func (w *windowSpy) Hide() {
	w.hideCalls++
	w.Window.Hide()
}

func (w *windowSpy) RequestFocus() {
	w.focusCalls++
	w.Window.RequestFocus()
}

func (w *windowSpy) SetCloseIntercept(fn func()) {
	w.closeIntercept = fn
	w.Window.SetCloseIntercept(fn)
}

type lifecycleSpy struct {
	fyne.Lifecycle

	onEnteredForeground func()
	onExitedForeground  func()
}

func (l *lifecycleSpy) SetOnEnteredForeground(fn func()) {
	l.onEnteredForeground = fn
}

func (l *lifecycleSpy) SetOnExitedForeground(fn func()) {
	l.onExitedForeground = fn
}
