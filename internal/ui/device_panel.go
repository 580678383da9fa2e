package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/skobkin/bledm/internal/session"
)

const (
	selectPlaceholder     = "Select a device"
	scanButtonText        = "Scan"
	connectButtonText     = "Connect"
	disconnectButtonText  = "Disconnect"
	settingsButtonText    = "Open Bluetooth Settings"
	emptyDeviceListText   = "No devices yet. Press Scan to look for one."
	deviceLineFormat      = "%s - %s"
	noSessionErrorMessage = "device session is not available"
)

// devicePanel is the main window body: selector, actions, device list and status.
type devicePanel struct {
	dep RuntimeDependencies

	selector      *widget.Select
	scanButton    *widget.Button
	connectButton *widget.Button
	disconnButton *widget.Button
	settingsBtn   *widget.Button
	deviceList    *widget.List
	emptyLabel    *widget.Label
	statusLabel   *widget.Label
	statusIcon    *widget.Icon

	mu               sync.RWMutex
	snapshot         session.Snapshot
	connectedIcon    fyne.Resource
	disconnectedIcon fyne.Resource

	content fyne.CanvasObject
}

func newDevicePanel(dep RuntimeDependencies) *devicePanel {
	p := &devicePanel{dep: dep}

	var allowed []string
	if dep.Data.Session != nil {
		allowed = dep.Data.Session.AllowedNames()
	}
	p.selector = widget.NewSelect(allowed, p.onSelected)
	p.selector.PlaceHolder = selectPlaceholder

	p.scanButton = widget.NewButton(scanButtonText, func() {
		p.runOperation("scan", func(ctx context.Context, s SessionController) error { return s.Scan(ctx) })
	})
	p.connectButton = widget.NewButton(connectButtonText, func() {
		p.runOperation("connect", func(ctx context.Context, s SessionController) error { return s.ConnectSelected(ctx) })
	})
	p.disconnButton = widget.NewButton(disconnectButtonText, p.disconnect)
	p.settingsBtn = widget.NewButton(settingsButtonText, p.openBluetoothSettings)
	if dep.Platform.OpenBluetoothSettings == nil {
		p.settingsBtn.Disable()
	}

	p.deviceList = widget.NewList(
		func() int {
			p.mu.RLock()
			defer p.mu.RUnlock()
			return len(p.snapshot.Entries)
		},
		func() fyne.CanvasObject {
			label := widget.NewLabel(" ")
			label.Truncation = fyne.TextTruncateEllipsis
			return label
		},
		func(id widget.ListItemID, object fyne.CanvasObject) {
			label, ok := object.(*widget.Label)
			if !ok {
				return
			}
			p.mu.RLock()
			defer p.mu.RUnlock()
			if id < 0 || id >= len(p.snapshot.Entries) {
				label.SetText("")
				return
			}
			label.SetText(formatDeviceLine(p.snapshot.Entries[id]))
		},
	)
	p.emptyLabel = widget.NewLabel(emptyDeviceListText)
	p.statusLabel = widget.NewLabel("")
	p.statusLabel.Wrapping = fyne.TextWrapWord
	p.statusIcon = widget.NewIcon(nil)

	actions := container.NewGridWithColumns(3, p.scanButton, p.connectButton, p.disconnButton)
	top := container.NewVBox(p.selector, actions)
	bottom := container.NewVBox(
		container.NewBorder(nil, nil, p.statusIcon, nil, p.statusLabel),
		p.settingsBtn,
	)
	p.content = container.NewBorder(top, bottom, nil, nil, container.NewStack(p.emptyLabel, p.deviceList))

	initial := session.Snapshot{}
	if dep.Data.Session != nil {
		initial = dep.Data.Session.Snapshot()
	}
	p.apply(initial)
	if last := dep.Data.LastSelectedDevice; last != "" && slices.Contains(allowed, last) {
		p.selector.SetSelected(last)
	}

	return p
}

func (p *devicePanel) onSelected(name string) {
	if p.dep.Data.Session != nil {
		p.dep.Data.Session.Select(name)
	}
	if p.dep.Actions.OnDeviceSelected != nil {
		p.dep.Actions.OnDeviceSelected(name)
	}
	p.mu.Lock()
	p.snapshot.Selection = name
	snap := p.snapshot
	p.mu.Unlock()
	p.applyEnablement(snap)
}

// runOperation runs op off the UI goroutine. Outcomes reach the window via
// session snapshots; only unexpected failures surface as dialogs.
func (p *devicePanel) runOperation(name string, op func(context.Context, SessionController) error) {
	ctrl := p.dep.Data.Session
	if ctrl == nil {
		p.showError(errors.New(noSessionErrorMessage))
		return
	}

	run := p.dep.UIHooks.RunAsync
	if run == nil {
		run = func(fn func()) { go fn() }
	}
	run(func() {
		err := op(context.Background(), ctrl)
		if err != nil {
			appLogger.Debug("session operation finished with error", "op", name, "error", err)
		}
		snap := ctrl.Snapshot()
		p.runOnUI(func() { p.apply(snap) })
	})
}

func (p *devicePanel) disconnect() {
	p.runOperation("disconnect", func(ctx context.Context, s SessionController) error { return s.Disconnect(ctx) })
}

func (p *devicePanel) openBluetoothSettings() {
	open := p.dep.Platform.OpenBluetoothSettings
	if open == nil {
		return
	}
	run := p.dep.UIHooks.RunAsync
	if run == nil {
		run = func(fn func()) { go fn() }
	}
	run(func() {
		if err := open(); err != nil {
			p.runOnUI(func() { p.showError(fmt.Errorf("open bluetooth settings: %w", err)) })
		}
	})
}

// apply renders snap. It must run on the UI goroutine.
func (p *devicePanel) apply(snap session.Snapshot) {
	p.mu.Lock()
	p.snapshot = snap
	p.mu.Unlock()

	if snap.Selection != "" && p.selector.Selected != snap.Selection {
		p.selector.SetSelected(snap.Selection)
	}
	p.statusLabel.SetText(snap.Message)
	if len(snap.Entries) == 0 {
		p.emptyLabel.Show()
		p.deviceList.Hide()
	} else {
		p.emptyLabel.Hide()
		p.deviceList.Show()
	}
	p.deviceList.Refresh()
	p.refreshStatusIcon()
	p.applyEnablement(snap)
}

func (p *devicePanel) applyEnablement(snap session.Snapshot) {
	setEnabled(p.scanButton, !snap.Busy)
	setEnabled(p.connectButton, !snap.Busy && snap.Selection != "")
	setEnabled(p.disconnButton, !snap.Busy && snap.HasActive)
	if snap.Busy {
		p.selector.Disable()
	} else {
		p.selector.Enable()
	}
}

// setStatusIcons installs the connection indicator icons for the current theme.
func (p *devicePanel) setStatusIcons(connected, disconnected fyne.Resource) {
	p.mu.Lock()
	p.connectedIcon = connected
	p.disconnectedIcon = disconnected
	p.mu.Unlock()
	p.refreshStatusIcon()
}

func (p *devicePanel) refreshStatusIcon() {
	p.mu.RLock()
	icon := p.disconnectedIcon
	if p.snapshot.HasActive {
		icon = p.connectedIcon
	}
	p.mu.RUnlock()
	p.statusIcon.SetResource(icon)
}

func (p *devicePanel) runOnUI(fn func()) {
	if p.dep.UIHooks.RunOnUI != nil {
		p.dep.UIHooks.RunOnUI(fn)
		return
	}
	fyne.Do(fn)
}

func (p *devicePanel) showError(err error) {
	appLogger.Warn("device panel error", "error", err)
	if p.dep.UIHooks.ShowErrorDialog == nil {
		return
	}
	var window fyne.Window
	if p.dep.UIHooks.CurrentWindow != nil {
		window = p.dep.UIHooks.CurrentWindow()
	}
	p.dep.UIHooks.ShowErrorDialog(err, window)
}

func formatDeviceLine(entry session.EntryView) string {
	return fmt.Sprintf(deviceLineFormat, entry.Name, entry.Status)
}

func setEnabled(button *widget.Button, enabled bool) {
	if enabled {
		button.Enable()
		return
	}
	button.Disable()
}
