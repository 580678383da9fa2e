package ui

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"fyne.io/fyne/v2"

	bleapp "github.com/skobkin/bledm/internal/app"
	"github.com/skobkin/bledm/internal/notifications"
)

// startNotificationService sends session notifications while the window is
// in the background. The returned func stops it.
func startNotificationService(dep RuntimeDependencies, fyApp fyne.App, startHidden bool) func() {
	var foreground atomic.Bool
	foreground.Store(!startHidden)
	lifecycle := fyApp.Lifecycle()
	lifecycle.SetOnEnteredForeground(func() { foreground.Store(true) })
	lifecycle.SetOnExitedForeground(func() { foreground.Store(false) })

	ctx, stop := context.WithCancel(context.Background())
	if dep.Data.Bus == nil {
		appLogger.Debug("skipping notifications: message bus is nil")
		return stop
	}

	runOnUI := dep.UIHooks.RunOnUI
	if runOnUI == nil {
		runOnUI = fyne.Do
	}
	bleapp.NewNotificationService(
		dep.Data.Bus,
		dep.Data.CurrentConfig,
		foreground.Load,
		fyneNotificationSender(fyApp, runOnUI),
		slog.With("component", "ui.notifications"),
	).Start(ctx)

	return stop
}

// fyneNotificationSender delivers payloads as native Fyne notifications.
func fyneNotificationSender(fyApp fyne.App, runOnUI func(func())) notifications.Sender {
	return notifications.SenderFunc(func(payload notifications.Payload) {
		title := strings.TrimSpace(payload.Title)
		content := strings.TrimSpace(payload.Content)
		if title == "" && content == "" {
			return
		}
		appLogger.Debug("sending desktop notification", "title", title)
		runOnUI(func() {
			fyApp.SendNotification(fyne.NewNotification(title, content))
		})
	})
}
