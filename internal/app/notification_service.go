package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/skobkin/bledm/internal/bus"
	"github.com/skobkin/bledm/internal/config"
	"github.com/skobkin/bledm/internal/events"
	"github.com/skobkin/bledm/internal/notifications"
)

const (
	notificationTitleConnected       = "Connected"
	notificationTitleDisconnected    = "Disconnected"
	notificationTitleDeviceAvailable = "Device available"
)

// NotificationService listens to session events and emits user-facing notifications.
type NotificationService struct {
	bus           bus.MessageBus
	currentConfig func() config.AppConfig
	isForeground  func() bool
	sender        notifications.Sender
	logger        *slog.Logger

	connMu   sync.Mutex
	lastConn map[string]bool
}

func NewNotificationService(
	messageBus bus.MessageBus,
	currentConfig func() config.AppConfig,
	isForeground func() bool,
	sender notifications.Sender,
	logger *slog.Logger,
) *NotificationService {
	if logger == nil {
		logger = slog.Default().With("component", "app.notifications")
	}

	return &NotificationService{
		bus:           messageBus,
		currentConfig: currentConfig,
		isForeground:  isForeground,
		sender:        sender,
		logger:        logger,
		lastConn:      make(map[string]bool),
	}
}

// Start subscribes before returning so events published right after Start are not missed.
func (s *NotificationService) Start(ctx context.Context) {
	if s == nil || s.bus == nil || s.sender == nil {
		return
	}

	stopConn := bus.Listen(s.bus, events.TopicConnection, s.handleConnectionChanged)
	stopDiscovered := bus.Listen(s.bus, events.TopicDeviceDiscovered, s.handleDeviceDiscovered)
	go func() {
		<-ctx.Done()
		stopConn()
		stopDiscovered()
	}()
}

func (s *NotificationService) handleConnectionChanged(change events.ConnectionChanged) {
	device := strings.TrimSpace(change.Device)
	if device == "" {
		return
	}

	s.connMu.Lock()
	if last, seen := s.lastConn[device]; seen && last == change.Connected {
		s.connMu.Unlock()
		return
	}
	s.lastConn[device] = change.Connected
	s.connMu.Unlock()

	prefs := s.notificationPrefs()
	if !s.shouldNotify(prefs.ConnectionStatus) {
		return
	}

	title := notificationTitleDisconnected
	if change.Connected {
		title = notificationTitleConnected
	}
	s.send(notifications.Payload{Title: title, Content: device})
}

func (s *NotificationService) handleDeviceDiscovered(event events.DeviceDiscovered) {
	prefs := s.notificationPrefs()
	if !s.shouldNotify(prefs.DeviceDiscovered) {
		return
	}

	content := strings.TrimSpace(event.Device)
	if event.Connected {
		content += " (already connected)"
	}
	s.send(notifications.Payload{Title: notificationTitleDeviceAvailable, Content: content})
}

// shouldNotify suppresses notifications while the app window has focus; the
// window already shows the same status.
func (s *NotificationService) shouldNotify(kindEnabled bool) bool {
	if !kindEnabled {
		return false
	}
	if s.isForeground == nil {
		return true
	}

	return !s.isForeground()
}

func (s *NotificationService) notificationPrefs() config.NotificationConfig {
	cfg := config.Default()
	if s.currentConfig != nil {
		cfg = s.currentConfig()
	}

	return cfg.Notifications
}

func (s *NotificationService) send(notification notifications.Payload) {
	title := strings.TrimSpace(notification.Title)
	content := strings.TrimSpace(notification.Content)
	if title == "" && content == "" {
		return
	}
	s.logger.Debug("sending notification", "title", title)
	s.sender.Send(notifications.Payload{Title: title, Content: content})
}
