package app

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/skobkin/bledm/internal/bus"
	"github.com/skobkin/bledm/internal/config"
	"github.com/skobkin/bledm/internal/events"
	"github.com/skobkin/bledm/internal/notifications"
)

func startNotificationService(t *testing.T, cfg config.AppConfig, foreground func() bool) (*bus.PubSubBus, *collectingNotificationSender) {
	t.Helper()

	messageBus := newTestMessageBus(t)
	sender := newCollectingNotificationSender()
	service := NewNotificationService(messageBus, func() config.AppConfig { return cfg }, foreground, sender, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	service.Start(ctx)

	return messageBus, sender
}

func TestNotificationServiceConnectionChanges(t *testing.T) {
	messageBus, sender := startNotificationService(t, config.Default(), nil)

	messageBus.Publish(events.TopicConnection, events.ConnectionChanged{Device: "WIDI Jack", Connected: true})
	messageBus.Publish(events.TopicConnection, events.ConnectionChanged{Device: "WIDI Jack", Connected: true})
	messageBus.Publish(events.TopicConnection, events.ConnectionChanged{Device: "WIDI Jack", Connected: false})

	got := sender.waitForCount(t, 2)
	sender.assertCount(t, 2)
	if got[0].Title != "Connected" || got[0].Content != "WIDI Jack" {
		t.Fatalf("unexpected first notification: %+v", got[0])
	}
	if got[1].Title != "Disconnected" || got[1].Content != "WIDI Jack" {
		t.Fatalf("unexpected second notification: %+v", got[1])
	}
}

func TestNotificationServiceRespectsConnectionPreference(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.ConnectionStatus = false
	messageBus, sender := startNotificationService(t, cfg, nil)

	messageBus.Publish(events.TopicConnection, events.ConnectionChanged{Device: "WIDI Jack", Connected: true})

	sender.assertCount(t, 0)
}

func TestNotificationServiceSkipsWhileForeground(t *testing.T) {
	messageBus, sender := startNotificationService(t, config.Default(), func() bool { return true })

	messageBus.Publish(events.TopicConnection, events.ConnectionChanged{Device: "WIDI Jack", Connected: true})

	sender.assertCount(t, 0)
}

func TestNotificationServiceDeviceDiscovered(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.DeviceDiscovered = true
	messageBus, sender := startNotificationService(t, cfg, nil)

	messageBus.Publish(events.TopicDeviceDiscovered, events.DeviceDiscovered{Device: "WIDI Jack2", Connected: true})

	got := sender.waitForCount(t, 1)
	if got[0].Title != "Device available" || got[0].Content != "WIDI Jack2 (already connected)" {
		t.Fatalf("unexpected notification: %+v", got[0])
	}
}

func TestNotificationServiceDeviceDiscoveredDisabledByDefault(t *testing.T) {
	messageBus, sender := startNotificationService(t, config.Default(), nil)

	messageBus.Publish(events.TopicDeviceDiscovered, events.DeviceDiscovered{Device: "WIDI Jack2"})

	sender.assertCount(t, 0)
}

func newTestMessageBus(t *testing.T) *bus.PubSubBus {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	messageBus := bus.New(logger)
	t.Cleanup(func() {
		messageBus.Close()
	})

	return messageBus
}

type collectingNotificationSender struct {
	mu            sync.Mutex
	notifications []notifications.Payload
	changes       chan struct{}
}

func newCollectingNotificationSender() *collectingNotificationSender {
	return &collectingNotificationSender{
		changes: make(chan struct{}, 1),
	}
}

func (s *collectingNotificationSender) Send(notification notifications.Payload) {
	s.mu.Lock()
	s.notifications = append(s.notifications, notification)
	s.mu.Unlock()

	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *collectingNotificationSender) snapshot() []notifications.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]notifications.Payload, len(s.notifications))
	copy(out, s.notifications)

	return out
}

func (s *collectingNotificationSender) waitForCount(t *testing.T, expected int) []notifications.Payload {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		current := s.snapshot()
		if len(current) >= expected {
			return current
		}
		select {
		case <-s.changes:
		case <-time.After(10 * time.Millisecond):
		}
	}

	t.Fatalf("timed out waiting for %d notifications", expected)

	return nil
}

func (s *collectingNotificationSender) assertCount(t *testing.T, expected int) {
	t.Helper()

	time.Sleep(100 * time.Millisecond)
	if current := s.snapshot(); len(current) != expected {
		t.Fatalf("expected %d notifications, got %d", expected, len(current))
	}
}
