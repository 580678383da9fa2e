package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/skobkin/bledm/internal/bus"
	"github.com/skobkin/bledm/internal/events"
)

// Options configures a Manager.
type Options struct {
	// AllowedNames is the exact-name allow-list applied to discovered devices.
	AllowedNames []string
	Discovery    DiscoveryOptions
}

// Manager mediates discovery and a single active connection. Platform calls
// run outside the state lock; the busy flag rejects overlapping operations.
type Manager struct {
	discoverer Discoverer
	opts       Options
	publisher  bus.Publisher
	logger     *slog.Logger
	now        func() time.Time

	mu    sync.Mutex
	state State
}

func NewManager(discoverer Discoverer, opts Options, publisher bus.Publisher, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default().With("component", "session")
	}
	opts.AllowedNames = slices.Clone(opts.AllowedNames)
	opts.Discovery.NamePrefixes = slices.Clone(opts.Discovery.NamePrefixes)
	opts.Discovery.OptionalServices = slices.Clone(opts.Discovery.OptionalServices)

	return &Manager{
		discoverer: discoverer,
		opts:       opts,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// AllowedNames returns a copy of the allow-list, in configured order.
func (m *Manager) AllowedNames() []string {
	return slices.Clone(m.opts.AllowedNames)
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.snapshot()
}

// Select stores the device name the next ConnectSelected call will use.
func (m *Manager) Select(name string) {
	m.mu.Lock()
	if m.state.Selection == name {
		m.mu.Unlock()
		return
	}
	m.state.Selection = name
	snap := m.state.snapshot()
	m.mu.Unlock()

	m.publish(events.TopicSessionState, snap)
}

// Scan runs platform discovery and appends the chosen device if it is allowed.
func (m *Manager) Scan(ctx context.Context) error {
	if err := m.begin(events.OperationScan); err != nil {
		return err
	}

	logger := m.logger.With("op", events.OperationScan)
	logger.Info("requesting device", "name_prefixes", m.opts.Discovery.NamePrefixes)
	device, err := m.discoverer.RequestDevice(ctx, m.opts.Discovery)
	if err == nil && device == nil {
		err = errors.New("discovery returned no device")
	}
	if err != nil {
		logger.Warn("scan failed", "error", err)
		m.finish(func(s *State) (events.StatusMessage, bool) {
			s.Message = MessageScanFailed
			return events.StatusMessage{Operation: events.OperationScan, Text: MessageScanFailed, Failed: true}, true
		})
		return fmt.Errorf("scan for devices: %w", err)
	}

	name := device.Name()
	if !m.allowed(name) {
		logger.Info("discovered device is not allowed", "device", name)
		m.finish(nil)
		return fmt.Errorf("%w: %q", ErrDeviceNotAllowed, name)
	}

	status := StatusOnline
	if device.Connected() {
		status = StatusConnected
	}
	m.finish(func(s *State) (events.StatusMessage, bool) {
		s.Known = append(s.Known, Entry{Device: device, Status: status})
		return events.StatusMessage{}, false
	})
	logger.Info("device added", "device", name, "status", status)
	m.publish(events.TopicDeviceDiscovered, events.DeviceDiscovered{
		Device:    displayName(name),
		Connected: status == StatusConnected,
		Timestamp: m.now(),
	})

	return nil
}

// ConnectSelected connects to the currently selected device.
func (m *Manager) ConnectSelected(ctx context.Context) error {
	m.mu.Lock()
	name := m.state.Selection
	m.mu.Unlock()

	return m.Connect(ctx, name)
}

// Connect connects to the first known device whose name equals name. Any other
// active device is disconnected first.
func (m *Manager) Connect(ctx context.Context, name string) error {
	m.mu.Lock()
	var (
		entry Entry
		found bool
	)
	if strings.TrimSpace(name) != "" {
		entry, found = m.state.findByName(name)
	}
	if !found {
		m.state.Message = MessageSelectDevice
		snap := m.state.snapshot()
		m.mu.Unlock()
		m.logger.Info("connect rejected: no matching device", "op", events.OperationConnect, "device", name)
		m.publishSnapshotAndMessage(snap, true, events.OperationConnect, name, MessageSelectDevice)
		return ErrNoDeviceSelected
	}
	m.mu.Unlock()

	if err := m.begin(events.OperationConnect); err != nil {
		return err
	}

	logger := m.logger.With("op", events.OperationConnect, "device", name)
	target := entry.Device

	m.mu.Lock()
	previous := m.state.Active
	m.mu.Unlock()

	if previous == target {
		logger.Debug("device is already the active connection")
		m.finish(func(s *State) (events.StatusMessage, bool) {
			s.Message = connectedMessage(name)
			return events.StatusMessage{Operation: events.OperationConnect, Device: name, Text: s.Message}, true
		})
		return nil
	}

	if previous != nil {
		prevName := displayName(previous.Name())
		logger.Info("switching devices, disconnecting previous one", "previous", prevName)
		if err := previous.Disconnect(ctx); err != nil {
			logger.Warn("disconnect previous device failed", "previous", prevName, "error", err)
			m.finish(func(s *State) (events.StatusMessage, bool) {
				s.Message = disconnectFailedMessage(prevName)
				return events.StatusMessage{Operation: events.OperationDisconnect, Device: prevName, Text: s.Message, Failed: true}, true
			})
			return fmt.Errorf("disconnect %q before connecting %q: %w", prevName, name, err)
		}
		prevMessage := disconnectedMessage(prevName)
		m.mu.Lock()
		m.state.updateStatus(previous, StatusOnline)
		if m.state.Active == previous {
			m.state.Active = nil
		}
		m.state.Message = prevMessage
		snap := m.state.snapshot()
		m.mu.Unlock()
		m.publishSnapshotAndMessage(snap, false, events.OperationDisconnect, prevName, prevMessage)
		m.publish(events.TopicConnection, events.ConnectionChanged{Device: prevName, Connected: false, Timestamp: m.now()})
	}

	logger.Info("connecting")
	if err := target.Connect(ctx); err != nil {
		logger.Warn("connect failed", "error", err)
		m.finish(func(s *State) (events.StatusMessage, bool) {
			s.Message = connectFailedMessage(name)
			return events.StatusMessage{Operation: events.OperationConnect, Device: name, Text: s.Message, Failed: true}, true
		})
		return fmt.Errorf("connect %q: %w", name, err)
	}

	m.finish(func(s *State) (events.StatusMessage, bool) {
		s.Active = target
		s.demoteConnected(target)
		s.updateStatus(target, StatusConnected)
		s.Message = connectedMessage(name)
		return events.StatusMessage{Operation: events.OperationConnect, Device: name, Text: s.Message}, true
	})
	logger.Info("connected")
	m.publish(events.TopicConnection, events.ConnectionChanged{Device: name, Connected: true, Timestamp: m.now()})

	return nil
}

// Disconnect disconnects the active device. It is a no-op without one. On
// failure the active reference is kept even though the platform may disagree.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	active := m.state.Active
	m.mu.Unlock()
	if active == nil {
		return nil
	}

	if err := m.begin(events.OperationDisconnect); err != nil {
		return err
	}

	m.mu.Lock()
	active = m.state.Active
	m.mu.Unlock()
	if active == nil {
		m.finish(nil)
		return nil
	}

	name := displayName(active.Name())
	logger := m.logger.With("op", events.OperationDisconnect, "device", name)
	logger.Info("disconnecting")
	if err := active.Disconnect(ctx); err != nil {
		logger.Warn("disconnect failed", "error", err)
		m.finish(func(s *State) (events.StatusMessage, bool) {
			s.Message = disconnectFailedMessage(name)
			return events.StatusMessage{Operation: events.OperationDisconnect, Device: name, Text: s.Message, Failed: true}, true
		})
		return fmt.Errorf("disconnect %q: %w", name, err)
	}

	m.finish(func(s *State) (events.StatusMessage, bool) {
		s.updateStatus(active, StatusOnline)
		if s.Active == active {
			s.Active = nil
		}
		s.Message = disconnectedMessage(name)
		return events.StatusMessage{Operation: events.OperationDisconnect, Device: name, Text: s.Message}, true
	})
	logger.Info("disconnected")
	m.publish(events.TopicConnection, events.ConnectionChanged{Device: name, Connected: false, Timestamp: m.now()})

	return nil
}

func (m *Manager) allowed(name string) bool {
	return slices.Contains(m.opts.AllowedNames, name)
}

// begin marks the session busy or rejects the call if it already is.
func (m *Manager) begin(op events.Operation) error {
	m.mu.Lock()
	if m.state.Busy {
		m.state.Message = MessageBusy
		snap := m.state.snapshot()
		m.mu.Unlock()
		m.logger.Info("operation rejected: session busy", "op", op)
		m.publishSnapshotAndMessage(snap, true, op, "", MessageBusy)
		return ErrBusy
	}
	m.state.Busy = true
	snap := m.state.snapshot()
	m.mu.Unlock()

	m.publish(events.TopicSessionState, snap)
	return nil
}

// finish applies mutate, clears the busy flag and publishes the result.
func (m *Manager) finish(mutate func(s *State) (events.StatusMessage, bool)) {
	m.mu.Lock()
	var (
		msg        events.StatusMessage
		hasMessage bool
	)
	if mutate != nil {
		msg, hasMessage = mutate(&m.state)
	}
	m.state.Busy = false
	snap := m.state.snapshot()
	m.mu.Unlock()

	m.publish(events.TopicSessionState, snap)
	if hasMessage {
		msg.Timestamp = m.now()
		m.publish(events.TopicStatusMessage, msg)
	}
}

func (m *Manager) publishSnapshotAndMessage(snap Snapshot, failed bool, op events.Operation, device, text string) {
	m.publish(events.TopicSessionState, snap)
	m.publish(events.TopicStatusMessage, events.StatusMessage{
		Operation: op,
		Device:    device,
		Text:      text,
		Failed:    failed,
		Timestamp: m.now(),
	})
}

func (m *Manager) publish(topic string, msg any) {
	if m.publisher == nil {
		return
	}
	m.publisher.Publish(topic, msg)
}
