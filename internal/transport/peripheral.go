package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/skobkin/bledm/internal/bluetoothutil"
	"tinygo.org/x/bluetooth"
)

// link is the live connection held while a Peripheral is connected.
type link interface {
	Disconnect() error
}

type dialFunc func(ctx context.Context, p *Peripheral) (link, error)

// Peripheral is the platform handle for a chosen device and implements
// session.Device. Handles are compared by pointer identity.
type Peripheral struct {
	name      string
	address   string
	adapterID string
	addr      bluetooth.Address
	services  []bluetooth.UUID

	dial        dialFunc
	linkQueried func(adapterID, address string) (bool, error)

	mu   sync.Mutex
	conn link
}

func newPeripheral(candidate Candidate, adapterID string, services []bluetooth.UUID) *Peripheral {
	return &Peripheral{
		name:        candidate.Name,
		address:     candidate.Address,
		adapterID:   adapterID,
		addr:        candidate.addr,
		services:    services,
		dial:        dialTinyGo,
		linkQueried: bluetoothutil.DeviceConnected,
	}
}

func (p *Peripheral) Name() string {
	return p.name
}

func (p *Peripheral) Address() string {
	return p.address
}

// Connected reports our own link first and falls back to the OS stack, which
// knows about connections made by other processes.
func (p *Peripheral) Connected() bool {
	p.mu.Lock()
	hasLink := p.conn != nil
	p.mu.Unlock()
	if hasLink {
		return true
	}
	if p.linkQueried == nil {
		return false
	}

	connected, err := p.linkQueried(p.adapterID, p.address)
	if err != nil {
		transportLogger("state", "address", p.address).Debug("connection state query failed", "error", err)
		return false
	}

	return connected
}

func (p *Peripheral) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	logger := transportLogger("connect", "address", p.address, "name", p.name)
	if p.conn != nil {
		logger.Debug("connect skipped: already connected")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	conn, err := p.dial(ctx, p)
	if err != nil {
		logger.Warn("connect failed", "error", err)
		return err
	}
	if err := ctx.Err(); err != nil {
		_ = conn.Disconnect()
		logger.Debug("connect canceled after link setup", "error", err)
		return err
	}

	p.conn = conn
	logger.Info("connected")
	return nil
}

// Disconnect drops the link. A link that the stack reports as already down
// counts as disconnected.
func (p *Peripheral) Disconnect(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	logger := transportLogger("disconnect", "address", p.address, "name", p.name)
	if p.conn == nil {
		logger.Debug("disconnect skipped: not connected")
		return nil
	}

	if err := p.conn.Disconnect(); err != nil {
		if !bluetoothutil.IsNotConnectedError(err) {
			logger.Warn("disconnect failed", "error", err)
			return fmt.Errorf("disconnect bluetooth device %q: %w", p.address, err)
		}
		logger.Debug("link was already down", "error", err)
	}

	p.conn = nil
	logger.Info("disconnected")
	return nil
}

func dialTinyGo(ctx context.Context, p *Peripheral) (link, error) {
	logger := transportLogger("connect", "address", p.address, "adapter", p.adapterID)
	adapter := bluetoothutil.ResolveAdapter(p.adapterID)
	if err := bluetoothutil.EnableAdapter(adapter); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("connecting device")
	device, err := adapter.Connect(p.addr, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("connect bluetooth device %q: %w", p.address, err)
	}

	if len(p.services) > 0 {
		// Optional services are hints; a device lacking them is still usable.
		services, err := device.DiscoverServices(p.services)
		if err != nil {
			logger.Debug("optional service discovery failed", "error", err)
		} else {
			logger.Debug("optional services discovered", "requested", len(p.services), "found", len(services))
		}
	}

	return &device, nil
}
