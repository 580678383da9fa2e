package session

import "context"

// Device is a platform-owned BLE peripheral handle. The session keeps it as a
// non-owning reference and compares handles by identity, so implementations
// must be comparable (pointer receivers in practice).
type Device interface {
	Name() string
	// Connected reports the platform's current connection state without blocking.
	Connected() bool
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

// DiscoveryOptions restricts what the platform chooser offers.
type DiscoveryOptions struct {
	// NamePrefixes keeps only devices whose advertised name starts with one of
	// the prefixes. Empty means no prefix filtering.
	NamePrefixes []string
	// OptionalServices are GATT service hints requested for later access.
	OptionalServices []string
}

// Discoverer runs the platform discovery flow. RequestDevice blocks until the
// user picks a device or the flow is canceled or fails.
type Discoverer interface {
	RequestDevice(ctx context.Context, opts DiscoveryOptions) (Device, error)
}
