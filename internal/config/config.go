package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultScanTimeoutSeconds = 10
	MaxScanTimeoutSeconds     = 120
	DefaultNamePrefix         = "WIDI Jack"
)

// DefaultAllowedNames lists device names surfaced by default.
var DefaultAllowedNames = []string{"WIDI Jack", "WIDI Jack2", "WIDI Jack3"}

// DefaultOptionalServices lists GATT services requested during discovery by default.
var DefaultOptionalServices = []string{"battery_service"}

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level     string `json:"level"`
	LogToFile bool   `json:"log_to_file"`
}

// BluetoothConfig contains discovery and device filter parameters.
type BluetoothConfig struct {
	Adapter            string   `json:"adapter"`
	NamePrefixes       []string `json:"name_prefixes"`
	AllowedNames       []string `json:"allowed_names"`
	OptionalServices   []string `json:"optional_services"`
	ScanTimeoutSeconds int      `json:"scan_timeout_seconds"`
}

// NotificationConfig stores desktop notification preferences.
type NotificationConfig struct {
	ConnectionStatus bool `json:"connection_status"`
	DeviceDiscovered bool `json:"device_discovered"`
}

// ActivityConfig controls the on-disk journal of session outcomes.
type ActivityConfig struct {
	Enabled bool `json:"enabled"`
}

// UIConfig stores persistent UI preferences.
type UIConfig struct {
	LastSelectedDevice string `json:"last_selected_device"`
	StartHidden        bool   `json:"start_hidden"`
}

// AppConfig is the root persisted application configuration.
type AppConfig struct {
	Bluetooth     BluetoothConfig    `json:"bluetooth"`
	Logging       LoggingConfig      `json:"logging"`
	Notifications NotificationConfig `json:"notifications"`
	Activity      ActivityConfig     `json:"activity"`
	UI            UIConfig           `json:"ui"`
}

func Default() AppConfig {
	return AppConfig{
		Bluetooth: BluetoothConfig{
			Adapter:            "",
			NamePrefixes:       []string{DefaultNamePrefix},
			AllowedNames:       append([]string(nil), DefaultAllowedNames...),
			OptionalServices:   append([]string(nil), DefaultOptionalServices...),
			ScanTimeoutSeconds: DefaultScanTimeoutSeconds,
		},
		Logging: LoggingConfig{
			Level:     "info",
			LogToFile: false,
		},
		Notifications: NotificationConfig{
			ConnectionStatus: true,
			DeviceDiscovered: false,
		},
		Activity: ActivityConfig{
			Enabled: true,
		},
	}
}

func Load(path string) (AppConfig, error) {
	cfg := Default()
	cleanPath := filepath.Clean(path)
	// #nosec G304 -- path is resolved by app runtime and points to user config dir.
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config json: %w", err)
	}

	cfg.FillMissingDefaults()

	return cfg, nil
}

func (c *AppConfig) FillMissingDefaults() {
	c.Bluetooth.Adapter = strings.TrimSpace(c.Bluetooth.Adapter)
	c.Bluetooth.NamePrefixes = normalizeList(c.Bluetooth.NamePrefixes)
	c.Bluetooth.AllowedNames = normalizeList(c.Bluetooth.AllowedNames)
	c.Bluetooth.OptionalServices = normalizeList(c.Bluetooth.OptionalServices)
	if len(c.Bluetooth.AllowedNames) == 0 {
		c.Bluetooth.AllowedNames = append([]string(nil), DefaultAllowedNames...)
	}
	if c.Bluetooth.NamePrefixes == nil {
		c.Bluetooth.NamePrefixes = []string{}
	}
	if c.Bluetooth.OptionalServices == nil {
		c.Bluetooth.OptionalServices = []string{}
	}
	if c.Bluetooth.ScanTimeoutSeconds <= 0 {
		c.Bluetooth.ScanTimeoutSeconds = DefaultScanTimeoutSeconds
	}
	if c.Bluetooth.ScanTimeoutSeconds > MaxScanTimeoutSeconds {
		c.Bluetooth.ScanTimeoutSeconds = MaxScanTimeoutSeconds
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.UI.LastSelectedDevice = strings.TrimSpace(c.UI.LastSelectedDevice)
}

// ScanTimeout returns the discovery window as a duration.
func (c BluetoothConfig) ScanTimeout() time.Duration {
	seconds := c.ScanTimeoutSeconds
	if seconds <= 0 {
		seconds = DefaultScanTimeoutSeconds
	}

	return time.Duration(seconds) * time.Second
}

func (c AppConfig) Validate() error {
	if len(normalizeList(c.Bluetooth.AllowedNames)) == 0 {
		return errors.New("at least one allowed device name is required")
	}
	if c.Bluetooth.ScanTimeoutSeconds < 0 || c.Bluetooth.ScanTimeoutSeconds > MaxScanTimeoutSeconds {
		return fmt.Errorf("scan timeout must be between 1 and %d seconds", MaxScanTimeoutSeconds)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unsupported log level: %q", c.Logging.Level)
	}

	return nil
}

func Save(path string, cfg AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config: %w", err)
	}

	return nil
}

// normalizeList trims entries and drops blanks and duplicates, keeping order.
func normalizeList(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}
