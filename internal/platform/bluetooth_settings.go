package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

type commandSpec struct {
	name string
	args []string
}

type commandStarter func(name string, args ...string) error

var bluetoothSettingsCommands = map[string][]commandSpec{
	"windows": {
		{name: "cmd", args: []string{"/c", "start", "", "ms-settings:bluetooth"}},
	},
	"darwin": {
		{name: "open", args: []string{"x-apple.systempreferences:com.apple.BluetoothSettings"}},
		{name: "open", args: []string{"/System/Library/PreferencePanes/Bluetooth.prefPane"}},
	},
	"linux": {
		{name: "systemsettings6", args: []string{"kcm_bluetooth"}},
		{name: "systemsettings5", args: []string{"kcm_bluetooth"}},
		{name: "gnome-control-center", args: []string{"bluetooth"}},
		{name: "kcmshell6", args: []string{"kcm_bluetooth"}},
		{name: "kcmshell5", args: []string{"kcm_bluetooth"}},
		{name: "blueman-manager"},
		{name: "xdg-open", args: []string{"bluetooth://"}},
	},
}

// OpenBluetoothSettings launches the OS Bluetooth settings panel, trying
// known launchers in order until one starts.
func OpenBluetoothSettings(logger *slog.Logger) error {
	return openBluetoothSettingsForOS(runtime.GOOS, startCommandDetached, logger)
}

func openBluetoothSettingsForOS(goos string, start commandStarter, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default().With("component", "platform")
	}
	goos = strings.ToLower(strings.TrimSpace(goos))
	commands, ok := bluetoothSettingsCommands[goos]
	if !ok || len(commands) == 0 {
		return fmt.Errorf("bluetooth settings are not supported on %s", goos)
	}

	logger.Info("opening bluetooth settings", "goos", goos, "attempts", len(commands))

	var errs []error
	for i, spec := range commands {
		err := start(spec.name, spec.args...)
		if err == nil {
			logger.Info("opened bluetooth settings", "command", spec.name, "attempt", i+1)
			return nil
		}
		logger.Debug("bluetooth settings command failed", "command", spec.name, "args", spec.args, "attempt", i+1, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", spec.name, err))
	}

	joined := errors.Join(errs...)
	logger.Warn("failed to open bluetooth settings", "goos", goos, "error", joined)

	return joined
}

func startCommandDetached(name string, args ...string) error {
	// #nosec G204 -- commands come from the fixed launcher table above.
	cmd := exec.Command(name, args...)

	return cmd.Start()
}
