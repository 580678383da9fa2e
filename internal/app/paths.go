package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HomeEnv overrides the data directory, e.g. for a portable install.
const HomeEnv = "BLEDM_HOME"

// Paths stores resolved runtime file locations for config, logs and the database.
type Paths struct {
	RootDir    string
	ConfigFile string
	DBFile     string
	LogFile    string
}

// ResolvePaths uses $BLEDM_HOME when set, otherwise <user config dir>/bledm.
func ResolvePaths() (Paths, error) {
	if home := strings.TrimSpace(os.Getenv(HomeEnv)); home != "" {
		return PathsIn(filepath.Clean(home))
	}

	cfgRoot, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("resolve config dir: %w", err)
	}

	return PathsIn(filepath.Join(cfgRoot, Name))
}

// PathsIn lays out runtime files under root, creating it if needed.
func PathsIn(root string) (Paths, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return Paths{}, fmt.Errorf("create app config dir: %w", err)
	}

	return Paths{
		RootDir:    root,
		ConfigFile: filepath.Join(root, ConfigFilename),
		DBFile:     filepath.Join(root, DBFilename),
		LogFile:    filepath.Join(root, LogFilename),
	}, nil
}
