package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInstanceAlreadyRunning indicates another process already owns the app instance lock.
var ErrInstanceAlreadyRunning = errors.New("instance already running")

// ErrInstanceLockUnsupported indicates the current platform has no lock backend implementation.
var ErrInstanceLockUnsupported = errors.New("instance lock unsupported")

const (
	defaultLockComponent = "app"
	instanceLockFilename = "instance.lock"
)

// InstanceLock represents an acquired single-instance lock.
type InstanceLock interface {
	Release() error
}

// AcquireInstanceLock takes a per-user lock named after appID. A second
// process with the same appID gets ErrInstanceAlreadyRunning until the
// holder releases the lock or exits.
func AcquireInstanceLock(appID string) (InstanceLock, error) {
	return acquireInstanceLock(normalizeInstanceLockComponent(appID, defaultLockComponent))
}

func isLockRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_' || r == '.':
		return true
	default:
		return false
	}
}

func normalizeInstanceLockComponent(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if isLockRune(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}

	normalized := strings.Trim(b.String(), "_-.")
	if normalized == "" {
		return fallback
	}

	return normalized
}

// openLockFile creates dir/<appID>/instance.lock for the OS-level lock.
func openLockFile(dir, appID string) (*os.File, error) {
	lockDir := filepath.Join(dir, normalizeInstanceLockComponent(appID, defaultLockComponent))
	if err := os.MkdirAll(lockDir, 0o700); err != nil {
		return nil, fmt.Errorf("create instance lock dir: %w", err)
	}

	// #nosec G304 -- the path is built from per-user runtime directories.
	file, err := os.OpenFile(filepath.Join(lockDir, instanceLockFilename), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open instance lock file: %w", err)
	}

	return file, nil
}
