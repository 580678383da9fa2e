//go:build unix && !windows

package platform

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestAcquireInstanceLock_ContentionAndRelease(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	appID := "bledm-test-" + strconv.Itoa(os.Getpid())

	first, err := AcquireInstanceLock(appID)
	if err != nil {
		t.Fatalf("acquire first lock: %v", err)
	}

	second, err := AcquireInstanceLock(appID)
	if !errors.Is(err, ErrInstanceAlreadyRunning) {
		t.Fatalf("expected %v, got %v", ErrInstanceAlreadyRunning, err)
	}
	if second != nil {
		t.Fatalf("expected no lock on contention, got %#v", second)
	}

	other, err := AcquireInstanceLock(appID + "-cli")
	if err != nil {
		t.Fatalf("independent app id must not contend: %v", err)
	}
	if err := other.Release(); err != nil {
		t.Fatalf("release independent lock: %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("release first lock: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("second release must be a no-op: %v", err)
	}

	again, err := AcquireInstanceLock(appID)
	if err != nil {
		t.Fatalf("acquire lock after release: %v", err)
	}
	if err := again.Release(); err != nil {
		t.Fatalf("release reacquired lock: %v", err)
	}
}

func TestUnixLockBaseDir(t *testing.T) {
	runtimeDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)
	if got := unixLockBaseDir(); got != runtimeDir {
		t.Fatalf("expected runtime dir %q, got %q", runtimeDir, got)
	}

	t.Setenv("XDG_RUNTIME_DIR", "  ")
	got := unixLockBaseDir()
	if want := "uid-" + strconv.Itoa(os.Getuid()); filepath.Base(got) != want {
		t.Fatalf("expected fallback dir named %q, got %q", want, got)
	}
}
