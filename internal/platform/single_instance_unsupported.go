//go:build !unix && !windows

package platform

import (
	"fmt"
	"runtime"
)

// Callers may treat ErrInstanceLockUnsupported as "run unguarded".
func acquireInstanceLock(appID string) (InstanceLock, error) {
	return nil, fmt.Errorf("%w on %s (lock %q)", ErrInstanceLockUnsupported, runtime.GOOS, appID)
}
