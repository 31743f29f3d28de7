package platform

import (
	"errors"
	"strings"
)

// ErrPortInUse indicates another trafficview process already reads from the port.
var ErrPortInUse = errors.New("port already in use by another instance")

// ErrPortLockUnsupported indicates the current platform has no lock backend implementation.
var ErrPortLockUnsupported = errors.New("port lock unsupported")

// PortLock is held for as long as a session reads from a port. The OS drops
// it when the process exits, so a crash never leaves the port locked.
type PortLock interface {
	Release() error
}

// AcquirePortLock takes an exclusive advisory lock named after appID and the
// port path, e.g. "/dev/ttyACM0" or "COM3".
func AcquirePortLock(appID, port string) (PortLock, error) {
	return acquirePortLock(
		normalizeLockComponent(appID, "app"),
		normalizeLockComponent(port, "port"),
	)
}

// normalizeLockComponent maps an arbitrary string onto a safe file name.
func normalizeLockComponent(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	normalized := strings.Trim(b.String(), "_-.")
	if normalized == "" {
		return fallback
	}

	return normalized
}
