//go:build unix

package platform

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestAcquirePortLock_ContentionAndRelease(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	appID := "trafficview-test-" + strconv.Itoa(os.Getpid())

	first, err := AcquirePortLock(appID, "/dev/ttyACM0")
	if err != nil {
		t.Fatalf("acquire first lock: %v", err)
	}

	second, err := AcquirePortLock(appID, "/dev/ttyACM0")
	if !errors.Is(err, ErrPortInUse) {
		t.Fatalf("expected %v, got %v", ErrPortInUse, err)
	}
	if second != nil {
		t.Fatalf("expected nil lock on contention, got %#v", second)
	}

	other, err := AcquirePortLock(appID, "/dev/ttyUSB0")
	if err != nil {
		t.Fatalf("a different port must not contend: %v", err)
	}
	if err := other.Release(); err != nil {
		t.Fatalf("release other lock: %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("release first lock: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("second release must be a no-op: %v", err)
	}

	again, err := AcquirePortLock(appID, "/dev/ttyACM0")
	if err != nil {
		t.Fatalf("acquire lock after release: %v", err)
	}
	if err := again.Release(); err != nil {
		t.Fatalf("release lock: %v", err)
	}
}

func TestPortLockPathPrefersXDGRuntimeDir(t *testing.T) {
	runtimeDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)

	path, err := portLockPath("trafficview", "dev_ttyACM0")
	if err != nil {
		t.Fatalf("resolve lock path: %v", err)
	}

	want := filepath.Join(runtimeDir, "trafficview", "dev_ttyACM0.lock")
	if path != want {
		t.Fatalf("expected %q, got %q", want, path)
	}
}

func TestPortLockPathFallsBackToTemp(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")

	path, err := portLockPath("trafficview", "COM3")
	if err != nil {
		t.Fatalf("resolve lock path: %v", err)
	}

	wantFragment := "trafficview-" + strconv.Itoa(os.Getuid())
	if !strings.Contains(path, wantFragment) || !strings.HasSuffix(path, "COM3.lock") {
		t.Fatalf("unexpected lock path %q", path)
	}
}
