package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/skobkin/trafficview/internal/config"
	"github.com/skobkin/trafficview/internal/connectors"
	"github.com/skobkin/trafficview/internal/domain"
)

const replayCapture = `Traffic Light Mode ON
{"Light":"Red","Red":1,"Yellow":0,"Blue":0,"Mode":"Normal","Brightness":200}
{"Light":"Yellow","Red":0,"Yellow":1,"Blue":0,"Mode":"Normal","Brightness":200}
Blink Mode ON
{"Light":"Off","Red":0,"Yellow":0,"Blue":0,"Mode":"Blink","Brightness":120}`

func writeReplayCapture(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "capture.log")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write capture: %v", err)
	}

	return path
}

func newReplayRuntime(t *testing.T, replayPath string) *Runtime {
	t.Helper()

	root := t.TempDir()
	paths := Paths{
		RootDir:    root,
		ConfigFile: filepath.Join(root, ConfigFilename),
		LogFile:    filepath.Join(root, LogFilename),
		CacheDir:   filepath.Join(root, "cache"),
	}
	rt, err := InitializeWithOptions(t.Context(), Options{
		Paths:          &paths,
		QuietConsole:   true,
		DisableMirrors: true,
		Override: func(cfg *config.AppConfig) {
			cfg.Connection.Source = config.SourceReplay
			cfg.Connection.ReplayPath = replayPath
		},
	})
	if err != nil {
		t.Fatalf("initialize runtime: %v", err)
	}
	t.Cleanup(func() {
		_ = rt.Close()
	})

	return rt
}

func waitForConnState(t *testing.T, rt *Runtime, want connectors.ConnectionState) connectors.ConnectionStatus {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if status, ok := rt.CurrentConnStatus(); ok && status.State == want {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	status, _ := rt.CurrentConnStatus()
	t.Fatalf("timed out waiting for %q, last status %+v", want, status)

	return connectors.ConnectionStatus{}
}

func TestRuntimeReplaysCaptureIntoAnimator(t *testing.T) {
	rt := newReplayRuntime(t, writeReplayCapture(t, replayCapture))

	if status, ok := rt.CurrentConnStatus(); !ok || status.State != connectors.ConnectionStateDisconnected {
		t.Fatalf("expected initial disconnected status, got %+v", status)
	}
	if err := rt.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if err := rt.Session.Wait(t.Context()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if got := rt.Session.Status().State; got != connectors.ConnectionStateDisconnected {
		t.Fatalf("expected disconnected after end of capture, got %q", got)
	}

	latest, ok := rt.Animator.Latest()
	if !ok {
		t.Fatalf("expected animator to hold a state")
	}
	if latest.Mode != domain.ModeBlink || latest.Brightness != 120 {
		t.Fatalf("expected last record from capture, got %+v", latest)
	}
	stats := rt.Session.Stats()
	if stats.States != 3 || stats.DecodeErrors != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRuntimeConnectRejectsInvalidSettings(t *testing.T) {
	rt := newReplayRuntime(t, "")

	err := rt.Connect()
	if err == nil || !strings.Contains(err.Error(), "replay path is required") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRuntimeConnectFailureReportsFailedStatus(t *testing.T) {
	rt := newReplayRuntime(t, filepath.Join(t.TempDir(), "missing.log"))

	if err := rt.Connect(); err == nil {
		t.Fatalf("expected connect error for missing capture")
	}
	status := waitForConnState(t, rt, connectors.ConnectionStateFailed)
	if status.Err == "" {
		t.Fatalf("expected failure reason in status")
	}
}

func TestRuntimeSaveAndApplyConfigSwitchesTransport(t *testing.T) {
	rt := newReplayRuntime(t, writeReplayCapture(t, replayCapture))

	next := rt.CurrentConfig()
	next.Connection.Source = config.SourceTCP
	next.Connection.TCPAddress = "127.0.0.1:2000"
	if err := rt.SaveAndApplyConfig(next); err != nil {
		t.Fatalf("save and apply config: %v", err)
	}

	if got := rt.ConnectionTransport.Name(); got != "tcp" {
		t.Fatalf("expected tcp transport after apply, got %q", got)
	}
	if got := rt.CurrentConfig().Connection.TCPAddress; got != "127.0.0.1:2000" {
		t.Fatalf("expected applied config, got %q", got)
	}
	status, _ := rt.CurrentConnStatus()
	if status.TransportName != "tcp" || status.Target != "127.0.0.1:2000" {
		t.Fatalf("expected status to follow new config, got %+v", status)
	}

	loaded, err := config.Load(rt.Paths.ConfigFile)
	if err != nil {
		t.Fatalf("load saved config: %v", err)
	}
	if loaded.Connection.Source != config.SourceTCP {
		t.Fatalf("expected saved source tcp, got %q", loaded.Connection.Source)
	}
}

func TestRuntimeSaveAndApplyConfigRejectsInvalid(t *testing.T) {
	rt := newReplayRuntime(t, writeReplayCapture(t, replayCapture))

	next := rt.CurrentConfig()
	next.Connection.Source = config.SourceSerial
	next.Connection.SerialPort = ""
	if err := rt.SaveAndApplyConfig(next); err == nil {
		t.Fatalf("expected validation error")
	}
	if got := rt.ConnectionTransport.Name(); got != "replay" {
		t.Fatalf("expected transport to stay replay, got %q", got)
	}
	if _, err := os.Stat(rt.Paths.ConfigFile); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no config file to be written, got %v", err)
	}
}
