package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/skobkin/trafficview/internal/bus"
	"github.com/skobkin/trafficview/internal/config"
	"github.com/skobkin/trafficview/internal/connectors"
	"github.com/skobkin/trafficview/internal/device"
	"github.com/skobkin/trafficview/internal/logging"
	"github.com/skobkin/trafficview/internal/mirror"
	"github.com/skobkin/trafficview/internal/platform"
	"github.com/skobkin/trafficview/internal/render"
)

// Options adjust runtime construction for the different front ends.
type Options struct {
	// Paths overrides the resolved user directories.
	Paths *Paths
	// Console receives log output next to the log file. Nil means stdout
	// unless QuietConsole is set.
	Console      io.Writer
	QuietConsole bool
	// Override edits the loaded config for this run only.
	Override       func(cfg *config.AppConfig)
	DisableMirrors bool
}

type Runtime struct {
	mu sync.RWMutex

	Ctx    context.Context
	cancel context.CancelFunc

	Paths  Paths
	Config config.AppConfig

	LogManager *logging.Manager
	Bus        *bus.PubSubBus

	ConnectionTransport *SwitchableTransport
	Session             *device.Session
	Animator            *render.Animator
	Mirrors             []mirror.Publisher

	connectMu sync.Mutex
	lockMu    sync.Mutex
	portLock  platform.PortLock

	connStatusMu    sync.RWMutex
	connStatus      connectors.ConnectionStatus
	connStatusKnown bool
}

func Initialize(parent context.Context) (*Runtime, error) {
	return InitializeWithOptions(parent, Options{})
}

func InitializeWithOptions(parent context.Context, opts Options) (*Runtime, error) {
	var paths Paths
	if opts.Paths != nil {
		paths = *opts.Paths
	} else {
		resolved, err := ResolvePaths()
		if err != nil {
			return nil, err
		}
		paths = resolved
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, err
	}
	if opts.Override != nil {
		opts.Override(&cfg)
		cfg.FillMissingDefaults()
	}

	ctx, cancel := context.WithCancel(parent)
	rt := &Runtime{
		Ctx:    ctx,
		cancel: cancel,
		Paths:  paths,
		Config: cfg,
	}

	console := opts.Console
	if console == nil && !opts.QuietConsole {
		console = os.Stdout
	}
	logMgr := logging.NewManagerWithConsole(console)
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		_ = logMgr.Close()
		cancel()
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	rt.LogManager = logMgr
	slog.Info("starting trafficview runtime", "version", BuildVersion(), "build_date", BuildDateYMD())

	b := bus.New(logMgr.Logger("bus"))
	rt.Bus = b
	rt.setConnStatus(ConnectionStatusFromConfig(cfg.Connection))
	connSub := b.Subscribe(connectors.TopicConnStatus)
	go rt.captureConnStatus(ctx, connSub)

	connTransport, err := NewConnectionTransport(cfg.Connection)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("initialize transport: %w", err)
	}
	rt.ConnectionTransport = connTransport

	rt.Animator = render.NewAnimator()
	rt.Session = device.NewSession(logMgr.Logger("device"), b, connTransport, rt.Animator)

	if !opts.DisableMirrors {
		rt.startMirrors(cfg.Mirror)
	}

	return rt, nil
}

func (r *Runtime) startMirrors(cfg config.MirrorConfig) {
	logger := r.LogManager.Logger("mirror")

	var publishers []mirror.Publisher
	if addr := strings.TrimSpace(cfg.WebSocketAddr); addr != "" {
		hub := mirror.NewWebSocketHub(r.LogManager.Logger("mirror.ws"))
		go func() {
			if err := hub.ListenAndServe(r.Ctx, addr); err != nil {
				logger.Error("websocket mirror stopped", "addr", addr, "error", err)
			}
		}()
		publishers = append(publishers, hub)
	}
	if strings.TrimSpace(cfg.MQTT.Broker) != "" {
		publisher := mirror.NewMQTTPublisher(cfg.MQTT, r.LogManager.Logger("mirror.mqtt"))
		if err := publisher.Connect(); err != nil {
			logger.Warn("mqtt mirror disabled", "broker", cfg.MQTT.Broker, "error", err)
		} else {
			publishers = append(publishers, publisher)
		}
	}
	if len(publishers) == 0 {
		return
	}

	r.Mirrors = publishers
	go mirror.Forward(r.Ctx, r.Bus, logger, publishers...)
}

func (r *Runtime) captureConnStatus(ctx context.Context, sub bus.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-sub:
			if !ok {
				return
			}
			status, ok := raw.(connectors.ConnectionStatus)
			if !ok {
				continue
			}
			r.setConnStatus(status)
		}
	}
}

func (r *Runtime) setConnStatus(status connectors.ConnectionStatus) {
	r.connStatusMu.Lock()
	r.connStatus = status
	r.connStatusKnown = true
	r.connStatusMu.Unlock()
}

func (r *Runtime) CurrentConnStatus() (connectors.ConnectionStatus, bool) {
	r.connStatusMu.RLock()
	status := r.connStatus
	known := r.connStatusKnown
	r.connStatusMu.RUnlock()
	return status, known
}

func (r *Runtime) CurrentConfig() config.AppConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.Config
}

// Connect validates the connection settings, takes the serial port lock and
// starts the session. The lock is held until the read loop exits.
func (r *Runtime) Connect() error {
	r.connectMu.Lock()
	defer r.connectMu.Unlock()

	switch r.Session.Status().State {
	case connectors.ConnectionStateConnecting, connectors.ConnectionStateConnected:
		return device.ErrSessionActive
	}

	cfg := r.CurrentConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid connection settings: %w", err)
	}
	lock, err := r.acquirePortLock(cfg.Connection)
	if err != nil {
		return err
	}
	if err := r.Session.Connect(r.Ctx); err != nil {
		r.releasePortLock(lock)
		return err
	}

	go func() {
		_ = r.Session.Wait(r.Ctx)
		r.releasePortLock(lock)
	}()

	return nil
}

func (r *Runtime) Disconnect() error {
	r.connectMu.Lock()
	defer r.connectMu.Unlock()

	err := r.Session.Disconnect()
	r.lockMu.Lock()
	lock := r.portLock
	r.lockMu.Unlock()
	r.releasePortLock(lock)

	return err
}

func (r *Runtime) acquirePortLock(cfg config.ConnectionConfig) (platform.PortLock, error) {
	if cfg.Source != config.SourceSerial {
		return nil, nil
	}

	lock, err := platform.AcquirePortLock(Name, cfg.SerialPort)
	switch {
	case errors.Is(err, platform.ErrPortLockUnsupported):
		slog.Debug("port lock unsupported, continuing without it", "port", cfg.SerialPort)
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("lock %s: %w", cfg.SerialPort, err)
	}

	r.lockMu.Lock()
	r.portLock = lock
	r.lockMu.Unlock()

	return lock, nil
}

// releasePortLock is safe to call twice for the same lock.
func (r *Runtime) releasePortLock(lock platform.PortLock) {
	if lock == nil {
		return
	}

	r.lockMu.Lock()
	if r.portLock != lock {
		r.lockMu.Unlock()
		return
	}
	r.portLock = nil
	r.lockMu.Unlock()

	if err := lock.Release(); err != nil {
		slog.Warn("release port lock", "error", err)
	}
}

// SaveAndApplyConfig persists cfg and applies it. A changed connection
// replaces the transport; an active session is restarted over the new one.
// Mirror settings take effect on the next start.
func (r *Runtime) SaveAndApplyConfig(cfg config.AppConfig) error {
	cfg.FillMissingDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	if err := config.Save(r.Paths.ConfigFile, cfg); err != nil {
		r.mu.Unlock()
		return err
	}
	previous := r.Config
	r.Config = cfg
	r.mu.Unlock()

	if err := r.LogManager.Configure(cfg.Logging, r.Paths.LogFile); err != nil {
		return err
	}
	if previous.Mirror != cfg.Mirror {
		slog.Info("mirror settings changed, restart to apply")
	}

	if r.ConnectionTransport == nil || previous.Connection == cfg.Connection {
		return nil
	}

	wasActive := false
	if r.Session != nil {
		switch r.Session.Status().State {
		case connectors.ConnectionStateConnecting, connectors.ConnectionStateConnected:
			wasActive = true
			if err := r.Disconnect(); err != nil {
				slog.Warn("disconnect before transport switch", "error", err)
			}
		}
	}
	if err := r.ConnectionTransport.Apply(cfg.Connection); err != nil {
		return err
	}
	if !wasActive {
		r.setConnStatus(ConnectionStatusFromConfig(cfg.Connection))
		return nil
	}

	return r.Connect()
}

func (r *Runtime) Close() error {
	if r.Session != nil {
		_ = r.Disconnect()
	}
	if r.cancel != nil {
		r.cancel()
	}
	for _, publisher := range r.Mirrors {
		if err := publisher.Close(); err != nil {
			slog.Warn("close mirror", "publisher", publisher.Name(), "error", err)
		}
	}
	if r.Bus != nil {
		r.Bus.Close()
	}
	if r.ConnectionTransport != nil {
		_ = r.ConnectionTransport.Close()
	}
	if r.LogManager != nil {
		_ = r.LogManager.Close()
	}
	return nil
}
