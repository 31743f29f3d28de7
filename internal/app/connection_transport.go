package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/skobkin/trafficview/internal/config"
	"github.com/skobkin/trafficview/internal/transport"
)

var errTransportNotConfigured = errors.New("transport is not configured")

// SwitchableTransport wraps the active source and lets runtime swap it on config updates.
type SwitchableTransport struct {
	mu sync.RWMutex

	cfg       config.ConnectionConfig
	transport transport.Transport
}

func NewConnectionTransport(cfg config.ConnectionConfig) (*SwitchableTransport, error) {
	tr, err := newTransportForConnection(cfg)
	if err != nil {
		return nil, err
	}

	return &SwitchableTransport{
		cfg:       cfg,
		transport: tr,
	}, nil
}

// Apply replaces the underlying transport. The previous one is closed, which
// ends a read loop that is still running over it.
func (t *SwitchableTransport) Apply(cfg config.ConnectionConfig) error {
	next, err := newTransportForConnection(cfg)
	if err != nil {
		return err
	}

	t.mu.Lock()
	current := t.transport
	t.transport = next
	t.cfg = cfg
	t.mu.Unlock()

	if current != nil {
		_ = current.Close()
	}

	return nil
}

func (t *SwitchableTransport) Name() string {
	tr := t.current()
	if tr == nil {
		return "unknown"
	}

	return tr.Name()
}

func (t *SwitchableTransport) StatusTarget() string {
	t.mu.RLock()
	tr := t.transport
	cfg := t.cfg
	t.mu.RUnlock()

	if provider, ok := tr.(transport.StatusTargetResolver); ok {
		if target := strings.TrimSpace(provider.StatusTarget()); target != "" {
			return target
		}
	}

	return ConnectionTarget(cfg)
}

func (t *SwitchableTransport) Connect(ctx context.Context) error {
	tr := t.current()
	if tr == nil {
		return errTransportNotConfigured
	}

	return tr.Connect(ctx)
}

func (t *SwitchableTransport) Close() error {
	tr := t.current()
	if tr == nil {
		return nil
	}

	return tr.Close()
}

func (t *SwitchableTransport) ReadChunk(ctx context.Context) ([]byte, error) {
	tr := t.current()
	if tr == nil {
		return nil, errTransportNotConfigured
	}

	return tr.ReadChunk(ctx)
}

func (t *SwitchableTransport) WriteLine(ctx context.Context, line string) error {
	tr := t.current()
	if tr == nil {
		return errTransportNotConfigured
	}

	return tr.WriteLine(ctx, line)
}

func (t *SwitchableTransport) current() transport.Transport {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.transport
}

func (t *SwitchableTransport) Config() config.ConnectionConfig {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.cfg
}

func NewTransportForConnection(cfg config.ConnectionConfig) (transport.Transport, error) {
	return newTransportForConnection(cfg)
}

func newTransportForConnection(cfg config.ConnectionConfig) (transport.Transport, error) {
	switch cfg.Source {
	case config.SourceSerial:
		return transport.NewSerialTransport(strings.TrimSpace(cfg.SerialPort), cfg.SerialBaud), nil
	case config.SourceTCP:
		host, port, err := splitTCPAddress(cfg.TCPAddress)
		if err != nil {
			return nil, err
		}
		return transport.NewTCPTransport(host, port), nil
	case config.SourceReplay:
		pace := time.Duration(max(cfg.ReplayPaceMillis, 0)) * time.Millisecond
		return transport.NewFileTransport(strings.TrimSpace(cfg.ReplayPath), 0, pace), nil
	default:
		return nil, fmt.Errorf("unknown source: %q", cfg.Source)
	}
}

// splitTCPAddress accepts "host:port" or a bare host, which gets the bridge
// default port.
func splitTCPAddress(raw string) (string, int, error) {
	addr := strings.TrimSpace(raw)
	if addr == "" {
		return "", 0, nil
	}
	host, portText, err := net.SplitHostPort(addr)
	if err != nil {
		var addrErr *net.AddrError
		if errors.As(err, &addrErr) && addrErr.Err == "missing port in address" {
			return strings.Trim(addr, "[]"), transport.DefaultTCPPort, nil
		}
		return "", 0, fmt.Errorf("parse tcp address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portText)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("parse tcp address %q: invalid port %q", addr, portText)
	}

	return host, port, nil
}
