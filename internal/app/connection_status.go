package app

import (
	"fmt"
	"strings"

	"github.com/skobkin/trafficview/internal/config"
	"github.com/skobkin/trafficview/internal/connectors"
)

func TransportNameFromSource(source config.SourceType) string {
	switch source {
	case config.SourceSerial:
		return "serial"
	case config.SourceTCP:
		return "tcp"
	case config.SourceReplay:
		return "replay"
	default:
		if value := strings.TrimSpace(string(source)); value != "" {
			return value
		}
		return "unknown"
	}
}

// ConnectionTarget renders the configured target the same way the
// transports report it once created.
func ConnectionTarget(cfg config.ConnectionConfig) string {
	switch cfg.Source {
	case config.SourceSerial:
		port := strings.TrimSpace(cfg.SerialPort)
		if port == "" {
			return ""
		}
		if cfg.SerialBaud > 0 {
			return fmt.Sprintf("%s@%d", port, cfg.SerialBaud)
		}
		return port
	case config.SourceTCP:
		return strings.TrimSpace(cfg.TCPAddress)
	case config.SourceReplay:
		return strings.TrimSpace(cfg.ReplayPath)
	default:
		return ""
	}
}

// ConnectionStatusFromConfig is the status shown before the session has
// published anything.
func ConnectionStatusFromConfig(cfg config.ConnectionConfig) connectors.ConnectionStatus {
	status := connectors.ConnectionStatus{
		State:         connectors.ConnectionStateDisconnected,
		TransportName: TransportNameFromSource(cfg.Source),
		Target:        ConnectionTarget(cfg),
	}
	if status.Target != "" && cfg.AutoConnect {
		status.State = connectors.ConnectionStateConnecting
	}

	return status
}

// ConnectionStatusText is the one-line summary used by the status bar and
// the terminal view, e.g. "Serial: connected (/dev/ttyACM0@9600)".
func ConnectionStatusText(status connectors.ConnectionStatus) string {
	state := string(status.State)
	if state == "" {
		state = string(connectors.ConnectionStateDisconnected)
	}
	text := state
	if name := TransportDisplayName(status.TransportName); name != "" {
		text = name + ": " + state
	}
	if target := strings.TrimSpace(status.Target); target != "" {
		text += " (" + target + ")"
	}
	if status.State == connectors.ConnectionStateFailed {
		if errText := strings.TrimSpace(status.Err); errText != "" {
			text += ": " + errText
		}
	}

	return text
}

func TransportDisplayName(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "serial":
		return "Serial"
	case "tcp":
		return "TCP"
	case "replay":
		return "Replay"
	default:
		return strings.TrimSpace(name)
	}
}
