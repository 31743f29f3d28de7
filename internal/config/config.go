package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

// SourceType identifies where the device line stream comes from.
type SourceType string

const (
	SourceSerial SourceType = "serial"
	SourceTCP    SourceType = "tcp"
	SourceReplay SourceType = "replay"

	DefaultSerialBaud = 9600
	DefaultFrameRate  = 60
	MaxFrameRate      = 240

	DefaultMQTTTopic    = "trafficview/state"
	DefaultMQTTClientID = "trafficview"

	LogFormatText = "text"
	LogFormatJSON = "json"
)

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level     string `json:"level"`
	Format    string `json:"format"`
	LogToFile bool   `json:"log_to_file"`
}

// ConnectionConfig selects and parameterizes the device transport.
// ReplayPaceMillis delays every replayed chunk; 0 replays as fast as possible.
type ConnectionConfig struct {
	Source           SourceType `json:"source"`
	SerialPort       string     `json:"serial_port"`
	SerialBaud       int        `json:"serial_baud"`
	TCPAddress       string     `json:"tcp_address"`
	ReplayPath       string     `json:"replay_path"`
	ReplayPaceMillis int        `json:"replay_pace_ms"`
	AutoConnect      bool       `json:"auto_connect"`
}

// UIConfig stores renderer preferences.
type UIConfig struct {
	FrameRate     int                `json:"frame_rate"`
	Notifications NotificationConfig `json:"notifications"`
}

// NotificationConfig stores desktop notification preferences.
type NotificationConfig struct {
	NotifyWhenFocused bool                     `json:"notify_when_focused"`
	Events            NotificationEventsConfig `json:"events"`
}

// NotificationEventsConfig stores per-event notification toggles.
type NotificationEventsConfig struct {
	ConnectionStatus bool `json:"connection_status"`
	ModeChange       bool `json:"mode_change"`
}

// MirrorConfig controls re-publishing decoded states to other clients.
// Empty addresses disable the corresponding mirror.
type MirrorConfig struct {
	WebSocketAddr string     `json:"websocket_addr"`
	MQTT          MQTTConfig `json:"mqtt"`
}

type MQTTConfig struct {
	Broker   string `json:"broker"`
	Topic    string `json:"topic"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	QoS      byte   `json:"qos"`
	Retained bool   `json:"retained"`
}

// AppConfig is the root persisted application configuration.
type AppConfig struct {
	Connection ConnectionConfig `json:"connection"`
	Logging    LoggingConfig    `json:"logging"`
	UI         UIConfig         `json:"ui"`
	Mirror     MirrorConfig     `json:"mirror"`
}

func Default() AppConfig {
	return AppConfig{
		Connection: ConnectionConfig{
			Source:     SourceSerial,
			SerialBaud: DefaultSerialBaud,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: LogFormatText,
		},
		UI: UIConfig{
			FrameRate: DefaultFrameRate,
			Notifications: NotificationConfig{
				Events: NotificationEventsConfig{
					ConnectionStatus: true,
					ModeChange:       false,
				},
			},
		},
		Mirror: MirrorConfig{
			MQTT: MQTTConfig{
				Topic:    DefaultMQTTTopic,
				ClientID: DefaultMQTTClientID,
			},
		},
	}
}

func Load(path string) (AppConfig, error) {
	cfg := Default()
	cleanPath := filepath.Clean(path)
	// #nosec G304 -- path is resolved by app runtime and points to user config dir.
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config json: %w", err)
	}

	cfg.FillMissingDefaults()

	return cfg, nil
}

func (c *AppConfig) FillMissingDefaults() {
	if c.Connection.Source == "" {
		c.Connection.Source = SourceSerial
	}
	if c.Connection.SerialBaud <= 0 {
		c.Connection.SerialBaud = DefaultSerialBaud
	}
	if c.Connection.ReplayPaceMillis < 0 {
		c.Connection.ReplayPaceMillis = 0
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = LogFormatText
	}
	c.UI.FrameRate = normalizeFrameRate(c.UI.FrameRate)
	if strings.TrimSpace(c.Mirror.MQTT.Topic) == "" {
		c.Mirror.MQTT.Topic = DefaultMQTTTopic
	}
	if strings.TrimSpace(c.Mirror.MQTT.ClientID) == "" {
		c.Mirror.MQTT.ClientID = DefaultMQTTClientID
	}
}

func normalizeFrameRate(rate int) int {
	switch {
	case rate <= 0:
		return DefaultFrameRate
	case rate > MaxFrameRate:
		return MaxFrameRate
	default:
		return rate
	}
}

// Validate checks only the active source; a serial config may keep a stale
// TCP address around and vice versa.
func (c AppConfig) Validate() error {
	switch c.Connection.Source {
	case SourceSerial:
		if strings.TrimSpace(c.Connection.SerialPort) == "" {
			return errors.New("serial port is required")
		}
		if c.Connection.SerialBaud <= 0 {
			return errors.New("serial baud must be positive")
		}
	case SourceTCP:
		if strings.TrimSpace(c.Connection.TCPAddress) == "" {
			return errors.New("tcp address is required")
		}
	case SourceReplay:
		if strings.TrimSpace(c.Connection.ReplayPath) == "" {
			return errors.New("replay path is required")
		}
	default:
		return fmt.Errorf("unknown source: %s", c.Connection.Source)
	}

	switch c.Logging.Format {
	case LogFormatText, LogFormatJSON, "":
	default:
		return fmt.Errorf("unknown log format: %s", c.Logging.Format)
	}
	if c.UI.FrameRate <= 0 || c.UI.FrameRate > MaxFrameRate {
		return fmt.Errorf("frame rate must be within 1..%d", MaxFrameRate)
	}

	return c.Mirror.validate()
}

func (m MirrorConfig) validate() error {
	if addr := strings.TrimSpace(m.WebSocketAddr); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("invalid websocket address %q: %w", addr, err)
		}
	}
	if strings.TrimSpace(m.MQTT.Broker) != "" {
		if strings.TrimSpace(m.MQTT.Topic) == "" {
			return errors.New("mqtt topic is required when a broker is set")
		}
		if m.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", m.MQTT.QoS)
		}
	}

	return nil
}

func Save(path string, cfg AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config: %w", err)
	}

	return nil
}
