package mirror

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/skobkin/trafficview/internal/config"
)

const (
	mqttConnectTimeout    = 10 * time.Second
	mqttPublishTimeout    = 5 * time.Second
	mqttDisconnectQuiesce = 250 // milliseconds
	mqttKeepAlive         = 30 * time.Second
)

var (
	ErrMQTTNotConnected   = errors.New("mqtt client is not connected")
	ErrMQTTPublishTimeout = errors.New("mqtt publish timed out")
)

// mqttClient is the part of pahomqtt.Client the publisher needs.
type mqttClient interface {
	Connect() pahomqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// MQTTPublisher pushes states to cfg.Topic and statuses to cfg.Topic+"/status".
// The status topic carries a retained "offline" last will, so subscribers can
// tell a dead client from a quiet device.
type MQTTPublisher struct {
	client mqttClient
	cfg    config.MQTTConfig
	logger *slog.Logger
}

func NewMQTTPublisher(cfg config.MQTTConfig, logger *slog.Logger) *MQTTPublisher {
	if logger == nil {
		logger = slog.Default().With("component", "mirror.mqtt")
	}

	return &MQTTPublisher{
		client: pahomqtt.NewClient(buildMQTTOptions(cfg, logger)),
		cfg:    cfg,
		logger: logger,
	}
}

func buildMQTTOptions(cfg config.MQTTConfig, logger *slog.Logger) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(brokerURL(cfg.Broker))
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(mqttConnectTimeout)
	opts.SetKeepAlive(mqttKeepAlive)
	opts.SetWill(statusTopic(cfg.Topic), offlinePayload(cfg.ClientID), 1, true)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		logger.Info("mqtt connected", "broker", cfg.Broker)
	})

	return opts
}

// brokerURL accepts "host:port" as shorthand for "tcp://host:port".
func brokerURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "://") {
		return raw
	}

	return "tcp://" + raw
}

func statusTopic(base string) string {
	return strings.TrimRight(base, "/") + "/status"
}

func offlinePayload(clientID string) string {
	return fmt.Sprintf(`{"type":"status","status":{"state":"offline","target":%q}}`, clientID)
}

func (p *MQTTPublisher) Name() string {
	return "mqtt"
}

func (p *MQTTPublisher) Connect() error {
	token := p.client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return fmt.Errorf("connect mqtt broker %s: timeout after %v", p.cfg.Broker, mqttConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect mqtt broker %s: %w", p.cfg.Broker, err)
	}

	return nil
}

func (p *MQTTPublisher) Publish(msg Message) error {
	if !p.client.IsConnected() {
		return ErrMQTTNotConnected
	}
	raw, err := msg.Encode()
	if err != nil {
		return err
	}

	topic := p.cfg.Topic
	if msg.Type == MessageTypeStatus {
		topic = statusTopic(p.cfg.Topic)
	}

	token := p.client.Publish(topic, p.cfg.QoS, p.cfg.Retained, raw)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return ErrMQTTPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	return nil
}

// Close publishes the graceful offline status before disconnecting.
func (p *MQTTPublisher) Close() error {
	if p.client == nil || !p.client.IsConnected() {
		return nil
	}
	token := p.client.Publish(statusTopic(p.cfg.Topic), 1, true, offlinePayload(p.cfg.ClientID))
	token.WaitTimeout(mqttPublishTimeout)
	p.client.Disconnect(mqttDisconnectQuiesce)

	return nil
}
