package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/skobkin/trafficview/internal/bus"
	"github.com/skobkin/trafficview/internal/config"
	"github.com/skobkin/trafficview/internal/connectors"
	"github.com/skobkin/trafficview/internal/domain"
	"github.com/skobkin/trafficview/internal/notifications"
)

const notificationTitleModeChanged = "Traffic light mode changed"

// NotificationService listens to bus events and emits user-facing notifications.
type NotificationService struct {
	bus           bus.MessageBus
	currentConfig func() config.AppConfig
	isForeground  func() bool
	sender        notifications.Sender
	logger        *slog.Logger

	mu               sync.Mutex
	lastConnState    connectors.ConnectionState
	lastConnStateSet bool
	lastMode         string
	lastModeSet      bool
}

func NewNotificationService(
	messageBus bus.MessageBus,
	currentConfig func() config.AppConfig,
	isForeground func() bool,
	sender notifications.Sender,
	logger *slog.Logger,
) *NotificationService {
	if logger == nil {
		logger = slog.Default().With("component", "app.notifications")
	}

	return &NotificationService{
		bus:           messageBus,
		currentConfig: currentConfig,
		isForeground:  isForeground,
		sender:        sender,
		logger:        logger,
	}
}

func (s *NotificationService) Start(ctx context.Context) {
	if s == nil || s.bus == nil || s.sender == nil {
		return
	}

	// One subscription keeps status and state events in publish order.
	sub := s.bus.Subscribe(connectors.TopicConnStatus, connectors.TopicDeviceState)

	go func() {
		defer bus.Release(s.bus, sub, connectors.TopicConnStatus, connectors.TopicDeviceState)

		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-sub:
				if !ok {
					return
				}
				switch event := raw.(type) {
				case connectors.ConnectionStatus:
					s.handleConnectionStatus(event)
				case domain.DeviceState:
					s.handleDeviceState(event)
				}
			}
		}
	}()
}

func (s *NotificationService) handleConnectionStatus(status connectors.ConnectionStatus) {
	if status.State == "" {
		return
	}

	s.mu.Lock()
	if s.lastConnStateSet && s.lastConnState == status.State {
		s.mu.Unlock()
		return
	}
	s.lastConnState = status.State
	s.lastConnStateSet = true
	if status.State != connectors.ConnectionStateConnected {
		// The next session starts a fresh mode baseline.
		s.lastModeSet = false
	}
	s.mu.Unlock()

	switch status.State {
	case connectors.ConnectionStateConnected,
		connectors.ConnectionStateDisconnected,
		connectors.ConnectionStateFailed:
	default:
		return
	}
	prefs := s.notificationPrefs()
	if !s.shouldNotify(prefs, prefs.Events.ConnectionStatus) {
		return
	}

	transport := TransportDisplayName(status.TransportName)
	if transport == "" {
		transport = "Unknown"
	}
	details := strings.TrimSpace(status.Target)
	if details == "" {
		details = "No connection details"
	}
	if status.State != connectors.ConnectionStateConnected {
		if errText := strings.TrimSpace(status.Err); errText != "" {
			details = fmt.Sprintf("%s (error: %s)", details, errText)
		}
	}

	s.send(notifications.Payload{
		Title:   fmt.Sprintf("%s - %s", transport, status.State),
		Content: details,
	})
}

// handleDeviceState notifies when the reported mode differs from the previous
// state of the same session. The first state only sets the baseline.
func (s *NotificationService) handleDeviceState(state domain.DeviceState) {
	mode := strings.TrimSpace(state.Mode)

	s.mu.Lock()
	previous, known := s.lastMode, s.lastModeSet
	s.lastMode = mode
	s.lastModeSet = true
	s.mu.Unlock()

	if !known || previous == mode {
		return
	}
	prefs := s.notificationPrefs()
	if !s.shouldNotify(prefs, prefs.Events.ModeChange) {
		return
	}

	s.send(notifications.Payload{
		Title:   notificationTitleModeChanged,
		Content: fmt.Sprintf("%s (was %s)", modeLabel(mode), modeLabel(previous)),
	})
}

func modeLabel(mode string) string {
	if mode == "" {
		return "unknown"
	}

	return mode
}

func (s *NotificationService) shouldNotify(prefs config.NotificationConfig, kindEnabled bool) bool {
	if !kindEnabled {
		return false
	}
	if prefs.NotifyWhenFocused {
		return true
	}
	if s.isForeground == nil {
		return true
	}

	return !s.isForeground()
}

func (s *NotificationService) notificationPrefs() config.NotificationConfig {
	cfg := config.Default()
	if s.currentConfig != nil {
		cfg = s.currentConfig()
		cfg.FillMissingDefaults()
	}

	return cfg.UI.Notifications
}

func (s *NotificationService) send(notification notifications.Payload) {
	title := strings.TrimSpace(notification.Title)
	content := strings.TrimSpace(notification.Content)
	if title == "" && content == "" {
		return
	}
	s.logger.Debug("sending notification", "title", title)
	s.sender.Send(notifications.Payload{
		Title:   title,
		Content: content,
	})
}
