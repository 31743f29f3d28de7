package notifications

import (
	"log/slog"
	"strings"

	"github.com/gen2brain/beeep"
)

type notifyFunc func(title, message, icon string) error

// DesktopSender shows notifications through the OS notification daemon
// without a GUI toolkit, for the terminal tools.
type DesktopSender struct {
	logger *slog.Logger
	icon   string
	notify notifyFunc
}

func NewDesktopSender(logger *slog.Logger, iconPath string) *DesktopSender {
	if logger == nil {
		logger = slog.Default().With("component", "notifications")
	}

	return &DesktopSender{
		logger: logger,
		icon:   iconPath,
		notify: func(title, message, icon string) error {
			return beeep.Notify(title, message, icon)
		},
	}
}

// Send never blocks the caller on a slow notification daemon.
func (s *DesktopSender) Send(payload Payload) {
	if s == nil || s.notify == nil {
		return
	}
	title := strings.TrimSpace(payload.Title)
	content := strings.TrimSpace(payload.Content)
	if title == "" && content == "" {
		return
	}

	go func() {
		if err := s.notify(title, content, s.icon); err != nil {
			s.logger.Warn("desktop notification failed", "title", title, "error", err)
		}
	}()
}
