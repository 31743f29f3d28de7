package ui

import (
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"

	"github.com/skobkin/trafficview/internal/notifications"
)

// repeatWindow suppresses identical notifications, e.g. a loose cable
// bouncing between failed and connected.
const repeatWindow = 5 * time.Second

// FyneNotificationSender shows app notifications through the fyne driver.
type FyneNotificationSender struct {
	app     fyne.App
	runOnUI func(func())
	now     func() time.Time

	mu       sync.Mutex
	lastKey  string
	lastSent time.Time
}

func NewFyneNotificationSender(app fyne.App, runOnUI func(func())) *FyneNotificationSender {
	if runOnUI == nil {
		runOnUI = fyne.Do
	}

	return &FyneNotificationSender{app: app, runOnUI: runOnUI, now: time.Now}
}

func (s *FyneNotificationSender) Send(notification notifications.Payload) {
	if s == nil || s.app == nil {
		return
	}

	title := strings.TrimSpace(notification.Title)
	content := strings.TrimSpace(notification.Content)
	if title == "" && content == "" {
		return
	}
	if s.repeated(title + "\n" + content) {
		appLogger.Debug("suppressing repeated notification", "title", title)

		return
	}

	s.runOnUI(func() {
		s.app.SendNotification(fyne.NewNotification(title, content))
	})
}

func (s *FyneNotificationSender) repeated(key string) bool {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if key == s.lastKey && now.Sub(s.lastSent) < repeatWindow {
		return true
	}
	s.lastKey = key
	s.lastSent = now

	return false
}
