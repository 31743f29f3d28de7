package ui

import (
	"context"
	"log/slog"
	"sync/atomic"

	"fyne.io/fyne/v2"

	trafficapp "github.com/skobkin/trafficview/internal/app"
	"github.com/skobkin/trafficview/internal/config"
)

// foregroundTracker follows the driver lifecycle so notifications can be
// muted while the light is on screen.
type foregroundTracker struct {
	active atomic.Bool
}

func newForegroundTracker(lifecycle fyne.Lifecycle, visibleAtStart bool) *foregroundTracker {
	tracker := &foregroundTracker{}
	tracker.active.Store(visibleAtStart)
	lifecycle.SetOnEnteredForeground(func() { tracker.active.Store(true) })
	lifecycle.SetOnExitedForeground(func() { tracker.active.Store(false) })

	return tracker
}

func (t *foregroundTracker) Active() bool {
	return t.active.Load()
}

func startNotificationService(dep RuntimeDependencies, fyApp fyne.App, startHidden bool) func() {
	foreground := newForegroundTracker(fyApp.Lifecycle(), !startHidden)

	currentConfig := dep.Data.CurrentConfig
	if currentConfig == nil {
		cfg := dep.Data.Config
		currentConfig = func() config.AppConfig { return cfg }
	}

	ctx, stop := context.WithCancel(context.Background())
	trafficapp.NewNotificationService(
		dep.Data.Bus,
		currentConfig,
		foreground.Active,
		NewFyneNotificationSender(fyApp, dep.UIHooks.RunOnUI),
		slog.With("component", "ui.notifications"),
	).Start(ctx)

	return stop
}
