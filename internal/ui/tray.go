package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	trafficapp "github.com/skobkin/trafficview/internal/app"
	"github.com/skobkin/trafficview/internal/resources"
)

type trayActions struct {
	connect    func()
	disconnect func()
	openLogs   func()
	quit       func()
}

// configureSystemTray installs the tray menu when the driver supports it.
// The returned setter swaps the tray icon on theme changes.
func configureSystemTray(fyApp fyne.App, window fyne.Window, actions trayActions) func(fyne.ThemeVariant) {
	setTrayIcon := func(_ fyne.ThemeVariant) {}

	desk, ok := fyApp.(desktop.App)
	if !ok {
		return setTrayIcon
	}

	setTrayIcon = func(_ fyne.ThemeVariant) {
		desk.SetSystemTrayIcon(resources.AppIconResource())
	}
	setTrayIcon(fyApp.Settings().ThemeVariant())

	items := []*fyne.MenuItem{
		fyne.NewMenuItem("Show", func() {
			appLogger.Debug("system tray show action invoked")
			window.Show()
			window.RequestFocus()
		}),
		fyne.NewMenuItemSeparator(),
	}
	if actions.connect != nil {
		items = append(items, fyne.NewMenuItem("Connect", actions.connect))
	}
	if actions.disconnect != nil {
		items = append(items, fyne.NewMenuItem("Disconnect", actions.disconnect))
	}
	if actions.openLogs != nil {
		items = append(items, fyne.NewMenuItem("Open log folder", actions.openLogs))
	}
	items = append(items, fyne.NewMenuItemSeparator(), fyne.NewMenuItem("Quit", func() {
		appLogger.Debug("system tray quit action invoked")
		if actions.quit != nil {
			actions.quit()
		}
	}))
	desk.SetSystemTrayMenu(fyne.NewMenu(trafficapp.DisplayName, items...))

	return setTrayIcon
}
