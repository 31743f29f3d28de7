package ui

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// uiRuntime ties the main window to the loops feeding it. Stops run in the
// order given, so the frame loop goes first and no frame lands on a window
// that is being torn down.
type uiRuntime struct {
	fyApp  fyne.App
	window fyne.Window
	stops  []func()
	// hideOnClose keeps the session running in the tray when the window is
	// closed. Without a tray there is no way back, so closing quits.
	hideOnClose bool

	shutdownOnce sync.Once
}

func newUIRuntime(fyApp fyne.App, window fyne.Window, stops ...func()) *uiRuntime {
	return &uiRuntime{
		fyApp:       fyApp,
		window:      window,
		stops:       stops,
		hideOnClose: supportsSystemTray(fyApp),
	}
}

func supportsSystemTray(fyApp fyne.App) bool {
	_, ok := fyApp.(desktop.App)

	return ok
}

func (r *uiRuntime) BindCloseIntercept() {
	if r.window == nil {
		return
	}
	r.window.SetCloseIntercept(func() {
		if !r.hideOnClose {
			appLogger.Debug("main window closed without tray: quitting")
			r.Quit()

			return
		}
		appLogger.Debug("main window closed: light keeps running in tray")
		r.window.Hide()
	})
}

func (r *uiRuntime) Quit() {
	r.shutdownOnce.Do(func() {
		appLogger.Info("quitting UI runtime")
		r.stop()
		if r.fyApp != nil {
			r.fyApp.Quit()
		}
	})
}

func (r *uiRuntime) Run(startHidden bool) {
	if r.window != nil {
		r.window.Show()
		if startHidden && r.hideOnClose {
			appLogger.Info("starting hidden in tray")
			r.window.Hide()
		}
	}
	if r.fyApp != nil {
		r.fyApp.Run()
	}
	appLogger.Info("UI runtime stopped")
	r.shutdownOnce.Do(r.stop)
}

func (r *uiRuntime) stop() {
	for _, stop := range r.stops {
		if stop != nil {
			stop()
		}
	}
}
