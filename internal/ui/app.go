package ui

import (
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
)

var appLogger = slog.With("component", "ui.app")

// Run builds the desktop window and blocks until the app quits.
func Run(dep RuntimeDependencies) error {
	return runWithApp(withDefaultHooks(dep), newFyneApp())
}

func withDefaultHooks(dep RuntimeDependencies) RuntimeDependencies {
	if dep.UIHooks.CurrentWindow == nil {
		dep.UIHooks.CurrentWindow = currentWindow
	}
	if dep.UIHooks.RunOnUI == nil {
		dep.UIHooks.RunOnUI = fyne.Do
	}
	if dep.UIHooks.RunAsync == nil {
		dep.UIHooks.RunAsync = func(fn func()) {
			go fn()
		}
	}
	if dep.UIHooks.ShowErrorDialog == nil {
		dep.UIHooks.ShowErrorDialog = func(err error, window fyne.Window) {
			if window == nil {
				appLogger.Warn("error dialog without window", "error", err)

				return
			}
			dialog.ShowError(err, window)
		}
	}

	return dep
}
