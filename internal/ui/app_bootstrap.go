package ui

import (
	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	trafficapp "github.com/skobkin/trafficview/internal/app"
	"github.com/skobkin/trafficview/internal/connectors"
	"github.com/skobkin/trafficview/internal/render"
	"github.com/skobkin/trafficview/internal/resources"
)

var newFyneApp = func() fyne.App {
	return fyneapp.NewWithID(trafficapp.Name)
}

type mainView struct {
	traffic             *trafficView
	tabs                *container.AppTabs
	connStatusPresenter *connectionStatusPresenter
}

func runWithApp(dep RuntimeDependencies, fyApp fyne.App) error {
	initialVariant := fyApp.Settings().ThemeVariant()
	fyApp.SetIcon(resources.AppIconResource())
	appLogger.Info(
		"starting UI runtime",
		"start_hidden", dep.Launch.StartHidden,
		"connect", connectOnStart(dep),
		"frame_rate", dep.Data.Config.UI.FrameRate,
		"initial_theme", initialVariant,
	)

	window := fyApp.NewWindow(trafficapp.DisplayName)
	window.Resize(fyne.NewSize(560, 620))
	view := buildMainView(dep, window, initialVariant, resolveInitialConnStatus(dep))
	window.SetContent(view.tabs)

	themeRuntime := newThemeRuntime(fyApp, view.connStatusPresenter, view.traffic.light)
	themeRuntime.BindSettings()

	stopNotifications := startNotificationService(dep, fyApp, dep.Launch.StartHidden)
	stopUIListeners := startUIEventListeners(
		dep.Data.Bus,
		func(status connectors.ConnectionStatus) {
			dep.UIHooks.RunOnUI(func() {
				view.connStatusPresenter.Set(status, fyApp.Settings().ThemeVariant())
			})
		},
		func(failure connectors.DecodeFailure) {
			dep.UIHooks.RunOnUI(func() {
				view.traffic.ShowDecodeFailure(failure)
			})
		},
	)
	stopFrames := startFrameLoop(dep.Data.Animator, dep.Data.Config.UI.FrameRate, func(frame render.Frame) {
		dep.UIHooks.RunOnUI(func() {
			view.traffic.ApplyFrame(frame)
		})
	})

	uiRuntime := newUIRuntime(
		fyApp,
		window,
		stopFrames,
		stopUIListeners,
		stopNotifications,
		dep.Actions.OnQuit,
	)
	uiRuntime.BindCloseIntercept()

	setTrayIcon := configureSystemTray(fyApp, window, trayActions{
		connect:    func() { runConnectionAction(dep, "connect", dep.Actions.OnConnect) },
		disconnect: func() { runConnectionAction(dep, "disconnect", dep.Actions.OnDisconnect) },
		openLogs:   openLogDir(dep),
		quit:       uiRuntime.Quit,
	})
	themeRuntime.SetTrayIconSetter(setTrayIcon)
	themeRuntime.Apply(initialVariant)

	if connectOnStart(dep) {
		runConnectionAction(dep, "connect", dep.Actions.OnConnect)
	}

	uiRuntime.Run(dep.Launch.StartHidden)

	return nil
}

func buildMainView(
	dep RuntimeDependencies,
	window fyne.Window,
	initialVariant fyne.ThemeVariant,
	initialStatus connectors.ConnectionStatus,
) *mainView {
	statusLabel := widget.NewLabel("")
	statusLabel.Truncation = fyne.TextTruncateEllipsis
	connectButton := widget.NewButton(connectButtonText, nil)
	presenter := newConnectionStatusPresenter(window, statusLabel, connectButton, initialStatus, initialVariant)
	connectButton.OnTapped = func() {
		toggleConnection(dep, presenter.CurrentStatus())
	}

	statusRow := container.NewBorder(nil, nil, presenter.StatusIcon(), connectButton, statusLabel)
	traffic := newTrafficView(dep.Data.SessionStats, statusRow)
	settingsStatus := widget.NewLabel(trafficapp.ConnectionStatusText(initialStatus))
	settingsStatus.Wrapping = fyne.TextWrapWord

	tabs := container.NewAppTabs(
		container.NewTabItem("Light", traffic.Content()),
		container.NewTabItem("Settings", newSettingsTab(dep, settingsStatus)),
	)
	tabs.OnSelected = func(*container.TabItem) {
		settingsStatus.SetText(trafficapp.ConnectionStatusText(presenter.CurrentStatus()))
	}

	return &mainView{
		traffic:             traffic,
		tabs:                tabs,
		connStatusPresenter: presenter,
	}
}

func connectOnStart(dep RuntimeDependencies) bool {
	return dep.Launch.Connect || dep.Data.Config.Connection.AutoConnect
}

// toggleConnection connects when current is idle and disconnects otherwise.
func toggleConnection(dep RuntimeDependencies, current connectors.ConnectionStatus) {
	if sessionActive(current) {
		runConnectionAction(dep, "disconnect", dep.Actions.OnDisconnect)

		return
	}
	runConnectionAction(dep, "connect", dep.Actions.OnConnect)
}

// runConnectionAction runs off the UI goroutine and reports failures in an
// error dialog.
func runConnectionAction(dep RuntimeDependencies, name string, action func() error) {
	if action == nil {
		appLogger.Warn("connection action is not available", "action", name)

		return
	}

	runAsync := dep.UIHooks.RunAsync
	if runAsync == nil {
		runAsync = func(fn func()) { fn() }
	}
	runAsync(func() {
		appLogger.Debug("running connection action", "action", name)
		if err := action(); err != nil {
			appLogger.Warn("connection action failed", "action", name, "error", err)
			showError(dep, err)
		}
	})
}

func showError(dep RuntimeDependencies, err error) {
	if dep.UIHooks.ShowErrorDialog == nil {
		return
	}
	show := func() {
		var window fyne.Window
		if dep.UIHooks.CurrentWindow != nil {
			window = dep.UIHooks.CurrentWindow()
		}
		dep.UIHooks.ShowErrorDialog(err, window)
	}
	if dep.UIHooks.RunOnUI != nil {
		dep.UIHooks.RunOnUI(show)

		return
	}
	show()
}

func openLogDir(dep RuntimeDependencies) func() {
	if dep.Actions.OpenPath == nil || dep.Data.LogDir == "" {
		return nil
	}

	return func() {
		if err := dep.Actions.OpenPath(dep.Data.LogDir); err != nil {
			appLogger.Warn("open log folder", "path", dep.Data.LogDir, "error", err)
			showError(dep, err)
		}
	}
}

func resolveInitialConnStatus(dep RuntimeDependencies) connectors.ConnectionStatus {
	if dep.Data.CurrentConnStatus != nil {
		if status, ok := dep.Data.CurrentConnStatus(); ok {
			return status
		}
	}

	return trafficapp.ConnectionStatusFromConfig(dep.Data.Config.Connection)
}
